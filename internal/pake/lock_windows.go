//go:build windows

package pake

// Windows has no flock; the icon cache is per-user and the CLI runs one
// build at a time, so the lock degrades to a plain call.
func withDownloadLock(base string, fn func() error) error {
	return fn()
}
