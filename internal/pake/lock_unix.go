//go:build unix

package pake

import (
	"os"

	"golang.org/x/sys/unix"
)

// withDownloadLock holds an exclusive flock on <base>.lock while fn runs.
func withDownloadLock(base string, fn func() error) error {
	lockPath := base + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	defer os.Remove(lockPath)
	return fn()
}
