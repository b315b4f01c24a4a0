package pake

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Platform identifies a packaging target.
type Platform string

const (
	PlatformMac     Platform = "macos"
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
)

// Installer format selectors for the Windows family. NSIS is the default;
// MSI needs the WiX toolset and is opt-in.
const (
	InstallerNSIS = "nsis"
	InstallerMSI  = "msi"
)

// errInvalidName classifies product-name grammar violations so the CLI
// boundary can exit with the invalid-options status.
var errInvalidName = errors.New("invalid product name")

// BuildOptions is the caller-owned, read-only input to a build.
type BuildOptions struct {
	Name        string // product name, shown to the user and used for output files
	URL         string // the page being packaged
	Icon        string // user icon path, optional
	Width       int
	Height      int
	Resizable   bool
	Fullscreen  bool
	Transparent bool
	Identifier  string // bundle identifier, e.g. com.pake.myapp
	Target      string // explicit target platform, empty = host
	Installer   string // "", nsis, msi (Windows family only)
	Archive     string // portable archive format: gzip, xz, zstd, zip
	FetchIcon   bool   // discover and download the page favicon when no icon given
	DebugBuild  bool
}

// Linux package names end up in dpkg/AppImage metadata, which rejects
// anything outside this grammar.
var linuxNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateName enforces the per-platform product name grammar. A violation
// is fatal to the build; nothing may be written or executed first.
func ValidateName(name string, target Platform) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: must not be empty", errInvalidName)
	}
	if target == PlatformLinux && !linuxNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: Linux packages require lowercase letters, digits and dashes (e.g. \"my-app\")", errInvalidName, name)
	}
	return nil
}

// BuildContext carries the per-build mode decisions that the resolver and
// builder must agree on. It is created once by the factory and passed
// explicitly; there is no process-wide mode state to leak between builds.
type BuildContext struct {
	Target       Platform
	CrossWindows bool // targeting Windows from a non-Windows host
	WiXAvailable bool // set during prepare; gates the msi installer target
	ForceMSI     bool // explicit override of the non-ASCII name safeguard
}
