package pake

import (
	"embed"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/gookit/color"
)

// isCriticalAtomic is 1 while a non-interruptible step runs (descriptor
// persistence, artifact copy-out). The signal handler defers the first
// Ctrl+C during that window.
var isCriticalAtomic atomic.Int32

// Global variables
var (
	BuildRoot  string // the src-tauri project driven by the external toolchain
	CacheDir   string
	IconCache  string
	LogDir     string
	BuildLog   string
	Debug      bool
	ConfigFile string
	hostOS     = runtime.GOOS
	version    = "dev"     // overridden at build time
	buildDate  = "unknown" // overridden at build time
	//go:embed assets/icon.png assets/icon.ico assets/icon.icns
	embeddedIcons embed.FS
)

// Process exit codes. Fatal tiers are distinct so wrappers and CI can tell
// user-input failures from environment failures apart.
const (
	exitFailure          = 1
	exitInvalidOptions   = 2
	exitMissingToolchain = 3
	exitInstallFailed    = 4
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)

// fatal prints a final error line and terminates the process with the given
// exit code. Only the CLI-facing paths call this; library-level code returns
// errors.
func fatal(code int, format string, a ...any) {
	colArrow.Print("-> ")
	colError.Printf(format+"\n", a...)
	os.Exit(code)
}
