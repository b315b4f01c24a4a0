package pake

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// errMissingToolchain classifies required-tool absence so the CLI boundary
// can exit with the missing-toolchain status.
var errMissingToolchain = errors.New("required toolchain missing")

// ToolchainStatus is the result of one round of probes. It is recomputed
// fresh on every Prepare call; the environment can change between builds
// (the user may install a tool mid-session).
type ToolchainStatus struct {
	Rust          bool // rustc + cargo
	CTools        bool // platform C/C++ build tools
	WiX           bool // candle.exe + light.exe (msi generator, Windows only)
	Xwin          bool // cargo-xwin cross-compilation helper
	WindowsTarget bool // x86_64-pc-windows-msvc rust target installed
}

const windowsTriple = "x86_64-pc-windows-msvc"

// ProbeToolchains runs every probe relevant to the build context. Probes are
// read-only: they resolve executables and spawn at most version/list
// queries, never anything that mutates state.
func ProbeToolchains(ctx context.Context, bctx *BuildContext) *ToolchainStatus {
	st := &ToolchainStatus{
		Rust:   hasRust(),
		CTools: hasCTools(),
	}
	if bctx.Target == PlatformWindows {
		st.WiX = hasWiX()
		if bctx.CrossWindows {
			st.Xwin = hasXwin()
			st.WindowsTarget = hasWindowsTarget(ctx)
		}
	}
	return st
}

// lookupTool reports whether a tool resolves on PATH or sits in one of the
// given well-known directories.
func lookupTool(name string, wellKnown ...string) bool {
	if _, err := exec.LookPath(name); err == nil {
		return true
	}
	for _, dir := range wellKnown {
		p := filepath.Join(dir, name)
		if runtime.GOOS == "windows" && filepath.Ext(p) == "" {
			p += ".exe"
		}
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

func cargoBinDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cargo", "bin")
}

func hasRust() bool {
	extra := []string{cargoBinDir(), "/usr/local/bin", "/opt/homebrew/bin"}
	return lookupTool("rustc", extra...) && lookupTool("cargo", extra...)
}

func hasCTools() bool {
	switch runtime.GOOS {
	case "darwin":
		// xcode-select exits non-zero when no developer dir is configured.
		cmd := exec.Command("xcode-select", "-p")
		cmd.Stdout = nil
		cmd.Stderr = nil
		return cmd.Run() == nil
	case "windows":
		return lookupTool("cl",
			`C:\Program Files\Microsoft Visual Studio\2022\BuildTools\VC\Tools\MSVC`,
			`C:\Program Files (x86)\Microsoft Visual Studio\2019\BuildTools\VC\Tools\MSVC`,
		)
	default:
		return lookupTool("cc") || lookupTool("gcc")
	}
}

// hasWiX probes for the WiX toolset. It is meaningful only on a Windows
// host: probed from anywhere else it answers false immediately, without
// spawning anything.
func hasWiX() bool {
	if runtime.GOOS != "windows" {
		return false
	}
	wellKnown := []string{
		`C:\Program Files (x86)\WiX Toolset v3.11\bin`,
		`C:\Program Files (x86)\WiX Toolset v3.14\bin`,
	}
	return lookupTool("candle", wellKnown...) && lookupTool("light", wellKnown...)
}

func hasXwin() bool {
	return lookupTool("cargo-xwin", cargoBinDir())
}

// hasWindowsTarget asks rustup whether the msvc target is installed. rustup
// absent counts as target absent.
func hasWindowsTarget(ctx context.Context) bool {
	if !lookupTool("rustup", cargoBinDir()) {
		return false
	}
	cmd := exec.CommandContext(ctx, "rustup", "target", "list", "--installed")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return false
	}
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.TrimSpace(line) == windowsTriple {
			return true
		}
	}
	return false
}
