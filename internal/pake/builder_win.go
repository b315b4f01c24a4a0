package pake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// windowsNativeBuilder builds on a Windows host, producing an installer.
// NSIS is the default format; MSI is opt-in and carries the two observable
// downgrades handled by the resolver plus the bounded fallback below.
type windowsNativeBuilder struct {
	baseBuilder
}

func (b *windowsNativeBuilder) Prepare(ctx context.Context) error {
	st := b.probeToolchains(ctx)
	ensureRust(ctx, st)
	if !st.CTools {
		warnRecommended("MSVC build tools", "Install the Visual Studio Build Tools with the C++ workload.")
	}
	b.bctx.WiXAvailable = st.WiX
	if !st.WiX {
		warnRecommended("WiX toolset", "msi installers are unavailable without it; nsis remains the default.")
	}
	return b.checkBuildRoot()
}

func (b *windowsNativeBuilder) Build(ctx context.Context, rawURL string, opts BuildOptions) (*Artifact, error) {
	b.maybeFetchIcon(ctx, &opts)

	// Re-probe per build: WiX may have appeared (or gone) since Prepare.
	b.bctx.WiXAvailable = b.probeToolchains(ctx).WiX

	d, err := b.resolve(rawURL, opts)
	if err != nil {
		return nil, err
	}
	chosen := InstallerNSIS
	if len(d.Tauri.Bundle.Targets) > 0 {
		chosen = d.Tauri.Bundle.Targets[0]
	}

	a, firstErr := b.buildOnce(ctx, opts, chosen)
	if firstErr == nil {
		b.reportArtifact(a)
		return a, nil
	}
	if chosen != InstallerMSI {
		return nil, firstErr
	}

	// Bounded recovery: exactly one automatic rebuild with the lightweight
	// format, from a freshly resolved descriptor. A second failure is final.
	colArrow.Print("-> ")
	colWarn.Printf("msi build produced no installer (%v); retrying once with nsis.\n", firstErr)

	fallbackOpts := opts
	fallbackOpts.Installer = InstallerNSIS
	if _, err := b.resolve(rawURL, fallbackOpts); err != nil {
		return nil, err
	}

	a, secondErr := b.buildOnce(ctx, fallbackOpts, InstallerNSIS)
	if secondErr != nil {
		dirs := append(searchedDirs(firstErr), searchedDirs(secondErr)...)
		if len(dirs) > 0 {
			return nil, fmt.Errorf("build failed for both msi and nsis; searched:\n  %s", strings.Join(dirs, "\n  "))
		}
		return nil, fmt.Errorf("build failed for both msi and nsis: %v; %v", firstErr, secondErr)
	}
	b.reportArtifact(a)
	return a, nil
}

func (b *windowsNativeBuilder) buildOnce(ctx context.Context, opts BuildOptions, installer string) (*Artifact, error) {
	if err := b.runBuildCommand(ctx, tauriBuildArgs(opts)); err != nil {
		return nil, err
	}
	var patterns []string
	ext := ".exe"
	if installer == InstallerMSI {
		patterns = msiCandidates(b.buildRoot)
		ext = ".msi"
	} else {
		patterns = nsisCandidates(b.buildRoot)
	}
	src, err := locateArtifact(patterns)
	if err != nil {
		return nil, err
	}
	return copyOutArtifact(src, opts.Name+"-setup"+ext, installer)
}

// windowsCrossBuilder targets Windows from a macOS or Linux host. The
// installer generators cannot run off-platform, so the build stops at a
// bare executable.
type windowsCrossBuilder struct {
	baseBuilder
}

func (b *windowsCrossBuilder) Prepare(ctx context.Context) error {
	st := b.probeToolchains(ctx)
	ensureRust(ctx, st)
	if err := b.requireCrossTools(st); err != nil {
		return err
	}
	return b.checkBuildRoot()
}

// requireCrossTools is the hard gate for the secondary cross toolchain.
// Unlike a missing installer generator this cannot degrade: without
// cargo-xwin and the msvc target no Windows binary can be produced at all.
func (b *windowsCrossBuilder) requireCrossTools(st *ToolchainStatus) error {
	if !st.Xwin {
		return fmt.Errorf("%w: cargo-xwin is required to cross-compile for Windows. Install it with: cargo install cargo-xwin", errMissingToolchain)
	}
	if !st.WindowsTarget {
		return fmt.Errorf("%w: the %s rust target is required. Install it with: rustup target add %s", errMissingToolchain, windowsTriple, windowsTriple)
	}
	return nil
}

func (b *windowsCrossBuilder) Build(ctx context.Context, rawURL string, opts BuildOptions) (*Artifact, error) {
	// Verify again right before the external command; the check in Prepare
	// may be minutes stale.
	if err := b.requireCrossTools(b.probeToolchains(ctx)); err != nil {
		return nil, err
	}

	b.maybeFetchIcon(ctx, &opts)
	if _, err := b.resolve(rawURL, opts); err != nil {
		return nil, err
	}

	args := []string{"cargo", "xwin", "build", "--release", "--target", windowsTriple}
	if err := b.runBuildCommand(ctx, args); err != nil {
		return nil, err
	}

	// The skipped installer stage would normally stage the icons next to
	// the binary; do it here instead. Optional: failures only warn.
	b.stageIconsIntoOutput(opts)

	src, err := locateArtifact(crossExeCandidates(b.buildRoot, iconSlug(opts.Name)))
	if err != nil {
		return nil, err
	}
	a, err := copyOutArtifact(src, opts.Name+".exe", "exe")
	if err != nil {
		return nil, err
	}
	b.reportArtifact(a)
	return a, nil
}

func (b *windowsCrossBuilder) stageIconsIntoOutput(opts BuildOptions) {
	outDir := filepath.Join(b.buildRoot, "target", windowsTriple, "release", "png")
	srcDir := filepath.Join(b.buildRoot, "png")
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		colArrow.Print("-> ")
		colWarn.Printf("No icons to stage from %s: %v\n", srcDir, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(srcDir, e.Name())
		if err := copyFile(src, filepath.Join(outDir, e.Name())); err != nil {
			colArrow.Print("-> ")
			colWarn.Printf("Could not stage icon %s: %v\n", e.Name(), err)
		}
	}
}
