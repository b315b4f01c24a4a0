package pake

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PlatformBuilder is the two-operation contract every platform variant
// implements. Prepare verifies (and, with consent, remedies) the required
// toolchains; Build drives resolve → external build → artifact discovery.
type PlatformBuilder interface {
	Prepare(ctx context.Context) error
	Build(ctx context.Context, rawURL string, opts BuildOptions) (*Artifact, error)
}

// NewBuilder selects the builder variant for an explicit or inferred
// target. "windows" on a non-Windows host selects the cross-compilation
// variant. There is no silent default: anything unsupported errors out.
func NewBuilder(cfg *Config, target string) (PlatformBuilder, *BuildContext, error) {
	t := target
	if t == "" {
		switch hostOS {
		case "darwin":
			t = string(PlatformMac)
		case "windows":
			t = string(PlatformWindows)
		case "linux":
			t = string(PlatformLinux)
		default:
			return nil, nil, fmt.Errorf("unsupported host platform %q; pass --target explicitly", hostOS)
		}
	}

	bctx := &BuildContext{
		ForceMSI: cfg.Values["PAKE_FORCE_MSI"] == "1",
	}
	base := baseBuilder{cfg: cfg, bctx: bctx, buildRoot: BuildRoot}

	switch t {
	case string(PlatformMac), "darwin", "mac":
		if hostOS != "darwin" {
			return nil, nil, fmt.Errorf("macOS apps can only be built on a macOS host")
		}
		bctx.Target = PlatformMac
		return &macBuilder{base}, bctx, nil
	case string(PlatformLinux):
		if hostOS != "linux" {
			return nil, nil, fmt.Errorf("Linux packages can only be built on a Linux host")
		}
		bctx.Target = PlatformLinux
		return &linuxBuilder{base}, bctx, nil
	case string(PlatformWindows), "win":
		bctx.Target = PlatformWindows
		if hostOS == "windows" {
			return &windowsNativeBuilder{base}, bctx, nil
		}
		bctx.CrossWindows = true
		return &windowsCrossBuilder{base}, bctx, nil
	default:
		return nil, nil, fmt.Errorf("unsupported target platform %q (want macos, windows or linux)", target)
	}
}

// baseBuilder holds what every variant shares: config, the build context it
// owns for the lifetime of one build, and the build root. The run and probe
// hooks replace the external command and the toolchain probes when set;
// they exist so the build state machine can be driven without a toolchain.
type baseBuilder struct {
	cfg       *Config
	bctx      *BuildContext
	buildRoot string
	run       func(ctx context.Context, args []string) error
	probe     func(ctx context.Context, bctx *BuildContext) *ToolchainStatus
}

func (b *baseBuilder) probeToolchains(ctx context.Context) *ToolchainStatus {
	if b.probe != nil {
		return b.probe(ctx, b.bctx)
	}
	return ProbeToolchains(ctx, b.bctx)
}

func (b *baseBuilder) checkBuildRoot() error {
	info, err := os.Stat(b.buildRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("build root %s not found; set PAKE_BUILD_ROOT to the app template directory", b.buildRoot)
	}
	return nil
}

// runBuildCommand executes the external build with the build root as
// working directory, teeing all output into the build log. Exit code 0 is
// the only success signal the orchestrator trusts.
func (b *baseBuilder) runBuildCommand(ctx context.Context, args []string) error {
	if b.run != nil {
		return b.run(ctx, args)
	}
	if err := os.MkdirAll(LogDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.Create(BuildLog)
	if err != nil {
		return fmt.Errorf("failed to create build log: %w", err)
	}
	defer logFile.Close()

	colArrow.Print("-> ")
	colSuccess.Printf("Running: %s\n", strings.Join(args, " "))

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = b.buildRoot
	cmd.Env = append(os.Environ(), "CARGO_TERM_COLOR=always")

	e := &Executor{
		Context: ctx,
		Stdout:  io.MultiWriter(os.Stdout, logFile),
		Stderr:  io.MultiWriter(os.Stderr, logFile),
	}
	if err := e.Run(cmd); err != nil {
		return fmt.Errorf("build command failed (see %s): %w", BuildLog, err)
	}
	return nil
}

// resolve runs the config resolver for this build. Errors propagate to the
// CLI boundary, which maps them onto the exit tiers.
func (b *baseBuilder) resolve(rawURL string, opts BuildOptions) (*Descriptor, error) {
	res := NewResolver(b.buildRoot, b.bctx)
	return res.Resolve(rawURL, opts, loadBaseDescriptor(b.buildRoot))
}

// maybeFetchIcon resolves a remote favicon into a local file when the user
// asked for it and gave no usable icon. Best-effort: any failure leaves
// opts.Icon empty and the default icon takes over downstream.
func (b *baseBuilder) maybeFetchIcon(ctx context.Context, opts *BuildOptions) {
	if !opts.FetchIcon || opts.Icon != "" {
		return
	}
	meta, err := DiscoverSiteMeta(ctx, opts.URL)
	if err != nil {
		colArrow.Print("-> ")
		colWarn.Printf("Could not discover site icon: %v\n", err)
		return
	}
	if meta.Title != "" {
		debugf("Site title: %s\n", meta.Title)
	}
	if meta.IconURL == "" {
		colArrow.Print("-> ")
		colWarn.Println("Site declares no icon; using the default icon.")
		return
	}
	dest := filepath.Join(IconCache, iconSlug(opts.Name)+filepath.Ext(meta.IconURL))
	if err := downloadFile(ctx, meta.IconURL, dest); err != nil {
		colArrow.Print("-> ")
		colWarn.Printf("Icon download failed: %v\n", err)
		return
	}
	opts.Icon = dest
}

func (b *baseBuilder) reportArtifact(a *Artifact) {
	colArrow.Print("-> ")
	colSuccess.Printf("Build complete: %s\n", a.Path)
	if a.B3Sum != "" {
		colArrow.Print("-> ")
		colInfo.Printf("blake3: %s\n", a.B3Sum)
	}
}

// tauriBuildArgs is the native build invocation shared by the mac, linux
// and windows-native variants.
func tauriBuildArgs(opts BuildOptions) []string {
	args := []string{"cargo", "tauri", "build"}
	if opts.DebugBuild {
		args = append(args, "--debug")
	}
	return args
}

// warnRecommended prints the non-blocking notice for a recommended tool.
func warnRecommended(tool, hint string) {
	colArrow.Print("-> ")
	colWarn.Printf("%s not found (recommended). %s\n", tool, hint)
}
