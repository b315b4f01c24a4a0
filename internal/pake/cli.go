package pake

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// exitCodeFor maps error classes onto the process exit tiers.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, errInvalidName):
		return exitInvalidOptions
	case errors.Is(err, errMissingToolchain):
		return exitMissingToolchain
	default:
		return exitFailure
	}
}

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: pake <command> [arguments]")
	colSuccess.Println("Run 'pake <command> -h' for command options")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"build, b", "--name <name> --url <url> [options]", "Package a web page into a desktop app"},
		{"check", "[--target <platform>]", "Probe for the required build toolchains"},
		{"publish", "<artifact>", "Upload a built artifact to the configured R2 bucket"},
		{"log", "", "View the last build log"},
		{"version, --version", "", "Version information"},
	}
	for _, c := range cmds {
		fmt.Printf("  %-14s %-42s %s\n", c.Cmd, c.Args, c.Desc)
	}
}

// Main is the CLI entry point.
func Main() {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigs:
				if isCriticalAtomic.Load() == 1 {
					// Descriptor persistence or artifact copy in flight:
					// block the first signal, force exit on the second.
					colArrow.Print("\n-> ")
					colError.Printf("Critical step in progress. Press Ctrl+C AGAIN to force exit NOW.\n")
					select {
					case <-sigs:
						os.Exit(130)
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					colArrow.Print("\n-> ")
					color.Danger.Printf("Received %v. Cancelling build gracefully\n", sig)
					cancel()
					time.Sleep(100 * time.Millisecond)
					select {
					case <-sigs:
						os.Exit(130)
					case <-time.After(2 * time.Second):
						os.Exit(130)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	cfg, err := loadConfig(defaultConfigPath())
	if err != nil {
		colArrow.Print("-> ")
		colWarn.Printf("Config file unreadable: %v\n", err)
	}
	initConfig(cfg)

	switch os.Args[1] {
	case "version", "--version":
		fmt.Printf("pake %s (%s)\n", version, buildDate)
	case "build", "b":
		if err := handleBuildCommand(ctx, os.Args[2:], cfg); err != nil {
			colArrow.Print("-> ")
			colError.Printf("Error: %v\n", err)
			os.Exit(exitCodeFor(err))
		}
	case "check":
		if err := handleCheckCommand(ctx, os.Args[2:], cfg); err != nil {
			colArrow.Print("-> ")
			colError.Printf("Error: %v\n", err)
			os.Exit(exitFailure)
		}
	case "publish":
		if err := handlePublishCommand(ctx, os.Args[2:], cfg); err != nil {
			colArrow.Print("-> ")
			colError.Printf("Error: %v\n", err)
			os.Exit(exitFailure)
		}
	case "log":
		if err := handleLogCommand(); err != nil {
			colArrow.Print("-> ")
			colError.Printf("Error: %v\n", err)
			os.Exit(exitFailure)
		}
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Println("Unknown command:", os.Args[1])
		printHelp()
		os.Exit(exitInvalidOptions)
	}
}

// handleBuildCommand parses build flags and drives one full build.
func handleBuildCommand(ctx context.Context, args []string, cfg *Config) error {
	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	name := buildCmd.String("name", "", "Product name (required)")
	rawURL := buildCmd.String("url", "", "Page URL to package (required)")
	icon := buildCmd.String("icon", "", "Icon file (.icns on macOS, .ico on Windows, .png on Linux)")
	width := buildCmd.Int("width", 1200, "Window width")
	height := buildCmd.Int("height", 780, "Window height")
	resizable := buildCmd.Bool("resizable", true, "Window is resizable")
	fullscreen := buildCmd.Bool("fullscreen", false, "Start fullscreen")
	transparent := buildCmd.Bool("transparent", false, "Transparent titlebar (macOS)")
	identifier := buildCmd.String("identifier", "", "Bundle identifier (default com.pake.<name>)")
	target := buildCmd.String("target", "", "Target platform: macos, windows, linux (default: host)")
	installer := buildCmd.String("installer", "", "Windows installer format: nsis (default) or msi")
	archive := buildCmd.String("archive", "", "Also produce a portable archive: gzip, xz, zstd or zip")
	fetchIcon := buildCmd.Bool("fetch-icon", false, "Fetch the site favicon when no icon is given")
	publish := buildCmd.Bool("publish", false, "Publish the artifact to the configured R2 bucket")
	debugBuild := buildCmd.Bool("debug", false, "Debug build of the app binary")

	if err := buildCmd.Parse(args); err != nil {
		return err
	}

	if *name == "" || *rawURL == "" {
		buildCmd.PrintDefaults()
		fatal(exitInvalidOptions, "--name and --url are required.")
	}
	switch *installer {
	case "", InstallerNSIS, InstallerMSI:
	default:
		fatal(exitInvalidOptions, "unknown installer format %q (want nsis or msi)", *installer)
	}

	opts := BuildOptions{
		Name:        *name,
		URL:         *rawURL,
		Icon:        *icon,
		Width:       *width,
		Height:      *height,
		Resizable:   *resizable,
		Fullscreen:  *fullscreen,
		Transparent: *transparent,
		Identifier:  *identifier,
		Target:      *target,
		Installer:   *installer,
		Archive:     *archive,
		FetchIcon:   *fetchIcon,
		DebugBuild:  *debugBuild,
	}

	builder, bctx, err := NewBuilder(cfg, opts.Target)
	if err != nil {
		return err
	}

	// Name grammar is checked before anything runs or gets written; the
	// resolver checks again before persisting.
	if err := ValidateName(opts.Name, bctx.Target); err != nil {
		fatal(exitInvalidOptions, "%v", err)
	}

	if err := builder.Prepare(ctx); err != nil {
		return err
	}
	artifact, err := builder.Build(ctx, opts.URL, opts)
	if err != nil {
		return err
	}

	if opts.Archive != "" {
		files := append([]string{artifact.Path}, portableExtras(BuildRoot, bctx)...)
		archivePath, err := CreatePortableArchive(opts.Archive, opts.Name, files)
		if err != nil {
			colArrow.Print("-> ")
			colWarn.Printf("Portable archive failed: %v\n", err)
		} else {
			colArrow.Print("-> ")
			colSuccess.Printf("Portable archive: %s\n", archivePath)
		}
	}

	if *publish {
		if err := PublishArtifact(ctx, cfg, opts.Name, bctx.Target, artifact.Path); err != nil {
			return err
		}
	}
	return nil
}

// handleCheckCommand prints the toolchain status table without touching
// anything.
func handleCheckCommand(ctx context.Context, args []string, cfg *Config) error {
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	target := checkCmd.String("target", "", "Target platform to check for (default: host)")
	if err := checkCmd.Parse(args); err != nil {
		return err
	}

	_, bctx, err := NewBuilder(cfg, *target)
	if err != nil {
		return err
	}
	st := ProbeToolchains(ctx, bctx)

	report := func(name string, ok bool, note string) {
		colArrow.Print("-> ")
		if ok {
			colSuccess.Printf("%-28s found\n", name)
		} else {
			colWarn.Printf("%-28s missing  %s\n", name, note)
		}
	}
	report("Rust toolchain (rustc,cargo)", st.Rust, "https://rustup.rs")
	report("C/C++ build tools", st.CTools, "")
	if bctx.Target == PlatformWindows {
		report("WiX toolset (msi)", st.WiX, "nsis remains available")
		if bctx.CrossWindows {
			report("cargo-xwin", st.Xwin, "cargo install cargo-xwin")
			report(windowsTriple+" target", st.WindowsTarget, "rustup target add "+windowsTriple)
		}
	}
	return nil
}

func handlePublishCommand(ctx context.Context, args []string, cfg *Config) error {
	publishCmd := flag.NewFlagSet("publish", flag.ExitOnError)
	name := publishCmd.String("name", "", "Product name for the index entry")
	target := publishCmd.String("target", "", "Platform for the index entry (default: host)")
	if err := publishCmd.Parse(args); err != nil {
		return err
	}
	if publishCmd.NArg() < 1 {
		return fmt.Errorf("usage: pake publish [--name <name>] [--target <platform>] <artifact>")
	}
	artifact := publishCmd.Arg(0)
	if _, err := os.Stat(artifact); err != nil {
		return fmt.Errorf("artifact not found: %s", artifact)
	}

	_, bctx, err := NewBuilder(cfg, *target)
	if err != nil {
		return err
	}
	entryName := *name
	if entryName == "" {
		base := filepath.Base(artifact)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		entryName = strings.TrimSuffix(base, "-setup")
	}
	return PublishArtifact(ctx, cfg, entryName, bctx.Target, artifact)
}

func handleLogCommand() error {
	data, err := os.ReadFile(BuildLog)
	if err != nil {
		return fmt.Errorf("no build log at %s: %w", BuildLog, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return RunPager("Build Log", lines)
}
