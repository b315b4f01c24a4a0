package pake

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
)

// InstallRustToolchain performs the one-shot rustup install. It is the only
// remedy this tool automates: everything else (WiX, cargo-xwin) gets
// guidance instead. The install mutates the host outside this process, so
// failures are reported verbatim and never retried.
func InstallRustToolchain(ctx context.Context) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "winget", "install", "--id", "Rustlang.Rustup", "-e",
			"--accept-source-agreements", "--accept-package-agreements")
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", "curl https://sh.rustup.rs -sSf | sh -s -- -y")
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Installing Rust toolchain"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start rustup install: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(120 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			_ = bar.Finish()
			if err != nil {
				// The installer's own output is the diagnostic; pass it on untouched.
				fmt.Fprint(os.Stderr, out.String())
				return fmt.Errorf("rustup install failed: %w", err)
			}
			colArrow.Print("-> ")
			colSuccess.Println("Rust toolchain installed. You may need to restart your shell for PATH changes.")
			return nil
		case <-ticker.C:
			_ = bar.Add(1)
		case <-ctx.Done():
			_ = bar.Finish()
			return fmt.Errorf("rustup install aborted: %v", ctx.Err())
		}
	}
}

// ensureRust is the shared required-toolchain gate used by every builder's
// Prepare. Missing + declined or failed install terminates the process; no
// build can proceed without the compiler.
func ensureRust(ctx context.Context, st *ToolchainStatus) {
	if st.Rust {
		return
	}
	colArrow.Print("-> ")
	colWarn.Println("Rust toolchain (rustc, cargo) not found.")
	if !askForConfirmation(colArrow, "Install it now via rustup?") {
		fatal(exitMissingToolchain, "Rust toolchain is required. Install it from https://rustup.rs and retry.")
	}
	if err := InstallRustToolchain(ctx); err != nil {
		fatal(exitInstallFailed, "%v", err)
	}
}
