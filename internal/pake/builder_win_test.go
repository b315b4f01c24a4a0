package pake

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNativeTestBuilder(t *testing.T) *windowsNativeBuilder {
	t.Helper()
	b := &windowsNativeBuilder{baseBuilder{
		cfg:       &Config{Values: map[string]string{}},
		bctx:      &BuildContext{Target: PlatformWindows},
		buildRoot: t.TempDir(),
	}}
	b.probe = func(ctx context.Context, bctx *BuildContext) *ToolchainStatus {
		return &ToolchainStatus{Rust: true, CTools: true, WiX: true}
	}
	return b
}

func newCrossTestBuilder(t *testing.T, st ToolchainStatus) *windowsCrossBuilder {
	t.Helper()
	b := &windowsCrossBuilder{baseBuilder{
		cfg:       &Config{Values: map[string]string{}},
		bctx:      &BuildContext{Target: PlatformWindows, CrossWindows: true},
		buildRoot: t.TempDir(),
	}}
	b.probe = func(ctx context.Context, bctx *BuildContext) *ToolchainStatus {
		return &st
	}
	return b
}

func TestWindowsNativeMSIFallsBackOnceToNSIS(t *testing.T) {
	b := newNativeTestBuilder(t)
	t.Chdir(t.TempDir())

	var builds int
	b.run = func(ctx context.Context, args []string) error {
		builds++
		if builds == 2 {
			// Only the rebuild produces an installer.
			touch(t, filepath.Join(b.buildRoot, "target", "release", "bundle", "nsis", "myapp_1.0.0_x64-setup.exe"))
		}
		return nil
	}

	opts := baseOpts()
	opts.Installer = InstallerMSI
	a, err := b.Build(context.Background(), opts.URL, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, builds, "the msi failure must trigger exactly one rebuild")
	assert.Equal(t, InstallerNSIS, a.Kind)
	assert.Equal(t, "myapp-setup.exe", filepath.Base(a.Path))
}

func TestWindowsNativeMSIFallbackFailureListsBothDirs(t *testing.T) {
	b := newNativeTestBuilder(t)

	var builds int
	b.run = func(ctx context.Context, args []string) error {
		builds++
		return nil // exits 0 but leaves no installer behind, twice
	}

	opts := baseOpts()
	opts.Installer = InstallerMSI
	_, err := b.Build(context.Background(), opts.URL, opts)
	require.Error(t, err)

	assert.Equal(t, 2, builds, "a second failure must be final, no third attempt")
	bundle := filepath.Join(b.buildRoot, "target", "release", "bundle")
	assert.Contains(t, err.Error(), filepath.Join(bundle, "msi"))
	assert.Contains(t, err.Error(), filepath.Join(bundle, "nsis"))
}

func TestWindowsNativeNSISFailureDoesNotRetry(t *testing.T) {
	b := newNativeTestBuilder(t)

	var builds int
	b.run = func(ctx context.Context, args []string) error {
		builds++
		return nil
	}

	_, err := b.Build(context.Background(), "https://example.com", baseOpts())
	require.Error(t, err)
	assert.Equal(t, 1, builds, "the fallback only exists for the msi format")
}

func TestWindowsCrossMissingXwinFailsBeforeBuild(t *testing.T) {
	b := newCrossTestBuilder(t, ToolchainStatus{Rust: true, WindowsTarget: true})

	var builds int
	b.run = func(ctx context.Context, args []string) error {
		builds++
		return nil
	}

	_, err := b.Build(context.Background(), "https://example.com", baseOpts())
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingToolchain)
	assert.Contains(t, err.Error(), "cargo install cargo-xwin")
	assert.Zero(t, builds, "the external command must never start without the cross toolchain")
}

func TestWindowsCrossMissingTargetFailsBeforeBuild(t *testing.T) {
	b := newCrossTestBuilder(t, ToolchainStatus{Rust: true, Xwin: true})

	var builds int
	b.run = func(ctx context.Context, args []string) error {
		builds++
		return nil
	}

	_, err := b.Build(context.Background(), "https://example.com", baseOpts())
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingToolchain)
	assert.Contains(t, err.Error(), "rustup target add "+windowsTriple)
	assert.Zero(t, builds)
}

func TestWindowsCrossBuildProducesBareExe(t *testing.T) {
	b := newCrossTestBuilder(t, ToolchainStatus{Rust: true, Xwin: true, WindowsTarget: true})
	t.Chdir(t.TempDir())

	var gotArgs []string
	b.run = func(ctx context.Context, args []string) error {
		gotArgs = args
		touch(t, filepath.Join(b.buildRoot, "target", windowsTriple, "release", "myapp.exe"))
		return nil
	}

	a, err := b.Build(context.Background(), "https://example.com", baseOpts())
	require.NoError(t, err)

	assert.Equal(t, []string{"cargo", "xwin", "build", "--release", "--target", windowsTriple}, gotArgs)
	assert.Equal(t, "exe", a.Kind)
	assert.Equal(t, "myapp.exe", filepath.Base(a.Path))
}
