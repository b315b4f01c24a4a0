package pake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testResolver returns a resolver over a temp build root that records its
// warnings instead of printing them.
func testResolver(t *testing.T, bctx *BuildContext) (*Resolver, *[]string) {
	t.Helper()
	var warnings []string
	r := &Resolver{
		BuildRoot: t.TempDir(),
		Ctx:       bctx,
		Warn: func(format string, a ...any) {
			warnings = append(warnings, fmt.Sprintf(format, a...))
		},
	}
	return r, &warnings
}

func baseOpts() BuildOptions {
	return BuildOptions{
		Name:      "myapp",
		URL:       "https://example.com",
		Width:     1200,
		Height:    780,
		Resizable: true,
	}
}

func TestResolveRejectsBadNameBeforeWriting(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformLinux})
	opts := baseOpts()
	opts.Name = "My App"

	_, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.Error(t, err)

	// Nothing may have been written before the grammar check fired.
	_, statErr := os.Stat(mainConfPath(r.BuildRoot))
	assert.True(t, os.IsNotExist(statErr))
	entries, _ := os.ReadDir(r.BuildRoot)
	assert.Empty(t, entries)
}

func TestResolveRejectsUnknownInstaller(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformWindows, WiXAvailable: true})
	opts := baseOpts()
	opts.Installer = "none"

	_, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown installer format")

	// Rejected before anything touches the build root.
	entries, _ := os.ReadDir(r.BuildRoot)
	assert.Empty(t, entries)
}

func TestResolveMergesGeometry(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformLinux})
	opts := baseOpts()
	opts.Fullscreen = true

	d, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)
	require.Len(t, d.Tauri.Windows, 1)
	w := d.Tauri.Windows[0]
	assert.Equal(t, "https://example.com", w.URL)
	assert.Equal(t, float64(1200), w.Width)
	assert.Equal(t, float64(780), w.Height)
	assert.True(t, w.Resizable)
	assert.True(t, w.Fullscreen)
	assert.Equal(t, "myapp", d.Package.ProductName)
	assert.Equal(t, "com.pake.myapp", d.Tauri.Bundle.Identifier)
}

func TestResolveMissingIconFallsBackToDefault(t *testing.T) {
	r, warnings := testResolver(t, &BuildContext{Target: PlatformLinux})
	opts := baseOpts()
	opts.Icon = filepath.Join(t.TempDir(), "nope.png")

	d, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)

	// Default icon referenced and materialized, with a recorded warning.
	// Never a silent switch to "no icon".
	require.Equal(t, []string{filepath.Join("png", "myapp_512.png")}, d.Tauri.Bundle.Icon)
	_, statErr := os.Stat(filepath.Join(r.BuildRoot, "png", "myapp_512.png"))
	assert.NoError(t, statErr)
	require.NotEmpty(t, *warnings)
	assert.Contains(t, (*warnings)[0], "not found")
}

func TestResolveWrongIconFormatFallsBack(t *testing.T) {
	r, warnings := testResolver(t, &BuildContext{Target: PlatformMac})
	iconPath := filepath.Join(t.TempDir(), "icon.png")
	require.NoError(t, os.WriteFile(iconPath, []byte("png"), 0o644))
	opts := baseOpts()
	opts.Name = "MyApp"
	opts.Icon = iconPath

	d, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("icons", "myapp.icns")}, d.Tauri.Bundle.Icon)
	require.NotEmpty(t, *warnings)
	assert.Contains(t, (*warnings)[0], "not .icns")
}

func TestResolveWindowsDuplicatesIconSizes(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformWindows, WiXAvailable: true})
	iconPath := filepath.Join(t.TempDir(), "user.ico")
	require.NoError(t, os.WriteFile(iconPath, []byte("ico-bytes"), 0o644))
	opts := baseOpts()
	opts.Name = "MyApp"
	opts.Icon = iconPath

	d, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)

	want := []string{
		filepath.Join("png", "myapp_32.ico"),
		filepath.Join("png", "myapp_256.ico"),
	}
	assert.Equal(t, want, d.Tauri.Bundle.Icon)
	for _, rel := range want {
		data, err := os.ReadFile(filepath.Join(r.BuildRoot, rel))
		require.NoError(t, err)
		assert.Equal(t, "ico-bytes", string(data))
	}
}

func TestResolveNonASCIINameSubstitutesNSIS(t *testing.T) {
	r, warnings := testResolver(t, &BuildContext{Target: PlatformWindows, WiXAvailable: true})
	opts := baseOpts()
	opts.Name = "我的应用"
	opts.Installer = InstallerMSI

	d, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)

	assert.Equal(t, []string{InstallerNSIS}, d.Tauri.Bundle.Targets)
	found := false
	for _, w := range *warnings {
		if strings.Contains(w, "non-ASCII") {
			found = true
		}
	}
	assert.True(t, found, "substitution must be observable in the warnings: %v", *warnings)

	// Icon files carry the hashed substitute, not the display name.
	slug := iconSlug("我的应用")
	_, statErr := os.Stat(filepath.Join(r.BuildRoot, "png", slug+"_32.ico"))
	assert.NoError(t, statErr)
}

func TestResolveForceMSIKeepsTarget(t *testing.T) {
	r, warnings := testResolver(t, &BuildContext{Target: PlatformWindows, WiXAvailable: true, ForceMSI: true})
	opts := baseOpts()
	opts.Name = "我的应用"
	opts.Installer = InstallerMSI

	d, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)
	assert.Equal(t, []string{InstallerMSI}, d.Tauri.Bundle.Targets)
	assert.NotEmpty(t, *warnings) // the bypass itself is logged
}

func TestResolveMSIWithoutWiXDowngrades(t *testing.T) {
	r, warnings := testResolver(t, &BuildContext{Target: PlatformWindows, WiXAvailable: false})
	opts := baseOpts()
	opts.Installer = InstallerMSI

	d, err := r.Resolve("https://example.com", opts, loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)
	assert.Equal(t, []string{InstallerNSIS}, d.Tauri.Bundle.Targets)
	require.NotEmpty(t, *warnings)
	assert.Contains(t, (*warnings)[len(*warnings)-1], "WiX")
}

func TestResolveKeepsUserNSISLanguages(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformWindows})
	base := loadBaseDescriptor(r.BuildRoot)
	base.Tauri.Bundle.Windows = &WindowsBundleConf{
		NSIS: &NSISConf{Languages: []string{"SimpChinese"}},
	}

	d, err := r.Resolve("https://example.com", baseOpts(), base)
	require.NoError(t, err)
	require.NotNil(t, d.Tauri.Bundle.Windows)
	require.NotNil(t, d.Tauri.Bundle.Windows.NSIS)
	assert.Equal(t, []string{"SimpChinese"}, d.Tauri.Bundle.Windows.NSIS.Languages)
}

func TestResolveDefaultNSISLanguage(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformWindows})

	d, err := r.Resolve("https://example.com", baseOpts(), loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)
	require.NotNil(t, d.Tauri.Bundle.Windows.NSIS)
	assert.Equal(t, []string{"English"}, d.Tauri.Bundle.Windows.NSIS.Languages)
}

func TestResolveCrossWindowsSkipsInstaller(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformWindows, CrossWindows: true})

	d, err := r.Resolve("https://example.com", baseOpts(), loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)
	assert.Empty(t, d.Tauri.Bundle.Targets)

	// The sub-descriptor goes to the Windows path even off a Windows host.
	_, statErr := os.Stat(filepath.Join(r.BuildRoot, "tauri.windows.conf.json"))
	assert.NoError(t, statErr)
}

func TestResolvePersistsBothDescriptors(t *testing.T) {
	r, _ := testResolver(t, &BuildContext{Target: PlatformLinux})

	d, err := r.Resolve("https://example.com", baseOpts(), loadBaseDescriptor(r.BuildRoot))
	require.NoError(t, err)

	full, err := os.ReadFile(mainConfPath(r.BuildRoot))
	require.NoError(t, err)
	var onDisk Descriptor
	require.NoError(t, json.Unmarshal(full, &onDisk))
	assert.Equal(t, d.Package.ProductName, onDisk.Package.ProductName)
	assert.Equal(t, d.Tauri.Windows, onDisk.Tauri.Windows)

	sub, err := os.ReadFile(filepath.Join(r.BuildRoot, "tauri.linux.conf.json"))
	require.NoError(t, err)
	var subDoc map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(sub, &subDoc))
	_, hasBundle := subDoc["tauri"]["bundle"]
	assert.True(t, hasBundle)
	_, hasWindows := subDoc["tauri"]["windows"]
	assert.False(t, hasWindows, "sub-descriptor must carry only the packaging section")
}
