package pake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformConfPath(t *testing.T) {
	root := "build"
	assert.Equal(t, filepath.Join(root, "tauri.linux.conf.json"),
		platformConfPath(root, &BuildContext{Target: PlatformLinux}))
	assert.Equal(t, filepath.Join(root, "tauri.macos.conf.json"),
		platformConfPath(root, &BuildContext{Target: PlatformMac}))
	// Cross-compiling selects the Windows path regardless of anything else.
	assert.Equal(t, filepath.Join(root, "tauri.windows.conf.json"),
		platformConfPath(root, &BuildContext{Target: PlatformWindows, CrossWindows: true}))
}

func TestPersistRejectsMissingIcon(t *testing.T) {
	root := t.TempDir()
	d := loadBaseDescriptor(root)
	d.Package.ProductName = "myapp"
	d.Tauri.Bundle.Icon = []string{filepath.Join("png", "missing.ico")}

	err := d.Persist(root, &BuildContext{Target: PlatformWindows})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing icon")

	// A failed consistency check writes nothing.
	_, statErr := os.Stat(mainConfPath(root))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPersistRejectsUnknownInstallerTarget(t *testing.T) {
	root := t.TempDir()
	d := loadBaseDescriptor(root)
	d.Tauri.Bundle.Targets = []string{"appx"}

	err := d.Persist(root, &BuildContext{Target: PlatformWindows})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown installer target")
}

func TestCloneIsIndependent(t *testing.T) {
	d := loadBaseDescriptor(t.TempDir())
	d.Tauri.Bundle.Targets = []string{InstallerMSI}
	d.Tauri.Bundle.Windows = &WindowsBundleConf{NSIS: &NSISConf{Languages: []string{"English"}}}

	c := d.Clone()
	c.Tauri.Bundle.Targets[0] = InstallerNSIS
	c.Tauri.Windows[0].URL = "https://changed.example"
	c.Tauri.Bundle.Windows.NSIS.Languages[0] = "German"

	assert.Equal(t, InstallerMSI, d.Tauri.Bundle.Targets[0])
	assert.Empty(t, d.Tauri.Windows[0].URL)
	assert.Equal(t, "English", d.Tauri.Bundle.Windows.NSIS.Languages[0])
}

func TestLoadBaseDescriptorDefaults(t *testing.T) {
	d := loadBaseDescriptor(t.TempDir())
	require.Len(t, d.Tauri.Windows, 1)
	assert.True(t, d.Tauri.Bundle.Active)
}

func TestLoadBaseDescriptorReadsExisting(t *testing.T) {
	root := t.TempDir()
	conf := `{"package":{"productName":"seed","version":"2.1.0"},"tauri":{"windows":[{"width":800,"height":600}],"bundle":{"identifier":"com.seed.app"}}}`
	require.NoError(t, os.WriteFile(mainConfPath(root), []byte(conf), 0o644))

	d := loadBaseDescriptor(root)
	assert.Equal(t, "seed", d.Package.ProductName)
	assert.Equal(t, "2.1.0", d.Package.Version)
	assert.Equal(t, "com.seed.app", d.Tauri.Bundle.Identifier)
	require.Len(t, d.Tauri.Windows, 1)
	assert.Equal(t, float64(800), d.Tauri.Windows[0].Width)
}
