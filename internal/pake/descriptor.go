package pake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Descriptor is the merged configuration document consumed by the external
// build toolchain. One builder owns one descriptor for the lifetime of a
// single build; it is never shared or restored in place.
type Descriptor struct {
	Package PackageConf  `json:"package"`
	Tauri   TauriSection `json:"tauri"`
}

type PackageConf struct {
	ProductName string `json:"productName"`
	Version     string `json:"version,omitempty"`
}

type TauriSection struct {
	Windows []WindowConf `json:"windows"`
	Bundle  BundleConf   `json:"bundle"`
}

// WindowConf mirrors the window section the packaged runtime reads at
// startup (geometry is float-typed on the wire).
type WindowConf struct {
	URL         string  `json:"url"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Resizable   bool    `json:"resizable"`
	Fullscreen  bool    `json:"fullscreen"`
	Transparent bool    `json:"transparent"`
}

type BundleConf struct {
	Active     bool               `json:"active"`
	Identifier string             `json:"identifier"`
	Icon       []string           `json:"icon,omitempty"`
	Targets    []string           `json:"targets,omitempty"`
	Windows    *WindowsBundleConf `json:"windows,omitempty"`
}

type WindowsBundleConf struct {
	NSIS *NSISConf `json:"nsis,omitempty"`
	WiX  *WiXConf  `json:"wix,omitempty"`
}

type NSISConf struct {
	Languages     []string `json:"languages,omitempty"`
	InstallerIcon string   `json:"installerIcon,omitempty"`
}

type WiXConf struct {
	Language []string `json:"language,omitempty"`
}

// Clone returns a deep copy. Fallback builds start from a fresh descriptor
// rather than mutating and restoring the first one.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Tauri.Windows = append([]WindowConf(nil), d.Tauri.Windows...)
	c.Tauri.Bundle.Icon = append([]string(nil), d.Tauri.Bundle.Icon...)
	c.Tauri.Bundle.Targets = append([]string(nil), d.Tauri.Bundle.Targets...)
	if d.Tauri.Bundle.Windows != nil {
		w := *d.Tauri.Bundle.Windows
		if d.Tauri.Bundle.Windows.NSIS != nil {
			n := *d.Tauri.Bundle.Windows.NSIS
			n.Languages = append([]string(nil), n.Languages...)
			w.NSIS = &n
		}
		if d.Tauri.Bundle.Windows.WiX != nil {
			x := *d.Tauri.Bundle.Windows.WiX
			x.Language = append([]string(nil), x.Language...)
			w.WiX = &x
		}
		c.Tauri.Bundle.Windows = &w
	}
	return &c
}

// checkConsistency verifies the invariant that a descriptor written to disk
// never references an icon file or installer format that is not actually
// there: every referenced icon must exist under the build root, and the
// installer targets must come from the known set.
func (d *Descriptor) checkConsistency(buildRoot string) error {
	for _, icon := range d.Tauri.Bundle.Icon {
		p := icon
		if !filepath.IsAbs(p) {
			p = filepath.Join(buildRoot, icon)
		}
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("descriptor references missing icon %s: %w", icon, err)
		}
	}
	for _, t := range d.Tauri.Bundle.Targets {
		if t != InstallerMSI && t != InstallerNSIS {
			return fmt.Errorf("descriptor references unknown installer target %q", t)
		}
	}
	return nil
}

// mainConfPath is where the toolchain reads the full descriptor.
func mainConfPath(buildRoot string) string {
	return filepath.Join(buildRoot, "tauri.conf.json")
}

// platformConfPath is the packaging-only sub-descriptor location. When
// cross-compiling for Windows the Windows path is selected regardless of
// the host.
func platformConfPath(buildRoot string, bctx *BuildContext) string {
	p := bctx.Target
	if bctx.CrossWindows {
		p = PlatformWindows
	}
	return filepath.Join(buildRoot, fmt.Sprintf("tauri.%s.conf.json", p))
}

// Persist writes the full descriptor and the bundle-only sub-descriptor to
// their toolchain-expected locations. Write failures are fatal I/O errors
// for the build; there are no retries.
func (d *Descriptor) Persist(buildRoot string, bctx *BuildContext) error {
	if err := d.checkConsistency(buildRoot); err != nil {
		return err
	}

	// Descriptor persistence must not be torn by a first Ctrl+C.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	full, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	if err := os.WriteFile(mainConfPath(buildRoot), full, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", mainConfPath(buildRoot), err)
	}

	sub := struct {
		Tauri struct {
			Bundle BundleConf `json:"bundle"`
		} `json:"tauri"`
	}{}
	sub.Tauri.Bundle = d.Tauri.Bundle
	data, err := json.MarshalIndent(&sub, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bundle descriptor: %w", err)
	}
	subPath := platformConfPath(buildRoot, bctx)
	if err := os.WriteFile(subPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", subPath, err)
	}
	debugf("Persisted descriptor to %s and %s\n", mainConfPath(buildRoot), subPath)
	return nil
}

// loadBaseDescriptor reads the template project's existing config as the
// merge base, or starts from a sane empty descriptor when absent.
func loadBaseDescriptor(buildRoot string) *Descriptor {
	d := &Descriptor{}
	data, err := os.ReadFile(mainConfPath(buildRoot))
	if err == nil {
		if err := json.Unmarshal(data, d); err != nil {
			debugf("Base descriptor unreadable, starting fresh: %v\n", err)
			d = &Descriptor{}
		}
	}
	if len(d.Tauri.Windows) == 0 {
		d.Tauri.Windows = []WindowConf{{}}
	}
	d.Tauri.Bundle.Active = true
	return d
}
