package pake

import (
	"fmt"
	"net/url"
)

// Resolver merges user build options into a platform-specific descriptor
// and persists it where the external toolchain expects it. Warn is
// pluggable so callers (and tests) can capture degraded-condition notices;
// the default prints through the usual warning style.
type Resolver struct {
	BuildRoot string
	Ctx       *BuildContext
	Warn      func(format string, a ...any)
}

func NewResolver(buildRoot string, bctx *BuildContext) *Resolver {
	return &Resolver{
		BuildRoot: buildRoot,
		Ctx:       bctx,
		Warn: func(format string, a ...any) {
			colArrow.Print("-> ")
			colWarn.Printf(format+"\n", a...)
		},
	}
}

// Resolve produces the merged build descriptor and persists it (full
// descriptor plus the packaging-only sub-descriptor). Name validation runs
// first: a grammar violation fails before any file is written.
func (r *Resolver) Resolve(rawURL string, opts BuildOptions, base *Descriptor) (*Descriptor, error) {
	if err := ValidateName(opts.Name, r.Ctx.Target); err != nil {
		return nil, err
	}
	switch opts.Installer {
	case "", InstallerNSIS, InstallerMSI:
	default:
		return nil, fmt.Errorf("unknown installer format %q (want nsis or msi)", opts.Installer)
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	d := base.Clone()
	d.Package.ProductName = opts.Name
	if d.Package.Version == "" {
		d.Package.Version = "1.0.0"
	}

	// Window geometry merges straight into the first window entry.
	if len(d.Tauri.Windows) == 0 {
		d.Tauri.Windows = []WindowConf{{}}
	}
	w := &d.Tauri.Windows[0]
	w.URL = rawURL
	w.Width = float64(opts.Width)
	w.Height = float64(opts.Height)
	w.Resizable = opts.Resizable
	w.Fullscreen = opts.Fullscreen
	w.Transparent = opts.Transparent

	d.Tauri.Bundle.Identifier = opts.Identifier
	if d.Tauri.Bundle.Identifier == "" {
		d.Tauri.Bundle.Identifier = "com.pake." + iconSlug(opts.Name)
	}

	d.Tauri.Bundle.Icon = r.resolveIcon(opts)

	if r.Ctx.Target == PlatformWindows {
		d.Tauri.Bundle.Icon = relativizeIcons(r.BuildRoot, d.Tauri.Bundle.Icon)
		r.applyWindowsBundle(d, opts)
	} else {
		d.Tauri.Bundle.Targets = nil
	}

	if err := d.Persist(r.BuildRoot, r.Ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// applyWindowsBundle selects the installer target and guarantees the NSIS
// defaults the generator needs.
func (r *Resolver) applyWindowsBundle(d *Descriptor, opts BuildOptions) {
	if r.Ctx.CrossWindows {
		// The installer-generation stage is skipped entirely off-platform;
		// only a bare executable comes out of the build.
		d.Tauri.Bundle.Targets = nil
		return
	}

	target := r.selectInstallerTarget(opts)
	d.Tauri.Bundle.Targets = []string{target}

	if d.Tauri.Bundle.Windows == nil {
		d.Tauri.Bundle.Windows = &WindowsBundleConf{}
	}
	wb := d.Tauri.Bundle.Windows
	if target == InstallerNSIS {
		if wb.NSIS == nil {
			wb.NSIS = &NSISConf{}
		}
		// Default locale entry; a user-supplied one is kept as-is.
		if len(wb.NSIS.Languages) == 0 {
			wb.NSIS.Languages = []string{"English"}
		}
		if wb.NSIS.InstallerIcon == "" && len(d.Tauri.Bundle.Icon) > 0 {
			wb.NSIS.InstallerIcon = d.Tauri.Bundle.Icon[0]
		}
	}
	if target == InstallerMSI {
		if wb.WiX == nil {
			wb.WiX = &WiXConf{}
		}
		if len(wb.WiX.Language) == 0 {
			wb.WiX.Language = []string{"en-US"}
		}
	}
}

// selectInstallerTarget applies the Windows-native format rules. NSIS is
// the default and MSI needs an explicit request. Two downgrades to NSIS are
// logged: MSI with a non-ASCII product name (the WiX filename conventions
// fail unpredictably with those, unless explicitly forced) and MSI without
// the WiX toolset installed.
func (r *Resolver) selectInstallerTarget(opts BuildOptions) string {
	target := opts.Installer
	if target == "" {
		target = InstallerNSIS
	}

	if target == InstallerMSI && hasNonASCII(opts.Name) {
		if r.Ctx.ForceMSI {
			r.Warn("Product name %q is non-ASCII; PAKE_FORCE_MSI is set, keeping the msi target anyway.", opts.Name)
		} else {
			r.Warn("Product name %q contains non-ASCII characters; using the nsis installer instead of msi.", opts.Name)
			target = InstallerNSIS
		}
	}
	if target == InstallerMSI && !r.Ctx.WiXAvailable {
		r.Warn("WiX toolset (candle/light) not found; using the nsis installer instead of msi.")
		target = InstallerNSIS
	}
	return target
}
