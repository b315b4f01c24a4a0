package pake

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Required icon formats per target platform.
var iconExt = map[Platform]string{
	PlatformMac:     ".icns",
	PlatformWindows: ".ico",
	PlatformLinux:   ".png",
}

func hasNonASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}

// iconSlug derives the installer-internal file-name stem for a product.
// Display names with non-ASCII runes get a non-reversible md5 substitute:
// the packaged runtime looks icons up as png/app<md5[:8]>_32.ico, so the
// algorithm here must stay md5.
func iconSlug(name string) string {
	if hasNonASCII(name) {
		sum := md5.Sum([]byte(name))
		return fmt.Sprintf("app%x", sum)[:11] // "app" + 8 hex chars
	}
	return strings.ToLower(name)
}

// resolveIcon places the icon files the toolchain expects under the build
// root and returns the descriptor-relative icon references. A missing or
// wrong-format user icon degrades to the bundled default with a warning;
// only when even the default cannot be written does the descriptor go
// icon-less (also warned, never silent).
func (r *Resolver) resolveIcon(opts BuildOptions) []string {
	target := r.Ctx.Target
	wantExt := iconExt[target]

	src := ""
	if opts.Icon != "" {
		if info, err := os.Stat(opts.Icon); err == nil && info.Mode().IsRegular() {
			if strings.EqualFold(filepath.Ext(opts.Icon), wantExt) {
				src = opts.Icon
			} else {
				r.Warn("Icon %s is not %s, falling back to the default icon.", opts.Icon, wantExt)
			}
		} else {
			r.Warn("Icon %s not found, falling back to the default icon.", opts.Icon)
		}
	}

	read := func() ([]byte, error) {
		if src != "" {
			return os.ReadFile(src)
		}
		return embeddedIcons.ReadFile("assets/icon" + wantExt)
	}

	slug := iconSlug(opts.Name)
	var rels []string
	switch target {
	case PlatformWindows:
		// The installer wants both size variants; they are file copies of
		// the same source, named after the slug.
		rels = []string{
			filepath.Join("png", slug+"_32.ico"),
			filepath.Join("png", slug+"_256.ico"),
		}
	case PlatformMac:
		rels = []string{filepath.Join("icons", slug+".icns")}
	default:
		rels = []string{filepath.Join("png", slug+"_512.png")}
	}

	data, err := read()
	if err != nil {
		r.Warn("No usable icon available (%v); building without one.", err)
		return nil
	}
	for _, rel := range rels {
		dest := filepath.Join(r.BuildRoot, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			r.Warn("Cannot create icon directory for %s (%v); building without an icon.", rel, err)
			return nil
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			r.Warn("Cannot write icon %s (%v); building without an icon.", rel, err)
			return nil
		}
	}
	if src == "" && opts.Icon == "" {
		r.Warn("No icon given, using the default icon.")
	}
	return rels
}

// relativizeIcons rewrites absolute icon paths to build-root-relative ones.
// The Windows installer generators resolve icon paths against the project
// directory and choke on absolute paths.
func relativizeIcons(buildRoot string, icons []string) []string {
	out := make([]string, 0, len(icons))
	for _, icon := range icons {
		if filepath.IsAbs(icon) {
			if rel, err := filepath.Rel(buildRoot, icon); err == nil {
				out = append(out, rel)
				continue
			}
		}
		out = append(out, icon)
	}
	return out
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
