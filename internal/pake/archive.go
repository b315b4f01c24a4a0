package pake

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// archiveExt maps the selectable compression formats to their suffixes.
var archiveExt = map[string]string{
	"gzip": ".tar.gz",
	"xz":   ".tar.xz",
	"zstd": ".tar.zst",
	"zip":  ".zip",
}

// CreatePortableArchive packs the given files (artifact, plus staged icons
// in cross mode) into <name>-portable<ext> next to the artifact. Archive
// members are stored flat under their base names.
func CreatePortableArchive(format, name string, files []string) (string, error) {
	ext, ok := archiveExt[format]
	if !ok {
		return "", fmt.Errorf("unknown archive format %q (want gzip, xz, zstd or zip)", format)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("nothing to archive")
	}

	dest := filepath.Join(filepath.Dir(files[0]), name+"-portable"+ext)
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if format == "zip" {
		if err := writeZip(out, files); err != nil {
			_ = os.Remove(dest)
			return "", err
		}
		return dest, nil
	}

	var cw io.WriteCloser
	switch format {
	case "gzip":
		cw = pgzip.NewWriter(out)
	case "xz":
		w, err := xz.NewWriter(out)
		if err != nil {
			return "", err
		}
		cw = w
	case "zstd":
		w, err := zstd.NewWriter(out)
		if err != nil {
			return "", err
		}
		cw = w
	}

	if err := writeTar(cw, files); err != nil {
		cw.Close()
		_ = os.Remove(dest)
		return "", err
	}
	if err := cw.Close(); err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func writeTar(w io.Writer, files []string) error {
	tw := tar.NewWriter(w)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.Base(file)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return tw.Close()
}

func writeZip(w io.Writer, files []string) error {
	zw := zip.NewWriter(w)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.Base(file)
		hdr.Method = zip.Deflate
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		_, err = io.Copy(fw, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}

// portableExtras lists icon files worth shipping next to a bare executable.
func portableExtras(buildRoot string, bctx *BuildContext) []string {
	if !bctx.CrossWindows {
		return nil
	}
	matches, _ := filepath.Glob(filepath.Join(buildRoot, "png", "*.ico"))
	var out []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".ico") {
			out = append(out, m)
		}
	}
	return out
}
