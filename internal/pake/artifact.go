package pake

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"lukechampine.com/blake3"
)

// Artifact is a located, copied-out build product.
type Artifact struct {
	Path   string // final caller-visible location
	Source string // where the toolchain left it
	Kind   string // msi, nsis, dmg, deb, appimage, exe
	B3Sum  string
}

// locateArtifact probes an ordered list of glob patterns and returns the
// first existing regular file. Matches are sorted, so discovery over the
// same directory state is deterministic and idempotent.
func locateArtifact(patterns []string) (string, error) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
				debugf("Artifact candidate hit: %s\n", m)
				return m, nil
			}
		}
	}
	return "", &artifactNotFoundError{patterns: patterns}
}

// artifactNotFoundError enumerates every searched location so a failed
// build is diagnosable from the error alone.
type artifactNotFoundError struct {
	patterns []string
}

func (e *artifactNotFoundError) Error() string {
	dirs := make(map[string]bool)
	var ordered []string
	for _, p := range e.patterns {
		d := filepath.Dir(p)
		if !dirs[d] {
			dirs[d] = true
			ordered = append(ordered, d)
		}
	}
	msg := "no build artifact found; searched:"
	for _, d := range ordered {
		msg += "\n  " + d
	}
	return msg
}

// searchedDirs exposes the searched locations for the combined error after
// the bounded fallback also fails.
func searchedDirs(err error) []string {
	if e, ok := err.(*artifactNotFoundError); ok {
		seen := make(map[string]bool)
		var out []string
		for _, p := range e.patterns {
			d := filepath.Dir(p)
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
		return out
	}
	return nil
}

// copyOutArtifact copies (never moves) the located file to its stable
// caller-visible path and computes its checksum.
func copyOutArtifact(src, destName, kind string) (*Artifact, error) {
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	dest := filepath.Join(cwd, destName)
	if err := copyFile(src, dest); err != nil {
		return nil, fmt.Errorf("failed to copy artifact %s -> %s: %w", src, dest, err)
	}

	sum, err := fileB3Sum(dest)
	if err != nil {
		// The artifact itself is fine; a checksum problem is not fatal.
		colArrow.Print("-> ")
		colWarn.Printf("Could not checksum %s: %v\n", dest, err)
		sum = ""
	}
	return &Artifact{Path: dest, Source: src, Kind: kind, B3Sum: sum}, nil
}

// fileB3Sum returns the BLAKE3 hash of a file.
func fileB3Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Candidate pattern sets, per platform and mode. These encode the output
// shapes the toolchain has been observed to produce across versions.

func msiCandidates(buildRoot string) []string {
	bundle := filepath.Join(buildRoot, "target", "release", "bundle")
	return []string{
		filepath.Join(bundle, "msi", "*.msi"),
	}
}

func nsisCandidates(buildRoot string) []string {
	bundle := filepath.Join(buildRoot, "target", "release", "bundle")
	return []string{
		filepath.Join(bundle, "nsis", "*-setup.exe"),
		filepath.Join(bundle, "nsis", "*.exe"),
	}
}

func dmgCandidates(buildRoot string) []string {
	bundle := filepath.Join(buildRoot, "target", "release", "bundle")
	return []string{
		filepath.Join(bundle, "dmg", "*.dmg"),
	}
}

func linuxCandidates(buildRoot string) []string {
	bundle := filepath.Join(buildRoot, "target", "release", "bundle")
	return []string{
		filepath.Join(bundle, "deb", "*.deb"),
		filepath.Join(bundle, "appimage", "*.AppImage"),
	}
}

func crossExeCandidates(buildRoot, slug string) []string {
	release := filepath.Join(buildRoot, "target", windowsTriple, "release")
	return []string{
		filepath.Join(release, slug+".exe"),
		filepath.Join(release, "pake.exe"),
		filepath.Join(release, "app.exe"),
		filepath.Join(buildRoot, "target", "release", slug+".exe"),
	}
}
