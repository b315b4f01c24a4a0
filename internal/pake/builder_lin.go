package pake

import (
	"context"
	"path/filepath"
	"strings"
)

// linuxBuilder packages the page into a .deb (or AppImage, whichever the
// toolchain produced) on a Linux host.
type linuxBuilder struct {
	baseBuilder
}

func (b *linuxBuilder) Prepare(ctx context.Context) error {
	st := b.probeToolchains(ctx)
	ensureRust(ctx, st)
	if !st.CTools {
		warnRecommended("C build tools", "Install gcc and the webkit2gtk development headers for your distribution.")
	}
	return b.checkBuildRoot()
}

func (b *linuxBuilder) Build(ctx context.Context, rawURL string, opts BuildOptions) (*Artifact, error) {
	b.maybeFetchIcon(ctx, &opts)
	if _, err := b.resolve(rawURL, opts); err != nil {
		return nil, err
	}

	if err := b.runBuildCommand(ctx, tauriBuildArgs(opts)); err != nil {
		return nil, err
	}

	src, err := locateArtifact(linuxCandidates(b.buildRoot))
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(src)
	kind := strings.TrimPrefix(strings.ToLower(ext), ".")
	a, err := copyOutArtifact(src, opts.Name+ext, kind)
	if err != nil {
		return nil, err
	}
	b.reportArtifact(a)
	return a, nil
}
