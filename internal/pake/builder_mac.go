package pake

import "context"

// macBuilder packages the page into a .dmg on a macOS host.
type macBuilder struct {
	baseBuilder
}

func (b *macBuilder) Prepare(ctx context.Context) error {
	st := b.probeToolchains(ctx)
	ensureRust(ctx, st)
	if !st.CTools {
		warnRecommended("Xcode command line tools", "Run `xcode-select --install` if linking fails.")
	}
	return b.checkBuildRoot()
}

func (b *macBuilder) Build(ctx context.Context, rawURL string, opts BuildOptions) (*Artifact, error) {
	b.maybeFetchIcon(ctx, &opts)
	if _, err := b.resolve(rawURL, opts); err != nil {
		return nil, err
	}

	if err := b.runBuildCommand(ctx, tauriBuildArgs(opts)); err != nil {
		return nil, err
	}

	src, err := locateArtifact(dmgCandidates(b.buildRoot))
	if err != nil {
		return nil, err
	}
	a, err := copyOutArtifact(src, opts.Name+".dmg", "dmg")
	if err != nil {
		return nil, err
	}
	b.reportArtifact(a)
	return a, nil
}
