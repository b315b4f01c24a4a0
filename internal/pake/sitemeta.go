package pake

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// SiteMeta is what can be discovered about the page being packaged.
type SiteMeta struct {
	Title   string
	IconURL string
}

// DiscoverSiteMeta loads the page in headless Chrome and reads its title
// and declared icon link. Chrome absent or the page unreachable is a
// normal degraded outcome for the caller, not a build failure.
func DiscoverSiteMeta(parent context.Context, pageURL string) (*SiteMeta, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid page url %q", pageURL)
	}

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 30*time.Second)
	defer cancelTimeout()

	meta := &SiteMeta{}
	err = chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.Title(&meta.Title),
		chromedp.Evaluate(
			`(function(){var l=document.querySelector('link[rel~="icon"]');return l?l.href:'';})()`,
			&meta.IconURL,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("headless chrome failed: %w", err)
	}

	if meta.IconURL == "" {
		// The conventional location works for most sites that declare nothing.
		meta.IconURL = u.Scheme + "://" + u.Host + "/favicon.ico"
	} else if strings.HasPrefix(meta.IconURL, "//") {
		meta.IconURL = u.Scheme + ":" + meta.IconURL
	}
	return meta, nil
}
