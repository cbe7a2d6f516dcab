package discovery

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"harvester/fetcher"
)

// sitemapEntryLimit bounds how many sitemap URLs are considered. Large sites
// publish sitemaps with tens of thousands of entries; the feed hints are
// almost always near the top.
const sitemapEntryLimit = 200

type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// fromSitemap reads /sitemap.xml and mines it two ways: entries that
// themselves look like feeds are verified directly, and blog/news section
// bases found in the sitemap are probed against the conventional feed paths.
func (e *Engine) fromSitemap(ctx context.Context, site *url.URL) (string, error) {
	locs := e.sitemapLocs(ctx, rootOf(site)+"/sitemap.xml", 0)
	if len(locs) == 0 {
		return "", nil
	}

	var sectionBases []string
	seenBases := make(map[string]struct{})
	for _, loc := range locs {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if looksLikeFeedPath(loc) {
			if e.verifyCandidate(ctx, loc) {
				return loc, nil
			}
			continue
		}

		if base := sectionBase(loc); base != "" {
			if _, dup := seenBases[base]; !dup {
				seenBases[base] = struct{}{}
				sectionBases = append(sectionBases, base)
			}
		}
	}

	for _, base := range sectionBases {
		for _, path := range conventionalFeedPaths {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if e.candidateMissing(ctx, base+path) {
				continue
			}
			if e.verifyCandidate(ctx, base+path) {
				return base + path, nil
			}
		}
	}
	return "", nil
}

// sitemapLocs fetches a sitemap and returns its <loc> entries, following one
// level of sitemap index nesting.
func (e *Engine) sitemapLocs(ctx context.Context, sitemapURL string, depth int) []string {
	resp, err := e.fetcher.Fetch(ctx, sitemapURL, fetcher.Options{Timeout: fetchTimeout})
	if err != nil {
		return nil
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(resp.Body, &doc); err != nil {
		return nil
	}

	var locs []string
	for _, entry := range doc.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		locs = append(locs, loc)
		if len(locs) >= sitemapEntryLimit {
			return locs
		}
	}

	if depth == 0 {
		for _, child := range doc.Sitemaps {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			locs = append(locs, e.sitemapLocs(ctx, loc, depth+1)...)
			if len(locs) >= sitemapEntryLimit {
				return locs[:sitemapEntryLimit]
			}
		}
	}
	return locs
}

// sectionBase returns scheme://host/<first-segment> when the first path
// segment is a known listing section, otherwise "".
func sectionBase(loc string) string {
	parsed, err := url.Parse(loc)
	if err != nil || parsed.Host == "" {
		return ""
	}
	segment := firstPathSegment(parsed)
	for _, known := range []string{"blog", "news", "posts", "articles", "updates"} {
		if segment == known {
			return rootOf(parsed) + "/" + segment
		}
	}
	return ""
}
