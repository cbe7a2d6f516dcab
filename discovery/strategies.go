package discovery

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"harvester/fetcher"
)

// conventionalFeedPaths is the prioritized probe list. Order matters: the
// first verified hit wins, so the most common conventions come first.
var conventionalFeedPaths = []string{
	"/feed",
	"/rss",
	"/feed.xml",
	"/rss.xml",
	"/atom.xml",
	"/feeds/all.xml",
	"/feed/",
	"/rss/",
	"/index.xml",
	"/feed.rss",
	"/feed.atom",
	"/feed.json",
	"/rss.json",
	"/atom",
	"/blog/feed",
	"/blog/rss",
	"/blog/feed.xml",
	"/blog/rss.xml",
	"/blog/atom.xml",
	"/blog/index.xml",
	"/news/feed",
	"/news/rss",
	"/news/rss.xml",
	"/feeds/posts/default",
	"/feeds/posts/default?alt=rss",
	"/?feed=rss2",
	"/?feed=atom",
	"/rss/index.rss",
	"/latest.rss",
	"/all.atom.xml",
	"/posts/index.xml",
	"/articles/feed",
	"/en/feed",
	"/feed/rss",
	"/feed/atom",
	"/syndication.axd",
}

// sectionPrefixes are the likely listing sections of a site, probed in
// combination with the conventional paths.
var sectionPrefixes = []string{"/blog", "/news", "/posts", "/articles", "/updates"}

// fromHTMLLinks fetches the site page and looks for feed hints in the
// document: <link rel="alternate"> declarations first, feed-looking anchors
// second.
func (e *Engine) fromHTMLLinks(ctx context.Context, site *url.URL) (string, error) {
	resp, err := e.fetcher.Fetch(ctx, site.String(), fetcher.Options{Timeout: fetchTimeout})
	if err != nil {
		return "", err
	}

	for _, candidate := range feedLinksInDocument(resp.Body, site) {
		if e.verifyCandidate(ctx, candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// fromParentPaths walks up the URL path hierarchy and repeats the HTML link
// scan on each ancestor: a deep article URL often lives under a section whose
// index page advertises the feed.
func (e *Engine) fromParentPaths(ctx context.Context, site *url.URL) (string, error) {
	for _, parent := range parentURLs(site) {
		resp, err := e.fetcher.Fetch(ctx, parent.String(), fetcher.Options{Timeout: fetchTimeout})
		if err != nil {
			continue
		}
		for _, candidate := range feedLinksInDocument(resp.Body, parent) {
			if e.verifyCandidate(ctx, candidate) {
				return candidate, nil
			}
		}
	}
	return "", nil
}

// fromCommonPaths probes the ancestor paths and the conventional section
// prefixes against the conventional feed path list.
func (e *Engine) fromCommonPaths(ctx context.Context, site *url.URL) (string, error) {
	bases := []string{rootOf(site)}
	for _, parent := range parentURLs(site) {
		bases = append(bases, strings.TrimSuffix(parent.String(), "/"))
	}
	for _, prefix := range sectionPrefixes {
		bases = append(bases, rootOf(site)+prefix)
	}

	seen := make(map[string]struct{})
	for _, base := range bases {
		for _, path := range conventionalFeedPaths {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			candidate := base + path
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			if e.candidateMissing(ctx, candidate) {
				continue
			}
			if e.verifyCandidate(ctx, candidate) {
				return candidate, nil
			}
		}
	}
	return "", nil
}

// candidateMissing is a HEAD pre-check for the conventional-path probes: a
// definite 404/410 skips the full fetch-and-sniff. Anything else, including
// servers that reject HEAD outright, falls through to the GET.
func (e *Engine) candidateMissing(ctx context.Context, candidate string) bool {
	_, err := e.fetcher.Head(ctx, candidate, fetcher.Options{Timeout: probeTimeout})
	if err == nil {
		return false
	}
	status := fetcher.StatusOf(err)
	return status == http.StatusNotFound || status == http.StatusGone
}

// feedLinksInDocument extracts candidate feed URLs from an HTML document:
// alternate-link declarations, then anchors whose href looks like a feed.
func feedLinksInDocument(html []byte, base *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	var candidates []string
	seen := make(map[string]struct{})
	add := func(href string) {
		resolved := resolveRef(base, href)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		candidates = append(candidates, resolved)
	}

	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		linkType, _ := s.Attr("type")
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if isFeedMIMEType(linkType) || looksLikeFeedPath(href) {
			add(href)
		}
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if looksLikeFeedPath(href) {
			add(href)
		}
	})

	return candidates
}

func isFeedMIMEType(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	return strings.Contains(mimeType, "rss") ||
		strings.Contains(mimeType, "atom") ||
		strings.Contains(mimeType, "feed+json")
}

func looksLikeFeedPath(href string) bool {
	href = strings.ToLower(href)
	if strings.Contains(href, "feedback") {
		return false
	}
	for _, marker := range []string{"/feed", "/rss", ".rss", "/atom", "atom.xml", "feed.xml", "rss.xml", "feed.json", "?feed="} {
		if strings.Contains(href, marker) {
			return true
		}
	}
	return false
}

// parentURLs returns the same-origin ancestors of site, nearest first, root
// last. A site URL already at the root yields nothing.
func parentURLs(site *url.URL) []*url.URL {
	cleaned := strings.Trim(site.EscapedPath(), "/")
	if cleaned == "" {
		return nil
	}

	segments := strings.Split(cleaned, "/")
	var parents []*url.URL
	for i := len(segments) - 1; i >= 0; i-- {
		parent := *site
		parent.Path = "/" + strings.Join(segments[:i], "/")
		parent.RawQuery = ""
		parent.Fragment = ""
		parents = append(parents, &parent)
	}
	return parents
}

// rootOf returns scheme://host with no path.
func rootOf(site *url.URL) string {
	return site.Scheme + "://" + site.Host
}
