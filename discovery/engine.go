// Package discovery locates a working feed URL for an arbitrary site by
// running an ordered chain of strategies, each short-circuiting on the first
// candidate that fetches and passes the feed sniff. Results, including
// negative ones, are cached by normalized base URL so dead ends are not
// re-probed for every pass.
package discovery

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"harvester/domain"
	"harvester/fetcher"
	"harvester/validation"
)

const (
	defaultCacheTTL  = 30 * time.Minute
	defaultCacheSize = 512
	probeTimeout     = 5 * time.Second
	fetchTimeout     = 10 * time.Second

	feedAccept = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"
)

// Config tunes the discovery result cache. Zero values fall back to the
// defaults.
type Config struct {
	CacheTTL  time.Duration
	CacheSize int
}

type cacheEntry struct {
	// feedURL is empty for a cached "none found".
	feedURL string
}

type strategy struct {
	name string
	run  func(ctx context.Context, site *url.URL) (string, error)
}

type Engine struct {
	fetcher *fetcher.Client
	cache   *expirable.LRU[string, cacheEntry]
	logger  *slog.Logger
}

func NewEngine(client *fetcher.Client, cfg Config, logger *slog.Logger) *Engine {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	return &Engine{
		fetcher: client,
		cache:   expirable.NewLRU[string, cacheEntry](cfg.CacheSize, nil, cfg.CacheTTL),
		logger:  logger,
	}
}

// DiscoverFeedURL finds a verified feed URL for siteURL, or returns
// domain.ErrNoFeedFound. Discovery never returns an unverified URL: every
// candidate is fetched and sniffed before acceptance.
func (e *Engine) DiscoverFeedURL(ctx context.Context, siteURL string) (string, error) {
	site, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil || site.Host == "" {
		return "", domain.ErrNoFeedFound
	}

	key := normalizeBaseURL(site)
	if entry, ok := e.cache.Get(key); ok {
		if entry.feedURL == "" {
			return "", domain.ErrNoFeedFound
		}
		return entry.feedURL, nil
	}

	strategies := []strategy{
		{"html-link", e.fromHTMLLinks},
		{"parent-paths", e.fromParentPaths},
		{"common-paths", e.fromCommonPaths},
		{"platform", e.fromPlatformPatterns},
		{"wordpress", e.fromWordPress},
		{"sitemap", e.fromSitemap},
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		feedURL, err := s.run(ctx, site)
		if err != nil {
			e.logger.DebugContext(ctx, "discovery strategy failed",
				"strategy", s.name, "site", siteURL, "error", err)
			continue
		}
		if feedURL != "" {
			e.logger.InfoContext(ctx, "feed discovered",
				"strategy", s.name, "site", siteURL, "feed_url", feedURL)
			e.cache.Add(key, cacheEntry{feedURL: feedURL})
			return feedURL, nil
		}
	}

	// Negative results are cached too: probing a dead site is expensive.
	e.cache.Add(key, cacheEntry{})
	return "", domain.ErrNoFeedFound
}

// ValidateFeedURL fetches feedURL and reports whether its body passes the
// feed sniff. Exposed to the API layer.
func (e *Engine) ValidateFeedURL(ctx context.Context, feedURL string) (bool, error) {
	resp, err := e.fetcher.Fetch(ctx, feedURL, fetcher.Options{Timeout: fetchTimeout, Accept: feedAccept})
	if err != nil {
		return false, err
	}
	return validation.IsValidFeed(resp.Body), nil
}

// verifyCandidate is the end-to-end check every strategy funnels through.
func (e *Engine) verifyCandidate(ctx context.Context, candidate string) bool {
	resp, err := e.fetcher.Fetch(ctx, candidate, fetcher.Options{Timeout: probeTimeout, Accept: feedAccept})
	if err != nil {
		return false
	}
	return validation.IsValidFeed(resp.Body)
}

// normalizeBaseURL is the cache key: lowercase scheme+host plus the cleaned
// path, with query, fragment and trailing slash dropped.
func normalizeBaseURL(site *url.URL) string {
	path := strings.TrimSuffix(site.EscapedPath(), "/")
	return strings.ToLower(site.Scheme) + "://" + strings.ToLower(site.Host) + path
}

func resolveRef(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
