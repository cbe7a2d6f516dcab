package scraper

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"harvester/fetcher"
)

const robotsFetchTimeout = 5 * time.Second

// robotsCache keeps one parsed robots.txt per host for the process lifetime.
// An unreachable or unparsable robots.txt allows crawling, matching the
// conventional interpretation.
type robotsCache struct {
	fetcher   *fetcher.Client
	userAgent string

	mu     sync.RWMutex
	groups map[string]*robotstxt.Group
}

func newRobotsCache(client *fetcher.Client, userAgent string) *robotsCache {
	return &robotsCache{
		fetcher:   client,
		userAgent: userAgent,
		groups:    make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether pageURL may be scraped under the site's robots.txt.
func (r *robotsCache) Allowed(ctx context.Context, pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	group := r.groupForHost(ctx, parsed)
	if group == nil {
		return true
	}
	return group.Test(parsed.EscapedPath())
}

func (r *robotsCache) groupForHost(ctx context.Context, page *url.URL) *robotstxt.Group {
	host := page.Host

	r.mu.RLock()
	group, cached := r.groups[host]
	r.mu.RUnlock()
	if cached {
		return group
	}

	group = r.fetchGroup(ctx, page)

	r.mu.Lock()
	r.groups[host] = group
	r.mu.Unlock()
	return group
}

// fetchGroup retrieves and parses robots.txt for the page's host. A nil
// return means "no restrictions".
func (r *robotsCache) fetchGroup(ctx context.Context, page *url.URL) *robotstxt.Group {
	robotsURL := page.Scheme + "://" + page.Host + "/robots.txt"

	resp, err := r.fetcher.Fetch(ctx, robotsURL, fetcher.Options{Timeout: robotsFetchTimeout})
	if err != nil {
		return nil
	}

	robots, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		return nil
	}
	return robots.FindGroup(r.userAgent)
}
