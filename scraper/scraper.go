// Package scraper implements the traditional extraction path: render or
// fetch a source's listing page, harvest same-domain article links, and
// extract each article page. A headless render through the external renderer
// is preferred; a static fetch is the fallback when rendering is unavailable
// or fails.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"harvester/domain"
	"harvester/extractor"
	"harvester/fetcher"
)

const (
	listingFetchTimeout = 20 * time.Second
	pageFetchTimeout    = 15 * time.Second
	// maxListingLinks bounds a harvest; listing pages link far more than
	// their recent articles.
	maxListingLinks = 30
	// minAnchorTextLen filters nav links ("Home", "About") from article
	// anchors.
	minAnchorTextLen = 15
)

// Renderer is the headless-render collaborator. driver.RendererClient
// satisfies it.
type Renderer interface {
	WithRenderedPage(ctx context.Context, pageURL string, fn func(html []byte) error) error
}

type Scraper struct {
	fetcher  *fetcher.Client
	renderer Renderer
	pipeline *extractor.Pipeline
	robots   *robotsCache
	logger   *slog.Logger
}

func New(client *fetcher.Client, renderer Renderer, pipeline *extractor.Pipeline, userAgent string, logger *slog.Logger) *Scraper {
	return &Scraper{
		fetcher:  client,
		renderer: renderer,
		pipeline: pipeline,
		robots:   newRobotsCache(client, userAgent),
		logger:   logger,
	}
}

// HarvestListing loads the source's listing page and returns candidate
// article items, links scoped to the source's own domain. browserUsed tells
// the caller whether the renderer was involved, for cooldown accounting.
func (s *Scraper) HarvestListing(ctx context.Context, source *domain.Source) (items []domain.RawItem, browserUsed bool, err error) {
	if !s.robots.Allowed(ctx, source.URL) {
		return nil, false, domain.ErrScrapingDisallowed
	}

	pageHTML, browserUsed, err := s.loadPage(ctx, source.URL, listingFetchTimeout)
	if err != nil {
		return nil, browserUsed, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, browserUsed, err
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, browserUsed, err
	}

	sourceHost := source.Hostname()
	seen := make(map[string]struct{})
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		if len(title) < minAnchorTextLen {
			return true
		}

		link := resolveLink(base, sel.AttrOr("href", ""))
		if link == "" || !domain.SameHost(link, sourceHost) {
			return true
		}
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}

		items = append(items, domain.FromScrapedLink(title, link))
		return len(items) < maxListingLinks
	})

	s.logger.InfoContext(ctx, "harvested listing page",
		"source", source.Name, "links", len(items), "browser", browserUsed)
	return items, browserUsed, nil
}

// ExtractArticle loads one article page and runs page extraction over it.
// Callers are expected to have dedup-checked the link already; this is the
// expensive step.
func (s *Scraper) ExtractArticle(ctx context.Context, link string) (meta *extractor.PageMeta, browserUsed bool, err error) {
	if !s.robots.Allowed(ctx, link) {
		return nil, false, domain.ErrScrapingDisallowed
	}

	pageHTML, browserUsed, err := s.loadPage(ctx, link, pageFetchTimeout)
	if err != nil {
		return nil, browserUsed, err
	}

	meta, err = s.pipeline.FromPage(ctx, pageHTML, link)
	return meta, browserUsed, err
}

// loadPage prefers a headless render and falls back to a static fetch when
// the renderer is unavailable or the render fails.
func (s *Scraper) loadPage(ctx context.Context, pageURL string, timeout time.Duration) (pageHTML []byte, browserUsed bool, err error) {
	renderErr := s.renderer.WithRenderedPage(ctx, pageURL, func(html []byte) error {
		pageHTML = append(pageHTML[:0], html...)
		return nil
	})
	if renderErr == nil {
		return pageHTML, true, nil
	}

	// An unavailable renderer never opened a browser; any other render
	// failure did, and the cooldown accounting needs to know.
	browserUsed = !errors.Is(renderErr, domain.ErrRendererUnavailable)
	if browserUsed {
		s.logger.WarnContext(ctx, "render failed, falling back to static fetch",
			"url", pageURL, "error", renderErr)
	}

	resp, err := s.fetcher.Fetch(ctx, pageURL, fetcher.Options{Timeout: timeout})
	if err != nil {
		return nil, browserUsed, err
	}
	return resp.Body, browserUsed, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
