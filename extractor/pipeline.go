// Package extractor turns raw feed items and rendered pages into canonical
// articles. Every field goes through layered heuristics with explicit
// fallbacks: titles are repaired, content is cleaned and backfilled from the
// full page when the feed is stingy, and dates are extracted or honestly
// left unknown.
package extractor

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"harvester/domain"
	"harvester/fetcher"
)

const pageFetchTimeout = 15 * time.Second

// errorPageTitles mark pages that are error screens rather than articles.
var errorPageTitles = []string{"404", "page not found", "just a moment"}

// PageMeta is the structured result of extracting a rendered page.
type PageMeta struct {
	Title       string
	Content     string
	Description string
	PubDate     *time.Time
}

type Pipeline struct {
	fetcher *fetcher.Client
	logger  *slog.Logger
}

func NewPipeline(client *fetcher.Client, logger *slog.Logger) *Pipeline {
	return &Pipeline{fetcher: client, logger: logger}
}

// FromFeedItem builds an article from a feed item. When the feed body is too
// short and the item links somewhere, the full page is fetched and the
// longer body wins. Returns domain.ErrInvalidLink or domain.ErrErrorPageTitle
// when the item cannot become an article.
func (p *Pipeline) FromFeedItem(ctx context.Context, item *domain.RawItem, src *domain.Source) (*domain.Article, error) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return nil, domain.ErrInvalidLink
	}
	if parsed, err := url.Parse(link); err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domain.ErrInvalidLink
	}

	title, body := normalizeItemTitle(item.Title, contentFromItem(item))
	content := CleanText(body)
	description := CleanText(item.Description)

	if len(content) < shortContentThreshold {
		if meta := p.fullPageMeta(ctx, link); meta != nil {
			if len(meta.Content) > len(content) {
				content = meta.Content
			}
			if description == "" {
				description = meta.Description
			}
			if title == "" || isBareURL(title) {
				title = meta.Title
			}
		}
	}

	if title == "" {
		title = slugTitle(link)
	}
	if IsErrorPageTitle(title) {
		return nil, domain.ErrErrorPageTitle
	}
	if content == "" {
		content = link
	}
	if description == "" {
		description = makePreview(content)
	}

	return &domain.Article{
		Title:      title,
		Content:    content,
		Preview:    truncateDescription(description),
		Link:       link,
		PubDate:    dateFromItem(item),
		SourceID:   src.ID,
		SourceName: src.Name,
		Category:   src.Category,
		Status:     domain.StatusNew,
	}, nil
}

// FromPage extracts article metadata from rendered page HTML. The charset is
// sniffed from the bytes so mislabeled non-UTF-8 pages decode correctly.
func (p *Pipeline) FromPage(ctx context.Context, pageHTML []byte, pageURL string) (*PageMeta, error) {
	doc, err := parseDocument(pageHTML)
	if err != nil {
		return nil, err
	}

	meta := &PageMeta{
		Title:       titleFromDocument(doc, pageURL),
		Content:     CleanText(contentFromDocument(doc)),
		Description: descriptionFromDocument(doc),
		PubDate:     dateFromDocument(doc),
	}
	if IsErrorPageTitle(meta.Title) {
		return nil, domain.ErrErrorPageTitle
	}
	if len(meta.Content) < minUsableContent && meta.Description == "" {
		return nil, domain.ErrContentTooShort
	}
	return meta, nil
}

// ExtractFromURL fetches a page and runs FromPage over it. Exposed to the
// API layer for one-off metadata extraction.
func (p *Pipeline) ExtractFromURL(ctx context.Context, pageURL string) (*PageMeta, error) {
	resp, err := p.fetcher.Fetch(ctx, pageURL, fetcher.Options{Timeout: pageFetchTimeout})
	if err != nil {
		return nil, err
	}
	return p.FromPage(ctx, resp.Body, pageURL)
}

// DateFromURL fetches a page solely to recover its publish date. Used by the
// date-enrichment pass; a nil date with nil error means the page simply does
// not carry one.
func (p *Pipeline) DateFromURL(ctx context.Context, pageURL string) (*time.Time, error) {
	resp, err := p.fetcher.Fetch(ctx, pageURL, fetcher.Options{Timeout: pageFetchTimeout})
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(resp.Body)
	if err != nil {
		return nil, err
	}
	return dateFromDocument(doc), nil
}

// fullPageMeta fetches the item's page for content backfill. Failures are
// soft: a 403 or any other fetch problem keeps the feed-provided fields
// instead of failing the article.
func (p *Pipeline) fullPageMeta(ctx context.Context, link string) *PageMeta {
	resp, err := p.fetcher.Fetch(ctx, link, fetcher.Options{Timeout: pageFetchTimeout})
	if err != nil {
		if fetcher.StatusOf(err) == http.StatusForbidden {
			p.logger.DebugContext(ctx, "full-content fetch forbidden, keeping feed fields", "link", link)
		} else {
			p.logger.DebugContext(ctx, "full-content fetch failed", "link", link, "error", err)
		}
		return nil
	}

	meta, err := p.FromPage(ctx, resp.Body, link)
	if err != nil {
		return nil
	}
	return meta
}

// IsErrorPageTitle reports whether a title identifies an error screen.
func IsErrorPageTitle(title string) bool {
	lowered := strings.ToLower(strings.TrimSpace(title))
	for _, marker := range errorPageTitles {
		if lowered == marker || strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func parseDocument(pageHTML []byte) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(pageHTML), "")
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(reader)
}
