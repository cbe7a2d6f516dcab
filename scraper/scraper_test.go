package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvester/domain"
	"harvester/extractor"
	"harvester/fetcher"
)

// stubRenderer simulates the headless-render collaborator.
type stubRenderer struct {
	html string
	err  error
}

func (r *stubRenderer) WithRenderedPage(_ context.Context, _ string, fn func([]byte) error) error {
	if r.err != nil {
		return r.err
	}
	return fn([]byte(r.html))
}

func newTestScraper(t *testing.T, renderer Renderer) *Scraper {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	client := fetcher.NewClient(fetcher.Config{
		UserAgent:         "harvester-test/1.0",
		AllowPrivateHosts: true,
	}, logger)
	pipeline := extractor.NewPipeline(client, logger)
	return New(client, renderer, pipeline, "harvester-test/1.0", logger)
}

func listingHTML(host string) string {
	return `<html><body>
<a href="/">Home</a>
<a href="/posts/first-long-article-title">The first article with a long title</a>
<a href="/posts/second-long-article-title">The second article, also verbosely titled</a>
<a href="/posts/first-long-article-title">The first article with a long title</a>
<a href="https://elsewhere.example.net/offsite">An off-domain article-looking link here</a>
<a href="mailto:tips@` + host + `">Send us tips about anything at all</a>
</body></html>`
}

func TestHarvestListing_RenderedPage(t *testing.T) {
	// robots.txt is fetched statically even when rendering works.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	renderer := &stubRenderer{html: listingHTML(host)}
	s := newTestScraper(t, renderer)

	source := &domain.Source{URL: srv.URL, Name: "Example", MonitoringType: domain.MonitoringScraping}
	items, browserUsed, err := s.HarvestListing(context.Background(), source)
	require.NoError(t, err)

	assert.True(t, browserUsed)
	require.Len(t, items, 2, "short, duplicate, off-domain and mailto anchors are dropped")
	assert.Equal(t, srv.URL+"/posts/first-long-article-title", items[0].Link)
	assert.Equal(t, "The first article with a long title", items[0].Title)
}

func TestHarvestListing_StaticFallback(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingHTML(host)))
	})

	s := newTestScraper(t, &stubRenderer{err: domain.ErrRendererUnavailable})

	source := &domain.Source{URL: srv.URL, Name: "Example", MonitoringType: domain.MonitoringScraping}
	items, browserUsed, err := s.HarvestListing(context.Background(), source)
	require.NoError(t, err)

	assert.False(t, browserUsed, "unavailable renderer means no browser was opened")
	assert.Len(t, items, 2)
}

func TestHarvestListing_RobotsDisallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := newTestScraper(t, &stubRenderer{html: "<html></html>"})

	source := &domain.Source{URL: srv.URL, Name: "Example", MonitoringType: domain.MonitoringScraping}
	_, _, err := s.HarvestListing(context.Background(), source)
	assert.ErrorIs(t, err, domain.ErrScrapingDisallowed)
}

func TestExtractArticle(t *testing.T) {
	page := `<html><head><title>An Article Title | Site</title>
<meta name="description" content="A page description of reasonable length.">
</head><body><article><h1>An Article Title</h1><p>` +
		strings.Repeat("Article body prose with plenty of words. ", 10) +
		`</p></article></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	s := newTestScraper(t, &stubRenderer{err: domain.ErrRendererUnavailable})

	meta, browserUsed, err := s.ExtractArticle(context.Background(), srv.URL+"/posts/a")
	require.NoError(t, err)
	assert.False(t, browserUsed)
	assert.Equal(t, "An Article Title", meta.Title)
	assert.Contains(t, meta.Content, "Article body prose")
}
