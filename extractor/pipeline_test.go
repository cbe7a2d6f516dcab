package extractor

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
	"harvester/fetcher"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	client := fetcher.NewClient(fetcher.Config{
		UserAgent:         "harvester-test/1.0",
		AllowPrivateHosts: true,
	}, logger)
	return NewPipeline(client, logger)
}

func testSource() *domain.Source {
	return &domain.Source{
		ID:             "src-1",
		URL:            "https://example.com",
		Name:           "Example",
		Category:       "tech",
		MonitoringType: domain.MonitoringRSS,
	}
}

func articlePage(body string) string {
	return `<html><head><title>Full Article Title | Example</title>
<meta name="description" content="The page's own description.">
<meta property="article:published_time" content="2026-03-01T09:00:00Z">
</head><body><article><h1>Full Article Title</h1>` + body + `</article></body></html>`
}

func TestFromFeedItem_RichItemSkipsPageFetch(t *testing.T) {
	var fetched bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
	}))
	defer srv.Close()

	body := strings.Repeat("A full paragraph of feed-provided content. ", 10)
	item := &domain.RawItem{
		Title:       "Feed Title",
		Link:        srv.URL + "/post",
		Description: "A short hook.",
		Content:     body,
	}

	article, err := newTestPipeline(t).FromFeedItem(context.Background(), item, testSource())
	require.NoError(t, err)
	assert.False(t, fetched, "rich feed content should not trigger a page fetch")
	assert.Equal(t, "Feed Title", article.Title)
	assert.Greater(t, len(article.Content), shortContentThreshold)
	assert.Equal(t, domain.StatusNew, article.Status)
	assert.Equal(t, "src-1", article.SourceID)
}

func TestFromFeedItem_ShortContentFetchesFullPage(t *testing.T) {
	longBody := "<p>" + strings.Repeat("Paragraph text from the full page. ", 12) + "</p>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage(longBody)))
	}))
	defer srv.Close()

	item := &domain.RawItem{
		Title:       "Feed Title",
		Link:        srv.URL + "/post",
		Description: "Too short.",
	}

	article, err := newTestPipeline(t).FromFeedItem(context.Background(), item, testSource())
	require.NoError(t, err)
	assert.Contains(t, article.Content, "Paragraph text from the full page.")
}

func TestFromFeedItem_ForbiddenPageKeepsFeedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	item := &domain.RawItem{
		Title:       "Feed Title",
		Link:        srv.URL + "/post",
		Description: "The only text the feed gives us about this item, and it is long enough to keep.",
	}

	article, err := newTestPipeline(t).FromFeedItem(context.Background(), item, testSource())
	require.NoError(t, err)
	assert.Equal(t, "Feed Title", article.Title)
	assert.Contains(t, article.Content, "The only text the feed gives us")
}

func TestFromFeedItem_InvalidLink(t *testing.T) {
	p := newTestPipeline(t)
	for _, link := range []string{"", "not-a-url", "ftp://example.com/x"} {
		_, err := p.FromFeedItem(context.Background(), &domain.RawItem{Title: "T", Link: link}, testSource())
		assert.ErrorIs(t, err, domain.ErrInvalidLink, "link %q", link)
	}
}

func TestFromFeedItem_UnparsableDateYieldsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	item := &domain.RawItem{
		Title:       "Feed Title",
		Link:        srv.URL + "/post",
		Description: strings.Repeat("Enough description text to keep. ", 3),
		Published:   "not a date at all",
	}

	article, err := newTestPipeline(t).FromFeedItem(context.Background(), item, testSource())
	require.NoError(t, err)
	assert.Nil(t, article.PubDate, "unparsable dates must stay nil, never defaulted")
}

func TestFromPage_ExtractsAllFields(t *testing.T) {
	longBody := "<p>" + strings.Repeat("Body prose for the page under test. ", 12) + "</p>"
	meta, err := newTestPipeline(t).FromPage(context.Background(), []byte(articlePage(longBody)), "https://example.com/post")
	require.NoError(t, err)

	assert.Equal(t, "Full Article Title", meta.Title)
	assert.Contains(t, meta.Content, "Body prose for the page under test.")
	assert.Equal(t, "The page's own description.", meta.Description)
	require.NotNil(t, meta.PubDate)
	assert.Equal(t, "2026-03-01", meta.PubDate.Format("2006-01-02"))
}

func TestFromPage_ErrorPageTitle(t *testing.T) {
	page := `<html><head><title>Page Not Found</title></head><body><p>` +
		strings.Repeat("filler ", 40) + `</p></body></html>`
	_, err := newTestPipeline(t).FromPage(context.Background(), []byte(page), "https://example.com/gone")
	assert.ErrorIs(t, err, domain.ErrErrorPageTitle)
}

func TestExtractFromURL(t *testing.T) {
	longBody := "<p>" + strings.Repeat("Served page body text. ", 12) + "</p>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage(longBody)))
	}))
	defer srv.Close()

	meta, err := newTestPipeline(t).ExtractFromURL(context.Background(), srv.URL+"/post")
	require.NoError(t, err)
	assert.Equal(t, "Full Article Title", meta.Title)
}

func TestDateFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage("<p>body</p>")))
	}))
	defer srv.Close()

	got, err := newTestPipeline(t).DateFromURL(context.Background(), srv.URL+"/post")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-03-01", got.Format("2006-01-02"))
}
