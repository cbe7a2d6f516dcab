package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvester/config"
	"harvester/discovery"
	"harvester/domain"
	"harvester/extractor"
	"harvester/fetcher"
	"harvester/governor"
	"harvester/metrics"
	"harvester/repository"
	"harvester/scheduler"
	"harvester/scraper"
)

// emptyArticles satisfies repository.ArticleRepository for API tests that
// never reach persistence.
type emptyArticles struct{}

func (emptyArticles) Create(context.Context, *domain.Article) error { return nil }
func (emptyArticles) ExistsByLink(context.Context, string) (bool, error) {
	return false, nil
}
func (emptyArticles) Update(context.Context, string, *domain.ArticleUpdate) error { return nil }
func (emptyArticles) ListRecentUndated(context.Context, int) ([]*domain.Article, error) {
	return nil, nil
}

type emptySources struct{}

func (emptySources) ListActive(context.Context) ([]*domain.Source, error) { return nil, nil }
func (emptySources) UpdateLastChecked(context.Context, string, time.Time) error {
	return nil
}

type noRenderer struct{}

func (noRenderer) WithRenderedPage(context.Context, string, func([]byte) error) error {
	return domain.ErrRendererUnavailable
}

type noADK struct{}

func (noADK) ExtractArticles(context.Context, *domain.Source) ([]domain.RawItem, error) {
	return nil, nil
}

var (
	_ repository.ArticleRepository = emptyArticles{}
	_ repository.SourceRepository  = emptySources{}
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	collector := metrics.NewCollector()
	client := fetcher.NewClient(fetcher.Config{
		UserAgent:         "harvester-test/1.0",
		AllowPrivateHosts: true,
		Recorder:          collector,
	}, logger)
	pipeline := extractor.NewPipeline(client, logger)

	sched := scheduler.New(
		scheduler.Config{Interval: time.Hour, MaxFeedItems: 20, BatchSize: 3},
		emptySources{}, emptyArticles{}, client, pipeline, noADK{},
		scraper.New(client, noRenderer{}, pipeline, "harvester-test/1.0", logger),
		governor.New(governor.DefaultConfig(), logger),
		nil, logger,
	)

	h := New(discovery.NewEngine(client, discovery.Config{}, logger), sched, pipeline, collector, logger)
	return NewServer(config.ServerConfig{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, h, logger)
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoute(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestIngestionStatusRoute(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/ingestion/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ingestionStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "stopped", resp.State)
}

func TestRunIngestionRoute(t *testing.T) {
	e := newTestServer(t)
	rec := postJSON(e, "/v1/ingestion/run", "{}")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ingestionRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
}

func TestDiscoverRoute(t *testing.T) {
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title></channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head></html>`))
		case "/feed.xml":
			_, _ = w.Write([]byte(feed))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := newTestServer(t)
	rec := postJSON(e, "/v1/discovery/discover", `{"site_url":"`+srv.URL+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp discoverResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, srv.URL+"/feed.xml", resp.FeedURL)
}

func TestDiscoverRoute_BadRequest(t *testing.T) {
	e := newTestServer(t)
	rec := postJSON(e, "/v1/discovery/discover", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateRoute(t *testing.T) {
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title></channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	e := newTestServer(t)
	rec := postJSON(e, "/v1/discovery/validate", `{"feed_url":"`+srv.URL+`/feed"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
}

func TestExtractRoute(t *testing.T) {
	page := `<html><head><title>Extracted Title | Site</title>
<meta name="description" content="Meta description text."></head>
<body><article><h1>Extracted Title</h1><p>` +
		strings.Repeat("Plenty of article body text right here. ", 10) +
		`</p></article></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	e := newTestServer(t)
	rec := postJSON(e, "/v1/articles/extract", `{"page_url":"`+srv.URL+`/post"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Extracted Title", resp.Title)
	assert.Equal(t, "Meta description text.", resp.Description)
}

func TestMetricsRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>T</title></channel></rss>`))
	}))
	defer srv.Close()

	e := newTestServer(t)
	postJSON(e, "/v1/discovery/validate", `{"feed_url":"`+srv.URL+`/feed"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.EqualValues(t, 1, snap.TotalRequests)
	require.Len(t, snap.Hosts, 1)
	assert.EqualValues(t, 1, snap.Hosts[0].SuccessCount)
}

func TestEnrichDatesRoute(t *testing.T) {
	e := newTestServer(t)
	rec := postJSON(e, "/v1/articles/enrich-dates", `{"limit":5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp enrichResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Enriched)
}
