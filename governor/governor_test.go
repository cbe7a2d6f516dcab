package governor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"harvester/domain"
)

func newTestGovernor(cfg Config, memBytes uint64) (*Governor, *time.Duration) {
	g := New(cfg, slog.New(slog.DiscardHandler))
	g.readMem = func() uint64 { return memBytes }
	var slept time.Duration
	g.sleep = func(_ context.Context, d time.Duration) { slept += d }
	return g, &slept
}

func scrapingSource() *domain.Source {
	return &domain.Source{Name: "Example", URL: "https://example.com", MonitoringType: domain.MonitoringScraping}
}

func TestShouldAttemptScraping_MemoryGate(t *testing.T) {
	cfg := DefaultConfig()
	overLimit := cfg.HardLimitBytes + (10 << 20)

	g, _ := newTestGovernor(cfg, overLimit)

	assert.False(t, g.ShouldAttemptScraping(context.Background(), scrapingSource()),
		"scraping sources must be gated over the hard limit")

	rss := &domain.Source{Name: "Feed", URL: "https://example.com/feed", MonitoringType: domain.MonitoringRSS}
	assert.True(t, g.ShouldAttemptScraping(context.Background(), rss),
		"feed work is never memory-gated")
}

func TestShouldAttemptScraping_UnderLimit(t *testing.T) {
	cfg := DefaultConfig()
	g, _ := newTestGovernor(cfg, cfg.HardLimitBytes-(50<<20))
	assert.True(t, g.ShouldAttemptScraping(context.Background(), scrapingSource()))
}

func TestShouldAttemptScraping_SkipList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipHosts = []string{"example.com"}
	g, _ := newTestGovernor(cfg, 0)

	assert.False(t, g.ShouldAttemptScraping(context.Background(), scrapingSource()))

	adk := &domain.Source{Name: "Other", URL: "https://other.net", MonitoringType: domain.MonitoringADK}
	assert.True(t, g.ShouldAttemptScraping(context.Background(), adk))
}

func TestPreScrapeDelay(t *testing.T) {
	cfg := DefaultConfig()

	g, slept := newTestGovernor(cfg, cfg.SoftLimitBytes+(1<<20))
	g.PreScrapeDelay(context.Background())
	assert.Equal(t, cfg.SoftDelay, *slept)

	g, slept = newTestGovernor(cfg, cfg.SoftLimitBytes-(1<<20))
	g.PreScrapeDelay(context.Background())
	assert.Zero(t, *slept, "no delay under the soft limit")
}

func TestAfterBrowserUse_Cooldown(t *testing.T) {
	cfg := DefaultConfig()
	g, slept := newTestGovernor(cfg, 0)
	g.AfterBrowserUse(context.Background())
	assert.Equal(t, cfg.BrowserCooldown, *slept)
}
