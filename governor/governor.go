// Package governor gates browser-backed scraping on process memory. Feed
// parsing is cheap and never gated; rendering a page is not, so above the
// hard limit new scraping work is skipped for the pass rather than risking
// the process.
package governor

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"harvester/domain"
)

type Config struct {
	// HardLimitBytes stops new browser-backed scraping when exceeded.
	HardLimitBytes uint64
	// SoftLimitBytes adds a pre-scrape delay when exceeded.
	SoftLimitBytes uint64
	// SoftDelay is the extra wait inserted above the soft limit.
	SoftDelay time.Duration
	// BrowserCooldown is the fixed pause after any browser use.
	BrowserCooldown time.Duration
	// SkipHosts lists hostnames that are never scraped.
	SkipHosts []string
}

func DefaultConfig() Config {
	return Config{
		HardLimitBytes:  450 << 20,
		SoftLimitBytes:  400 << 20,
		SoftDelay:       3 * time.Second,
		BrowserCooldown: 2 * time.Second,
		SkipHosts:       nil,
	}
}

type Governor struct {
	cfg       Config
	skipHosts map[string]struct{}
	logger    *slog.Logger

	// readMem and sleep are swappable for tests.
	readMem func() uint64
	sleep   func(ctx context.Context, d time.Duration)
}

func New(cfg Config, logger *slog.Logger) *Governor {
	skip := make(map[string]struct{}, len(cfg.SkipHosts))
	for _, host := range cfg.SkipHosts {
		skip[strings.ToLower(strings.TrimSpace(host))] = struct{}{}
	}
	return &Governor{
		cfg:       cfg,
		skipHosts: skip,
		logger:    logger,
		readMem:   residentMemory,
		sleep:     sleepCtx,
	}
}

// ShouldAttemptScraping decides whether browser-backed scraping is safe for
// source right now. RSS sources always pass: feed parsing does not go
// through the browser and is never memory-gated.
func (g *Governor) ShouldAttemptScraping(ctx context.Context, source *domain.Source) bool {
	if source.MonitoringType == domain.MonitoringRSS {
		return true
	}

	if _, skip := g.skipHosts[source.Hostname()]; skip {
		g.logger.InfoContext(ctx, "source on scrape skip-list", "source", source.Name, "host", source.Hostname())
		return false
	}

	used := g.readMem()
	if used >= g.cfg.HardLimitBytes {
		g.logger.WarnContext(ctx, "memory over hard limit, skipping scrape this pass",
			"source", source.Name, "used_mb", used>>20, "limit_mb", g.cfg.HardLimitBytes>>20)
		return false
	}
	return true
}

// PreScrapeDelay waits out the soft-pressure delay when memory is elevated
// but under the hard limit.
func (g *Governor) PreScrapeDelay(ctx context.Context) {
	used := g.readMem()
	if used < g.cfg.SoftLimitBytes {
		return
	}
	g.logger.InfoContext(ctx, "memory over soft limit, delaying before scrape",
		"used_mb", used>>20, "delay", g.cfg.SoftDelay)
	g.sleep(ctx, g.cfg.SoftDelay)
}

// AfterBrowserUse runs the post-render cooldown: a fixed pause for native
// browser memory to drain, plus a GC hint.
func (g *Governor) AfterBrowserUse(ctx context.Context) {
	g.sleep(ctx, g.cfg.BrowserCooldown)
	runtime.GC()
}

func residentMemory() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Sys
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
