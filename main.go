package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"harvester/config"
	"harvester/discovery"
	"harvester/dlq"
	"harvester/driver"
	"harvester/extractor"
	"harvester/fetcher"
	"harvester/governor"
	"harvester/handler"
	"harvester/metrics"
	"harvester/repository"
	"harvester/scheduler"
	"harvester/scraper"
	"harvester/utils/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := logger.LoadConfigFromEnv()
	if logCfg.EnableOTel {
		endpoint := os.Getenv("LOG_OTEL_ENDPOINT")
		shutdown, err := logger.InitOTelLogExport(ctx, logCfg.ServiceName, endpoint)
		if err != nil {
			fmt.Fprintln(os.Stderr, "otel log export disabled:", err)
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(flushCtx)
			}()
		}
	}
	log := logger.New(logCfg).Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := driver.Init(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("database pool ready", "host", cfg.Database.Host, "name", cfg.Database.Name)

	collector := metrics.NewCollector()
	client := fetcher.NewClient(fetcher.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.Fetch.Timeout,
		HostInterval: cfg.Fetch.HostInterval,
		Recorder:     collector,
	}, log)

	engine := discovery.NewEngine(client, discovery.Config{
		CacheTTL:  cfg.Discovery.CacheTTL,
		CacheSize: cfg.Discovery.CacheSize,
	}, log)

	pipeline := extractor.NewPipeline(client, log)

	articles := repository.NewArticleRepository(pool, log)
	sources := repository.NewSourceRepository(pool, log)

	adk := driver.NewExtractorClient(cfg.Extractor, log)
	summarizer := driver.NewSummarizerClient(cfg.Summarizer, log)
	renderer := driver.NewRendererClient(cfg.Renderer, log)

	scr := scraper.New(client, renderer, pipeline, cfg.Fetch.UserAgent, log)

	gov := governor.New(governor.Config{
		HardLimitBytes:  uint64(cfg.Governor.HardLimitMB) << 20,
		SoftLimitBytes:  uint64(cfg.Governor.SoftLimitMB) << 20,
		SoftDelay:       cfg.Governor.SoftDelay,
		BrowserCooldown: cfg.Governor.BrowserCooldown,
		SkipHosts:       cfg.Governor.SkipHosts,
	}, log)

	sched := scheduler.New(scheduler.Config{
		Interval:     cfg.Scheduler.Interval,
		MaxFeedItems: cfg.Scheduler.MaxFeedItems,
		BatchSize:    cfg.Scheduler.BatchSize,
	}, sources, articles, client, pipeline, adk, scr, gov, summarizer, log)

	if cfg.DLQ.BasePath != "" {
		journal := dlq.NewJournal(dlq.Config{
			BasePath:  cfg.DLQ.BasePath,
			Retention: cfg.DLQ.Retention,
		}, log)
		sched.SetJournal(journal)
		if _, err := journal.Cleanup(ctx); err != nil {
			log.Warn("journal cleanup failed", "error", err)
		}
	}

	h := handler.New(engine, sched, pipeline, collector, log)
	e := handler.NewServer(cfg.Server, h, log)

	sched.Start(ctx)
	defer sched.Stop()

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("http server starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	return nil
}
