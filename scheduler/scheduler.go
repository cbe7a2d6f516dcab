// Package scheduler orchestrates ingestion passes: it walks the active
// source list sequentially, routes each source down its monitoring path,
// funnels raw items through extraction and dedup, and persists what
// survives. One pass at a time; a run always completes and reports
// per-source results.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"harvester/dlq"
	"harvester/domain"
	"harvester/extractor"
	"harvester/fetcher"
	"harvester/governor"
	"harvester/repository"
	"harvester/scraper"
	"harvester/validation"
)

// State is the scheduler lifecycle. Stopped means the periodic loop is not
// running; manual passes are still allowed.
type State int32

const (
	StateStopped State = iota
	StateIdle
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

const feedFetchTimeout = 15 * time.Second

// ADKExtractor is the external AI extraction collaborator.
// driver.ExtractorClient satisfies it.
type ADKExtractor interface {
	ExtractArticles(ctx context.Context, source *domain.Source) ([]domain.RawItem, error)
}

// Summarizer provides preview text. Best-effort: failures fall back to the
// locally derived preview. driver.SummarizerClient satisfies it.
type Summarizer interface {
	Summarize(ctx context.Context, title, content, sourceName string) (string, error)
}

type Config struct {
	Interval     time.Duration
	MaxFeedItems int
	BatchSize    int
}

type Scheduler struct {
	cfg        Config
	sources    repository.SourceRepository
	articles   repository.ArticleRepository
	fetcher    *fetcher.Client
	pipeline   *extractor.Pipeline
	adk        ADKExtractor
	scraper    *scraper.Scraper
	governor   *governor.Governor
	summarizer Summarizer
	journal    *dlq.Journal
	logger     *slog.Logger

	// running is the single mutual-exclusion primitive between passes.
	running atomic.Bool
	state   atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(
	cfg Config,
	sources repository.SourceRepository,
	articles repository.ArticleRepository,
	client *fetcher.Client,
	pipeline *extractor.Pipeline,
	adk ADKExtractor,
	scr *scraper.Scraper,
	gov *governor.Governor,
	summarizer Summarizer,
	logger *slog.Logger,
) *Scheduler {
	s := &Scheduler{
		cfg:        cfg,
		sources:    sources,
		articles:   articles,
		fetcher:    client,
		pipeline:   pipeline,
		adk:        adk,
		scraper:    scr,
		governor:   gov,
		summarizer: summarizer,
		logger:     logger,
	}
	s.state.Store(int32(StateStopped))
	return s
}

// SetJournal enables dead letter journaling of failed items. Nil (the
// default) disables it.
func (s *Scheduler) SetJournal(journal *dlq.Journal) {
	s.journal = journal
}

func (s *Scheduler) journalFailure(ctx context.Context, source *domain.Source, link, stage string, err error) {
	if s.journal == nil {
		return
	}
	entry := dlq.Entry{
		Link:       link,
		SourceName: source.Name,
		Stage:      stage,
		Error:      err.Error(),
	}
	if recErr := s.journal.Record(ctx, entry); recErr != nil {
		s.logger.WarnContext(ctx, "failed to journal item failure", "link", link, "error", recErr)
	}
}

// State reports the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start launches the periodic loop. Stop() or ctx cancellation ends it; an
// in-flight pass always runs to completion.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Store(int32(StateIdle))

	go s.loop(loopCtx)
	s.logger.Info("scheduler started", "interval", s.cfg.Interval)
}

// Stop halts the periodic loop. Manual passes remain possible.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.state.Store(int32(StateStopped))
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The enabled check is per tick: Stop() between ticks wins.
			if s.State() == StateStopped {
				return
			}
			if _, err := s.RunIngestionPass(ctx, false); err != nil && !errors.Is(err, domain.ErrPassInProgress) {
				s.logger.Error("scheduled ingestion pass failed", "error", err)
			}
		}
	}
}

// RunIngestionPass executes one full pass over the active sources. A manual
// trigger works even while the periodic loop is stopped; concurrent triggers
// of any kind get domain.ErrPassInProgress. The pass always completes:
// per-source failures are recorded, not propagated.
func (s *Scheduler) RunIngestionPass(ctx context.Context, manual bool) ([]domain.SourceResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrPassInProgress
	}
	defer s.running.Store(false)

	prev := s.State()
	s.state.Store(int32(StateRunning))
	defer func() {
		if prev == StateStopped {
			s.state.Store(int32(StateStopped))
		} else {
			s.state.Store(int32(StateIdle))
		}
	}()

	session := uuid.NewString()
	s.logger.InfoContext(ctx, "ingestion pass starting", "manual", manual, "session_id", session)

	sources, err := s.sources.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	results := make([]domain.SourceResult, 0, len(sources))
	for _, source := range sources {
		if source.IsPaused {
			continue
		}

		result := s.processSource(ctx, source, session)
		results = append(results, result)

		if err := s.sources.UpdateLastChecked(ctx, source.ID, time.Now()); err != nil {
			s.logger.WarnContext(ctx, "failed to stamp source", "source", source.Name, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "ingestion pass finished", "sources", len(results))
	return results, nil
}

// processSource routes one source down its monitoring path and converts any
// failure into a recorded result.
func (s *Scheduler) processSource(ctx context.Context, source *domain.Source, session string) domain.SourceResult {
	result := domain.SourceResult{SourceName: source.Name, URL: source.URL}

	var (
		count int
		err   error
	)
	switch source.MonitoringType {
	case domain.MonitoringRSS:
		count, err = s.processRSS(ctx, source, session)
	case domain.MonitoringADK:
		count, err = s.processADK(ctx, source, session)
	case domain.MonitoringScraping:
		count, err = s.processScrape(ctx, source, session)
	default:
		err = fmt.Errorf("unknown monitoring type %q", source.MonitoringType)
	}

	result.NewArticleCount = count
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		s.logger.WarnContext(ctx, "source failed", "source", source.Name, "error", err)
		s.journalFailure(ctx, source, source.URL, "source", err)
	}
	return result
}

// processRSS parses the source's stored feed URL directly; RSS-typed sources
// never go back through discovery. A cosmetic XML parse error triggers one
// repair-and-reparse attempt.
func (s *Scheduler) processRSS(ctx context.Context, source *domain.Source, session string) (int, error) {
	resp, err := s.fetcher.Fetch(ctx, source.URL, fetcher.Options{Timeout: feedFetchTimeout})
	if err != nil {
		return 0, fmt.Errorf("feed fetch failed: %w", err)
	}

	// The stored URL is supposed to be a feed; a server swapping it for an
	// HTML page (parked domain, soft 404) fails the sniff before parsing.
	if !validation.IsValidFeed(resp.Body) {
		return 0, fmt.Errorf("%s: %w", source.URL, domain.ErrNotAFeed)
	}

	feed, err := gofeed.NewParser().ParseString(string(resp.Body))
	if err != nil {
		if !validation.IsAcceptableDespiteParseError(err, resp.Body) {
			return 0, fmt.Errorf("feed parse failed: %w", err)
		}
		repaired := validation.RepairFeedXML(resp.Body)
		feed, err = gofeed.NewParser().ParseString(string(repaired))
		if err != nil {
			return 0, fmt.Errorf("feed parse failed after repair: %w", err)
		}
	}

	items := feed.Items
	if len(items) > s.cfg.MaxFeedItems {
		items = items[:s.cfg.MaxFeedItems]
	}

	raws := make([]domain.RawItem, 0, len(items))
	for _, item := range items {
		raws = append(raws, domain.FromFeedItem(item))
	}
	return s.ingestItems(ctx, source, raws, false, session), nil
}

// processADK asks the external extractor first. Zero results, or a result
// set whose links all belong to foreign domains, means the extractor is lost
// and the traditional scrape takes over. A partial mismatch only filters:
// the matching items are real.
func (s *Scheduler) processADK(ctx context.Context, source *domain.Source, session string) (int, error) {
	items, err := s.adkItems(ctx, source)
	if err != nil {
		s.logger.WarnContext(ctx, "external extractor unusable, falling back to scrape",
			"source", source.Name, "error", err)
		return s.processScrape(ctx, source, session)
	}
	return s.ingestItems(ctx, source, items, false, session), nil
}

// adkItems calls the external extractor and filters the result to the
// source's own domain. Zero usable items comes back as
// domain.ErrExtractorEmpty so the caller falls back to scraping.
func (s *Scheduler) adkItems(ctx context.Context, source *domain.Source) ([]domain.RawItem, error) {
	items, err := s.adk.ExtractArticles(ctx, source)
	if err != nil {
		return nil, err
	}

	matching := filterSourceDomain(items, source)
	if len(matching) == 0 {
		return nil, fmt.Errorf("%w (returned %d, on-domain 0)", domain.ErrExtractorEmpty, len(items))
	}
	if dropped := len(items) - len(matching); dropped > 0 {
		s.logger.InfoContext(ctx, "discarded domain-mismatched extractor items",
			"source", source.Name, "dropped", dropped)
	}
	return matching, nil
}

// processScrape runs the traditional path under the resource governor.
func (s *Scheduler) processScrape(ctx context.Context, source *domain.Source, session string) (int, error) {
	if !s.governor.ShouldAttemptScraping(ctx, source) {
		return 0, domain.ErrMemoryPressure
	}
	s.governor.PreScrapeDelay(ctx)

	items, browserUsed, err := s.scraper.HarvestListing(ctx, source)
	if browserUsed {
		s.governor.AfterBrowserUse(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("listing scrape failed: %w", err)
	}

	return s.ingestItems(ctx, source, items, true, session), nil
}

// ingestItems pushes raw items through dedup, extraction and persistence in
// small batches. Per-item failures skip the item only. scraped items carry
// no content, so their pages are extracted individually -- after the dedup
// check, never before.
func (s *Scheduler) ingestItems(ctx context.Context, source *domain.Source, items []domain.RawItem, scraped bool, session string) int {
	created := 0
	for batchStart := 0; batchStart < len(items); batchStart += s.cfg.BatchSize {
		batchEnd := min(batchStart+s.cfg.BatchSize, len(items))
		for i := batchStart; i < batchEnd; i++ {
			if s.ingestOne(ctx, source, &items[i], scraped, session) {
				created++
			}
		}
	}
	return created
}

func (s *Scheduler) ingestOne(ctx context.Context, source *domain.Source, item *domain.RawItem, scraped bool, session string) bool {
	if item.Link == "" {
		return false
	}

	exists, err := s.articles.ExistsByLink(ctx, item.Link)
	if err != nil {
		s.logger.WarnContext(ctx, "dedup check failed, skipping item", "link", item.Link, "error", err)
		return false
	}
	if exists {
		return false
	}

	article, err := s.buildArticle(ctx, source, item, scraped)
	if err != nil {
		s.logger.DebugContext(ctx, "item skipped", "link", item.Link, "error", err)
		// Quality skips are expected; only real extraction failures are
		// journaled.
		if !errors.Is(err, domain.ErrErrorPageTitle) && !errors.Is(err, domain.ErrContentTooShort) {
			s.journalFailure(ctx, source, item.Link, "extract", err)
		}
		return false
	}

	article.SessionID = session
	s.attachSummary(ctx, article)

	if err := s.articles.Create(ctx, article); err != nil {
		// A duplicate here means another run won the race. That is dedup
		// working, not a failure -- but it is not a new article either.
		if errors.Is(err, domain.ErrArticleExists) {
			return false
		}
		s.logger.WarnContext(ctx, "failed to persist article", "link", item.Link, "error", err)
		s.journalFailure(ctx, source, item.Link, "persist", err)
		return false
	}
	return true
}

func (s *Scheduler) buildArticle(ctx context.Context, source *domain.Source, item *domain.RawItem, scraped bool) (*domain.Article, error) {
	if !scraped {
		return s.pipeline.FromFeedItem(ctx, item, source)
	}

	meta, browserUsed, err := s.scraper.ExtractArticle(ctx, item.Link)
	if browserUsed {
		s.governor.AfterBrowserUse(ctx)
	}
	if err != nil {
		return nil, err
	}

	title := meta.Title
	if title == "" {
		title = item.Title
	}
	if extractor.IsErrorPageTitle(title) {
		return nil, domain.ErrErrorPageTitle
	}
	if len(meta.Content) < 50 {
		return nil, domain.ErrContentTooShort
	}

	preview := meta.Description
	if preview == "" {
		preview = item.Title
	}

	return &domain.Article{
		Title:      title,
		Content:    meta.Content,
		Preview:    preview,
		Link:       item.Link,
		PubDate:    meta.PubDate,
		SourceID:   source.ID,
		SourceName: source.Name,
		Category:   source.Category,
		Status:     domain.StatusNew,
	}, nil
}

// attachSummary upgrades the preview through the summarizer when available.
func (s *Scheduler) attachSummary(ctx context.Context, article *domain.Article) {
	if s.summarizer == nil {
		return
	}
	summary, err := s.summarizer.Summarize(ctx, article.Title, article.Content, article.SourceName)
	if err != nil {
		s.logger.DebugContext(ctx, "summarizer unavailable, keeping derived preview",
			"link", article.Link, "error", err)
		return
	}
	article.Preview = summary
}

// EnrichMissingDates revisits recently ingested date-less articles and tries
// a page-level date extraction for each. Returns how many got a date.
func (s *Scheduler) EnrichMissingDates(ctx context.Context, limit int) (int, error) {
	articles, err := s.articles.ListRecentUndated(ctx, limit)
	if err != nil {
		return 0, err
	}

	enriched := 0
	for _, article := range articles {
		date, err := s.pipeline.DateFromURL(ctx, article.Link)
		if err != nil || date == nil {
			continue
		}
		if err := s.articles.Update(ctx, article.ID, &domain.ArticleUpdate{PubDate: date}); err != nil {
			s.logger.WarnContext(ctx, "failed to store enriched date", "article_id", article.ID, "error", err)
			continue
		}
		enriched++
	}

	s.logger.InfoContext(ctx, "date enrichment finished", "checked", len(articles), "enriched", enriched)
	return enriched, nil
}

// filterSourceDomain keeps only items whose link belongs to the source's own
// domain. The external extractor sometimes wanders off to syndicated or
// advertised pages.
func filterSourceDomain(items []domain.RawItem, source *domain.Source) []domain.RawItem {
	sourceHost := source.Hostname()
	if sourceHost == "" {
		return nil
	}

	matching := make([]domain.RawItem, 0, len(items))
	for _, item := range items {
		if domain.SameHost(item.Link, sourceHost) {
			matching = append(matching, item)
		}
	}
	return matching
}
