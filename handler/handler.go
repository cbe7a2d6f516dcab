// Package handler exposes the ingestion core over HTTP: feed discovery and
// validation, manual ingestion triggers, one-off metadata extraction and the
// date-enrichment pass.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"harvester/discovery"
	"harvester/domain"
	"harvester/extractor"
	"harvester/metrics"
	"harvester/scheduler"
)

type Handler struct {
	engine    *discovery.Engine
	scheduler *scheduler.Scheduler
	pipeline  *extractor.Pipeline
	collector *metrics.Collector
	logger    *slog.Logger
}

func New(engine *discovery.Engine, sched *scheduler.Scheduler, pipeline *extractor.Pipeline, collector *metrics.Collector, logger *slog.Logger) *Handler {
	return &Handler{
		engine:    engine,
		scheduler: sched,
		pipeline:  pipeline,
		collector: collector,
		logger:    logger,
	}
}

// RegisterRoutes mounts the v1 API onto e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/v1")

	v1.POST("/discovery/discover", h.discoverFeed)
	v1.POST("/discovery/validate", h.validateFeed)

	v1.POST("/ingestion/run", h.runIngestion)
	v1.GET("/ingestion/status", h.ingestionStatus)

	v1.POST("/articles/extract", h.extractArticle)
	v1.POST("/articles/enrich-dates", h.enrichDates)

	v1.GET("/metrics", h.fetchMetrics)
	v1.GET("/health", h.health)
}

type discoverRequest struct {
	SiteURL string `json:"site_url"`
}

type discoverResponse struct {
	FeedURL string `json:"feed_url"`
}

func (h *Handler) discoverFeed(c echo.Context) error {
	var req discoverRequest
	if err := c.Bind(&req); err != nil || req.SiteURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "site_url is required")
	}

	feedURL, err := h.engine.DiscoverFeedURL(c.Request().Context(), req.SiteURL)
	if err != nil {
		if errors.Is(err, domain.ErrNoFeedFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no feed found for site")
		}
		h.logger.Error("discovery failed", "site_url", req.SiteURL, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "discovery failed")
	}
	return c.JSON(http.StatusOK, discoverResponse{FeedURL: feedURL})
}

type validateRequest struct {
	FeedURL string `json:"feed_url"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

func (h *Handler) validateFeed(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil || req.FeedURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "feed_url is required")
	}

	valid, err := h.engine.ValidateFeedURL(c.Request().Context(), req.FeedURL)
	if err != nil {
		// An unreachable URL is simply not a valid feed from the caller's
		// point of view.
		return c.JSON(http.StatusOK, validateResponse{Valid: false})
	}
	return c.JSON(http.StatusOK, validateResponse{Valid: valid})
}

type ingestionRunResponse struct {
	Results []domain.SourceResult `json:"results"`
}

func (h *Handler) runIngestion(c echo.Context) error {
	results, err := h.scheduler.RunIngestionPass(c.Request().Context(), true)
	if err != nil {
		if errors.Is(err, domain.ErrPassInProgress) {
			return echo.NewHTTPError(http.StatusConflict, "an ingestion pass is already running")
		}
		h.logger.Error("manual ingestion pass failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion pass failed")
	}
	return c.JSON(http.StatusOK, ingestionRunResponse{Results: results})
}

type ingestionStatusResponse struct {
	State string `json:"state"`
}

func (h *Handler) ingestionStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, ingestionStatusResponse{State: h.scheduler.State().String()})
}

type extractRequest struct {
	PageURL string `json:"page_url"`
}

type extractResponse struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Description string     `json:"description"`
	PubDate     *time.Time `json:"pub_date,omitempty"`
}

func (h *Handler) extractArticle(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil || req.PageURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "page_url is required")
	}

	meta, err := h.pipeline.ExtractFromURL(c.Request().Context(), req.PageURL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrErrorPageTitle), errors.Is(err, domain.ErrContentTooShort):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "page does not contain a usable article")
		default:
			h.logger.Error("metadata extraction failed", "page_url", req.PageURL, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch page")
		}
	}

	return c.JSON(http.StatusOK, extractResponse{
		Title:       meta.Title,
		Content:     meta.Content,
		Description: meta.Description,
		PubDate:     meta.PubDate,
	})
}

type enrichRequest struct {
	Limit int `json:"limit"`
}

type enrichResponse struct {
	Enriched int `json:"enriched"`
}

func (h *Handler) enrichDates(c echo.Context) error {
	var req enrichRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	enriched, err := h.scheduler.EnrichMissingDates(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("date enrichment failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "date enrichment failed")
	}
	return c.JSON(http.StatusOK, enrichResponse{Enriched: enriched})
}

func (h *Handler) fetchMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.collector.Snapshot())
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
