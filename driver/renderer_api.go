package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"harvester/config"
	"harvester/domain"
)

// maxRenderedBytes bounds a rendered page; DOM serializations of heavy pages
// can be enormous.
const maxRenderedBytes = 8 << 20

// RendererClient talks to the external headless-render service. Each render
// opens a remote browser session that MUST be released; WithRenderedPage is
// the only way through, so no call site can forget the close.
type RendererClient struct {
	http   *http.Client
	cfg    config.RendererConfig
	logger *slog.Logger
}

func NewRendererClient(cfg config.RendererConfig, logger *slog.Logger) *RendererClient {
	return &RendererClient{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

type renderResponse struct {
	SessionID string `json:"session_id"`
	HTML      string `json:"html"`
}

// WithRenderedPage renders pageURL in the remote browser, hands the DOM HTML
// to fn, and releases the browser session on every exit path, including a
// panic inside fn. Returns domain.ErrRendererUnavailable when the service
// cannot be reached so callers can fall back to a static fetch.
func (c *RendererClient) WithRenderedPage(ctx context.Context, pageURL string, fn func(html []byte) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.Host+"/render?url="+url.QueryEscape(pageURL), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "renderer unreachable", "url", pageURL, "error", err)
		return domain.ErrRendererUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusBadGateway {
		return domain.ErrRendererUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, body)
	}

	var rendered renderResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRenderedBytes)).Decode(&rendered); err != nil {
		return fmt.Errorf("failed to decode render response: %w", err)
	}

	defer c.releaseSession(ctx, rendered.SessionID)
	return fn([]byte(rendered.HTML))
}

// releaseSession tells the renderer to tear the browser session down. A
// failed release is logged, not surfaced: the service reaps stale sessions
// on its own timer.
func (c *RendererClient) releaseSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.cfg.Host+"/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to release renderer session", "session_id", sessionID, "error", err)
		return
	}
	_ = resp.Body.Close()
}
