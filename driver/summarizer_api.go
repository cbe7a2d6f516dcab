package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"harvester/config"
	"harvester/retry"
)

type summarizeRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	SourceName string `json:"source_name"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// SummarizerClient calls the external summarization service for preview/hook
// text. It is best-effort: callers fall back to a locally derived preview
// when it fails.
type SummarizerClient struct {
	http    *http.Client
	cfg     config.SummarizerConfig
	retrier *retry.Retrier
	logger  *slog.Logger
}

func NewSummarizerClient(cfg config.SummarizerConfig, logger *slog.Logger) *SummarizerClient {
	return &SummarizerClient{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
		retrier: retry.NewRetrier(retry.Config{
			MaxAttempts:   2,
			BaseDelay:     time.Second,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		}, isTransientServiceError, logger),
		logger: logger,
	}
}

// Summarize returns hook text for an article, or an error the caller is
// expected to absorb.
func (c *SummarizerClient) Summarize(ctx context.Context, title, content, sourceName string) (string, error) {
	payload, err := json.Marshal(summarizeRequest{
		Title:      title,
		Content:    content,
		SourceName: sourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal summarize request: %w", err)
	}

	var parsed summarizeResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.Host+c.cfg.APIPath, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return &serviceError{service: "summarizer", err: err, transient: true}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &serviceError{
				service:   "summarizer",
				err:       fmt.Errorf("status %d: %s", resp.StatusCode, body),
				transient: resp.StatusCode >= 500,
			}
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	}

	if err := c.retrier.Do(ctx, operation); err != nil {
		return "", fmt.Errorf("summarizer call failed: %w", err)
	}

	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return "", fmt.Errorf("summarizer returned an empty summary")
	}
	return summary, nil
}
