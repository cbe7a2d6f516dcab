package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"harvester/config"
	"harvester/domain"
	"harvester/retry"
)

// extractedItem is the wire shape the external AI extractor returns per
// article. The service is treated as untrusted: every field is optional and
// the caller re-validates links and domains.
type extractedItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Published   string `json:"published,omitempty"`
	Author      string `json:"author,omitempty"`
}

type extractRequest struct {
	SourceURL  string `json:"source_url"`
	SourceName string `json:"source_name"`
	Category   string `json:"category"`
}

type extractResponse struct {
	Articles []extractedItem `json:"articles"`
}

// ExtractorClient calls the external AI article extractor.
type ExtractorClient struct {
	http    *http.Client
	cfg     config.ExtractorConfig
	retrier *retry.Retrier
	logger  *slog.Logger
}

func NewExtractorClient(cfg config.ExtractorConfig, logger *slog.Logger) *ExtractorClient {
	return &ExtractorClient{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
		retrier: retry.NewRetrier(retry.Config{
			MaxAttempts:   3,
			BaseDelay:     2 * time.Second,
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		}, isTransientServiceError, logger),
		logger: logger,
	}
}

// ExtractArticles asks the external extractor for the source's current
// articles. An empty result is legitimate and left to the caller to act on.
func (c *ExtractorClient) ExtractArticles(ctx context.Context, source *domain.Source) ([]domain.RawItem, error) {
	payload, err := json.Marshal(extractRequest{
		SourceURL:  source.URL,
		SourceName: source.Name,
		Category:   source.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extract request: %w", err)
	}

	var parsed extractResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.Host+c.cfg.APIPath, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return &serviceError{service: "extractor", err: err, transient: true}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &serviceError{
				service:   "extractor",
				err:       fmt.Errorf("status %d: %s", resp.StatusCode, body),
				transient: resp.StatusCode >= 500,
			}
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	}

	if err := c.retrier.Do(ctx, operation); err != nil {
		return nil, fmt.Errorf("extractor call failed: %w", err)
	}

	items := make([]domain.RawItem, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		items = append(items, domain.RawItem{
			Title:       a.Title,
			Link:        a.Link,
			Content:     a.Content,
			Description: a.Description,
			Published:   a.Published,
			Author:      a.Author,
		})
	}

	c.logger.InfoContext(ctx, "external extractor returned articles",
		"source", source.Name, "count", len(items))
	return items, nil
}

// serviceError wraps a collaborator failure with retryability.
type serviceError struct {
	service   string
	err       error
	transient bool
}

func (e *serviceError) Error() string {
	return fmt.Sprintf("%s service: %v", e.service, e.err)
}

func (e *serviceError) Unwrap() error { return e.err }

func isTransientServiceError(err error) bool {
	if se, ok := err.(*serviceError); ok {
		return se.transient
	}
	return false
}
