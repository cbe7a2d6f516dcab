// Package dlq persists items that failed ingestion to a file-based dead
// letter journal. Entries are appended as JSON lines to a per-day file so
// operators can inspect or replay failures without a broker.
package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded failure.
type Entry struct {
	ID         string `json:"id"`
	Link       string `json:"link"`
	SourceName string `json:"source_name"`
	// Stage names where the item died: "extract", "persist" or "source".
	Stage     string    `json:"stage"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type Config struct {
	BasePath  string
	Retention time.Duration
}

type Journal struct {
	cfg    Config
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time
}

func NewJournal(cfg Config, logger *slog.Logger) *Journal {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &Journal{cfg: cfg, logger: logger, now: time.Now}
}

// Record appends the entry to today's journal file. ID and Timestamp are
// filled in when empty. Recording is best-effort from the caller's point of
// view but the error is returned so it can be logged.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = j.now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.cfg.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := filepath.Join(j.cfg.BasePath, j.fileName(entry.Timestamp))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}

	j.logger.DebugContext(ctx, "failure journaled",
		"id", entry.ID, "link", entry.Link, "stage", entry.Stage)
	return nil
}

// Cleanup removes journal files older than the retention window and returns
// how many were deleted.
func (j *Journal) Cleanup(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := os.ReadDir(j.cfg.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read journal directory: %w", err)
	}

	cutoff := j.now().Add(-j.cfg.Retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.cfg.BasePath, e.Name())); err != nil {
			j.logger.WarnContext(ctx, "failed to remove expired journal file",
				"file", e.Name(), "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.InfoContext(ctx, "expired journal files removed", "count", removed)
	}
	return removed, nil
}

func (j *Journal) fileName(ts time.Time) string {
	return "failed-" + ts.Format("20060102") + ".jsonl"
}
