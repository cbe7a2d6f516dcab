package repository

import (
	"context"
	"log/slog"
	"time"

	"harvester/domain"
	"harvester/driver"
	apperrors "harvester/utils/errors"
)

type sourceRepository struct {
	db     driver.DB
	logger *slog.Logger
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(db driver.DB, logger *slog.Logger) SourceRepository {
	return &sourceRepository{db: db, logger: logger}
}

func (r *sourceRepository) ListActive(ctx context.Context) ([]*domain.Source, error) {
	sources, err := driver.ListActiveSources(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list active sources", "error", err)
		return nil, apperrors.DatabaseError("failed to list active sources", err, nil)
	}

	r.logger.InfoContext(ctx, "listed active sources", "count", len(sources))
	return sources, nil
}

func (r *sourceRepository) UpdateLastChecked(ctx context.Context, sourceID string, checkedAt time.Time) error {
	if err := driver.UpdateSourceLastChecked(ctx, r.db, sourceID, checkedAt); err != nil {
		r.logger.ErrorContext(ctx, "failed to update source last-checked", "source_id", sourceID, "error", err)
		return apperrors.DatabaseError("failed to update source last-checked", err, map[string]any{"source_id": sourceID})
	}
	return nil
}
