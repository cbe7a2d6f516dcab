package driver

import (
	"context"
	"fmt"
	"time"

	"harvester/domain"
)

// ListActiveSources returns all non-paused sources in their listing order,
// which is also the order the scheduler processes them in.
func ListActiveSources(ctx context.Context, db DB) ([]*domain.Source, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, url, name, category, monitoring_type, is_paused, last_checked_at
		FROM sources
		WHERE is_paused = FALSE
		ORDER BY position, name
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*domain.Source
	for rows.Next() {
		source := &domain.Source{}
		if err := rows.Scan(
			&source.ID, &source.URL, &source.Name, &source.Category,
			&source.MonitoringType, &source.IsPaused, &source.LastCheckedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}

// UpdateSourceLastChecked stamps a source after its slice of an ingestion
// pass, regardless of the outcome.
func UpdateSourceLastChecked(ctx context.Context, db DB, sourceID string, checkedAt time.Time) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `UPDATE sources SET last_checked_at = $1 WHERE id = $2`

	tag, err := db.Exec(ctx, query, checkedAt.UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update source %s: %w", sourceID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("source %s not found", sourceID)
	}
	return nil
}
