// Package repository wraps the driver layer behind interfaces so the
// scheduler and handlers depend on behavior, not on postgres or HTTP.
package repository

import (
	"context"
	"time"

	"harvester/domain"
)

// ArticleRepository handles article persistence. Create returns
// domain.ErrArticleExists on a duplicate link.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	ExistsByLink(ctx context.Context, link string) (bool, error)
	Update(ctx context.Context, articleID string, update *domain.ArticleUpdate) error
	ListRecentUndated(ctx context.Context, limit int) ([]*domain.Article, error)
}

// SourceRepository handles the monitored-source list.
type SourceRepository interface {
	ListActive(ctx context.Context) ([]*domain.Source, error)
	UpdateLastChecked(ctx context.Context, sourceID string, checkedAt time.Time) error
}
