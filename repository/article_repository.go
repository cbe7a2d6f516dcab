package repository

import (
	"context"
	"errors"
	"log/slog"

	"harvester/domain"
	"harvester/driver"
	apperrors "harvester/utils/errors"
)

type articleRepository struct {
	db     driver.DB
	logger *slog.Logger
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db driver.DB, logger *slog.Logger) ArticleRepository {
	return &articleRepository{db: db, logger: logger}
}

// Create persists a new article. Duplicate links surface as
// domain.ErrArticleExists and are logged at debug level only: the scheduler
// treats them as dedup hits, not failures.
func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	if err := driver.InsertArticle(ctx, r.db, article); err != nil {
		if errors.Is(err, domain.ErrArticleExists) {
			r.logger.DebugContext(ctx, "article already exists", "link", article.Link)
			return err
		}
		r.logger.ErrorContext(ctx, "failed to create article", "link", article.Link, "error", err)
		return apperrors.DatabaseError("failed to create article", err, map[string]any{"link": article.Link})
	}

	r.logger.InfoContext(ctx, "article created", "link", article.Link, "source", article.SourceName)
	return nil
}

func (r *articleRepository) ExistsByLink(ctx context.Context, link string) (bool, error) {
	exists, err := driver.ArticleExistsByLink(ctx, r.db, link)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to check article existence", "link", link, "error", err)
		return false, apperrors.DatabaseError("failed to check article existence", err, map[string]any{"link": link})
	}
	return exists, nil
}

func (r *articleRepository) Update(ctx context.Context, articleID string, update *domain.ArticleUpdate) error {
	if err := driver.UpdateArticleFields(ctx, r.db, articleID, update); err != nil {
		r.logger.ErrorContext(ctx, "failed to update article", "article_id", articleID, "error", err)
		return apperrors.DatabaseError("failed to update article", err, map[string]any{"article_id": articleID})
	}
	return nil
}

func (r *articleRepository) ListRecentUndated(ctx context.Context, limit int) ([]*domain.Article, error) {
	articles, err := driver.ListRecentUndatedArticles(ctx, r.db, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list undated articles", "error", err)
		return nil, apperrors.DatabaseError("failed to list undated articles", err, nil)
	}
	return articles, nil
}
