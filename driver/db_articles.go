package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"harvester/domain"
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// DB is the query surface shared by *pgxpool.Pool and the pgxmock pool used
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsertArticle persists a new article. A unique violation on the link
// column maps to domain.ErrArticleExists: a concurrent run got there first,
// which is a dedup success, not a failure.
func InsertArticle(ctx context.Context, db DB, article *domain.Article) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	query := `
		INSERT INTO articles (
			id, title, content, preview, link, pub_date,
			source_id, source_name, category, status, seen, session_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := db.Exec(ctx, query,
		article.ID, article.Title, article.Content, article.Preview,
		article.Link, article.PubDate,
		article.SourceID, article.SourceName, article.Category,
		article.Status, article.Seen, article.SessionID,
		article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrArticleExists
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// ArticleExistsByLink reports whether an article with this link is already
// persisted. Link is the sole dedup key.
func ArticleExistsByLink(ctx context.Context, db DB, link string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("database connection is nil")
	}

	query := `SELECT EXISTS(SELECT 1 FROM articles WHERE link = $1)`

	var exists bool
	if err := db.QueryRow(ctx, query, link).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return exists, nil
}

// UpdateArticleFields applies a partial update. Nil fields are left alone.
func UpdateArticleFields(ctx context.Context, db DB, articleID string, update *domain.ArticleUpdate) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Content != nil {
		add("content", *update.Content)
	}
	if update.Preview != nil {
		add("preview", *update.Preview)
	}
	if update.PubDate != nil {
		add("pub_date", *update.PubDate)
	}
	if len(sets) == 0 {
		return nil
	}

	add("updated_at", time.Now().UTC())
	args = append(args, articleID)
	query := fmt.Sprintf("UPDATE articles SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update article %s: %w", articleID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s not found", articleID)
	}
	return nil
}

// ListRecentUndatedArticles returns the newest articles still missing a
// publish date, for the date-enrichment pass.
func ListRecentUndatedArticles(ctx context.Context, db DB, limit int) ([]*domain.Article, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, title, link
		FROM articles
		WHERE pub_date IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list undated articles: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		article := &domain.Article{}
		if err := rows.Scan(&article.ID, &article.Title, &article.Link); err != nil {
			return nil, fmt.Errorf("failed to scan undated article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read undated articles: %w", err)
	}
	return articles, nil
}
