package driver

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvester/domain"
)

func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleArticle() *domain.Article {
	return &domain.Article{
		Title:      "A Headline",
		Content:    "Cleaned body text.",
		Preview:    "Hook text.",
		Link:       "https://example.com/post/1",
		SourceID:   "src-1",
		SourceName: "Example",
		Category:   "tech",
		Status:     domain.StatusNew,
	}
}

func TestInsertArticle(t *testing.T) {
	mock := newMockDB(t)
	article := sampleArticle()

	mock.ExpectExec("INSERT INTO articles").
		WithArgs(
			pgxmock.AnyArg(), article.Title, article.Content, article.Preview,
			article.Link, article.PubDate,
			article.SourceID, article.SourceName, article.Category,
			article.Status, article.Seen, article.SessionID,
			pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, InsertArticle(context.Background(), mock, article))
	assert.NotEmpty(t, article.ID, "insert must assign an id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertArticle_DuplicateLinkIsDedupSuccess(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO articles").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "articles_link_key"})

	err := InsertArticle(context.Background(), mock, sampleArticle())
	assert.ErrorIs(t, err, domain.ErrArticleExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleExistsByLink(t *testing.T) {
	mock := newMockDB(t)
	link := "https://example.com/post/1"

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(link).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := ArticleExistsByLink(context.Background(), mock, link)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateArticleFields_PartialUpdate(t *testing.T) {
	mock := newMockDB(t)
	pubDate := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	update := &domain.ArticleUpdate{PubDate: &pubDate}

	mock.ExpectExec("UPDATE articles SET pub_date").
		WithArgs(pubDate, pgxmock.AnyArg(), "art-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, UpdateArticleFields(context.Background(), mock, "art-1", update))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateArticleFields_EmptyUpdateIsNoop(t *testing.T) {
	mock := newMockDB(t)
	require.NoError(t, UpdateArticleFields(context.Background(), mock, "art-1", &domain.ArticleUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentUndatedArticles(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("WHERE pub_date IS NULL").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "link"}).
			AddRow("a1", "First", "https://example.com/1").
			AddRow("a2", "Second", "https://example.com/2"))

	articles, err := ListRecentUndatedArticles(context.Background(), mock, 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "a1", articles[0].ID)
	assert.Equal(t, "https://example.com/2", articles[1].Link)
	assert.NoError(t, mock.ExpectationsWereMet())
}
