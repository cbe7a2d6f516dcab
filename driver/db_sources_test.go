package driver

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvester/domain"
)

func TestListActiveSources(t *testing.T) {
	mock := newMockDB(t)
	checked := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM sources").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "name", "category", "monitoring_type", "is_paused", "last_checked_at",
		}).
			AddRow("s1", "https://example.com/feed.xml", "Example", "tech", domain.MonitoringRSS, false, &checked).
			AddRow("s2", "https://other.net", "Other", "news", domain.MonitoringScraping, false, nil))

	sources, err := ListActiveSources(context.Background(), mock)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, domain.MonitoringRSS, sources[0].MonitoringType)
	assert.Nil(t, sources[1].LastCheckedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSourceLastChecked(t *testing.T) {
	mock := newMockDB(t)
	now := time.Now()

	mock.ExpectExec("UPDATE sources SET last_checked_at").
		WithArgs(now.UTC(), "s1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, UpdateSourceLastChecked(context.Background(), mock, "s1", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSourceLastChecked_MissingSource(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec("UPDATE sources SET last_checked_at").
		WithArgs(pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := UpdateSourceLastChecked(context.Background(), mock, "ghost", time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
