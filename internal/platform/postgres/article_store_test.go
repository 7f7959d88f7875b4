package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockArticleStore(t *testing.T) (*PostgresArticleStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresArticleStore(db, discardLogger()), mock
}

var articleRowColumns = []string{
	"id", "user_id", "url", "title", "content", "content_hash", "status", "published_at",
	"summary", "categories", "impact_score", "analyzed_at", "created_at", "updated_at",
}

func TestArticleStore_Create(t *testing.T) {
	s, mock := newMockArticleStore(t)
	article, err := domain.NewArticle(uuid.New(), "https://example.com", "Title", "Body", nil)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO articles").
		WithArgs(article.ID, article.UserID, article.URL, article.Title, article.Content,
			article.ContentHash, article.Status, sqlmock.AnyArg(), article.CreatedAt, article.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), article))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleStore_Create_Duplicate(t *testing.T) {
	s, mock := newMockArticleStore(t)
	article, err := domain.NewArticle(uuid.New(), "", "Title", "Body", nil)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO articles").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err = s.Create(context.Background(), article)
	assert.ErrorIs(t, err, store.ErrDuplicateArticle)
	assert.True(t, store.IsDuplicateError(err))
}

func TestArticleStore_Create_Invalid(t *testing.T) {
	s, mock := newMockArticleStore(t)

	err := s.Create(context.Background(), &domain.Article{ID: uuid.New(), UserID: uuid.New(), Status: domain.ArticleStatusPending})
	assert.ErrorIs(t, err, domain.ErrEmptyArticleTitle)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query for invalid article")
}

func TestArticleStore_GetByID(t *testing.T) {
	s, mock := newMockArticleStore(t)
	id, userID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM articles WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(articleRowColumns).AddRow(
			id.String(), userID.String(), "", "Title", "Body", "hash", "analyzed", nil,
			"Summary", "AI, Security", 72.0, now, now, now,
		))

	article, err := s.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, article.ID)
	assert.Equal(t, domain.ArticleStatusAnalyzed, article.Status)
	assert.Nil(t, article.PublishedAt)
	require.NotNil(t, article.Analysis)
	assert.Equal(t, "AI, Security", article.Analysis.Categories)
	require.NotNil(t, article.Analysis.ImpactScore)
	assert.Equal(t, 72.0, *article.Analysis.ImpactScore)
}

func TestArticleStore_GetByID_NotFound(t *testing.T) {
	s, mock := newMockArticleStore(t)
	mock.ExpectQuery("SELECT (.+) FROM articles").WillReturnRows(sqlmock.NewRows(articleRowColumns))

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrArticleNotFound)
}

func TestArticleStore_FindByContentHashes(t *testing.T) {
	s, mock := newMockArticleStore(t)
	userID, existing := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT content_hash, id FROM articles WHERE user_id = \\$1 AND content_hash IN \\(\\$2, \\$3\\)").
		WithArgs(userID, "h1", "h2").
		WillReturnRows(sqlmock.NewRows([]string{"content_hash", "id"}).AddRow("h1", existing.String()))

	found, err := s.FindByContentHashes(context.Background(), userID, []string{"h1", "h2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]uuid.UUID{"h1": existing}, found)

	empty, err := s.FindByContentHashes(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleStore_UpdateAnalysis(t *testing.T) {
	s, mock := newMockArticleStore(t)
	id := uuid.New()
	score := 55.0
	analysis := &domain.Analysis{Summary: "s", Categories: "AI", ImpactScore: &score, AnalyzedAt: time.Now().UTC()}

	mock.ExpectExec("UPDATE articles").
		WithArgs("s", "AI", sqlmock.AnyArg(), analysis.AnalyzedAt, domain.ArticleStatusAnalyzed, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateAnalysis(context.Background(), id, analysis))

	mock.ExpectExec("UPDATE articles").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.UpdateAnalysis(context.Background(), uuid.New(), analysis), store.ErrArticleNotFound)

	assert.ErrorIs(t, s.UpdateAnalysis(context.Background(), id, nil), store.ErrInvalidEntity)
}

func TestArticleStore_UpdateStatus(t *testing.T) {
	s, mock := newMockArticleStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE articles SET status").
		WithArgs(domain.ArticleStatusFailed, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateStatus(context.Background(), id, domain.ArticleStatusFailed))

	assert.ErrorIs(t, s.UpdateStatus(context.Background(), id, "archived"), domain.ErrInvalidArticleStatus)
}

func TestArticleStore_UpdateFailuresWrapErrUpdateFailed(t *testing.T) {
	s, mock := newMockArticleStore(t)
	id := uuid.New()
	analysis := &domain.Analysis{Summary: "s", Categories: "AI", AnalyzedAt: time.Now().UTC()}
	connErr := errors.New("connection reset by peer")

	mock.ExpectExec("UPDATE articles").WillReturnError(connErr)
	err := s.UpdateAnalysis(context.Background(), id, analysis)
	assert.ErrorIs(t, err, store.ErrUpdateFailed)
	assert.False(t, store.IsNotFoundError(err))

	mock.ExpectExec("UPDATE articles SET status").
		WillReturnError(&pgconn.PgError{Code: checkViolationCode})
	err = s.UpdateStatus(context.Background(), id, domain.ArticleStatusFailed)
	assert.ErrorIs(t, err, store.ErrUpdateFailed)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleStore_ListRecent(t *testing.T) {
	s, mock := newMockArticleStore(t)
	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM articles\\s+WHERE user_id = \\$1\\s+ORDER BY created_at DESC").
		WithArgs(userID, 10).
		WillReturnRows(sqlmock.NewRows(articleRowColumns).
			AddRow(uuid.New().String(), userID.String(), "", "New", "Body", "h2", "pending", now, nil, nil, nil, nil, now, now).
			AddRow(uuid.New().String(), userID.String(), "", "Old", "Body", "h1", "analyzed", nil, "S", "AI", nil, now, now, now))

	articles, err := s.ListRecent(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Nil(t, articles[0].Analysis)
	require.NotNil(t, articles[0].PublishedAt)
	require.NotNil(t, articles[1].Analysis)
	assert.Nil(t, articles[1].Analysis.ImpactScore)
}

func TestArticleStore_ListRecent_QueryError(t *testing.T) {
	s, mock := newMockArticleStore(t)
	queryErr := errors.New("connection reset")
	mock.ExpectQuery("SELECT").WillReturnError(queryErr)

	_, err := s.ListRecent(context.Background(), uuid.New(), 5)
	assert.ErrorIs(t, err, queryErr)
}
