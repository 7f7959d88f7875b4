package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/store"
)

const articleColumns = `id, user_id, url, title, content, content_hash, status, published_at,
		summary, categories, impact_score, analyzed_at, created_at, updated_at`

// PostgresArticleStore implements the store.ArticleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresArticleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresArticleStore creates a new PostgreSQL implementation of the ArticleStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresArticleStore(db store.DBTX, logger *slog.Logger) *PostgresArticleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresArticleStore{
		db:     db,
		logger: logger.With(slog.String("component", "article_store")),
	}
}

// Ensure PostgresArticleStore implements store.ArticleStore interface
var _ store.ArticleStore = (*PostgresArticleStore)(nil)

// Create implements store.ArticleStore.Create
func (s *PostgresArticleStore) Create(ctx context.Context, article *domain.Article) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := article.Validate(); err != nil {
		log.Warn("article validation failed during create",
			slog.String("error", err.Error()),
			slog.String("article_id", article.ID.String()))
		return err
	}

	query := `
		INSERT INTO articles (id, user_id, url, title, content, content_hash, status, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		article.ID,
		article.UserID,
		article.URL,
		article.Title,
		article.Content,
		article.ContentHash,
		article.Status,
		nullTime(article.PublishedAt),
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate article content",
				slog.String("user_id", article.UserID.String()),
				slog.String("content_hash", article.ContentHash))
			return fmt.Errorf("%w: %v", store.ErrDuplicateArticle, err)
		}
		log.Error("failed to create article",
			slog.String("error", err.Error()),
			slog.String("article_id", article.ID.String()))
		return MapError(err)
	}

	log.Debug("article created",
		slog.String("article_id", article.ID.String()),
		slog.String("user_id", article.UserID.String()))
	return nil
}

// GetByID implements store.ArticleStore.GetByID
func (s *PostgresArticleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	article, err := scanArticle(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("article not found", slog.String("article_id", id.String()))
			return nil, store.ErrArticleNotFound
		}
		log.Error("failed to get article by ID",
			slog.String("error", err.Error()),
			slog.String("article_id", id.String()))
		return nil, MapError(err)
	}
	return article, nil
}

// FindByContentHashes implements store.ArticleStore.FindByContentHashes
func (s *PostgresArticleStore) FindByContentHashes(
	ctx context.Context,
	userID uuid.UUID,
	hashes []string,
) (map[string]uuid.UUID, error) {
	found := make(map[string]uuid.UUID)
	if len(hashes) == 0 {
		return found, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	placeholders := make([]string, len(hashes))
	args := make([]any, 0, len(hashes)+1)
	args = append(args, userID)
	for i, h := range hashes {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, h)
	}

	query := `SELECT content_hash, id FROM articles WHERE user_id = $1 AND content_hash IN (` +
		strings.Join(placeholders, ", ") + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query articles by content hash",
			slog.String("error", err.Error()),
			slog.Int("hash_count", len(hashes)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var hash string
		var id uuid.UUID
		if err := rows.Scan(&hash, &id); err != nil {
			return nil, MapError(err)
		}
		found[hash] = id
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return found, nil
}

// UpdateAnalysis implements store.ArticleStore.UpdateAnalysis
func (s *PostgresArticleStore) UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis *domain.Analysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if analysis == nil {
		return fmt.Errorf("%w: analysis cannot be nil", store.ErrInvalidEntity)
	}

	query := `
		UPDATE articles
		SET summary = $1, categories = $2, impact_score = $3, analyzed_at = $4, status = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		analysis.Summary,
		analysis.Categories,
		nullFloat(analysis.ImpactScore),
		analysis.AnalyzedAt,
		domain.ArticleStatusAnalyzed,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update article analysis",
			slog.String("error", err.Error()),
			slog.String("article_id", id.String()))
		return fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err))
	}
	return CheckRowsAffected(result, store.ErrArticleNotFound)
}

// UpdateStatus implements store.ArticleStore.UpdateStatus
func (s *PostgresArticleStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ArticleStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if !status.IsValid() {
		return domain.ErrInvalidArticleStatus
	}

	query := `UPDATE articles SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update article status",
			slog.String("error", err.Error()),
			slog.String("article_id", id.String()))
		return fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err))
	}
	return CheckRowsAffected(result, store.ErrArticleNotFound)
}

// ListRecent implements store.ArticleStore.ListRecent
func (s *PostgresArticleStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Article, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + articleColumns + `
		FROM articles
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to list recent articles",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*domain.Article, 0, limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, MapError(err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return articles, nil
}

// WithTx implements store.ArticleStore.WithTx
func (s *PostgresArticleStore) WithTx(tx *sql.Tx) store.ArticleStore {
	return &PostgresArticleStore{db: tx, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var (
		a           domain.Article
		status      string
		publishedAt sql.NullTime
		summary     sql.NullString
		categories  sql.NullString
		impact      sql.NullFloat64
		analyzedAt  sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.URL,
		&a.Title,
		&a.Content,
		&a.ContentHash,
		&status,
		&publishedAt,
		&summary,
		&categories,
		&impact,
		&analyzedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = domain.ArticleStatus(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		a.PublishedAt = &t
	}
	if analyzedAt.Valid {
		a.Analysis = &domain.Analysis{
			Summary:    summary.String,
			Categories: categories.String,
			AnalyzedAt: analyzedAt.Time,
		}
		if impact.Valid {
			v := impact.Float64
			a.Analysis.ImpactScore = &v
		}
	}
	return &a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
