package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
)

// ArticleStore defines the interface for article data persistence.
type ArticleStore interface {
	// Create saves a new article.
	// Returns ErrDuplicateArticle if the user already has an article with
	// the same content hash, or validation errors if the article is invalid.
	Create(ctx context.Context, article *domain.Article) error

	// GetByID retrieves an article by its unique ID.
	// Returns ErrArticleNotFound if the article does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error)

	// FindByContentHashes returns the IDs of the user's articles whose
	// content hash is in hashes, keyed by hash. Missing hashes are absent.
	FindByContentHashes(ctx context.Context, userID uuid.UUID, hashes []string) (map[string]uuid.UUID, error)

	// UpdateAnalysis stores a completed analysis and marks the article analyzed.
	// Returns ErrArticleNotFound if the article does not exist.
	UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis *domain.Analysis) error

	// UpdateStatus sets the article's status.
	// Returns ErrArticleNotFound if the article does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ArticleStatus) error

	// ListRecent returns up to limit of the user's articles, newest first.
	// Returns an empty slice if the user has none.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Article, error)

	// WithTx returns a new ArticleStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ArticleStore
}
