package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
)

// PreferenceStore defines the interface for feature weight persistence.
//
// Every mutation is an upsert keyed by (user_id, feature_key): it creates
// the row when missing and otherwise updates it, refreshing updated_at.
// Concurrent writers to the same key resolve as last write wins.
type PreferenceStore interface {
	// ListWeights returns all of the user's weights ordered by feature key.
	// Returns an empty slice if the user has none.
	ListWeights(ctx context.Context, userID uuid.UUID) ([]*domain.FeatureWeight, error)

	// UpsertWeightDelta adds delta to the stored weight, starting from zero
	// for a new key. The muted flag is left unchanged.
	UpsertWeightDelta(ctx context.Context, userID uuid.UUID, feature domain.Feature, delta float64) (*domain.FeatureWeight, error)

	// SetWeight overwrites the stored weight. The muted flag is left unchanged.
	SetWeight(ctx context.Context, userID uuid.UUID, feature domain.Feature, weight float64) (*domain.FeatureWeight, error)

	// SetMuteState sets the muted flag. A new key starts with weight zero.
	SetMuteState(ctx context.Context, userID uuid.UUID, feature domain.Feature, muted bool) (*domain.FeatureWeight, error)

	// ResetWeight sets the weight to zero and unmutes the feature.
	ResetWeight(ctx context.Context, userID uuid.UUID, feature domain.Feature) (*domain.FeatureWeight, error)

	// WithTx returns a new PreferenceStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PreferenceStore
}
