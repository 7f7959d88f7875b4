package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/store"
)

const weightColumns = `user_id, feature_key, feature_type, feature_value, weight, muted, created_at, updated_at`

// The upserts share one INSERT shape and differ only in the conflict
// action. $5 is the weight (or delta), $6 the muted flag, $7 the timestamp.
const upsertWeightPrefix = `
	INSERT INTO feature_weights (user_id, feature_key, feature_type, feature_value, weight, muted, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (user_id, feature_key) DO UPDATE SET `

const upsertWeightSuffix = `, updated_at = EXCLUDED.updated_at
	RETURNING ` + weightColumns

const (
	upsertDeltaQuery = upsertWeightPrefix +
		`weight = feature_weights.weight + EXCLUDED.weight` + upsertWeightSuffix
	setWeightQuery = upsertWeightPrefix +
		`weight = EXCLUDED.weight` + upsertWeightSuffix
	setMuteQuery = upsertWeightPrefix +
		`muted = EXCLUDED.muted` + upsertWeightSuffix
	resetWeightQuery = upsertWeightPrefix +
		`weight = 0, muted = FALSE` + upsertWeightSuffix
)

// PostgresPreferenceStore implements the store.PreferenceStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPreferenceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPreferenceStore creates a new PostgreSQL implementation of the PreferenceStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPreferenceStore(db store.DBTX, logger *slog.Logger) *PostgresPreferenceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPreferenceStore{
		db:     db,
		logger: logger.With(slog.String("component", "preference_store")),
	}
}

// Ensure PostgresPreferenceStore implements store.PreferenceStore interface
var _ store.PreferenceStore = (*PostgresPreferenceStore)(nil)

// ListWeights implements store.PreferenceStore.ListWeights
func (s *PostgresPreferenceStore) ListWeights(ctx context.Context, userID uuid.UUID) ([]*domain.FeatureWeight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + weightColumns + ` FROM feature_weights WHERE user_id = $1 ORDER BY feature_key`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list feature weights",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	weights := make([]*domain.FeatureWeight, 0)
	for rows.Next() {
		w, err := scanWeight(rows)
		if err != nil {
			return nil, MapError(err)
		}
		weights = append(weights, w)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return weights, nil
}

// UpsertWeightDelta implements store.PreferenceStore.UpsertWeightDelta
func (s *PostgresPreferenceStore) UpsertWeightDelta(
	ctx context.Context,
	userID uuid.UUID,
	feature domain.Feature,
	delta float64,
) (*domain.FeatureWeight, error) {
	return s.upsert(ctx, "upsert_delta", upsertDeltaQuery, userID, feature, delta, false)
}

// SetWeight implements store.PreferenceStore.SetWeight
func (s *PostgresPreferenceStore) SetWeight(
	ctx context.Context,
	userID uuid.UUID,
	feature domain.Feature,
	weight float64,
) (*domain.FeatureWeight, error) {
	return s.upsert(ctx, "set_weight", setWeightQuery, userID, feature, weight, false)
}

// SetMuteState implements store.PreferenceStore.SetMuteState
func (s *PostgresPreferenceStore) SetMuteState(
	ctx context.Context,
	userID uuid.UUID,
	feature domain.Feature,
	muted bool,
) (*domain.FeatureWeight, error) {
	return s.upsert(ctx, "set_mute", setMuteQuery, userID, feature, 0, muted)
}

// ResetWeight implements store.PreferenceStore.ResetWeight
func (s *PostgresPreferenceStore) ResetWeight(
	ctx context.Context,
	userID uuid.UUID,
	feature domain.Feature,
) (*domain.FeatureWeight, error) {
	return s.upsert(ctx, "reset", resetWeightQuery, userID, feature, 0, false)
}

func (s *PostgresPreferenceStore) upsert(
	ctx context.Context,
	operation string,
	query string,
	userID uuid.UUID,
	feature domain.Feature,
	weight float64,
	muted bool,
) (*domain.FeatureWeight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if feature.Key == "" {
		return nil, domain.ErrInvalidFeature
	}

	row := s.db.QueryRowContext(ctx, query,
		userID,
		feature.Key,
		feature.Type,
		feature.Value,
		weight,
		muted,
		time.Now().UTC(),
	)
	w, err := scanWeight(row)
	if err != nil {
		log.Error("failed to write feature weight",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("feature_key", feature.Key))
		return nil, store.NewStoreError("feature_weight", operation, "upsert failed", MapError(err))
	}

	log.Debug("feature weight written",
		slog.String("operation", operation),
		slog.String("feature_key", w.Key),
		slog.Float64("weight", w.Weight),
		slog.Bool("muted", w.Muted))
	return w, nil
}

// WithTx implements store.PreferenceStore.WithTx
func (s *PostgresPreferenceStore) WithTx(tx *sql.Tx) store.PreferenceStore {
	return &PostgresPreferenceStore{db: tx, logger: s.logger}
}

func scanWeight(row rowScanner) (*domain.FeatureWeight, error) {
	var w domain.FeatureWeight
	err := row.Scan(
		&w.UserID,
		&w.Key,
		&w.Type,
		&w.Value,
		&w.Weight,
		&w.Muted,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
