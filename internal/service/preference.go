package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/events"
	"github.com/phrazzld/leadwire-api/internal/metrics"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/store"
)

// Weight update sources recorded in metrics.
const (
	weightSourceUser    = "user"
	weightSourceLearner = "learner"
)

// Decision is a recorded user verdict on an article.
type Decision struct {
	UserID    uuid.UUID              `json:"user_id"`
	ArticleID uuid.UUID              `json:"article_id"`
	Outcome   domain.DecisionOutcome `json:"outcome"`
	DecidedAt time.Time              `json:"decided_at"`
}

// PreferenceService manages a user's feature weights.
//
// Every feature is addressed by type and value; both are normalized so
// "AI", " ai " and "Ai" name the same weight.
type PreferenceService interface {
	// List returns all of the user's weights ordered by feature key.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.FeatureWeight, error)

	// Adjust adds delta to the weight, creating it at zero first if needed.
	Adjust(ctx context.Context, userID uuid.UUID, featureType, value string, delta float64) (*domain.FeatureWeight, error)

	// SetWeight overwrites the weight.
	SetWeight(ctx context.Context, userID uuid.UUID, featureType, value string, weight float64) (*domain.FeatureWeight, error)

	// SetMuted mutes or unmutes the feature without touching its weight.
	SetMuted(ctx context.Context, userID uuid.UUID, featureType, value string, muted bool) (*domain.FeatureWeight, error)

	// Reset zeroes the weight and unmutes the feature.
	Reset(ctx context.Context, userID uuid.UUID, featureType, value string) (*domain.FeatureWeight, error)

	// RecordDecision records the user's verdict on one of their articles and
	// publishes it for learning. Weight changes happen in the event handlers.
	RecordDecision(ctx context.Context, userID, articleID uuid.UUID, outcome domain.DecisionOutcome) (*Decision, error)
}

type preferenceServiceImpl struct {
	preferences  store.PreferenceStore
	articles     store.ArticleStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewPreferenceService creates a new PreferenceService.
// It returns an error if any of the required dependencies are nil.
func NewPreferenceService(
	preferences store.PreferenceStore,
	articles store.ArticleStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (PreferenceService, error) {
	if preferences == nil {
		return nil, domain.NewValidationError("preferences", "cannot be nil", domain.ErrValidation)
	}
	if articles == nil {
		return nil, domain.NewValidationError("articles", "cannot be nil", domain.ErrValidation)
	}
	if eventEmitter == nil {
		return nil, domain.NewValidationError("eventEmitter", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &preferenceServiceImpl{
		preferences:  preferences,
		articles:     articles,
		eventEmitter: eventEmitter,
		logger:       logger.With(slog.String("component", "preference_service")),
	}, nil
}

// List implements PreferenceService.List
func (s *preferenceServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*domain.FeatureWeight, error) {
	weights, err := s.preferences.ListWeights(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list weights",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("preference", "list", err)
	}
	return weights, nil
}

// Adjust implements PreferenceService.Adjust
func (s *preferenceServiceImpl) Adjust(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
	delta float64,
) (*domain.FeatureWeight, error) {
	return s.mutate(ctx, "adjust", featureType, value,
		func(f domain.Feature) (*domain.FeatureWeight, error) {
			return s.preferences.UpsertWeightDelta(ctx, userID, f, delta)
		})
}

// SetWeight implements PreferenceService.SetWeight
func (s *preferenceServiceImpl) SetWeight(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
	weight float64,
) (*domain.FeatureWeight, error) {
	return s.mutate(ctx, "set_weight", featureType, value,
		func(f domain.Feature) (*domain.FeatureWeight, error) {
			return s.preferences.SetWeight(ctx, userID, f, weight)
		})
}

// SetMuted implements PreferenceService.SetMuted
func (s *preferenceServiceImpl) SetMuted(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
	muted bool,
) (*domain.FeatureWeight, error) {
	return s.mutate(ctx, "set_muted", featureType, value,
		func(f domain.Feature) (*domain.FeatureWeight, error) {
			return s.preferences.SetMuteState(ctx, userID, f, muted)
		})
}

// Reset implements PreferenceService.Reset
func (s *preferenceServiceImpl) Reset(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
) (*domain.FeatureWeight, error) {
	return s.mutate(ctx, "reset", featureType, value,
		func(f domain.Feature) (*domain.FeatureWeight, error) {
			return s.preferences.ResetWeight(ctx, userID, f)
		})
}

func (s *preferenceServiceImpl) mutate(
	ctx context.Context,
	op string,
	featureType, value string,
	write func(domain.Feature) (*domain.FeatureWeight, error),
) (*domain.FeatureWeight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	feature, err := domain.NormalizeFeature(featureType, value)
	if err != nil {
		return nil, err
	}

	w, err := write(feature)
	if err != nil {
		log.Error("failed to update feature weight",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("feature_key", feature.Key))
		return nil, NewServiceError("preference", op, err)
	}

	metrics.RecordWeightUpdate(weightSourceUser)
	log.Info("feature weight updated",
		slog.String("operation", op),
		slog.String("feature_key", w.Key),
		slog.Float64("weight", w.Weight),
		slog.Bool("muted", w.Muted))
	return w, nil
}

// RecordDecision implements PreferenceService.RecordDecision
func (s *preferenceServiceImpl) RecordDecision(
	ctx context.Context,
	userID, articleID uuid.UUID,
	outcome domain.DecisionOutcome,
) (*Decision, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		log.Error("failed to load article for decision",
			slog.String("error", err.Error()),
			slog.String("article_id", articleID.String()))
		return nil, NewServiceError("preference", "record_decision", err)
	}
	if article.UserID != userID {
		log.Warn("decision on article owned by another user",
			slog.String("user_id", userID.String()),
			slog.String("article_id", articleID.String()))
		return nil, ErrNotOwned
	}

	decision := &Decision{
		UserID:    userID,
		ArticleID: articleID,
		Outcome:   outcome,
		DecidedAt: time.Now().UTC(),
	}

	var categories string
	if article.Analysis != nil {
		categories = article.Analysis.Categories
	}
	event, err := events.NewEvent(events.TypeDecisionRecorded, events.DecisionRecordedPayload{
		UserID:     userID,
		ArticleID:  articleID,
		Outcome:    string(outcome),
		Categories: categories,
		DecidedAt:  decision.DecidedAt,
	})
	if err != nil {
		return nil, NewServiceError("preference", "record_decision", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit decision event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("article_id", articleID.String()))
		return nil, NewServiceError("preference", "record_decision", err)
	}

	log.Info("decision recorded",
		slog.String("user_id", userID.String()),
		slog.String("article_id", articleID.String()),
		slog.String("outcome", string(outcome)))
	return decision, nil
}
