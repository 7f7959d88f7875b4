package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/domain/ranking"
	"github.com/phrazzld/leadwire-api/internal/events"
	"github.com/phrazzld/leadwire-api/internal/metrics"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/store"
)

// FeedbackHandler learns from recorded decisions: it turns each
// decision.recorded event into weight deltas and applies them.
type FeedbackHandler struct {
	preferences store.PreferenceStore
	learner     ranking.DecisionLearner
	db          *sql.DB
	logger      *slog.Logger
}

var _ events.EventHandler = (*FeedbackHandler)(nil)

// FeedbackOption configures a FeedbackHandler.
type FeedbackOption func(*FeedbackHandler)

// WithTransactions makes the updates derived from one decision commit
// together: either every category weight moves or none does. Without it
// each update is applied on its own and failures are collected.
func WithTransactions(db *sql.DB) FeedbackOption {
	return func(h *FeedbackHandler) {
		h.db = db
	}
}

// NewFeedbackHandler creates a FeedbackHandler. A nil learner selects the
// fixed-step learner with its default step.
func NewFeedbackHandler(
	preferences store.PreferenceStore,
	learner ranking.DecisionLearner,
	logger *slog.Logger,
	opts ...FeedbackOption,
) (*FeedbackHandler, error) {
	if preferences == nil {
		return nil, domain.NewValidationError("preferences", "cannot be nil", domain.ErrValidation)
	}
	if learner == nil {
		learner = ranking.NewFixedStepLearner(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &FeedbackHandler{
		preferences: preferences,
		learner:     learner,
		logger:      logger.With(slog.String("component", "feedback_handler")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// HandleEvent implements events.EventHandler. Events of other types are ignored.
func (h *FeedbackHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event == nil || event.Type != events.TypeDecisionRecorded {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, h.logger).With(slog.String("event_id", event.ID.String()))

	var payload events.DecisionRecordedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	item := ranking.Item{ID: payload.ArticleID}
	if payload.Categories != "" {
		item.Analysis = &ranking.ItemAnalysis{Categories: payload.Categories}
	}
	deltas := h.learner.DeriveWeightUpdates(domain.DecisionOutcome(payload.Outcome), item)
	if len(deltas) == 0 {
		return nil
	}

	var applied int
	var err error
	if h.db == nil {
		applied, err = h.apply(ctx, h.preferences, payload.UserID, deltas, log, false)
	} else {
		err = store.RunInTransaction(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
			var txErr error
			applied, txErr = h.apply(ctx, h.preferences.WithTx(tx), payload.UserID, deltas, log, true)
			return txErr
		})
		if err != nil {
			applied = 0
		}
	}

	for range applied {
		metrics.RecordWeightUpdate(weightSourceLearner)
	}
	return err
}

// apply writes deltas through prefs. With atomic set it stops at the first
// failure; otherwise it continues and joins the failures.
func (h *FeedbackHandler) apply(
	ctx context.Context,
	prefs store.PreferenceStore,
	userID uuid.UUID,
	deltas []ranking.WeightDelta,
	log *slog.Logger,
	atomic bool,
) (int, error) {
	var errs []error
	applied := 0
	for _, d := range deltas {
		w, err := prefs.UpsertWeightDelta(ctx, userID, d.Feature, d.Delta)
		if err != nil {
			log.Error("failed to apply learned weight",
				slog.String("error", err.Error()),
				slog.String("feature_key", d.Feature.Key))
			if atomic {
				return 0, err
			}
			errs = append(errs, err)
			continue
		}
		applied++
		log.Debug("learned weight applied",
			slog.String("feature_key", w.Key),
			slog.Float64("delta", d.Delta),
			slog.Float64("weight", w.Weight))
	}
	return applied, errors.Join(errs...)
}
