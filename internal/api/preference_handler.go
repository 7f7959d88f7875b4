package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/api/shared"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/service"
)

// PreferenceHandler exposes a user's feature weights.
type PreferenceHandler struct {
	preferences service.PreferenceService
	logger      *slog.Logger
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(preferences service.PreferenceService, logger *slog.Logger) *PreferenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceHandler{
		preferences: preferences,
		logger:      logger.With(slog.String("component", "preference_handler")),
	}
}

// List handles GET /preferences.
func (h *PreferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	weights, err := h.preferences.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list preferences")
		return
	}

	resp := WeightListResponse{Weights: make([]WeightResponse, 0, len(weights))}
	for _, wt := range weights {
		resp.Weights = append(resp.Weights, toWeightResponse(wt))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Adjust handles POST /preferences/adjust.
func (h *PreferenceHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustWeightRequest
	h.update(w, r, &req, func(p service.PreferenceService, userID uuid.UUID) (*domain.FeatureWeight, error) {
		return p.Adjust(r.Context(), userID, req.featureType(), req.Value, req.Delta)
	})
}

// SetWeight handles PUT /preferences/weight.
func (h *PreferenceHandler) SetWeight(w http.ResponseWriter, r *http.Request) {
	var req SetWeightRequest
	h.update(w, r, &req, func(p service.PreferenceService, userID uuid.UUID) (*domain.FeatureWeight, error) {
		return p.SetWeight(r.Context(), userID, req.featureType(), req.Value, req.Weight)
	})
}

// Mute handles POST /preferences/mute.
func (h *PreferenceHandler) Mute(w http.ResponseWriter, r *http.Request) {
	var req MuteRequest
	h.update(w, r, &req, func(p service.PreferenceService, userID uuid.UUID) (*domain.FeatureWeight, error) {
		return p.SetMuted(r.Context(), userID, req.featureType(), req.Value, *req.Muted)
	})
}

// Reset handles POST /preferences/reset.
func (h *PreferenceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	h.update(w, r, &req, func(p service.PreferenceService, userID uuid.UUID) (*domain.FeatureWeight, error) {
		return p.Reset(r.Context(), userID, req.featureType(), req.Value)
	})
}

// update runs the shared flow of every weight mutation: authenticate,
// decode req, apply, respond with the resulting weight.
func (h *PreferenceHandler) update(
	w http.ResponseWriter,
	r *http.Request,
	req interface{},
	apply func(service.PreferenceService, uuid.UUID) (*domain.FeatureWeight, error),
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}
	if !decodeAndValidate(w, r, req, log) {
		return
	}

	weight, err := apply(h.preferences, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update preference")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toWeightResponse(weight))
}
