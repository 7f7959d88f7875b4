package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/leadwire-api/internal/api/shared"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/service"
)

// FeedHandler serves the ranked feed.
type FeedHandler struct {
	feed   service.FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feed service.FeedService, logger *slog.Logger) *FeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandler{
		feed:   feed,
		logger: logger.With(slog.String("component", "feed_handler")),
	}
}

// GetFeed handles GET /feed?limit=N&hide_muted=true.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	limit, err := getQueryInt(r, "limit", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	hideMuted, err := getQueryBool(r, "hide_muted")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entries, err := h.feed.RankedFeed(r.Context(), userID, service.FeedOptions{
		Limit:     limit,
		HideMuted: hideMuted,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build feed")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toFeedResponse(entries))
}
