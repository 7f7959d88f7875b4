package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/leadwire-api/internal/api/shared"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/service"
)

// ArticleHandler handles article ingestion and decisions on articles.
type ArticleHandler struct {
	ingestion   service.IngestionService
	preferences service.PreferenceService
	logger      *slog.Logger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(
	ingestion service.IngestionService,
	preferences service.PreferenceService,
	logger *slog.Logger,
) *ArticleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleHandler{
		ingestion:   ingestion,
		preferences: preferences,
		logger:      logger.With(slog.String("component", "article_handler")),
	}
}

// IngestBatch handles POST /articles/batch.
//
// The response is 200 even when individual articles failed; the report
// lists them.
func (h *ArticleHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req IngestBatchRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	articles := make([]service.NewArticle, len(req.Articles))
	for i, a := range req.Articles {
		articles[i] = service.NewArticle{
			URL:         a.URL,
			Title:       a.Title,
			Content:     a.Content,
			PublishedAt: a.PublishedAt,
		}
	}

	report, err := h.ingestion.IngestBatch(r.Context(), userID, articles)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to ingest articles")
		return
	}

	log.Debug("batch ingested",
		slog.String("user_id", userID.String()),
		slog.Int("total", report.Total),
		slog.Int("failed", report.Failed))
	shared.RespondWithJSON(w, r, http.StatusOK, toIngestBatchResponse(report))
}

// RecordDecision handles POST /articles/{id}/decision.
func (h *ArticleHandler) RecordDecision(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, articleID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req DecisionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	decision, err := h.preferences.RecordDecision(r.Context(), userID, articleID, domain.DecisionOutcome(req.Outcome))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record decision")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DecisionResponse{
		ArticleID: decision.ArticleID,
		Outcome:   string(decision.Outcome),
		DecidedAt: decision.DecidedAt,
	})
}
