package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/generation"
	"github.com/phrazzld/leadwire-api/internal/metrics"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/redact"
	"github.com/phrazzld/leadwire-api/internal/store"
	"github.com/phrazzld/leadwire-api/internal/task"
)

// MaxBatchSize is the largest number of articles accepted by one IngestBatch call.
const MaxBatchSize = 100

// Operations named in ingestion ServiceErrors.
const (
	opStoreArticle   = "store_article"
	opAnalyzeArticle = "analyze_article"
	opStoreAnalysis  = "store_analysis"
)

// Cache lookup results recorded in metrics.
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// AnalysisCache stores analyses by article content hash so identical text
// is only sent to the model once.
type AnalysisCache interface {
	Get(ctx context.Context, contentHash string) (*domain.Analysis, bool, error)
	Set(ctx context.Context, contentHash string, analysis *domain.Analysis) error
}

// NewArticle is one article submitted for ingestion.
type NewArticle struct {
	URL         string
	Title       string
	Content     string
	PublishedAt *time.Time
}

// IngestError describes why one submitted article was not analyzed.
// Message is safe to show to the submitting client.
type IngestError struct {
	Index   int    `json:"index"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// IngestReport summarizes a batch. Every submitted article is counted in
// exactly one of Analyzed, Duplicates or Failed.
type IngestReport struct {
	Total      int               `json:"total"`
	Analyzed   int               `json:"analyzed"`
	Duplicates int               `json:"duplicates"`
	Failed     int               `json:"failed"`
	Articles   []*domain.Article `json:"articles"`
	Errors     []IngestError     `json:"errors"`
}

func (r *IngestReport) fail(index int, url string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, IngestError{Index: index, URL: url, Message: ingestErrorMessage(err)})
}

// ingestErrorMessage maps a per-article failure to a client message.
// Store and model details stay in the logs.
func ingestErrorMessage(err error) string {
	var validationErr *domain.ValidationError
	var serviceErr *ServiceError

	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.Is(err, domain.ErrValidation):
		return "Invalid article"
	case errors.Is(err, context.Canceled):
		return "Analysis was cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Analysis timed out"
	case errors.Is(err, generation.ErrCircuitOpen):
		return "Analysis is temporarily unavailable"
	case errors.Is(err, generation.ErrContentBlocked):
		return "Content was blocked by safety filters"
	case errors.As(err, &serviceErr) && serviceErr.Op == opStoreArticle:
		return "Failed to store article"
	case errors.As(err, &serviceErr) && serviceErr.Op == opStoreAnalysis:
		return "Failed to store analysis"
	default:
		return "Analysis failed"
	}
}

// IngestionService stores submitted articles and analyzes them.
type IngestionService interface {
	// IngestBatch validates, deduplicates, persists and analyzes a batch of
	// articles. One bad article never fails the others; the returned error
	// is only set when the batch as a whole is rejected.
	IngestBatch(ctx context.Context, userID uuid.UUID, articles []NewArticle) (*IngestReport, error)
}

type ingestionServiceImpl struct {
	articles   store.ArticleStore
	analyzer   generation.Analyzer
	cache      AnalysisCache
	dispatcher *task.Dispatcher
	logger     *slog.Logger
}

// NewIngestionService creates a new IngestionService.
// It returns an error if any of the required dependencies are nil. The
// cache is optional.
func NewIngestionService(
	articles store.ArticleStore,
	analyzer generation.Analyzer,
	cache AnalysisCache,
	dispatcher *task.Dispatcher,
	logger *slog.Logger,
) (IngestionService, error) {
	if articles == nil {
		return nil, domain.NewValidationError("articles", "cannot be nil", domain.ErrValidation)
	}
	if analyzer == nil {
		return nil, domain.NewValidationError("analyzer", "cannot be nil", domain.ErrValidation)
	}
	if dispatcher == nil {
		return nil, domain.NewValidationError("dispatcher", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ingestionServiceImpl{
		articles:   articles,
		analyzer:   analyzer,
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "ingestion_service")),
	}, nil
}

// pendingArticle is an article that was stored and still needs analysis.
type pendingArticle struct {
	index   int
	article *domain.Article
}

// IngestBatch implements IngestionService.IngestBatch
func (s *ingestionServiceImpl) IngestBatch(
	ctx context.Context,
	userID uuid.UUID,
	submitted []NewArticle,
) (*IngestReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(submitted) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(submitted) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	report := &IngestReport{
		Total:    len(submitted),
		Articles: make([]*domain.Article, 0, len(submitted)),
		Errors:   make([]IngestError, 0),
	}

	candidates := s.validate(userID, submitted, report)
	candidates = s.dropStoredDuplicates(ctx, userID, candidates, report)
	pending := s.persist(ctx, candidates, submitted, report)

	log.Info("analyzing ingested articles",
		slog.String("user_id", userID.String()),
		slog.Int("total", report.Total),
		slog.Int("to_analyze", len(pending)),
		slog.Int("duplicates", report.Duplicates))

	results := task.RunAll(ctx, s.dispatcher, pending, s.analyzeArticle)
	for i, p := range pending {
		report.Articles = append(report.Articles, p.article)
		if err := results.Errors[i]; err != nil {
			report.fail(p.index, p.article.URL, err)
			continue
		}
		report.Analyzed++
	}

	metrics.RecordIngestion(report.Analyzed, report.Duplicates, report.Failed)
	log.Info("ingestion batch finished",
		slog.String("user_id", userID.String()),
		slog.Int("analyzed", report.Analyzed),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("failed", report.Failed))

	return report, nil
}

// validate builds domain articles and drops in-batch duplicates, keeping
// the first occurrence.
func (s *ingestionServiceImpl) validate(
	userID uuid.UUID,
	submitted []NewArticle,
	report *IngestReport,
) []pendingArticle {
	seen := make(map[string]struct{}, len(submitted))
	candidates := make([]pendingArticle, 0, len(submitted))
	for i, in := range submitted {
		article, err := domain.NewArticle(userID, in.URL, in.Title, in.Content, in.PublishedAt)
		if err != nil {
			report.fail(i, in.URL, domain.NewValidationError("article", err.Error(), err))
			continue
		}
		if _, dup := seen[article.ContentHash]; dup {
			report.Duplicates++
			continue
		}
		seen[article.ContentHash] = struct{}{}
		candidates = append(candidates, pendingArticle{index: i, article: article})
	}
	return candidates
}

// dropStoredDuplicates removes candidates the user already has. A lookup
// failure is logged and the unique constraint on insert catches the rest.
func (s *ingestionServiceImpl) dropStoredDuplicates(
	ctx context.Context,
	userID uuid.UUID,
	candidates []pendingArticle,
	report *IngestReport,
) []pendingArticle {
	if len(candidates) == 0 {
		return candidates
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	hashes := make([]string, len(candidates))
	for i, c := range candidates {
		hashes[i] = c.article.ContentHash
	}
	existing, err := s.articles.FindByContentHashes(ctx, userID, hashes)
	if err != nil {
		log.Warn("duplicate lookup failed, relying on insert constraint",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return candidates
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if _, ok := existing[c.article.ContentHash]; ok {
			report.Duplicates++
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (s *ingestionServiceImpl) persist(
	ctx context.Context,
	candidates []pendingArticle,
	submitted []NewArticle,
	report *IngestReport,
) []pendingArticle {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stored := make([]pendingArticle, 0, len(candidates))
	for _, c := range candidates {
		err := s.articles.Create(ctx, c.article)
		switch {
		case err == nil:
			stored = append(stored, c)
		case errors.Is(err, store.ErrDuplicate):
			report.Duplicates++
		default:
			log.Error("failed to store article",
				slog.String("error", redact.Error(err)),
				slog.Int("index", c.index))
			report.fail(c.index, submitted[c.index].URL, NewServiceError("ingestion", opStoreArticle, err))
		}
	}
	return stored
}

// analyzeArticle runs inside a dispatcher slot. It resolves the analysis
// from the cache or the model and persists the outcome on the article.
func (s *ingestionServiceImpl) analyzeArticle(ctx context.Context, p pendingArticle) (*domain.Article, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("article_id", p.article.ID.String()))
	article := p.article

	analysis, err := s.resolveAnalysis(ctx, article)
	if err != nil {
		log.Warn("article analysis failed", slog.String("error", redact.Error(err)))
		article.MarkFailed()
		// The caller's context may already be done; the status write must still land.
		if serr := s.articles.UpdateStatus(context.WithoutCancel(ctx), article.ID, domain.ArticleStatusFailed); serr != nil {
			log.Error("failed to mark article as failed", slog.String("error", redact.Error(serr)))
		}
		return article, NewServiceError("ingestion", opAnalyzeArticle, err)
	}

	if err := s.articles.UpdateAnalysis(ctx, article.ID, analysis); err != nil {
		log.Error("failed to store analysis", slog.String("error", redact.Error(err)))
		return article, NewServiceError("ingestion", opStoreAnalysis, err)
	}
	article.ApplyAnalysis(analysis)
	return article, nil
}

func (s *ingestionServiceImpl) resolveAnalysis(ctx context.Context, article *domain.Article) (*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, article.ContentHash)
		switch {
		case err != nil:
			metrics.RecordCacheLookup(cacheError)
			log.Warn("analysis cache lookup failed", slog.String("error", redact.Error(err)))
		case ok:
			metrics.RecordCacheLookup(cacheHit)
			analysis := *cached
			analysis.AnalyzedAt = time.Now().UTC()
			return &analysis, nil
		default:
			metrics.RecordCacheLookup(cacheMiss)
		}
	}

	analysis, err := s.analyzer.Analyze(ctx, article)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, article.ContentHash, analysis); err != nil {
			log.Warn("failed to cache analysis", slog.String("error", redact.Error(err)))
		}
	}
	return analysis, nil
}
