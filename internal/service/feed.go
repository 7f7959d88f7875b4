package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/domain/ranking"
	"github.com/phrazzld/leadwire-api/internal/metrics"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
	"github.com/phrazzld/leadwire-api/internal/store"
)

// Feed sizing.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100

	// The ranked pool is wider than the page so preference boosts can pull
	// older articles ahead of newer ones.
	feedPoolFactor  = 3
	minFeedPoolSize = 50
	maxFeedPoolSize = 500
)

// FeedOptions controls a RankedFeed call.
type FeedOptions struct {
	// Limit is the number of entries to return. Zero selects DefaultFeedLimit;
	// values above MaxFeedLimit are capped.
	Limit int
	// HideMuted drops articles that carry any muted category.
	HideMuted bool
}

// FeedEntry is one ranked article with its score breakdown.
type FeedEntry struct {
	Article *domain.Article    `json:"article"`
	Score   ranking.ScoredItem `json:"score"`
}

// FeedService builds a user's ranked article feed.
type FeedService interface {
	// RankedFeed returns the user's recent articles ordered by adjusted score,
	// highest first. Ties keep recency order.
	RankedFeed(ctx context.Context, userID uuid.UUID, opts FeedOptions) ([]FeedEntry, error)
}

type feedServiceImpl struct {
	articles    store.ArticleStore
	preferences store.PreferenceStore
	scorer      ranking.Service
	logger      *slog.Logger
}

// NewFeedService creates a new FeedService.
// It returns an error if any of the required dependencies are nil.
func NewFeedService(
	articles store.ArticleStore,
	preferences store.PreferenceStore,
	scorer ranking.Service,
	logger *slog.Logger,
) (FeedService, error) {
	if articles == nil {
		return nil, domain.NewValidationError("articles", "cannot be nil", domain.ErrValidation)
	}
	if preferences == nil {
		return nil, domain.NewValidationError("preferences", "cannot be nil", domain.ErrValidation)
	}
	if scorer == nil {
		return nil, domain.NewValidationError("scorer", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &feedServiceImpl{
		articles:    articles,
		preferences: preferences,
		scorer:      scorer,
		logger:      logger.With(slog.String("component", "feed_service")),
	}, nil
}

// RankedFeed implements FeedService.RankedFeed
func (s *feedServiceImpl) RankedFeed(ctx context.Context, userID uuid.UUID, opts FeedOptions) ([]FeedEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit, err := feedLimit(opts.Limit)
	if err != nil {
		return nil, err
	}

	articles, err := s.articles.ListRecent(ctx, userID, feedPoolSize(limit))
	if err != nil {
		log.Error("failed to load feed articles",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("feed", "list_articles", err)
	}

	weights, err := s.preferences.ListWeights(ctx, userID)
	if err != nil {
		log.Error("failed to load feature weights",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("feed", "list_weights", err)
	}

	if opts.HideMuted {
		articles = withoutMuted(articles, weights)
	}

	items := make([]ranking.Item, len(articles))
	byID := make(map[uuid.UUID]*domain.Article, len(articles))
	for i, a := range articles {
		items[i] = toRankingItem(a)
		byID[a.ID] = a
	}

	scored, err := s.scorer.Score(items, toWeightInputs(weights))
	if err != nil {
		return nil, NewServiceError("feed", "score", err)
	}

	ranked := ranking.Rank(scored)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]FeedEntry, len(ranked))
	personalized := 0
	for i, sc := range ranked {
		entries[i] = FeedEntry{Article: byID[sc.Item.ID], Score: sc}
		if sc.IsPersonalized {
			personalized++
		}
	}
	metrics.RecordScoring(len(scored), personalized)

	log.Debug("ranked feed built",
		slog.String("user_id", userID.String()),
		slog.Int("pool", len(articles)),
		slog.Int("returned", len(entries)),
		slog.Int("personalized", personalized))
	return entries, nil
}

func feedLimit(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, ErrInvalidLimit
	case requested == 0:
		return DefaultFeedLimit, nil
	case requested > MaxFeedLimit:
		return MaxFeedLimit, nil
	}
	return requested, nil
}

func feedPoolSize(limit int) int {
	return min(max(limit*feedPoolFactor, minFeedPoolSize), maxFeedPoolSize)
}

func toRankingItem(a *domain.Article) ranking.Item {
	item := ranking.Item{ID: a.ID}
	if a.Analysis != nil {
		item.Analysis = &ranking.ItemAnalysis{
			Categories:  a.Analysis.Categories,
			ImpactScore: a.Analysis.ImpactScore,
		}
	}
	return item
}

func toWeightInputs(weights []*domain.FeatureWeight) []ranking.WeightInput {
	inputs := make([]ranking.WeightInput, 0, len(weights))
	for _, w := range weights {
		inputs = append(inputs, ranking.WeightInput{
			Key:    w.Key,
			Weight: w.Weight,
			Muted:  w.Muted,
		})
	}
	return inputs
}

// withoutMuted keeps articles none of whose categories is muted.
func withoutMuted(articles []*domain.Article, weights []*domain.FeatureWeight) []*domain.Article {
	muted := make(map[string]struct{})
	for _, w := range weights {
		if w.Muted {
			muted[w.Key] = struct{}{}
		}
	}
	if len(muted) == 0 {
		return articles
	}

	kept := make([]*domain.Article, 0, len(articles))
	for _, a := range articles {
		if !hasMutedCategory(a, muted) {
			kept = append(kept, a)
		}
	}
	return kept
}

func hasMutedCategory(a *domain.Article, muted map[string]struct{}) bool {
	for _, c := range a.Analysis.CategoryList() {
		f, err := domain.NormalizeFeature(domain.FeatureTypeCategory, c)
		if err != nil {
			continue
		}
		if _, ok := muted[f.Key]; ok {
			return true
		}
	}
	return false
}
