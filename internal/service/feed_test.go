package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/domain/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func newFeed(t *testing.T, articles *fakeArticleStore, prefs *fakePreferenceStore) FeedService {
	t.Helper()
	svc, err := NewFeedService(articles, prefs, ranking.NewDefaultService(), discardLogger())
	require.NoError(t, err)
	return svc
}

func feature(t *testing.T, value string) domain.Feature {
	t.Helper()
	f, err := domain.NormalizeFeature(domain.FeatureTypeCategory, value)
	require.NoError(t, err)
	return f
}

func titles(entries []FeedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Article.Title
	}
	return out
}

func TestRankedFeed_PreferencesReorder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	articles := newFakeArticleStore()
	prefs := newFakePreferenceStore()

	articles.seed(userID, "Security story", "Security", ptr(60))
	articles.seed(userID, "AI story", "AI", ptr(50))
	_, err := prefs.SetWeight(ctx, userID, feature(t, "ai"), 40)
	require.NoError(t, err)

	entries, err := newFeed(t, articles, prefs).RankedFeed(ctx, userID, FeedOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"AI story", "Security story"}, titles(entries))
	assert.InDelta(t, 62.0, entries[0].Score.AdjustedScore, 1e-9)
	assert.Equal(t, []string{"AI"}, entries[0].Score.Reasons)
	assert.True(t, entries[0].Score.IsPersonalized)
	assert.False(t, entries[1].Score.IsPersonalized)
	assert.Equal(t, entries[0].Article.ID, entries[0].Score.Item.ID)
}

func TestRankedFeed_TiesKeepRecency(t *testing.T) {
	userID := uuid.New()
	articles := newFakeArticleStore()
	articles.seed(userID, "older", "", nil)
	articles.seed(userID, "newer", "", nil)
	articles.seed(uuid.New(), "someone else", "", nil)

	entries, err := newFeed(t, articles, newFakePreferenceStore()).RankedFeed(context.Background(), userID, FeedOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"newer", "older"}, titles(entries))
	for _, e := range entries {
		assert.Equal(t, ranking.DefaultBaseScore, e.Score.AdjustedScore)
		assert.NotNil(t, e.Score.Reasons)
	}
}

func TestRankedFeed_Limit(t *testing.T) {
	userID := uuid.New()
	articles := newFakeArticleStore()
	for i := 0; i < 5; i++ {
		articles.seed(userID, string(rune('a'+i)), "", ptr(float64(i*10)))
	}
	svc := newFeed(t, articles, newFakePreferenceStore())

	entries, err := svc.RankedFeed(context.Background(), userID, FeedOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, titles(entries))

	_, err = svc.RankedFeed(context.Background(), userID, FeedOptions{Limit: -1})
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestRankedFeed_HideMuted(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	articles := newFakeArticleStore()
	prefs := newFakePreferenceStore()

	articles.seed(userID, "crypto", "Crypto, Markets", ptr(90))
	articles.seed(userID, "policy", "Policy", ptr(40))
	articles.seed(userID, "unanalyzed", "", nil)
	_, err := prefs.SetMuteState(ctx, userID, feature(t, "  CRYPTO "), true)
	require.NoError(t, err)

	svc := newFeed(t, articles, prefs)

	all, err := svc.RankedFeed(ctx, userID, FeedOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	visible, err := svc.RankedFeed(ctx, userID, FeedOptions{HideMuted: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"policy", "unanalyzed"}, titles(visible))
}

func TestRankedFeed_StoreErrors(t *testing.T) {
	userID := uuid.New()

	articles := newFakeArticleStore()
	articles.listErr = errors.New("db down")
	_, err := newFeed(t, articles, newFakePreferenceStore()).RankedFeed(context.Background(), userID, FeedOptions{})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "list_articles", svcErr.Op)

	prefs := newFakePreferenceStore()
	prefs.listErr = errors.New("db down")
	_, err = newFeed(t, newFakeArticleStore(), prefs).RankedFeed(context.Background(), userID, FeedOptions{})
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "list_weights", svcErr.Op)
}

func TestFeedPoolSize(t *testing.T) {
	assert.Equal(t, 50, feedPoolSize(1))
	assert.Equal(t, 60, feedPoolSize(20))
	assert.Equal(t, 300, feedPoolSize(MaxFeedLimit))
	assert.Equal(t, 500, feedPoolSize(1000))
}
