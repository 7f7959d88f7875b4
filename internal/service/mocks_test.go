package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/events"
	"github.com/phrazzld/leadwire-api/internal/store"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeArticleStore is an in-memory store.ArticleStore.
type fakeArticleStore struct {
	mu        sync.Mutex
	articles  map[uuid.UUID]*domain.Article
	order     []uuid.UUID
	createErr error
	findErr   error
	listErr   error
}

func newFakeArticleStore() *fakeArticleStore {
	return &fakeArticleStore{articles: make(map[uuid.UUID]*domain.Article)}
}

func (f *fakeArticleStore) Create(_ context.Context, a *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.articles {
		if existing.UserID == a.UserID && existing.ContentHash == a.ContentHash {
			return store.ErrDuplicateArticle
		}
	}
	cp := *a
	f.articles[a.ID] = &cp
	f.order = append(f.order, a.ID)
	return nil
}

func (f *fakeArticleStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, store.ErrArticleNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticleStore) FindByContentHashes(
	_ context.Context,
	userID uuid.UUID,
	hashes []string,
) (map[string]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	found := make(map[string]uuid.UUID)
	for _, h := range hashes {
		for _, a := range f.articles {
			if a.UserID == userID && a.ContentHash == h {
				found[h] = a.ID
			}
		}
	}
	return found, nil
}

func (f *fakeArticleStore) UpdateAnalysis(_ context.Context, id uuid.UUID, analysis *domain.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return store.ErrArticleNotFound
	}
	a.Analysis = analysis
	a.Status = domain.ArticleStatusAnalyzed
	return nil
}

func (f *fakeArticleStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ArticleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return store.ErrArticleNotFound
	}
	a.Status = status
	return nil
}

// ListRecent returns articles newest-inserted first.
func (f *fakeArticleStore) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Article, 0)
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		a := f.articles[f.order[i]]
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeArticleStore) WithTx(*sql.Tx) store.ArticleStore { return f }

func (f *fakeArticleStore) status(id uuid.UUID) domain.ArticleStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.articles[id].Status
}

func (f *fakeArticleStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.articles)
}

// seed stores an analyzed article directly.
func (f *fakeArticleStore) seed(userID uuid.UUID, title, categories string, impact *float64) *domain.Article {
	a, err := domain.NewArticle(userID, "", title, title+" body", nil)
	if err != nil {
		panic(err)
	}
	if categories != "" || impact != nil {
		a.ApplyAnalysis(&domain.Analysis{
			Summary:     title,
			Categories:  categories,
			ImpactScore: impact,
			AnalyzedAt:  time.Now().UTC(),
		})
	}
	if err := f.Create(context.Background(), a); err != nil {
		panic(err)
	}
	return a
}

// fakePreferenceStore is an in-memory store.PreferenceStore.
type fakePreferenceStore struct {
	mu       sync.Mutex
	weights  map[uuid.UUID]map[string]*domain.FeatureWeight
	writeErr error
	listErr  error
}

func newFakePreferenceStore() *fakePreferenceStore {
	return &fakePreferenceStore{weights: make(map[uuid.UUID]map[string]*domain.FeatureWeight)}
}

func (f *fakePreferenceStore) ListWeights(_ context.Context, userID uuid.UUID) ([]*domain.FeatureWeight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.FeatureWeight, 0)
	for _, w := range f.weights[userID] {
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakePreferenceStore) upsert(
	userID uuid.UUID,
	feature domain.Feature,
	apply func(w *domain.FeatureWeight),
) (*domain.FeatureWeight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if feature.Key == "" {
		return nil, domain.ErrInvalidFeature
	}
	byKey, ok := f.weights[userID]
	if !ok {
		byKey = make(map[string]*domain.FeatureWeight)
		f.weights[userID] = byKey
	}
	w, ok := byKey[feature.Key]
	if !ok {
		w = &domain.FeatureWeight{UserID: userID, Feature: feature, CreatedAt: time.Now().UTC()}
		byKey[feature.Key] = w
	}
	apply(w)
	w.UpdatedAt = time.Now().UTC()
	cp := *w
	return &cp, nil
}

func (f *fakePreferenceStore) UpsertWeightDelta(
	_ context.Context,
	userID uuid.UUID,
	feature domain.Feature,
	delta float64,
) (*domain.FeatureWeight, error) {
	return f.upsert(userID, feature, func(w *domain.FeatureWeight) { w.Weight += delta })
}

func (f *fakePreferenceStore) SetWeight(
	_ context.Context,
	userID uuid.UUID,
	feature domain.Feature,
	weight float64,
) (*domain.FeatureWeight, error) {
	return f.upsert(userID, feature, func(w *domain.FeatureWeight) { w.Weight = weight })
}

func (f *fakePreferenceStore) SetMuteState(
	_ context.Context,
	userID uuid.UUID,
	feature domain.Feature,
	muted bool,
) (*domain.FeatureWeight, error) {
	return f.upsert(userID, feature, func(w *domain.FeatureWeight) { w.Muted = muted })
}

func (f *fakePreferenceStore) ResetWeight(
	_ context.Context,
	userID uuid.UUID,
	feature domain.Feature,
) (*domain.FeatureWeight, error) {
	return f.upsert(userID, feature, func(w *domain.FeatureWeight) {
		w.Weight = 0
		w.Muted = false
	})
}

func (f *fakePreferenceStore) WithTx(*sql.Tx) store.PreferenceStore { return f }

func (f *fakePreferenceStore) weight(userID uuid.UUID, key string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.weights[userID][key]
	if !ok {
		return 0, false
	}
	return w.Weight, true
}

// MockAnalyzer mocks the generation.Analyzer interface
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, article *domain.Article) (*domain.Analysis, error) {
	args := m.Called(ctx, article)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}

// MockEventEmitter mocks the events.EventEmitter interface
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// mapCache is a minimal AnalysisCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Analysis
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*domain.Analysis)}
}

func (c *mapCache) Get(_ context.Context, hash string) (*domain.Analysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	a, ok := c.entries[hash]
	return a, ok, nil
}

func (c *mapCache) Set(_ context.Context, hash string, a *domain.Analysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = a
	return nil
}
