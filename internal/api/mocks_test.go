package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/api/shared"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) IngestBatch(
	ctx context.Context,
	userID uuid.UUID,
	articles []service.NewArticle,
) (*service.IngestReport, error) {
	args := m.Called(ctx, userID, articles)
	if r := args.Get(0); r != nil {
		return r.(*service.IngestReport), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) RankedFeed(
	ctx context.Context,
	userID uuid.UUID,
	opts service.FeedOptions,
) ([]service.FeedEntry, error) {
	args := m.Called(ctx, userID, opts)
	if r := args.Get(0); r != nil {
		return r.([]service.FeedEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPreferenceService struct {
	mock.Mock
}

func (m *MockPreferenceService) weightResult(args mock.Arguments) (*domain.FeatureWeight, error) {
	if r := args.Get(0); r != nil {
		return r.(*domain.FeatureWeight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPreferenceService) List(ctx context.Context, userID uuid.UUID) ([]*domain.FeatureWeight, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.([]*domain.FeatureWeight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPreferenceService) Adjust(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
	delta float64,
) (*domain.FeatureWeight, error) {
	return m.weightResult(m.Called(ctx, userID, featureType, value, delta))
}

func (m *MockPreferenceService) SetWeight(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
	weight float64,
) (*domain.FeatureWeight, error) {
	return m.weightResult(m.Called(ctx, userID, featureType, value, weight))
}

func (m *MockPreferenceService) SetMuted(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
	muted bool,
) (*domain.FeatureWeight, error) {
	return m.weightResult(m.Called(ctx, userID, featureType, value, muted))
}

func (m *MockPreferenceService) Reset(
	ctx context.Context,
	userID uuid.UUID,
	featureType, value string,
) (*domain.FeatureWeight, error) {
	return m.weightResult(m.Called(ctx, userID, featureType, value))
}

func (m *MockPreferenceService) RecordDecision(
	ctx context.Context,
	userID, articleID uuid.UUID,
	outcome domain.DecisionOutcome,
) (*service.Decision, error) {
	args := m.Called(ctx, userID, articleID, outcome)
	if r := args.Get(0); r != nil {
		return r.(*service.Decision), args.Error(1)
	}
	return nil, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter mounts the handlers the way the server does, with the user
// injected in place of the auth middleware. A nil userID leaves the
// request unauthenticated.
func newTestRouter(
	userID *uuid.UUID,
	articles *ArticleHandler,
	feed *FeedHandler,
	prefs *PreferenceHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.SetTraceID(req.Context())
			if userID != nil {
				ctx = shared.WithUserID(ctx, *userID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	if articles != nil {
		r.Post("/articles/batch", articles.IngestBatch)
		r.Post("/articles/{id}/decision", articles.RecordDecision)
	}
	if feed != nil {
		r.Get("/feed", feed.GetFeed)
	}
	if prefs != nil {
		r.Get("/preferences", prefs.List)
		r.Post("/preferences/adjust", prefs.Adjust)
		r.Put("/preferences/weight", prefs.SetWeight)
		r.Post("/preferences/mute", prefs.Mute)
		r.Post("/preferences/reset", prefs.Reset)
	}
	return r
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
