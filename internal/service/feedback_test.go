package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/domain/ranking"
	"github.com/phrazzld/leadwire-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decisionEvent(t *testing.T, userID uuid.UUID, outcome, categories string) *events.Event {
	t.Helper()
	e, err := events.NewEvent(events.TypeDecisionRecorded, events.DecisionRecordedPayload{
		UserID:     userID,
		ArticleID:  uuid.New(),
		Outcome:    outcome,
		Categories: categories,
	})
	require.NoError(t, err)
	return e
}

func TestFeedbackHandler_AppliesLearnedDeltas(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	prefs := newFakePreferenceStore()
	h, err := NewFeedbackHandler(prefs, nil, discardLogger())
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(ctx, decisionEvent(t, userID, "accepted", "AI, Security, ai")))
	require.NoError(t, h.HandleEvent(ctx, decisionEvent(t, userID, "accepted", "AI")))
	require.NoError(t, h.HandleEvent(ctx, decisionEvent(t, userID, "dismissed", "Security")))

	ai, ok := prefs.weight(userID, "category:ai")
	require.True(t, ok)
	assert.InDelta(t, 2*ranking.DefaultLearningStepSize, ai, 1e-9)

	security, ok := prefs.weight(userID, "category:security")
	require.True(t, ok)
	assert.InDelta(t, 0, security, 1e-9)
}

func TestFeedbackHandler_IgnoresOtherEvents(t *testing.T) {
	prefs := newFakePreferenceStore()
	h, err := NewFeedbackHandler(prefs, ranking.NewFixedStepLearner(1), discardLogger())
	require.NoError(t, err)

	other, err := events.NewEvent("article.ingested", map[string]string{"x": "y"})
	require.NoError(t, err)
	assert.NoError(t, h.HandleEvent(context.Background(), other))
	assert.NoError(t, h.HandleEvent(context.Background(), nil))
	assert.Empty(t, prefs.weights)
}

func TestFeedbackHandler_UncategorizedArticle(t *testing.T) {
	prefs := newFakePreferenceStore()
	h, err := NewFeedbackHandler(prefs, nil, discardLogger())
	require.NoError(t, err)

	assert.NoError(t, h.HandleEvent(context.Background(), decisionEvent(t, uuid.New(), "accepted", "")))
	assert.Empty(t, prefs.weights)
}

func TestFeedbackHandler_JoinsWriteErrors(t *testing.T) {
	prefs := newFakePreferenceStore()
	writeErr := errors.New("db down")
	prefs.writeErr = writeErr
	h, err := NewFeedbackHandler(prefs, nil, discardLogger())
	require.NoError(t, err)

	err = h.HandleEvent(context.Background(), decisionEvent(t, uuid.New(), "dismissed", "AI, Policy"))
	assert.ErrorIs(t, err, writeErr)
}

func TestFeedbackHandler_BadPayload(t *testing.T) {
	h, err := NewFeedbackHandler(newFakePreferenceStore(), nil, discardLogger())
	require.NoError(t, err)

	err = h.HandleEvent(context.Background(), &events.Event{Type: events.TypeDecisionRecorded, Payload: []byte("{")})
	assert.Error(t, err)
}

func TestDecisionLearningEndToEnd(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	articles := newFakeArticleStore()
	prefs := newFakePreferenceStore()

	emitter := events.NewInMemoryEventEmitter(discardLogger())
	h, err := NewFeedbackHandler(prefs, nil, discardLogger())
	require.NoError(t, err)
	emitter.RegisterHandler(h)

	articles.seed(userID, "Security story", "Security", ptr(55))
	liked := articles.seed(userID, "AI story", "AI", ptr(50))

	prefSvc := newPreferenceService(t, prefs, articles, emitter)
	feed := newFeed(t, articles, prefs)

	before, err := feed.RankedFeed(ctx, userID, FeedOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Security story", before[0].Article.Title)

	for i := 0; i < 100; i++ {
		_, err := prefSvc.RecordDecision(ctx, userID, liked.ID, domain.DecisionAccepted)
		require.NoError(t, err)
	}

	after, err := feed.RankedFeed(ctx, userID, FeedOptions{})
	require.NoError(t, err)
	assert.Equal(t, "AI story", after[0].Article.Title)
	assert.Equal(t, []string{"AI"}, after[0].Score.Reasons)
}

func TestFeedbackHandler_TransactionalCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := uuid.New()
	prefs := newFakePreferenceStore()
	h, err := NewFeedbackHandler(prefs, nil, discardLogger(), WithTransactions(db))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, h.HandleEvent(context.Background(), decisionEvent(t, userID, "accepted", "AI, Security")))

	ai, ok := prefs.weight(userID, "category:ai")
	require.True(t, ok)
	assert.InDelta(t, ranking.DefaultLearningStepSize, ai, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackHandler_TransactionalRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	prefs := newFakePreferenceStore()
	prefs.writeErr = errors.New("write failed")
	h, err := NewFeedbackHandler(prefs, nil, discardLogger(), WithTransactions(db))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = h.HandleEvent(context.Background(), decisionEvent(t, uuid.New(), "dismissed", "AI, Security"))
	assert.ErrorIs(t, err, prefs.writeErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackHandler_TransactionSkippedWithoutDeltas(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h, err := NewFeedbackHandler(newFakePreferenceStore(), nil, discardLogger(), WithTransactions(db))
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), decisionEvent(t, uuid.New(), "accepted", "")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
