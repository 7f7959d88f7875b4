package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/generation"
	"github.com/phrazzld/leadwire-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{ErrNotOwned, ErrArticleNotFound, ErrEmptyBatch, ErrBatchTooLarge, ErrInvalidLimit}
	for i, a := range all {
		for j, b := range all {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		name    string
		service string
		op      string
		err     error
		want    string
		wantIs  error
	}{
		{
			name:    "stored article lookup",
			service: "preference",
			op:      "record_decision",
			err:     store.ErrArticleNotFound,
			want:    "preference service record_decision operation failed: entity not found: article",
			wantIs:  store.ErrNotFound,
		},
		{
			name:    "article insert",
			service: "ingestion",
			op:      opStoreArticle,
			err:     store.ErrDuplicateArticle,
			want:    "ingestion service store_article operation failed: entity already exists: article content",
			wantIs:  store.ErrDuplicate,
		},
		{
			name:    "model outage",
			service: "ingestion",
			op:      opAnalyzeArticle,
			err:     fmt.Errorf("%w: breaker open", generation.ErrCircuitOpen),
			want:    "ingestion service analyze_article operation failed: language model circuit open: breaker open",
			wantIs:  generation.ErrCircuitOpen,
		},
		{
			name:    "no underlying error",
			service: "feed",
			op:      "score",
			want:    "feed service score operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServiceError(tt.service, tt.op, tt.err)
			assert.Equal(t, tt.want, err.Error())

			var serviceErr *ServiceError
			require.True(t, errors.As(err, &serviceErr))
			assert.Equal(t, tt.op, serviceErr.Op)
			assert.Equal(t, tt.err, errors.Unwrap(err))
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestIngestErrorMessage(t *testing.T) {
	driverErr := errors.New(`dial tcp db.internal.corp:5432: password authentication failed`)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "article validation",
			err:  domain.NewValidationError("article", domain.ErrInvalidArticleURL.Error(), domain.ErrInvalidArticleURL),
			want: "Invalid article: article URL must be absolute http(s)",
		},
		{"bare validation", fmt.Errorf("%w: bad", domain.ErrValidation), "Invalid article"},
		{"cancelled", NewServiceError("ingestion", opAnalyzeArticle, context.Canceled), "Analysis was cancelled"},
		{"timed out", NewServiceError("ingestion", opAnalyzeArticle, context.DeadlineExceeded), "Analysis timed out"},
		{"circuit open", NewServiceError("ingestion", opAnalyzeArticle, generation.ErrCircuitOpen), "Analysis is temporarily unavailable"},
		{"blocked", NewServiceError("ingestion", opAnalyzeArticle, generation.ErrContentBlocked), "Content was blocked by safety filters"},
		{"insert failure", NewServiceError("ingestion", opStoreArticle, driverErr), "Failed to store article"},
		{"analysis write failure", NewServiceError("ingestion", opStoreAnalysis, driverErr), "Failed to store analysis"},
		{"model failure", NewServiceError("ingestion", opAnalyzeArticle, driverErr), "Analysis failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ingestErrorMessage(tt.err)
			assert.Equal(t, tt.want, msg)
			assert.NotContains(t, msg, "db.internal")
		})
	}
}
