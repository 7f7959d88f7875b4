package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("lookup: %w", ErrNotFound), expected: true},
		{name: "ErrArticleNotFound", err: ErrArticleNotFound, expected: true},
		{name: "wrapped ErrArticleNotFound", err: fmt.Errorf("get article: %w", ErrArticleNotFound), expected: true},
		{name: "duplicate is not not-found", err: ErrDuplicateArticle, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(ErrDuplicate))
	assert.True(t, IsDuplicateError(fmt.Errorf("insert: %w", ErrDuplicateArticle)))
	assert.False(t, IsDuplicateError(ErrArticleNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("article", "create", "insert failed", cause)

	assert.Equal(t, "create operation on article failed: insert failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("feature_weight", "upsert", "no rows", nil)
	assert.Equal(t, "upsert operation on feature_weight failed: no rows", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
