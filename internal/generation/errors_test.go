package generation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", fmt.Errorf("%w: timeout", ErrTransientFailure), true},
		{"circuit open", ErrCircuitOpen, true},
		{"blocked", ErrContentBlocked, false},
		{"invalid response", ErrInvalidResponse, false},
		{"other", errors.New("x"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
