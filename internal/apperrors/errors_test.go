package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	assert.ErrorIs(t, NotFound("canvas", "abc"), ErrNotFound)
	assert.EqualError(t, NotFound("canvas", "abc"), "canvas abc not found")
	assert.ErrorIs(t, Validation("bad"), ErrValidation)
	assert.ErrorIs(t, Denied("no"), ErrAccessDenied)
	assert.NotErrorIs(t, Denied("no"), ErrNotFound)
}

func TestProviderFailureKeepsCause(t *testing.T) {
	err := fmt.Errorf("send message: %w", ProviderFailure(context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "deadline exceeded")
}
