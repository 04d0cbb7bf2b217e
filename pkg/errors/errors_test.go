package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := Clone(ErrForbidden, "not your course")
	got := FromError(err)
	assert.Equal(t, "FORBIDDEN", got.Code)
	assert.Equal(t, http.StatusForbidden, got.Status)
	assert.Equal(t, "not your course", got.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")
	got := FromError(cause)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.True(t, errors.Is(got, cause))
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	_ = Clone(ErrValidation, "question 3 must have exactly 4 options")
	assert.Equal(t, "validation failed", ErrValidation.Message)
}
