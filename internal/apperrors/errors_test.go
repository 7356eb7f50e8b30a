package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodeInvalidRange, "end before start")
	assert.Equal(t, "INVALID_RANGE: end before start", err.Error())

	wrapped := Wrap(errors.New("disk full"), CodePersistenceFailure, "save failed")
	assert.Equal(t, "PERSISTENCE_FAILURE: save failed (caused by: disk full)", wrapped.Error())
}

func TestIsAndCodeOfThroughWrapping(t *testing.T) {
	base := SessionNotFound("abc")
	err := fmt.Errorf("edit note: %w", base)

	assert.True(t, Is(err, CodeSessionNotFound))
	assert.False(t, Is(err, CodeSessionStillOpen))
	assert.Equal(t, CodeSessionNotFound, CodeOf(err))
	assert.Equal(t, "abc", base.Details["id"])
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.False(t, Is(nil, CodeInvalidInput))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("locked")
	err := PersistenceFailure(cause, 2)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, err.Details["pending"])
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "cannot start work while running", Message(InvalidTransition("start work", "running")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}
