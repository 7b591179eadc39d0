package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrappedSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		msg      string
	}{
		{"not found", NotFound("university"), ErrNotFound, "university not found"},
		{"conflict", Conflict("program already saved"), ErrConflict, "program already saved"},
		{"forbidden", Forbidden("not the owner"), ErrForbidden, "not the owner"},
		{"plain", ErrConflict, ErrConflict, "conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.msg, Message(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(errors.New("invalid input"), FieldError{Field: "status", Error: "unknown status"})

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "invalid input", err.Error())
	assert.Len(t, vErr.Fields, 1)
}
