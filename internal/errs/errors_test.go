package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "[invalid_input] provider is required", New(ErrKindInvalidInput, "provider is required").Error())

	cause := errors.New("relation does not exist")
	err := Wrap(ErrKindUnsupported, "catalog query", cause)
	assert.Equal(t, "[unsupported] catalog query: relation does not exist", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound, true},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout, true},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed, true},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed, true},
		{"input", New(ErrKindInvalidInput, "x"), IsInvalidInput, true},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied, true},
		{"unsupported", New(ErrKindUnsupported, "x"), IsUnsupported, true},
		{"state", New(ErrKindInvalidState, "x"), IsInvalidState, true},
		{"wrapped by fmt", fmt.Errorf("failed to read: %w", New(ErrKindPermissionDenied, "x")), IsPermissionDenied, true},
		{"plain error", context.Canceled, IsTimeout, false},
		{"nil", nil, IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrKindConnectionFailed, "down")))
	assert.True(t, IsFatal(New(ErrKindTimeout, "slow")))
	assert.False(t, IsFatal(New(ErrKindPermissionDenied, "denied")))
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unknown", ErrKindUnknown.String())
	assert.Equal(t, "unsupported", ErrKindUnsupported.String())
	assert.Equal(t, "unknown", ErrKind(99).String())
}
