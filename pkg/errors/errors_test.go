package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/evalia-ai/evalia/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "event", ID: "42"}
		assert.Equal(t, "event with ID 42 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("submission", "s1")
		wrapped := fmt.Errorf("loading: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("title", "", "is required")
		assert.Equal(t, "validation failed for field title: is required", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad draft"}
		assert.Equal(t, "validation failed: bad draft", err.Error())
	})
}

func TestValidationErrors(t *testing.T) {
	var errs pkgerrors.ValidationErrors
	assert.NoError(t, errs.ErrOrNil())

	errs = append(errs,
		pkgerrors.NewValidationError("title", "", "is required"),
		pkgerrors.NewValidationError("end_date", nil, "must be after start_date"),
	)
	err := errs.ErrOrNil()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "end_date")
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"authentication", pkgerrors.NewAuthenticationError("token", "expired", nil), pkgerrors.IsUnauthenticated},
		{"forbidden", pkgerrors.NewForbiddenError("delete", "event", "not the organizer"), pkgerrors.IsForbidden},
		{"conflict", pkgerrors.NewConflictError("participation", "1", "already joined"), pkgerrors.IsConflict},
		{"conflict is already exists", pkgerrors.NewConflictError("user", "a@b.c", "email taken"), pkgerrors.IsAlreadyExists},
		{"quota", pkgerrors.NewQuotaError("daily_submissions", 5), pkgerrors.IsQuotaExceeded},
		{"timeout", pkgerrors.NewTimeoutError("evaluate", "10m0s", "deadline"), pkgerrors.IsTimeout},
		{"parse is invalid input", pkgerrors.NewParseError("json", "", "unexpected EOF", nil), pkgerrors.IsValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("outer: %w", tt.err)))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "daily submissions limit of 5 reached", pkgerrors.NewQuotaError("daily_submissions", 5).Error())
	assert.Equal(t, "not allowed to delete event: not the organizer",
		pkgerrors.NewForbiddenError("delete", "event", "not the organizer").Error())
	assert.Equal(t, "participation 7: already joined",
		pkgerrors.NewConflictError("participation", "7", "already joined").Error())
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "/tmp/x", nil))
	assert.NoError(t, pkgerrors.WrapResource("create", "event", "1", nil))
	assert.NoError(t, pkgerrors.WrapParse("yaml", "seed.yaml", nil))

	base := pkgerrors.NewNotFoundError("user", "9")
	wrapped := pkgerrors.WrapResource("fetch", "user", "9", base)

	var resErr *pkgerrors.ResourceError
	require.True(t, errors.As(wrapped, &resErr))
	assert.Equal(t, "fetch", resErr.Operation)
	assert.True(t, pkgerrors.IsNotFound(wrapped))

	ioErr := pkgerrors.WrapIO("write", "/data/a.pkl", errors.New("disk full"))
	assert.Equal(t, "IO error during write of /data/a.pkl: disk full", ioErr.Error())
}
