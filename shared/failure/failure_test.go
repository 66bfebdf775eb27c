package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"parking/shared/failure"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		kind    string
		message string
	}{
		{
			name:    "bad request from error",
			err:     failure.BadRequest(errors.New("bad input")),
			code:    http.StatusBadRequest,
			kind:    failure.KindBadRequest,
			message: "bad input",
		},
		{
			name:    "bad request from string",
			err:     failure.BadRequestFromString("vehicle_number is required"),
			code:    http.StatusBadRequest,
			kind:    failure.KindBadRequest,
			message: "vehicle_number is required",
		},
		{
			name:    "unauthorized",
			err:     failure.Unauthorized("Missing authorization header"),
			code:    http.StatusUnauthorized,
			kind:    failure.KindUnauthorized,
			message: "Missing authorization header",
		},
		{
			name:    "internal error",
			err:     failure.InternalError(errors.New("db down")),
			code:    http.StatusInternalServerError,
			kind:    failure.KindInternal,
			message: "db down",
		},
		{
			name:    "not found",
			err:     failure.NotFound("booking not found"),
			code:    http.StatusNotFound,
			kind:    failure.KindNotFound,
			message: "booking not found",
		},
		{
			name:    "conflict",
			err:     failure.Conflict("no capacity"),
			code:    http.StatusConflict,
			kind:    failure.KindConflict,
			message: "no capacity",
		},
		{
			name:    "forbidden",
			err:     failure.Forbidden("wrong organization"),
			code:    http.StatusForbidden,
			kind:    failure.KindForbidden,
			message: "wrong organization",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, failure.GetCode(tt.err))
			assert.Equal(t, tt.kind, failure.GetKind(tt.err))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestNilErrorsStayNil(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
}

func TestSentinelThroughWrapping(t *testing.T) {
	sentinel := failure.New(http.StatusGone, "token_expired", "token expired")
	wrapped := fmt.Errorf("failed to verify entry: %w", fmt.Errorf("failed to resolve token: %w", sentinel))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.Equal(t, http.StatusGone, failure.GetCode(wrapped))
	assert.Equal(t, "token_expired", failure.GetKind(wrapped))
	assert.Equal(t, "token expired", failure.GetMessage(wrapped))
	assert.Equal(t, "failed to verify entry: failed to resolve token: token expired", wrapped.Error())
}

func TestSentinelsAreDistinct(t *testing.T) {
	first := failure.New(http.StatusConflict, failure.KindConflict, "same message")
	second := failure.New(http.StatusConflict, failure.KindConflict, "same message")

	assert.NotErrorIs(t, first, second)
}

func TestPlainErrors(t *testing.T) {
	plain := errors.New("pq: connection refused")

	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(plain))
	assert.Equal(t, failure.KindInternal, failure.GetKind(plain))
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), failure.GetMessage(plain))
	assert.Equal(t, http.StatusForbidden, failure.GetCode(failure.ForbiddenError))
}
