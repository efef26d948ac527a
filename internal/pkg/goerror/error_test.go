package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_StatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("db down")), want: http.StatusInternalServerError},
		{name: "not found", err: NewBusiness("notification not found", CodeNotFound), want: http.StatusNotFound},
		{name: "forbidden", err: NewBusiness("unauthorized access to notification", CodeForbidden), want: http.StatusForbidden},
		{name: "unauthorized", err: NewBusiness("authentication required", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "invalid input", err: NewInvalidInput(nil, "type", "unknown"), want: http.StatusUnprocessableEntity},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gerr *Error
			assert.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewServer_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := fmt.Errorf("list: %w", NewServer(cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestNewInvalidInput_Fields(t *testing.T) {
	t.Parallel()

	err := NewInvalidInput(nil, "status", "must be read")

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, map[string]string{"status": "must be read"}, gerr.Fields())
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
}

func TestCodeOf_PlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CodeInternal, CodeOf(errors.New("x")))
	assert.Equal(t, CodeNotFound, CodeOf(NewBusiness("gone", CodeNotFound)))
}

func TestCode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ERROR_CODE_FORBIDDEN", CodeForbidden.String())
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(99).String())
	assert.Equal(t, http.StatusInternalServerError, Code(99).Status())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(7).String())
}

func TestNewInvalidInput_OddPairs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CodeInvalidFormat, CodeOf(NewInvalidInput(nil, "status")))
}
