package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{UnauthorizedError("no session"), http.StatusUnauthorized},
		{ForbiddenError("wrong role"), http.StatusForbidden},
		{NotFoundError("missing"), http.StatusNotFound},
		{ConflictError("duplicate"), http.StatusConflict},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := InternalError("query failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestAsStructuredError(t *testing.T) {
	structured := NotFoundError("missing")
	got := AsStructuredError(structured)
	assert.Same(t, structured, got)

	plain := errors.New("plain")
	got = AsStructuredError(plain)
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
	assert.ErrorIs(t, got, plain)

	assert.Nil(t, AsStructuredError(nil))
}

func TestToResponseOmitsContext(t *testing.T) {
	err := ValidationError("bad header").WithField("header_text", "secret-internal-detail")
	resp := err.ToResponse()

	assert.Equal(t, "bad header", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
}
