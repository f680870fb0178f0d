package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestUnprocessableError(t *testing.T) {
	err := UnprocessableError("malformed batch envelope")

	assert.Equal(t, TypeUnprocessable, err.Type)
	assert.Equal(t, "malformed batch envelope", err.Message)
	assert.Nil(t, err.Cause)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus())
	assert.Contains(t, err.Error(), "unprocessable")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("character not found")

	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, "character not found", err.Message)
	assert.Nil(t, err.Cause)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "character not found")
}

func TestInternalError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := InternalError("failed to persist characters", cause)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "internal")
	assert.Contains(t, err.Error(), "failed to persist characters")
	assert.Contains(t, err.Error(), "disk full")
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)

	assert.Nil(t, err.Cause)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestWithContextChaining(t *testing.T) {
	err := ValidationError("invalid input").
		WithContext("character_id", "123").
		WithField("key", "overlay")

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "123", err.Context["character_id"])
	assert.Equal(t, "overlay", err.Context["key"])
}

func TestWithContextNilMap(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "test", Context: nil}
	err = err.WithContext("field", "name")

	require.NotNil(t, err.Context)
	assert.Equal(t, "name", err.Context["field"])
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("wrapper", cause)

	assert.ErrorIs(t, err, cause)
}

func TestToResponse(t *testing.T) {
	resp := ValidationError("name required").ToResponse()

	assert.Equal(t, "name required", resp.Error)
	assert.Nil(t, resp.Details)
	assert.Nil(t, resp.CreatedCount)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "name required"}`, string(raw))
}

func TestToResponse_WithDetailsReportsZeroCreated(t *testing.T) {
	details := []string{"Character at index 0: name is required"}
	resp := ValidationError("Validation failed").WithDetails(details).ToResponse()

	assert.Equal(t, details, resp.Details)
	require.NotNil(t, resp.CreatedCount)
	assert.Equal(t, 0, *resp.CreatedCount)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"createdCount":0`)
}

func TestAsStructuredError(t *testing.T) {
	structured := NotFoundError("character not found")
	assert.Same(t, structured, AsStructuredError(structured))

	wrapped := fmt.Errorf("handler: %w", structured)
	assert.Same(t, structured, AsStructuredError(wrapped))

	plain := errors.New("boom")
	converted := AsStructuredError(plain)
	assert.Equal(t, TypeInternal, converted.Type)
	assert.Equal(t, plain, converted.Cause)

	assert.Nil(t, AsStructuredError(nil))
}
