package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agencyhub/pkg/domain-errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func TestWriteError(t *testing.T) {
	t.Run("internal error hides cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("connection refused"), dErrors.CodeInternal, "failed to retrieve clients"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decode(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "failed to retrieve clients", env.Message)
		assert.Equal(t, "internal_error", env.Error)
	})

	t.Run("untyped errors become internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal error", decode(t, w).Message)
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NewValidation("Validation failed", []dErrors.FieldError{
			{Field: "email", Rule: "email", Message: "Valid email is required"},
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, "Validation failed", env.Message)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "email", env.Errors[0].Field)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "Client not found"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Client not found", decode(t, w).Message)
	})
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, http.StatusCreated, "created", map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "created", env.Message)
	assert.Equal(t, map[string]any{"n": float64(1)}, env.Data)
}
