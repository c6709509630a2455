package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppErrorHelpers(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", NewValidationError("text is required"), IsValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("map 'work'"), IsNotFound, http.StatusNotFound},
		{"busy", NewBusyError("generation"), IsBusy, http.StatusConflict},
		{"external", NewExternalError("llm", cause), IsExternal, http.StatusBadGateway},
		{"corrupt", NewCorruptError("mindmaps:x", cause), IsCorrupt, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.status, GetAppError(tt.err).HTTPStatus)
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	plain := stderrors.New("boom")
	wrapped := Wrap(plain, "loading map")
	require.True(t, IsType(wrapped, ErrorTypeInternal))
	assert.ErrorIs(t, wrapped, plain)

	app := NewNotFoundError("map 'a'")
	wrapped = Wrap(app, "rename")
	assert.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "rename: map 'a' not found")
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/maps/x", nil)
		h.Handle(rec, req, NewNotFoundError("map 'x'"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "NOT_FOUND", body.Type)
		assert.True(t, body.Error)
	})

	t.Run("plain error is opaque", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.Handle(rec, req, stderrors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	})

	t.Run("panic recovery", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
