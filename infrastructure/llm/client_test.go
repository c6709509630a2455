package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/api"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

func TestClient_GenerateMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/generate", r.URL.Path)
		var req api.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "buy milk, walk dog", req.Text)
		assert.Equal(t, 1, req.DetailLevel)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nodes":[{"id":"n1","label":"Buy milk"},{"id":"n2","label":"Walk dog"}],"edges":[]}`))
	}))
	defer srv.Close()

	m, err := NewClient(srv.URL+"/", 0, nil).GenerateMap(context.Background(), "buy milk, walk dog", 1)
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 2)
	assert.Empty(t, m.Edges)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		code   string
	}{
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `{"error":true,"type":"EXTERNAL","message":"llm down"}`,
			check:  apperrors.IsExternal,
			code:   "HTTP_STATUS",
		},
		{
			name:   "validation passthrough",
			status: http.StatusBadRequest,
			body:   `{"error":true,"type":"VALIDATION","message":"text is required"}`,
			check:  apperrors.IsValidation,
		},
		{
			name:   "schema mismatch",
			status: http.StatusOK,
			body:   `{"suggestions":[{"title":"wrong field"}]}`,
			check:  apperrors.IsExternal,
			code:   "SCHEMA_MISMATCH",
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			check:  apperrors.IsExternal,
			code:   "SCHEMA_MISMATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, 0, nil).SuggestChildren(context.Background(), "x", 3)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
			if tt.code != "" {
				assert.Equal(t, tt.code, apperrors.GetAppError(err).Code)
			}
		})
	}
}
