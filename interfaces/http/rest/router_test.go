package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/savedmaps"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/llm"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/observability"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/persistence/kv"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/api"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

type fixture struct {
	server  *httptest.Server
	kv      *kv.MemoryStore
	repo    *savedmaps.Repository
	metrics *observability.Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	metrics := observability.NewCollector("test")
	repo := savedmaps.NewRepository(store, nil, savedmaps.WithMetrics(metrics))
	collab := llm.NewService(llm.NewMockProvider(), nil, llm.WithMetrics(metrics))

	router := NewRouter(collab, repo, metrics, zap.NewNop(), apperrors.NewErrorHandler(nil, false), Options{
		EnableCORS:    true,
		ProviderName:  "mock",
		StorageDriver: "memory",
	})
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return &fixture{server: srv, kv: store, repo: repo, metrics: metrics}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health api.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, api.HealthResponse{Status: "healthy", Provider: "mock", Storage: "memory"}, health)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_Generate(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/v1/generate", api.GenerateRequest{Text: "buy milk, walk dog", DetailLevel: 1})

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var m ports.GeneratedMap
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Len(t, m.Nodes, 2)
	assert.Empty(t, m.Edges)
}

func TestRouter_CollaboratorValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		path string
		body any
	}{
		{"empty text", "/api/v1/generate", api.GenerateRequest{}},
		{"level out of range", "/api/v1/generate", api.GenerateRequest{Text: "x", DetailLevel: 9}},
		{"malformed json", "/api/v1/suggest", `{"nodeLabel":`},
		{"unknown field", "/api/v1/suggest", `{"label":"x"}`},
		{"no nodes", "/api/v1/clusters", api.ClustersRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

			var er apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &er))
			assert.True(t, er.Error)
			assert.Equal(t, "VALIDATION", er.Type)
			assert.NotEmpty(t, er.RequestID)
		})
	}
}

func TestRouter_SuggestInsightClusters(t *testing.T) {
	f := newFixture(t)
	nodes := []graph.Node{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}}
	edges := []graph.Edge{{Source: "a", Target: "b"}}

	resp, body := f.do(t, http.MethodPost, "/api/v1/suggest", api.SuggestRequest{NodeLabel: "garden"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var suggestions api.SuggestResponse
	require.NoError(t, json.Unmarshal(body, &suggestions))
	assert.Len(t, suggestions.Suggestions, ports.DefaultDetailLevel+1)

	resp, body = f.do(t, http.MethodPost, "/api/v1/insight", api.InsightRequest{Nodes: nodes, Edges: edges})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var insight ports.Insight
	require.NoError(t, json.Unmarshal(body, &insight))
	assert.NotEmpty(t, insight.Insight)

	resp, body = f.do(t, http.MethodPost, "/api/v1/clusters", api.ClustersRequest{Nodes: nodes, Edges: edges})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var clusters api.ClustersResponse
	require.NoError(t, json.Unmarshal(body, &clusters))
	require.Len(t, clusters.Clusters, 1)
	assert.Equal(t, []string{"a", "b"}, clusters.Clusters[0].NodeIDs)
}

func TestRouter_MapLifecycle(t *testing.T) {
	f := newFixture(t)
	save := api.SaveMapRequest{
		Nodes: []graph.Node{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}, {ID: "p", Label: "Maybe", Provisional: true}},
		Edges: []graph.Edge{{Source: "a", Target: "b"}, {Source: "a", Target: "p", Provisional: true}},
	}

	resp, body := f.do(t, http.MethodPut, "/api/v1/maps/my%20plan", save)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var saved savedmaps.SavedMap
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, "my plan", saved.Name)
	assert.Len(t, saved.Nodes, 2, "provisional items are not persisted")
	assert.Len(t, saved.Edges, 1)

	resp, body = f.do(t, http.MethodGet, "/api/v1/maps", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list api.MapListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Maps, 1)
	assert.Equal(t, "my plan", list.Maps[0].Name)
	assert.Equal(t, 2, list.Maps[0].NodeCount)

	resp, body = f.do(t, http.MethodPost, "/api/v1/maps/my%20plan/rename", api.RenameMapRequest{NewName: "done"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = f.do(t, http.MethodGet, "/api/v1/maps/my%20plan", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body = f.do(t, http.MethodGet, "/api/v1/maps/done", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, "done", saved.Name)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/maps/ghost/rename", api.RenameMapRequest{NewName: "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/maps/done", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodDelete, "/api/v1/maps/done", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/api/v1/maps/done", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ExportImport(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.Put(context.Background(), savedmaps.SavedMap{
		Name:  "trip",
		Nodes: []graph.Node{{ID: "a", Label: "Pack"}, {ID: "b", Label: "Book"}},
		Edges: []graph.Edge{{Source: "a", Target: "b"}},
	})
	require.NoError(t, err)

	for _, format := range []string{"json", "xml"} {
		t.Run(format, func(t *testing.T) {
			resp, exported := f.do(t, http.MethodGet, "/api/v1/maps/trip/export?format="+format, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), format)
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

			resp, body := f.do(t, http.MethodPost, "/api/v1/maps/trip-"+format+"/import?format="+format, string(exported))
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

			m, found, err := f.repo.Get(context.Background(), "trip-"+format)
			require.NoError(t, err)
			require.True(t, found)
			assert.Len(t, m.Nodes, 2)
			assert.Len(t, m.Edges, 1)
		})
	}

	resp, _ := f.do(t, http.MethodGet, "/api/v1/maps/trip/export?format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/api/v1/maps/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/api/v1/maps/bad/import?format=xml", "<mindmap")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_CleanupRemovesCorruptEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, savedmaps.Key("broken"), []byte("{not json")))
	_, err := f.repo.Put(ctx, savedmaps.SavedMap{Name: "fine", Nodes: []graph.Node{{ID: "a", Label: "A"}}})
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/api/v1/maps/cleanup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cleanup api.CleanupResponse
	require.NoError(t, json.Unmarshal(body, &cleanup))
	assert.Equal(t, []string{"broken"}, cleanup.Removed)

	resp, body = f.do(t, http.MethodPost, "/api/v1/maps/cleanup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"removed":[]}`, string(body))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/v1/maps", nil)

	resp, body := f.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `test_http_requests_total{method="GET",route="/api/v1/maps`)
	assert.Contains(t, string(body), `test_saved_map_operations_total{operation="list",result="ok"} 1`)
}

// The remote collaborator client and the server agree on the wire format.
func TestRouter_ServesRemoteClient(t *testing.T) {
	f := newFixture(t)
	client := llm.NewClient(f.server.URL, 0, nil)
	ctx := context.Background()

	m, err := client.GenerateMap(ctx, "Weekend: hike, read", 2)
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 3)
	assert.Len(t, m.Edges, 2)

	suggestions, err := client.SuggestChildren(ctx, "hike", 1)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)

	_, err = client.GenerateMap(ctx, "", 3)
	assert.True(t, apperrors.IsValidation(err))
}
