package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// stubProvider returns a canned reply.
type stubProvider struct {
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() string      { return "stub" }
func (p *stubProvider) IsAvailable() bool { return true }
func (p *stubProvider) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	p.calls++
	return p.reply, p.err
}

func TestService_GenerateWithMockProvider(t *testing.T) {
	svc := NewService(NewMockProvider(), nil)

	m, err := svc.GenerateMap(context.Background(), "buy milk, walk dog", 1)
	require.NoError(t, err)

	assert.Equal(t, []ports.GeneratedNode{{ID: "n1", Label: "Buy milk"}, {ID: "n2", Label: "Walk dog"}}, m.Nodes)
	assert.Empty(t, m.Edges)
}

func TestService_GenerateWithRootTopic(t *testing.T) {
	svc := NewService(NewMockProvider(), nil)

	m, err := svc.GenerateMap(context.Background(), "weekend: hike; read and cook", 3)
	require.NoError(t, err)

	require.Len(t, m.Nodes, 4)
	assert.Equal(t, "Weekend", m.Nodes[0].Label)
	assert.Len(t, m.Edges, 3)
}

func TestService_ParsesFencedAndChattyResponses(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"plain", `{"nodes":[{"id":"a","label":"A"}],"edges":[]}`},
		{"fenced", "```json\n{\"nodes\":[{\"id\":\"a\",\"label\":\"A\"}],\"edges\":[]}\n```"},
		{"prose around", "Sure! Here it is:\n{\"nodes\":[{\"id\":\"a\",\"label\":\"A\"}],\"edges\":[]}\nEnjoy."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubProvider{reply: tt.reply}, nil)
			m, err := svc.GenerateMap(context.Background(), "x", 3)
			require.NoError(t, err)
			assert.Equal(t, "A", m.Nodes[0].Label)
		})
	}
}

func TestService_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "I cannot help with that."},
		{"missing edges", `{"nodes":[{"id":"a","label":"A"}]}`},
		{"node without label", `{"nodes":[{"id":"a"}],"edges":[]}`},
		{"edges wrong type", `{"nodes":[],"edges":"none"}`},
		{"duplicate ids", `{"nodes":[{"id":"a","label":"A"},{"id":"a","label":"B"}],"edges":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubProvider{reply: tt.reply}, nil)
			_, err := svc.GenerateMap(context.Background(), "x", 3)
			require.Error(t, err)
			assert.True(t, apperrors.IsExternal(err))
			assert.Equal(t, "SCHEMA_MISMATCH", apperrors.GetAppError(err).Code)
		})
	}
}

func TestService_ProviderFailure(t *testing.T) {
	svc := NewService(&stubProvider{err: errors.New("status 500")}, nil)

	_, err := svc.SuggestChildren(context.Background(), "Groceries", 2)

	require.Error(t, err)
	assert.True(t, apperrors.IsExternal(err))
	assert.Equal(t, "PROVIDER_ERROR", apperrors.GetAppError(err).Code)
}

func TestService_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	provider := &stubProvider{err: errors.New("down")}
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Minute
	svc := NewService(provider, nil, WithBreaker(cfg))

	for i := 0; i < 2; i++ {
		_, err := svc.SuggestChildren(context.Background(), "x", 3)
		require.True(t, apperrors.IsExternal(err))
	}
	_, err := svc.SuggestChildren(context.Background(), "x", 3)

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	assert.Equal(t, 2, provider.calls)
}

func TestService_Unavailable(t *testing.T) {
	mock := NewMockProvider()
	mock.SetAvailable(false)
	svc := NewService(mock, nil)

	_, err := svc.GenerateMap(context.Background(), "x", 3)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}

func TestService_InputValidation(t *testing.T) {
	svc := NewService(NewMockProvider(), nil)
	ctx := context.Background()

	_, err := svc.GenerateMap(ctx, " ", 3)
	assert.True(t, apperrors.IsValidation(err))
	_, err = svc.GenerateMap(ctx, "x", 7)
	assert.True(t, apperrors.IsValidation(err))
	_, err = svc.SuggestChildren(ctx, "", 3)
	assert.True(t, apperrors.IsValidation(err))
	_, err = svc.GetSemanticClusters(ctx, nil, nil, 3)
	assert.True(t, apperrors.IsValidation(err))
}

func TestService_SuggestCountFollowsDetailLevel(t *testing.T) {
	svc := NewService(NewMockProvider(), nil)

	for level := 1; level <= 5; level++ {
		s, err := svc.SuggestChildren(context.Background(), "trip", level)
		require.NoError(t, err)
		assert.Len(t, s, level+1)
		assert.Equal(t, "Trip overview", s[0].Label)
	}
}

func TestService_InsightAndClusters(t *testing.T) {
	svc := NewService(NewMockProvider(), nil)
	ctx := context.Background()
	nodes := []graph.Node{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}, {ID: "c", Label: "Gamma"}}
	edges := []graph.Edge{{Source: "a", Target: "b"}}

	insight, err := svc.GetInsight(ctx, ports.InsightRequest{Nodes: nodes, Edges: edges, DetailLevel: 2})
	require.NoError(t, err)
	assert.Contains(t, insight.Insight, "3 ideas")
	assert.Contains(t, insight.Clusters, "2 group")

	clusters, err := svc.GetSemanticClusters(ctx, nodes, edges, 2)
	require.NoError(t, err)
	assert.Equal(t, []ports.Cluster{
		{Name: "Alpha", NodeIDs: []string{"a", "b"}},
		{Name: "Gamma", NodeIDs: []string{"c"}},
	}, clusters)
}
