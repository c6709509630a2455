// Package mocks provides testify mocks of the ports interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

// MockCollaborator is a mock of ports.Collaborator.
type MockCollaborator struct {
	mock.Mock
}

func (m *MockCollaborator) GenerateMap(ctx context.Context, text string, detailLevel int) (*ports.GeneratedMap, error) {
	args := m.Called(ctx, text, detailLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.GeneratedMap), args.Error(1)
}

func (m *MockCollaborator) SuggestChildren(ctx context.Context, nodeLabel string, detailLevel int) ([]ports.Suggestion, error) {
	args := m.Called(ctx, nodeLabel, detailLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Suggestion), args.Error(1)
}

func (m *MockCollaborator) GetInsight(ctx context.Context, req ports.InsightRequest) (*ports.Insight, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Insight), args.Error(1)
}

func (m *MockCollaborator) GetSemanticClusters(ctx context.Context, nodes []graph.Node, edges []graph.Edge, detailLevel int) ([]ports.Cluster, error) {
	args := m.Called(ctx, nodes, edges, detailLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Cluster), args.Error(1)
}

// MockLayoutEngine is a mock of ports.LayoutEngine.
type MockLayoutEngine struct {
	mock.Mock
}

func (m *MockLayoutEngine) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts ports.LayoutOptions) (map[string]graph.Position, error) {
	args := m.Called(ctx, nodes, edges, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]graph.Position), args.Error(1)
}
