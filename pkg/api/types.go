// Package api defines the request and response bodies of the HTTP API. It is
// shared by the server handlers and the remote collaborator client.
package api

import (
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

// MaxTextLength bounds the free text accepted by /generate.
const MaxTextLength = 20000

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	Text        string `json:"text" validate:"required,max=20000"`
	DetailLevel int    `json:"detailLevel" validate:"omitempty,gte=1,lte=5"`
}

// SuggestRequest is the body of POST /api/v1/suggest.
type SuggestRequest struct {
	NodeLabel   string `json:"nodeLabel" validate:"required,max=500"`
	DetailLevel int    `json:"detailLevel" validate:"omitempty,gte=1,lte=5"`
}

// SuggestResponse is returned by /suggest.
type SuggestResponse struct {
	Suggestions []ports.Suggestion `json:"suggestions" validate:"required,dive"`
}

// InsightRequest is the body of POST /api/v1/insight.
type InsightRequest struct {
	Nodes       []graph.Node      `json:"nodes" validate:"required,min=1,dive"`
	Edges       []graph.Edge      `json:"edges" validate:"dive"`
	Summaries   map[string]string `json:"summaries,omitempty"`
	DetailLevel int               `json:"detailLevel" validate:"omitempty,gte=1,lte=5"`
}

// ClustersRequest is the body of POST /api/v1/clusters.
type ClustersRequest struct {
	Nodes       []graph.Node `json:"nodes" validate:"required,min=1,dive"`
	Edges       []graph.Edge `json:"edges" validate:"dive"`
	DetailLevel int          `json:"detailLevel" validate:"omitempty,gte=1,lte=5"`
}

// ClustersResponse is returned by /clusters.
type ClustersResponse struct {
	Clusters []ports.Cluster `json:"clusters" validate:"required,dive"`
}

// SaveMapRequest is the body of PUT /api/v1/maps/{name}.
type SaveMapRequest struct {
	Nodes []graph.Node `json:"nodes" validate:"required,dive"`
	Edges []graph.Edge `json:"edges" validate:"required,dive"`
}

// RenameMapRequest is the body of POST /api/v1/maps/{name}/rename.
type RenameMapRequest struct {
	NewName string `json:"newName" validate:"required,max=200"`
}

// MapSummary is one entry of the map listing.
type MapSummary struct {
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
	NodeCount int    `json:"nodeCount"`
	EdgeCount int    `json:"edgeCount"`
}

// MapListResponse is returned by GET /api/v1/maps.
type MapListResponse struct {
	Maps []MapSummary `json:"maps"`
}

// CleanupResponse is returned by POST /api/v1/maps/cleanup.
type CleanupResponse struct {
	Removed []string `json:"removed"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Storage  string `json:"storage"`
}

// Level returns level, or the default when unset.
func Level(level int) int {
	if level == 0 {
		return ports.DefaultDetailLevel
	}
	return level
}
