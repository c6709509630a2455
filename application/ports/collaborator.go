// Package ports declares the collaborators the mind-map core depends on.
package ports

import (
	"context"

	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

// Detail level bounds accepted by every collaborator call.
const (
	MinDetailLevel     = 1
	MaxDetailLevel     = 5
	DefaultDetailLevel = 3
)

// GeneratedNode is a node as returned by map generation.
type GeneratedNode struct {
	ID      string `json:"id" validate:"required"`
	Label   string `json:"label" validate:"required"`
	Summary string `json:"summary,omitempty"`
}

// GeneratedEdge is an edge as returned by map generation.
type GeneratedEdge struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// GeneratedMap is the validated result of GenerateMap.
type GeneratedMap struct {
	Nodes []GeneratedNode `json:"nodes" validate:"required,dive"`
	Edges []GeneratedEdge `json:"edges" validate:"required,dive"`
}

// Suggestion is one proposed child label.
type Suggestion struct {
	Label string `json:"label" validate:"required"`
}

// InsightRequest is the input to GetInsight.
type InsightRequest struct {
	Nodes       []graph.Node      `json:"nodes" validate:"required"`
	Edges       []graph.Edge      `json:"edges"`
	Summaries   map[string]string `json:"summaries,omitempty"`
	DetailLevel int               `json:"detailLevel" validate:"gte=1,lte=5"`
}

// Insight is a short analysis of a map.
type Insight struct {
	Insight   string `json:"insight" validate:"required"`
	BlindSpot string `json:"blindSpot"`
	Clusters  string `json:"clusters"`
}

// Cluster groups semantically related node ids.
type Cluster struct {
	Name    string   `json:"name" validate:"required"`
	NodeIDs []string `json:"nodeIds" validate:"required"`
}

// Collaborator is the LLM-backed content source. Implementations return a
// typed EXTERNAL error on transport failure or schema mismatch.
type Collaborator interface {
	GenerateMap(ctx context.Context, text string, detailLevel int) (*GeneratedMap, error)
	SuggestChildren(ctx context.Context, nodeLabel string, detailLevel int) ([]Suggestion, error)
	GetInsight(ctx context.Context, req InsightRequest) (*Insight, error)
	GetSemanticClusters(ctx context.Context, nodes []graph.Node, edges []graph.Edge, detailLevel int) ([]Cluster, error)
}

// ValidDetailLevel reports whether level is within bounds.
func ValidDetailLevel(level int) bool {
	return level >= MinDetailLevel && level <= MaxDetailLevel
}
