package ports

import (
	"context"

	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p graph.Position) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// ClickHandler receives document-level primary clicks in page coordinates.
type ClickHandler func(p graph.Position)

// Surface is the rendering collaborator: it draws elements and reports
// rendered positions in its own local coordinate space.
type Surface interface {
	Sync(elements []graph.Element)
	RenderedPosition(nodeID string) (graph.Position, bool)
	PageOffset() graph.Position
	SelectedEdges() []graph.Edge
	SetHeight(h float64)
	ApplyPositions(positions map[string]graph.Position)

	// AddClickListener attaches a document click listener and returns the
	// function that detaches it.
	AddClickListener(h ClickHandler) (remove func())
}

// LayoutOptions is the tunable layout directive.
type LayoutOptions struct {
	Name            string  `json:"name" yaml:"name" toml:"name" validate:"omitempty,oneof=cose grid circle"`
	NodeRepulsion   float64 `json:"nodeRepulsion" yaml:"node_repulsion" toml:"node_repulsion" validate:"gte=0"`
	IdealEdgeLength float64 `json:"idealEdgeLength" yaml:"ideal_edge_length" toml:"ideal_edge_length" validate:"gte=0"`
	Gravity         float64 `json:"gravity" yaml:"gravity" toml:"gravity" validate:"gte=0"`
	Padding         float64 `json:"padding" yaml:"padding" toml:"padding" validate:"gte=0"`
	Iterations      int     `json:"iterations" yaml:"iterations" toml:"iterations" validate:"gte=0"`
	Width           float64 `json:"width" yaml:"width" toml:"width" validate:"gte=0"`
	Height          float64 `json:"height" yaml:"height" toml:"height" validate:"gte=0"`
}

// LayoutEngine maps graph topology to node positions. It never mutates the graph.
type LayoutEngine interface {
	Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts LayoutOptions) (map[string]graph.Position, error)
}
