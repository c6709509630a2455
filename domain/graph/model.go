// Package graph holds the mind-map model: nodes, edges and the Store that
// owns the live collections for one editing session.
package graph

import (
	"strings"

	"github.com/google/uuid"
)

// NewNodeID returns a fresh opaque node identifier.
func NewNodeID() string {
	return uuid.New().String()
}

// NewEdgeID returns a fresh opaque edge identifier.
func NewEdgeID() string {
	return "e-" + uuid.New().String()
}

// Position is a point on the canvas in model coordinates.
type Position struct {
	X float64 `json:"x" xml:"x,attr"`
	Y float64 `json:"y" xml:"y,attr"`
}

// Node is a concept in the map.
type Node struct {
	ID          string    `json:"id" xml:"id,attr" validate:"required"`
	Label       string    `json:"label" xml:"label"`
	Summary     string    `json:"summary,omitempty" xml:"summary,omitempty"`
	Provisional bool      `json:"provisional,omitempty" xml:"provisional,attr,omitempty"`
	Position    *Position `json:"position,omitempty" xml:"position,omitempty"`
}

// Clone returns a deep copy.
func (n Node) Clone() Node {
	if n.Position != nil {
		p := *n.Position
		n.Position = &p
	}
	return n
}

// Edge is a directed relation between two nodes. Without an ID an edge is
// identified by its (Source, Target) pair.
type Edge struct {
	ID          string `json:"id,omitempty" xml:"id,attr,omitempty"`
	Source      string `json:"source" xml:"source,attr" validate:"required"`
	Target      string `json:"target" xml:"target,attr" validate:"required"`
	Provisional bool   `json:"provisional,omitempty" xml:"provisional,attr,omitempty"`
}

// Pair returns the ordered endpoint pair.
func (e Edge) Pair() Pair {
	return Pair{Source: e.Source, Target: e.Target}
}

// Circular reports a self-loop.
func (e Edge) Circular() bool {
	return e.Source == e.Target
}

// Key is the edge's identity: its ID, or "source->target" when it has none.
func (e Edge) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Pair().String()
}

// Pair is an ordered (source, target) pair.
type Pair struct {
	Source string
	Target string
}

func (p Pair) String() string {
	return p.Source + "->" + p.Target
}

// EdgeRef addresses an edge for removal: by ID when set, else by pair.
type EdgeRef struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// RefFor builds an EdgeRef matching e.
func RefFor(e Edge) EdgeRef {
	return EdgeRef{ID: e.ID, Source: e.Source, Target: e.Target}
}

// ValidLabel reports whether label has visible content.
func ValidLabel(label string) bool {
	return strings.TrimSpace(label) != ""
}

// Snapshot is an immutable copy of the graph contents.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Confirmed returns a copy without provisional nodes, and without any edge
// that is provisional or touches a provisional node.
func (s Snapshot) Confirmed() Snapshot {
	out := Snapshot{Nodes: make([]Node, 0, len(s.Nodes)), Edges: make([]Edge, 0, len(s.Edges))}
	kept := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.Provisional {
			continue
		}
		kept[n.ID] = struct{}{}
		out.Nodes = append(out.Nodes, n.Clone())
	}
	for _, e := range s.Edges {
		if e.Provisional {
			continue
		}
		_, okS := kept[e.Source]
		_, okT := kept[e.Target]
		if okS && okT {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
