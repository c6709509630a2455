package graph

// Element groups.
const (
	GroupNodes = "nodes"
	GroupEdges = "edges"
)

// Element classes understood by the rendering surface.
const (
	ClassProvisional = "provisional"
	ClassCircular    = "circular"
)

// Element is one renderable item derived from the store.
type Element struct {
	Group    string    `json:"group"`
	ID       string    `json:"id"`
	Label    string    `json:"label,omitempty"`
	Source   string    `json:"source,omitempty"`
	Target   string    `json:"target,omitempty"`
	Classes  []string  `json:"classes,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// HasClass reports whether the element carries class c.
func (el Element) HasClass(c string) bool {
	for _, have := range el.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// Elements renders the current graph: nodes first, then edges. Provisional
// items get the "provisional" class and self-loops the "circular" class.
func (s *Store) Elements() []Element {
	snap := s.Snapshot()
	return ElementsOf(snap)
}

// ElementsOf renders a snapshot.
func ElementsOf(snap Snapshot) []Element {
	out := make([]Element, 0, len(snap.Nodes)+len(snap.Edges))
	for _, n := range snap.Nodes {
		el := Element{Group: GroupNodes, ID: n.ID, Label: n.Label, Position: n.Position}
		if n.Provisional {
			el.Classes = append(el.Classes, ClassProvisional)
		}
		out = append(out, el)
	}
	for _, e := range snap.Edges {
		el := Element{Group: GroupEdges, ID: e.Key(), Source: e.Source, Target: e.Target}
		if e.Provisional {
			el.Classes = append(el.Classes, ClassProvisional)
		}
		if e.Circular() {
			el.Classes = append(el.Classes, ClassCircular)
		}
		out = append(out, el)
	}
	return out
}
