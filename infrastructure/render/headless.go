// Package render provides a headless rendering surface. It keeps element
// positions, camera state, edge selection and document listeners in memory
// so the interaction controller can run without a display.
package render

import (
	"sort"
	"sync"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

const (
	gridColumns = 6
	gridSpacing = 150.0
)

// Surface is an in-memory ports.Surface.
type Surface struct {
	mu        sync.Mutex
	elements  []graph.Element
	positions map[string]graph.Position
	pan       graph.Position
	zoom      float64
	offset    graph.Position
	height    float64
	selected  map[graph.Pair]graph.Edge
	listeners map[int]ports.ClickHandler
	nextID    int
	syncs     int
}

// NewSurface creates a surface whose top-left corner sits at pageOffset.
func NewSurface(pageOffset graph.Position) *Surface {
	return &Surface{
		positions: make(map[string]graph.Position),
		zoom:      1,
		offset:    pageOffset,
		selected:  make(map[graph.Pair]graph.Edge),
		listeners: make(map[int]ports.ClickHandler),
	}
}

// Sync replaces the rendered elements. Nodes keep their current position;
// new nodes use their pinned position or the next free grid slot.
func (s *Surface) Sync(elements []graph.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncs++
	s.elements = append(s.elements[:0:0], elements...)

	live := make(map[string]bool)
	edges := make(map[graph.Pair]bool)
	slot := 0
	for _, el := range elements {
		if el.Group == graph.GroupEdges {
			edges[graph.Pair{Source: el.Source, Target: el.Target}] = true
			continue
		}
		live[el.ID] = true
		if _, placed := s.positions[el.ID]; placed {
			continue
		}
		if el.Position != nil {
			s.positions[el.ID] = *el.Position
			continue
		}
		for s.slotTaken(slot) {
			slot++
		}
		s.positions[el.ID] = slotPosition(slot)
		slot++
	}

	for id := range s.positions {
		if !live[id] {
			delete(s.positions, id)
		}
	}
	for p := range s.selected {
		if !edges[p] {
			delete(s.selected, p)
		}
	}
}

func slotPosition(i int) graph.Position {
	return graph.Position{
		X: float64(i%gridColumns) * gridSpacing,
		Y: float64(i/gridColumns) * gridSpacing,
	}
}

func (s *Surface) slotTaken(i int) bool {
	want := slotPosition(i)
	for _, p := range s.positions {
		if p == want {
			return true
		}
	}
	return false
}

// Elements returns the last synced elements.
func (s *Surface) Elements() []graph.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]graph.Element(nil), s.elements...)
}

// Syncs counts Sync calls.
func (s *Surface) Syncs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncs
}

// RenderedPosition returns a node's position in surface-local coordinates.
func (s *Surface) RenderedPosition(nodeID string) (graph.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[nodeID]
	if !ok {
		return graph.Position{}, false
	}
	return graph.Position{X: p.X*s.zoom + s.pan.X, Y: p.Y*s.zoom + s.pan.Y}, true
}

// ModelPosition returns a node's position in model coordinates.
func (s *Surface) ModelPosition(nodeID string) (graph.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[nodeID]
	return p, ok
}

func (s *Surface) PageOffset() graph.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

func (s *Surface) SetHeight(h float64) {
	s.mu.Lock()
	s.height = h
	s.mu.Unlock()
}

func (s *Surface) Height() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// ApplyPositions moves nodes in model coordinates. Unknown ids are ignored.
func (s *Surface) ApplyPositions(positions map[string]graph.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range positions {
		if _, ok := s.positions[id]; ok {
			s.positions[id] = p
		}
	}
}

// Pan shifts the camera.
func (s *Surface) Pan(dx, dy float64) {
	s.mu.Lock()
	s.pan.X += dx
	s.pan.Y += dy
	s.mu.Unlock()
}

// Zoom multiplies the zoom level by factor.
func (s *Surface) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	s.mu.Lock()
	s.zoom *= factor
	s.mu.Unlock()
}

// Select marks rendered edges as selected.
func (s *Surface) Select(edges ...graph.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		s.selected[e.Pair()] = e
	}
}

// ClearSelection unselects every edge.
func (s *Surface) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[graph.Pair]graph.Edge)
	s.mu.Unlock()
}

// SelectedEdges returns the selected edges ordered by pair.
func (s *Surface) SelectedEdges() []graph.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]graph.Edge, 0, len(s.selected))
	for _, e := range s.selected {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair().String() < out[j].Pair().String() })
	return out
}

func (s *Surface) AddClickListener(h ports.ClickHandler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Listeners counts attached document listeners.
func (s *Surface) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Click dispatches a primary document click at page position p.
func (s *Surface) Click(p graph.Position) {
	s.mu.Lock()
	handlers := make([]ports.ClickHandler, 0, len(s.listeners))
	for _, h := range s.listeners {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
}
