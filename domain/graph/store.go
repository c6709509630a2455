package graph

import (
	"sync"
)

// ChangeKind names a store mutation.
type ChangeKind string

const (
	ChangeNodesAdded  ChangeKind = "nodes_added"
	ChangeEdgesAdded  ChangeKind = "edges_added"
	ChangeNodeRenamed ChangeKind = "node_renamed"
	ChangeNodeDeleted ChangeKind = "node_deleted"
	ChangeEdgeRemoved ChangeKind = "edge_removed"
	ChangeReplaced    ChangeKind = "replaced"
	ChangeReset       ChangeKind = "reset"
	ChangeStatus      ChangeKind = "status"
)

// Change describes one applied mutation.
type Change struct {
	Kind  ChangeKind
	Nodes int // nodes affected
	Edges int // edges affected
	Epoch uint64
}

// Topology reports whether the node or edge set changed.
func (c Change) Topology() bool {
	switch c.Kind {
	case ChangeNodeRenamed, ChangeStatus:
		return false
	}
	return c.Nodes > 0 || c.Edges > 0 || c.Kind == ChangeReplaced || c.Kind == ChangeReset
}

// Status carries the request-lifecycle flags shown by the UI.
type Status struct {
	Loading bool
	Error   string
}

// Store is the authoritative graph for one editing session. All methods are
// safe for concurrent use. Mutations that would break an invariant (dangling
// or duplicate edges, duplicate node or edge ids) are dropped silently.
type Store struct {
	mu      sync.RWMutex
	nodes   []Node
	edges   []Edge
	nodeIDs map[string]struct{}
	pairs   map[Pair]struct{}
	edgeIDs map[string]struct{}
	status  Status
	epoch   uint64

	subMu   sync.RWMutex
	subs    map[int]func(Change)
	nextSub int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		nodeIDs: make(map[string]struct{}),
		pairs:   make(map[Pair]struct{}),
		edgeIDs: make(map[string]struct{}),
		subs:    make(map[int]func(Change)),
	}
}

// Subscribe registers fn for change notifications and returns a function that
// removes it. fn runs after the store lock is released.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// SetNodes replaces the node list. Duplicate ids keep their first occurrence
// and edges left without an endpoint are dropped.
func (s *Store) SetNodes(nodes []Node) {
	s.mu.Lock()
	s.setNodesLocked(nodes)
	s.setEdgesLocked(s.edges)
	c := Change{Kind: ChangeReplaced, Nodes: len(s.nodes), Edges: len(s.edges), Epoch: s.epoch}
	s.mu.Unlock()
	s.notify(c)
}

// SetEdges replaces the edge list, dropping dangling and duplicate edges.
func (s *Store) SetEdges(edges []Edge) {
	s.mu.Lock()
	s.setEdgesLocked(edges)
	c := Change{Kind: ChangeReplaced, Nodes: len(s.nodes), Edges: len(s.edges), Epoch: s.epoch}
	s.mu.Unlock()
	s.notify(c)
}

// Replace swaps in a whole graph in one transition and starts a new epoch.
func (s *Store) Replace(nodes []Node, edges []Edge) {
	s.mu.Lock()
	s.setNodesLocked(nodes)
	s.setEdgesLocked(edges)
	s.epoch++
	c := Change{Kind: ChangeReplaced, Nodes: len(s.nodes), Edges: len(s.edges), Epoch: s.epoch}
	s.mu.Unlock()
	s.notify(c)
}

func (s *Store) setNodesLocked(nodes []Node) {
	s.nodes = make([]Node, 0, len(nodes))
	s.nodeIDs = make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := s.nodeIDs[n.ID]; dup {
			continue
		}
		s.nodeIDs[n.ID] = struct{}{}
		s.nodes = append(s.nodes, n.Clone())
	}
}

func (s *Store) setEdgesLocked(edges []Edge) {
	kept := make([]Edge, 0, len(edges))
	s.pairs = make(map[Pair]struct{}, len(edges))
	s.edgeIDs = make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if !s.acceptsEdgeLocked(e) {
			continue
		}
		s.trackEdgeLocked(e)
		kept = append(kept, e)
	}
	s.edges = kept
}

func (s *Store) trackEdgeLocked(e Edge) {
	s.pairs[e.Pair()] = struct{}{}
	if e.ID != "" {
		s.edgeIDs[e.ID] = struct{}{}
	}
}

func (s *Store) untrackEdgeLocked(e Edge) {
	delete(s.pairs, e.Pair())
	if e.ID != "" {
		delete(s.edgeIDs, e.ID)
	}
}

func (s *Store) acceptsEdgeLocked(e Edge) bool {
	if _, ok := s.nodeIDs[e.Source]; !ok {
		return false
	}
	if _, ok := s.nodeIDs[e.Target]; !ok {
		return false
	}
	if _, dup := s.pairs[e.Pair()]; dup {
		return false
	}
	if e.ID != "" {
		if _, dup := s.edgeIDs[e.ID]; dup {
			return false
		}
	}
	return true
}

// AddNodes appends nodes whose ids are not already present.
func (s *Store) AddNodes(nodes []Node) int {
	s.mu.Lock()
	added := 0
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := s.nodeIDs[n.ID]; dup {
			continue
		}
		s.nodeIDs[n.ID] = struct{}{}
		s.nodes = append(s.nodes, n.Clone())
		added++
	}
	c := Change{Kind: ChangeNodesAdded, Nodes: added, Epoch: s.epoch}
	s.mu.Unlock()

	if added > 0 {
		s.notify(c)
	}
	return added
}

// AddEdges appends edges, skipping any whose pair or id already exists or
// whose endpoints are missing. It returns the number added.
func (s *Store) AddEdges(edges []Edge) int {
	s.mu.Lock()
	added := 0
	for _, e := range edges {
		if !s.acceptsEdgeLocked(e) {
			continue
		}
		s.trackEdgeLocked(e)
		s.edges = append(s.edges, e)
		added++
	}
	c := Change{Kind: ChangeEdgesAdded, Edges: added, Epoch: s.epoch}
	s.mu.Unlock()

	if added > 0 {
		s.notify(c)
	}
	return added
}

// RenameNode sets the label of node id. Unknown ids are ignored.
func (s *Store) RenameNode(id, label string) bool {
	s.mu.Lock()
	found := false
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			s.nodes[i].Label = label
			found = true
			break
		}
	}
	c := Change{Kind: ChangeNodeRenamed, Nodes: 1, Epoch: s.epoch}
	s.mu.Unlock()

	if found {
		s.notify(c)
	}
	return found
}

// SetNodePosition pins node id at p.
func (s *Store) SetNodePosition(id string, p Position) bool {
	s.mu.Lock()
	found := false
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			pos := p
			s.nodes[i].Position = &pos
			found = true
			break
		}
	}
	s.mu.Unlock()
	return found
}

// DeleteNode removes node id together with every incident edge.
func (s *Store) DeleteNode(id string) bool {
	s.mu.Lock()
	if _, ok := s.nodeIDs[id]; !ok {
		s.mu.Unlock()
		return false
	}

	nodes := s.nodes[:0]
	for _, n := range s.nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	s.nodes = nodes
	delete(s.nodeIDs, id)

	removed := 0
	edges := s.edges[:0]
	for _, e := range s.edges {
		if e.Source == id || e.Target == id {
			s.untrackEdgeLocked(e)
			removed++
			continue
		}
		edges = append(edges, e)
	}
	s.edges = edges
	c := Change{Kind: ChangeNodeDeleted, Nodes: 1, Edges: removed, Epoch: s.epoch}
	s.mu.Unlock()

	s.notify(c)
	return true
}

// RemoveEdge removes the edge matching ref: by ID when ref.ID is set,
// otherwise by exact (source, target) pair.
func (s *Store) RemoveEdge(ref EdgeRef) bool {
	s.mu.Lock()
	idx := -1
	for i, e := range s.edges {
		if ref.ID != "" {
			if e.ID == ref.ID {
				idx = i
				break
			}
			continue
		}
		if e.Source == ref.Source && e.Target == ref.Target {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.untrackEdgeLocked(s.edges[idx])
	s.edges = append(s.edges[:idx], s.edges[idx+1:]...)
	c := Change{Kind: ChangeEdgeRemoved, Edges: 1, Epoch: s.epoch}
	s.mu.Unlock()

	s.notify(c)
	return true
}

// Reset clears the graph and status and starts a new epoch. Responses that
// were requested under an older epoch should be discarded.
func (s *Store) Reset() {
	s.mu.Lock()
	s.nodes = nil
	s.edges = nil
	s.nodeIDs = make(map[string]struct{})
	s.pairs = make(map[Pair]struct{})
	s.edgeIDs = make(map[string]struct{})
	s.status = Status{}
	s.epoch++
	c := Change{Kind: ChangeReset, Epoch: s.epoch}
	s.mu.Unlock()

	s.notify(c)
}

// SetLoading sets the global loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.status.Loading = loading
	c := Change{Kind: ChangeStatus, Epoch: s.epoch}
	s.mu.Unlock()
	s.notify(c)
}

// SetError records a user-visible error message; empty clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.status.Error = msg
	c := Change{Kind: ChangeStatus, Epoch: s.epoch}
	s.mu.Unlock()
	s.notify(c)
}

// Status returns the current flags.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Epoch identifies the current graph lifetime. It changes on Reset and Replace.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// HasNode reports whether id is present.
func (s *Store) HasNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodeIDs[id]
	return ok
}

// HasEdge reports whether an edge source->target exists.
func (s *Store) HasEdge(source, target string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pairs[Pair{Source: source, Target: target}]
	return ok
}

// Node returns a copy of node id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return Node{}, false
}

// Nodes returns a copy of the node list in insertion order.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns a copy of the edge list. Only edges whose endpoints both
// exist are returned.
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveEdgesLocked()
}

func (s *Store) liveEdgesLocked() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for _, e := range s.edges {
		_, okS := s.nodeIDs[e.Source]
		_, okT := s.nodeIDs[e.Target]
		if okS && okT {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot copies nodes and edges under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		nodes[i] = n.Clone()
	}
	return Snapshot{Nodes: nodes, Edges: s.liveEdgesLocked()}
}
