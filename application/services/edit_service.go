// Package services implements the mind-map edit operations on top of the
// graph store and the LLM collaborator.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// ErrStaleResponse is returned when a collaborator response arrives after
// the graph it was requested for has been reset or replaced.
var ErrStaleResponse = errors.New("response discarded: graph changed while request was in flight")

// Staging holds suggested children of one node until accepted or rejected.
type Staging struct {
	SourceID string
	Nodes    []graph.Node
	Edges    []graph.Edge
	epoch    uint64
}

// EditService composes store primitives into user-level edit operations.
type EditService struct {
	store  *graph.Store
	collab ports.Collaborator
	layout ports.LayoutEngine
	logger *zap.Logger

	mu     sync.Mutex
	staged map[string]*Staging
}

// NewEditService creates a new edit service.
func NewEditService(store *graph.Store, collab ports.Collaborator, layout ports.LayoutEngine, logger *zap.Logger) *EditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditService{
		store:  store,
		collab: collab,
		layout: layout,
		logger: logger,
		staged: make(map[string]*Staging),
	}
}

// Store returns the graph store the service edits.
func (s *EditService) Store() *graph.Store {
	return s.store
}

func validateLevel(level int) error {
	if !ports.ValidDetailLevel(level) {
		return apperrors.NewValidationError("detailLevel must be between 1 and 5").
			WithDetails(map[string]any{"detailLevel": level})
	}
	return nil
}

// UserMessage renders err for display next to the map.
func UserMessage(err error) string {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.Cause != nil {
			return appErr.Message + ": " + appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

// Generate replaces the whole graph with a map generated from text. On
// collaborator failure the graph is cleared and the error recorded on the
// store. Both outcomes discard the previous graph.
func (s *EditService) Generate(ctx context.Context, text string, level int) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("text is required")
	}
	if err := validateLevel(level); err != nil {
		return err
	}

	epoch := s.store.Epoch()
	s.store.SetError("")
	s.store.SetLoading(true)

	s.logger.Debug("Generating map", zap.Int("text_length", len(text)), zap.Int("detail_level", level))
	result, err := s.collab.GenerateMap(ctx, text, level)

	if s.store.Epoch() != epoch {
		s.logger.Info("Discarding stale generation response", zap.Uint64("epoch", epoch))
		s.store.SetLoading(false)
		return ErrStaleResponse
	}
	if err != nil {
		s.logger.Warn("Map generation failed", zap.Error(err))
		s.store.Reset()
		s.store.SetError(UserMessage(err))
		s.clearStaging()
		return err
	}

	nodes := make([]graph.Node, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		nodes = append(nodes, graph.Node{ID: n.ID, Label: n.Label, Summary: n.Summary})
	}
	edges := make([]graph.Edge, 0, len(result.Edges))
	for _, e := range result.Edges {
		edges = append(edges, graph.Edge{Source: e.Source, Target: e.Target})
	}

	s.clearStaging()
	s.store.Replace(nodes, edges)
	s.store.SetLoading(false)

	s.logger.Info("Map generated",
		zap.Int("nodes", len(s.store.Nodes())),
		zap.Int("edges", len(s.store.Edges())),
	)
	return nil
}

// SuggestChildren asks the collaborator for children of nodeID and stages
// them as provisional nodes linked from the source. A previous staging for
// the same node is replaced. Nothing is merged into the store.
func (s *EditService) SuggestChildren(ctx context.Context, nodeID string, level int) (*Staging, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	source, ok := s.store.Node(nodeID)
	if !ok {
		return nil, apperrors.NewNotFoundError("node '" + nodeID + "'")
	}
	epoch := s.store.Epoch()

	suggestions, err := s.collab.SuggestChildren(ctx, source.Label, level)
	if err != nil {
		s.logger.Warn("Suggesting children failed", zap.String("node_id", nodeID), zap.Error(err))
		return nil, err
	}

	if s.store.Epoch() != epoch || !s.store.HasNode(nodeID) {
		s.logger.Info("Discarding stale suggestions", zap.String("node_id", nodeID))
		return nil, ErrStaleResponse
	}

	staging := &Staging{SourceID: nodeID, epoch: epoch}
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(source.Label)): true}
	for _, sg := range suggestions {
		label := strings.TrimSpace(sg.Label)
		key := strings.ToLower(label)
		if label == "" || seen[key] {
			continue
		}
		seen[key] = true

		child := graph.Node{ID: graph.NewNodeID(), Label: label, Provisional: true}
		staging.Nodes = append(staging.Nodes, child)
		staging.Edges = append(staging.Edges, graph.Edge{
			ID:          graph.NewEdgeID(),
			Source:      nodeID,
			Target:      child.ID,
			Provisional: true,
		})
	}

	s.mu.Lock()
	s.staged[nodeID] = staging
	s.mu.Unlock()

	s.logger.Debug("Staged suggestions", zap.String("node_id", nodeID), zap.Int("count", len(staging.Nodes)))
	return staging.copy(), nil
}

func (st *Staging) copy() *Staging {
	out := &Staging{SourceID: st.SourceID, epoch: st.epoch}
	out.Nodes = append(out.Nodes, st.Nodes...)
	out.Edges = append(out.Edges, st.Edges...)
	return out
}

// Staged returns the pending suggestions for nodeID.
func (s *EditService) Staged(nodeID string) (*Staging, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staged[nodeID]
	if !ok {
		return nil, false
	}
	return st.copy(), true
}

// AcceptSuggestions merges the staging for nodeID into the store with
// provisional flags cleared and returns the number of nodes added. A staging
// whose source vanished or whose graph was reset is dropped instead.
func (s *EditService) AcceptSuggestions(nodeID string) int {
	s.mu.Lock()
	st, ok := s.staged[nodeID]
	delete(s.staged, nodeID)
	s.mu.Unlock()
	if !ok {
		return 0
	}
	if st.epoch != s.store.Epoch() || !s.store.HasNode(nodeID) {
		return 0
	}

	nodes := make([]graph.Node, len(st.Nodes))
	for i, n := range st.Nodes {
		n.Provisional = false
		nodes[i] = n
	}
	edges := make([]graph.Edge, len(st.Edges))
	for i, e := range st.Edges {
		e.Provisional = false
		edges[i] = e
	}

	added := s.store.AddNodes(nodes)
	s.store.AddEdges(edges)
	s.logger.Info("Accepted suggestions", zap.String("node_id", nodeID), zap.Int("nodes", added))
	return added
}

// RejectSuggestions discards the staging for nodeID without touching the store.
func (s *EditService) RejectSuggestions(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.staged[nodeID]
	delete(s.staged, nodeID)
	return ok
}

// Reset empties the graph and drops every staging.
func (s *EditService) Reset() {
	s.clearStaging()
	s.store.Reset()
}

func (s *EditService) clearStaging() {
	s.mu.Lock()
	s.staged = make(map[string]*Staging)
	s.mu.Unlock()
}

// Preview returns the store contents plus every live staging as provisional
// items, which is what the surface renders.
func (s *EditService) Preview() graph.Snapshot {
	snap := s.store.Snapshot()
	epoch := s.store.Epoch()

	s.mu.Lock()
	defer s.mu.Unlock()
	present := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		present[n.ID] = true
	}
	for id, st := range s.staged {
		if st.epoch != epoch || !present[id] {
			continue
		}
		snap.Nodes = append(snap.Nodes, st.Nodes...)
		snap.Edges = append(snap.Edges, st.Edges...)
	}
	return snap
}

// AddNode creates a node with a fresh id, optionally pinned at pos.
func (s *EditService) AddNode(label string, pos *graph.Position) (graph.Node, error) {
	label = strings.TrimSpace(label)
	if !graph.ValidLabel(label) {
		return graph.Node{}, apperrors.NewValidationError("label is required")
	}
	n := graph.Node{ID: graph.NewNodeID(), Label: label}
	if pos != nil {
		p := *pos
		n.Position = &p
	}
	s.store.AddNodes([]graph.Node{n})
	return n, nil
}

// RenameNode relabels a node. Renaming an unknown node is a no-op.
func (s *EditService) RenameNode(id, label string) error {
	label = strings.TrimSpace(label)
	if !graph.ValidLabel(label) {
		return apperrors.NewValidationError("label is required")
	}
	s.store.RenameNode(id, label)
	return nil
}

// DeleteNode removes a node, its edges and any suggestions staged for it.
func (s *EditService) DeleteNode(id string) bool {
	s.RejectSuggestions(id)
	return s.store.DeleteNode(id)
}

// Connect adds source->target unless that pair already exists or an endpoint
// is missing.
func (s *EditService) Connect(source, target string) (graph.Edge, bool) {
	if source == "" || target == "" {
		return graph.Edge{}, false
	}
	e := graph.Edge{ID: graph.NewEdgeID(), Source: source, Target: target}
	if s.store.AddEdges([]graph.Edge{e}) == 0 {
		return graph.Edge{}, false
	}
	return e, true
}

// DeleteEdge removes an edge by id, or by pair when ref has no id.
func (s *EditService) DeleteEdge(ref graph.EdgeRef) bool {
	return s.store.RemoveEdge(ref)
}

// Reformat computes presentation positions for the current graph. The store
// is not modified.
func (s *EditService) Reformat(ctx context.Context, opts ports.LayoutOptions) (map[string]graph.Position, error) {
	if s.layout == nil {
		return nil, apperrors.NewUnavailableError("layout")
	}
	snap := s.Preview()
	positions, err := s.layout.Layout(ctx, snap.Nodes, snap.Edges, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "layout failed")
	}
	return positions, nil
}

// Insight asks the collaborator for an analysis of the confirmed graph.
func (s *EditService) Insight(ctx context.Context, level int) (*ports.Insight, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	snap := s.store.Snapshot().Confirmed()
	if len(snap.Nodes) == 0 {
		return nil, apperrors.NewValidationError("map is empty")
	}
	summaries := make(map[string]string)
	for _, n := range snap.Nodes {
		if n.Summary != "" {
			summaries[n.ID] = n.Summary
		}
	}
	return s.collab.GetInsight(ctx, ports.InsightRequest{
		Nodes:       snap.Nodes,
		Edges:       snap.Edges,
		Summaries:   summaries,
		DetailLevel: level,
	})
}

// Clusters asks the collaborator to group the confirmed graph's nodes.
// Node ids the store does not know are dropped from the result.
func (s *EditService) Clusters(ctx context.Context, level int) ([]ports.Cluster, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	snap := s.store.Snapshot().Confirmed()
	if len(snap.Nodes) == 0 {
		return nil, apperrors.NewValidationError("map is empty")
	}
	clusters, err := s.collab.GetSemanticClusters(ctx, snap.Nodes, snap.Edges, level)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		known[n.ID] = true
	}
	out := make([]ports.Cluster, 0, len(clusters))
	for _, c := range clusters {
		ids := make([]string, 0, len(c.NodeIDs))
		for _, id := range c.NodeIDs {
			if known[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			out = append(out, ports.Cluster{Name: c.Name, NodeIDs: ids})
		}
	}
	return out, nil
}
