// Package interaction turns input events from the rendering surface, the
// keyboard and the network into edit operations on the mind map.
package interaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/services"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// Settings are the tunables of a controller. They can be replaced at runtime.
type Settings struct {
	OverlayDebounce    time.Duration
	ToolbarOffset      float64
	DefaultDetailLevel int
	MenuWidth          float64
	MenuHeight         float64
	Layout             ports.LayoutOptions
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return Settings{
		OverlayDebounce:    10 * time.Millisecond,
		ToolbarOffset:      64,
		DefaultDetailLevel: ports.DefaultDetailLevel,
		MenuWidth:          180,
		MenuHeight:         160,
		Layout: ports.LayoutOptions{
			Name:            "cose",
			NodeRepulsion:   8000,
			IdealEdgeLength: 120,
			Gravity:         0.25,
			Padding:         30,
			Iterations:      500,
		},
	}
}

// CameraEvent is a surface event that moves rendered positions without
// changing the graph.
type CameraEvent string

const (
	EventRender        CameraEvent = "render"
	EventDrag          CameraEvent = "drag"
	EventPan           CameraEvent = "pan"
	EventZoom          CameraEvent = "zoom"
	EventLayoutSettled CameraEvent = "layoutstop"
)

// Menu is the open node action menu, in page coordinates.
type Menu struct {
	NodeID string
	Anchor graph.Position
	Rect   ports.Rect
}

// Flags are the per-request-family loading flags.
type Flags struct {
	Generating bool
	Expanding  []string
}

// Controller owns the transient interaction state for one editing session:
// the edge gesture, the open menu, overlay positions and in-flight requests.
// Graph data lives in the store; nothing here is persisted.
type Controller struct {
	edits   *services.EditService
	store   *graph.Store
	surface ports.Surface
	logger  *zap.Logger

	mu          sync.Mutex
	settings    Settings
	gesture     Gesture
	menu        *Menu
	removeClick func()
	generating  bool
	expanding   map[string]bool
	overlay     map[string]graph.Position
	recomputes  uint64

	syncMu       sync.Mutex
	overlaySched *scheduler
	unsubscribe  func()
}

// NewController wires a controller to edits and, optionally, a surface. A nil
// surface makes every presentation call a no-op.
func NewController(edits *services.EditService, surface ports.Surface, settings Settings, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.OverlayDebounce <= 0 {
		settings.OverlayDebounce = DefaultSettings().OverlayDebounce
	}
	if !ports.ValidDetailLevel(settings.DefaultDetailLevel) {
		settings.DefaultDetailLevel = ports.DefaultDetailLevel
	}

	c := &Controller{
		edits:     edits,
		store:     edits.Store(),
		surface:   surface,
		logger:    logger,
		settings:  settings,
		expanding: make(map[string]bool),
		overlay:   make(map[string]graph.Position),
	}
	c.overlaySched = newScheduler(settings.OverlayDebounce, c.recomputeOverlay)
	c.unsubscribe = c.store.Subscribe(c.onStoreChange)
	c.syncSurface()
	return c
}

// Close detaches the controller from the store and the surface.
func (c *Controller) Close() {
	c.unsubscribe()
	c.overlaySched.Stop()
	c.CloseMenu()
}

// UpdateSettings swaps the tunables, e.g. after a config reload.
func (c *Controller) UpdateSettings(s Settings) {
	if s.OverlayDebounce <= 0 {
		s.OverlayDebounce = DefaultSettings().OverlayDebounce
	}
	if !ports.ValidDetailLevel(s.DefaultDetailLevel) {
		s.DefaultDetailLevel = ports.DefaultDetailLevel
	}
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	c.overlaySched.SetDelay(s.OverlayDebounce)
}

// Settings returns the current tunables.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Edits returns the edit service the controller drives.
func (c *Controller) Edits() *services.EditService {
	return c.edits
}

func (c *Controller) onStoreChange(ch graph.Change) {
	switch ch.Kind {
	case graph.ChangeStatus:
		return
	case graph.ChangeReplaced, graph.ChangeReset:
		c.CancelGesture()
	case graph.ChangeNodeDeleted:
		c.cancelGestureIfOrphaned()
	}
	c.refresh(ch.Topology())
}

// refresh redraws the surface. Topology changes recompute overlay positions
// right away; anything else goes through the debounce.
func (c *Controller) refresh(topology bool) {
	c.syncSurface()
	if topology {
		c.overlaySched.Flush()
		return
	}
	c.overlaySched.Schedule()
}

func (c *Controller) syncSurface() {
	if c.surface == nil {
		return
	}
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	c.surface.Sync(graph.ElementsOf(c.edits.Preview()))
}

// Resize fits the surface to a container of the given height, less the
// toolbar. Safe to call before a surface exists.
func (c *Controller) Resize(containerHeight float64) {
	if c.surface == nil {
		return
	}
	h := containerHeight - c.Settings().ToolbarOffset
	if h < 0 {
		h = 0
	}
	c.surface.SetHeight(h)
	c.overlaySched.Schedule()
}

// Camera reports a render, drag, pan, zoom or layout-settled event.
func (c *Controller) Camera(ev CameraEvent) {
	c.overlaySched.Schedule()
}

func (c *Controller) recomputeOverlay() {
	if c.surface == nil {
		return
	}
	snap := c.edits.Preview()
	offset := c.surface.PageOffset()
	positions := make(map[string]graph.Position, len(snap.Nodes))
	for _, n := range snap.Nodes {
		p, ok := c.surface.RenderedPosition(n.ID)
		if !ok {
			continue
		}
		positions[n.ID] = graph.Position{X: p.X + offset.X, Y: p.Y + offset.Y}
	}

	c.mu.Lock()
	c.overlay = positions
	c.recomputes++
	closeMenu := false
	if c.menu != nil {
		if p, ok := positions[c.menu.NodeID]; ok {
			c.menu.Anchor = p
			c.menu.Rect.X, c.menu.Rect.Y = p.X, p.Y
		} else {
			closeMenu = true
		}
	}
	c.mu.Unlock()

	if closeMenu {
		c.CloseMenu()
	}
}

// OverlayPosition returns the page position of a node's overlay icons.
func (c *Controller) OverlayPosition(nodeID string) (graph.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.overlay[nodeID]
	return p, ok
}

// OverlayRecomputes counts overlay recomputations.
func (c *Controller) OverlayRecomputes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recomputes
}

// ContextTap opens the action menu for nodeID at the node's page position.
func (c *Controller) ContextTap(nodeID string) (*Menu, bool) {
	if c.surface == nil || !c.store.HasNode(nodeID) {
		return nil, false
	}
	local, ok := c.surface.RenderedPosition(nodeID)
	if !ok {
		return nil, false
	}
	offset := c.surface.PageOffset()
	anchor := graph.Position{X: local.X + offset.X, Y: local.Y + offset.Y}

	c.mu.Lock()
	settings := c.settings
	prevRemove := c.removeClick
	c.menu = &Menu{
		NodeID: nodeID,
		Anchor: anchor,
		Rect:   ports.Rect{X: anchor.X, Y: anchor.Y, Width: settings.MenuWidth, Height: settings.MenuHeight},
	}
	c.removeClick = nil
	menu := *c.menu
	c.mu.Unlock()

	if prevRemove != nil {
		prevRemove()
	}
	remove := c.surface.AddClickListener(c.onDocumentClick)

	c.mu.Lock()
	if c.menu != nil && c.removeClick == nil {
		c.removeClick = remove
		remove = nil
	}
	c.mu.Unlock()
	if remove != nil {
		// The menu closed while we were attaching.
		remove()
	}
	return &menu, true
}

func (c *Controller) onDocumentClick(p graph.Position) {
	c.mu.Lock()
	inside := c.menu != nil && c.menu.Rect.Contains(p)
	c.mu.Unlock()
	if !inside {
		c.CloseMenu()
	}
}

// Menu returns the open menu.
func (c *Controller) Menu() (Menu, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.menu == nil {
		return Menu{}, false
	}
	return *c.menu, true
}

// CloseMenu closes the menu and detaches the document click listener.
func (c *Controller) CloseMenu() {
	c.mu.Lock()
	remove := c.removeClick
	c.removeClick = nil
	c.menu = nil
	c.mu.Unlock()

	if remove != nil {
		remove()
	}
}

// KeyDown handles keyboard input. Delete and Backspace remove the edges
// selected on the surface and return how many were removed.
func (c *Controller) KeyDown(key string) int {
	if key != "Delete" && key != "Backspace" {
		return 0
	}
	if c.surface == nil {
		return 0
	}
	removed := 0
	for _, e := range c.surface.SelectedEdges() {
		if c.store.RemoveEdge(graph.EdgeRef{Source: e.Source, Target: e.Target}) {
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("Deleted selected edges", zap.Int("count", removed))
	}
	return removed
}

// cancelGestureIfOrphaned returns to idle when the gesture's source node is
// gone.
func (c *Controller) cancelGestureIfOrphaned() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gesture.Source != "" && !c.store.HasNode(c.gesture.Source) {
		c.gesture = Gesture{}
	}
}

// DeleteNode is the menu's delete action: it closes the menu and removes the
// node with its edges and staged suggestions. A gesture from the node ends.
func (c *Controller) DeleteNode(nodeID string) bool {
	c.CloseMenu()
	if !c.edits.DeleteNode(nodeID) {
		return false
	}
	c.cancelGestureIfOrphaned()
	return true
}

// RenameNode is the menu's rename action.
func (c *Controller) RenameNode(nodeID, label string) error {
	if err := c.edits.RenameNode(nodeID, label); err != nil {
		return err
	}
	c.CloseMenu()
	return nil
}

// NewMap clears the graph, every staged suggestion and the transient
// interaction state.
func (c *Controller) NewMap() {
	c.CloseMenu()
	c.CancelGesture()
	c.edits.Reset()
}

// PlaceNode adds a node at a canvas position chosen by the user.
func (c *Controller) PlaceNode(label string, at *graph.Position) (graph.Node, error) {
	return c.edits.AddNode(label, at)
}

func (c *Controller) level(level int) int {
	if level == 0 {
		return c.Settings().DefaultDetailLevel
	}
	return level
}

// Generate replaces the map with one generated from text. Only one
// generation may be in flight.
func (c *Controller) Generate(ctx context.Context, text string, level int) error {
	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return apperrors.NewBusyError("generation")
	}
	c.generating = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.generating = false
		c.mu.Unlock()
	}()

	c.CloseMenu()
	err := c.edits.Generate(ctx, text, c.level(level))
	if errors.Is(err, services.ErrStaleResponse) {
		c.logger.Debug("Generation superseded")
	}
	return err
}

// Expand stages suggested children of nodeID. Different nodes may expand
// concurrently; a second request for the same node is rejected.
func (c *Controller) Expand(ctx context.Context, nodeID string, level int) (*services.Staging, error) {
	c.mu.Lock()
	if c.expanding[nodeID] {
		c.mu.Unlock()
		return nil, apperrors.NewBusyError("expansion of node " + nodeID)
	}
	c.expanding[nodeID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.expanding, nodeID)
		c.mu.Unlock()
	}()

	c.CloseMenu()
	staging, err := c.edits.SuggestChildren(ctx, nodeID, c.level(level))
	switch {
	case errors.Is(err, services.ErrStaleResponse):
		return nil, err
	case err != nil:
		if !apperrors.IsValidation(err) {
			c.store.SetError(services.UserMessage(err))
		}
		return nil, err
	}
	c.refresh(true)
	return staging, nil
}

// Accept merges the suggestions staged for nodeID.
func (c *Controller) Accept(nodeID string) int {
	added := c.edits.AcceptSuggestions(nodeID)
	if added == 0 {
		c.refresh(true)
	}
	return added
}

// Reject drops the suggestions staged for nodeID.
func (c *Controller) Reject(nodeID string) bool {
	ok := c.edits.RejectSuggestions(nodeID)
	if ok {
		c.refresh(true)
	}
	return ok
}

// Reformat runs the layout and applies positions to the surface only.
func (c *Controller) Reformat(ctx context.Context) error {
	positions, err := c.edits.Reformat(ctx, c.Settings().Layout)
	if err != nil {
		return err
	}
	if c.surface != nil {
		c.surface.ApplyPositions(positions)
	}
	c.Camera(EventLayoutSettled)
	return nil
}

// Insight asks for an analysis of the confirmed map. Level 0 means the
// configured default.
func (c *Controller) Insight(ctx context.Context, level int) (*ports.Insight, error) {
	return c.edits.Insight(ctx, c.level(level))
}

// Clusters groups the confirmed map's nodes by theme.
func (c *Controller) Clusters(ctx context.Context, level int) ([]ports.Cluster, error) {
	return c.edits.Clusters(ctx, c.level(level))
}

// Flags returns the loading flags of in-flight requests.
func (c *Controller) Flags() Flags {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := Flags{Generating: c.generating}
	for id := range c.expanding {
		f.Expanding = append(f.Expanding, id)
	}
	return f
}
