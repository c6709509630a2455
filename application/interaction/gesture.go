package interaction

import (
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

// GestureState is the edge-drawing state.
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureDragging
	GestureArmed
)

func (s GestureState) String() string {
	switch s {
	case GestureDragging:
		return "dragging"
	case GestureArmed:
		return "armed"
	default:
		return "idle"
	}
}

// Gesture is the active edge gesture. Source is empty when idle.
type Gesture struct {
	State  GestureState
	Source string
}

// Gesture returns the current edge gesture.
func (c *Controller) Gesture() Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gesture
}

func (c *Controller) setGesture(g Gesture) Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.gesture
	c.gesture = g
	return prev
}

// CancelGesture returns to idle.
func (c *Controller) CancelGesture() {
	c.setGesture(Gesture{})
}

// DragStart begins dragging an edge from source, replacing any gesture in
// progress.
func (c *Controller) DragStart(source string) bool {
	if !c.store.HasNode(source) {
		c.CancelGesture()
		return false
	}
	c.setGesture(Gesture{State: GestureDragging, Source: source})
	return true
}

// DragEnd finishes a drag over target. An empty target cancels. Duplicate
// pairs are rejected.
func (c *Controller) DragEnd(target string) (graph.Edge, bool) {
	c.mu.Lock()
	g := c.gesture
	if g.State != GestureDragging {
		c.mu.Unlock()
		return graph.Edge{}, false
	}
	c.gesture = Gesture{}
	c.mu.Unlock()

	if target == "" {
		return graph.Edge{}, false
	}
	return c.edits.Connect(g.Source, target)
}

// Arm makes the next node tap connect from source.
func (c *Controller) Arm(source string) bool {
	if !c.store.HasNode(source) {
		return false
	}
	c.setGesture(Gesture{State: GestureArmed, Source: source})
	return true
}

// TapNode handles a primary tap on a node. While armed it commits an edge
// to the tapped node, or disarms when the armed node itself is tapped.
func (c *Controller) TapNode(nodeID string) (graph.Edge, bool) {
	c.mu.Lock()
	g := c.gesture
	if g.State != GestureArmed {
		c.mu.Unlock()
		return graph.Edge{}, false
	}
	c.gesture = Gesture{}
	c.mu.Unlock()

	if nodeID == g.Source {
		return graph.Edge{}, false
	}
	return c.edits.Connect(g.Source, nodeID)
}

// TapBackground handles a tap on empty canvas: it ends any gesture.
func (c *Controller) TapBackground() {
	c.CancelGesture()
}
