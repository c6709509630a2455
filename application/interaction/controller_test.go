package interaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports/mocks"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/services"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/render"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

type fixture struct {
	ctrl    *Controller
	store   *graph.Store
	surface *render.Surface
	collab  *mocks.MockCollaborator
	layout  *mocks.MockLayoutEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := graph.NewStore()
	collab := new(mocks.MockCollaborator)
	layout := new(mocks.MockLayoutEngine)
	surface := render.NewSurface(graph.Position{X: 100, Y: 50})
	edits := services.NewEditService(store, collab, layout, nil)

	ctrl := NewController(edits, surface, DefaultSettings(), nil)
	t.Cleanup(ctrl.Close)
	return &fixture{ctrl: ctrl, store: store, surface: surface, collab: collab, layout: layout}
}

func (f *fixture) seed(ids ...string) {
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = graph.Node{ID: id, Label: "node " + id}
	}
	f.store.Replace(nodes, nil)
}

func TestController_Resize(t *testing.T) {
	edits := services.NewEditService(graph.NewStore(), nil, nil, nil)
	bare := NewController(edits, nil, DefaultSettings(), nil)
	defer bare.Close()
	assert.NotPanics(t, func() { bare.Resize(800) })

	f := newFixture(t)
	tests := []struct {
		container float64
		want      float64
	}{
		{800, 736},
		{800, 736},
		{30, 0},
	}
	for _, tt := range tests {
		f.ctrl.Resize(tt.container)
		assert.Equal(t, tt.want, f.surface.Height())
	}
}

func TestController_TopologyChangeRecomputesOverlayImmediately(t *testing.T) {
	f := newFixture(t)
	before := f.ctrl.OverlayRecomputes()

	f.store.AddNodes([]graph.Node{{ID: "a", Label: "a", Position: &graph.Position{X: 10, Y: 20}}})

	assert.Equal(t, before+1, f.ctrl.OverlayRecomputes())
	p, ok := f.ctrl.OverlayPosition("a")
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 110, Y: 70}, p)
}

func TestController_CameraEventsAreDebounced(t *testing.T) {
	f := newFixture(t)
	f.seed("a")
	before := f.ctrl.OverlayRecomputes()

	f.surface.Pan(5, 5)
	for _, ev := range []CameraEvent{EventRender, EventDrag, EventPan, EventZoom, EventLayoutSettled} {
		f.ctrl.Camera(ev)
	}
	assert.Equal(t, before, f.ctrl.OverlayRecomputes(), "nothing runs before the debounce delay")

	require.Eventually(t, func() bool {
		return f.ctrl.OverlayRecomputes() == before+1
	}, time.Second, 2*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before+1, f.ctrl.OverlayRecomputes(), "the burst collapses into one recompute")

	p, _ := f.ctrl.OverlayPosition("a")
	assert.Equal(t, graph.Position{X: 105, Y: 55}, p)
}

func TestController_TopologyChangeFlushesPendingRecompute(t *testing.T) {
	f := newFixture(t)
	f.seed("a")
	before := f.ctrl.OverlayRecomputes()

	f.ctrl.Camera(EventPan)
	f.store.AddNodes([]graph.Node{{ID: "b", Label: "b"}})

	assert.Equal(t, before+1, f.ctrl.OverlayRecomputes())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before+1, f.ctrl.OverlayRecomputes(), "the pending debounce was cancelled")
}

func TestController_ContextMenu(t *testing.T) {
	f := newFixture(t)
	f.store.Replace([]graph.Node{
		{ID: "a", Label: "a", Position: &graph.Position{X: 10, Y: 10}},
		{ID: "b", Label: "b", Position: &graph.Position{X: 400, Y: 400}},
	}, nil)

	_, ok := f.ctrl.ContextTap("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, f.surface.Listeners())

	menu, ok := f.ctrl.ContextTap("a")
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 110, Y: 60}, menu.Anchor)
	assert.Equal(t, 1, f.surface.Listeners())

	_, ok = f.ctrl.ContextTap("b")
	require.True(t, ok)
	assert.Equal(t, 1, f.surface.Listeners(), "reopening keeps a single listener")

	f.surface.Click(graph.Position{X: 510, Y: 460})
	_, open := f.ctrl.Menu()
	assert.True(t, open, "click inside the menu keeps it open")

	f.surface.Click(graph.Position{X: 0, Y: 0})
	_, open = f.ctrl.Menu()
	assert.False(t, open)
	assert.Equal(t, 0, f.surface.Listeners())
}

func TestController_MenuClosesWhenNodeDeleted(t *testing.T) {
	f := newFixture(t)
	f.seed("a", "b")
	_, ok := f.ctrl.ContextTap("a")
	require.True(t, ok)

	f.store.DeleteNode("a")

	_, open := f.ctrl.Menu()
	assert.False(t, open)
	assert.Equal(t, 0, f.surface.Listeners())
}

func TestController_KeyboardDeletesSelectedEdges(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{"Delete", 2},
		{"Backspace", 2},
		{"Enter", 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f := newFixture(t)
			f.store.Replace(
				[]graph.Node{{ID: "a", Label: "a"}, {ID: "b", Label: "b"}, {ID: "c", Label: "c"}},
				[]graph.Edge{{ID: "e1", Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "c", Target: "a"}},
			)
			// Selection is surface state, so it carries no edge ids.
			f.surface.Select(graph.Edge{Source: "a", Target: "b"}, graph.Edge{Source: "b", Target: "c"})

			assert.Equal(t, tt.want, f.ctrl.KeyDown(tt.key))
			assert.Len(t, f.store.Edges(), 3-tt.want)
		})
	}
}

func TestController_DragToConnect(t *testing.T) {
	f := newFixture(t)
	f.seed("a", "b", "c")

	require.True(t, f.ctrl.DragStart("a"))
	assert.Equal(t, Gesture{State: GestureDragging, Source: "a"}, f.ctrl.Gesture())

	_, ok := f.ctrl.DragEnd("")
	assert.False(t, ok, "drop on empty space cancels")
	assert.Equal(t, GestureIdle, f.ctrl.Gesture().State)

	f.ctrl.DragStart("a")
	f.ctrl.DragStart("c")
	e, ok := f.ctrl.DragEnd("b")
	require.True(t, ok)
	assert.Equal(t, graph.Pair{Source: "c", Target: "b"}, e.Pair(), "the newer drag wins")

	f.ctrl.DragStart("c")
	_, ok = f.ctrl.DragEnd("b")
	assert.False(t, ok, "duplicate pair")
	assert.Len(t, f.store.Edges(), 1)
}

func TestController_ArmedConnect(t *testing.T) {
	f := newFixture(t)
	f.seed("a", "b")

	_, ok := f.ctrl.TapNode("b")
	assert.False(t, ok, "tap while idle does nothing")

	require.True(t, f.ctrl.Arm("a"))
	_, ok = f.ctrl.TapNode("a")
	assert.False(t, ok)
	assert.Equal(t, GestureIdle, f.ctrl.Gesture().State, "tapping the armed node disarms")

	f.ctrl.Arm("a")
	f.ctrl.TapBackground()
	assert.Equal(t, GestureIdle, f.ctrl.Gesture().State)

	f.ctrl.Arm("a")
	e, ok := f.ctrl.TapNode("b")
	require.True(t, ok)
	assert.Equal(t, graph.Pair{Source: "a", Target: "b"}, e.Pair())

	f.ctrl.Arm("a")
	_, ok = f.ctrl.TapNode("b")
	assert.False(t, ok, "duplicate pair")
}

func TestController_ReplaceCancelsGesture(t *testing.T) {
	f := newFixture(t)
	f.seed("a")
	f.ctrl.Arm("a")

	f.store.Reset()

	assert.Equal(t, Gesture{}, f.ctrl.Gesture())
}

func TestController_DeletingGestureSourceCancelsGesture(t *testing.T) {
	tests := []struct {
		name  string
		start func(c *Controller, id string) bool
	}{
		{"armed", (*Controller).Arm},
		{"dragging", (*Controller).DragStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed("a", "b")

			require.True(t, tt.start(f.ctrl, "b"))
			f.store.DeleteNode("a")
			assert.Equal(t, "b", f.ctrl.Gesture().Source, "unrelated deletes keep the gesture")

			f.ctrl.Edits().DeleteNode("b")
			assert.Equal(t, Gesture{}, f.ctrl.Gesture())
			assert.Equal(t, GestureIdle, f.ctrl.Gesture().State)
		})
	}
}

func TestController_MenuActions(t *testing.T) {
	f := newFixture(t)
	f.seed("a", "b")
	f.collab.On("SuggestChildren", mock.Anything, "node a", 3).
		Return([]ports.Suggestion{{Label: "x"}}, nil)

	_, ok := f.ctrl.ContextTap("a")
	require.True(t, ok)
	require.NoError(t, f.ctrl.RenameNode("a", "  Renamed "))
	n, _ := f.store.Node("a")
	assert.Equal(t, "Renamed", n.Label)
	_, open := f.ctrl.Menu()
	assert.False(t, open)

	assert.True(t, apperrors.IsValidation(f.ctrl.RenameNode("a", " ")))

	_, err := f.ctrl.Expand(context.Background(), "a", 3)
	require.NoError(t, err)
	f.ctrl.Arm("a")
	_, ok = f.ctrl.ContextTap("a")
	require.True(t, ok)

	assert.True(t, f.ctrl.DeleteNode("a"))
	assert.False(t, f.store.HasNode("a"))
	assert.Equal(t, Gesture{}, f.ctrl.Gesture())
	_, open = f.ctrl.Menu()
	assert.False(t, open)
	assert.Equal(t, 0, f.surface.Listeners())
	_, staged := f.ctrl.Edits().Staged("a")
	assert.False(t, staged)

	assert.False(t, f.ctrl.DeleteNode("a"))
}

func TestController_NewMap(t *testing.T) {
	f := newFixture(t)
	f.seed("a", "b")
	f.collab.On("SuggestChildren", mock.Anything, "node a", 3).
		Return([]ports.Suggestion{{Label: "x"}}, nil)
	_, err := f.ctrl.Expand(context.Background(), "a", 3)
	require.NoError(t, err)
	f.ctrl.DragStart("b")
	_, ok := f.ctrl.ContextTap("b")
	require.True(t, ok)
	epoch := f.store.Epoch()

	f.ctrl.NewMap()

	assert.Empty(t, f.store.Nodes())
	assert.Greater(t, f.store.Epoch(), epoch)
	assert.Equal(t, Gesture{}, f.ctrl.Gesture())
	_, open := f.ctrl.Menu()
	assert.False(t, open)
	_, staged := f.ctrl.Edits().Staged("a")
	assert.False(t, staged)
	assert.Empty(t, f.ctrl.Edits().Preview().Nodes)
}

func TestController_ClustersUseDefaultLevel(t *testing.T) {
	f := newFixture(t)
	f.seed("a", "b")
	f.collab.On("GetSemanticClusters", mock.Anything, mock.Anything, mock.Anything, 3).
		Return([]ports.Cluster{{Name: "All", NodeIDs: []string{"a", "b", "ghost"}}}, nil)

	clusters, err := f.ctrl.Clusters(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []ports.Cluster{{Name: "All", NodeIDs: []string{"a", "b"}}}, clusters)
	f.collab.AssertExpectations(t)
}

func TestController_GenerateRejectsConcurrentRequest(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})

	f.collab.On("GenerateMap", mock.Anything, "first", 3).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&ports.GeneratedMap{Nodes: []ports.GeneratedNode{{ID: "n1", Label: "One"}}, Edges: []ports.GeneratedEdge{}}, nil)

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Generate(context.Background(), "first", 0) }()
	<-started

	assert.True(t, f.ctrl.Flags().Generating)
	assert.True(t, f.store.Status().Loading)
	err := f.ctrl.Generate(context.Background(), "second", 3)
	assert.True(t, apperrors.IsBusy(err))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.ctrl.Flags().Generating)
	assert.True(t, f.store.HasNode("n1"))
	f.collab.AssertNumberOfCalls(t, "GenerateMap", 1)
}

func TestController_ExpandPerNodeFlags(t *testing.T) {
	f := newFixture(t)
	f.seed("a", "b")
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	f.collab.On("SuggestChildren", mock.Anything, mock.Anything, 3).
		Run(func(mock.Arguments) {
			started <- struct{}{}
			<-release
		}).
		Return([]ports.Suggestion{{Label: "child"}}, nil)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.ctrl.Expand(context.Background(), id, 3)
			assert.NoError(t, err)
		}(id)
	}
	<-started
	<-started

	assert.ElementsMatch(t, []string{"a", "b"}, f.ctrl.Flags().Expanding)
	_, err := f.ctrl.Expand(context.Background(), "a", 3)
	assert.True(t, apperrors.IsBusy(err))

	close(release)
	wg.Wait()
	assert.Empty(t, f.ctrl.Flags().Expanding)

	provisional := 0
	for _, el := range f.surface.Elements() {
		if el.HasClass(graph.ClassProvisional) {
			provisional++
		}
	}
	assert.Equal(t, 4, provisional, "two staged nodes and two staged edges are drawn")
	assert.Len(t, f.store.Nodes(), 2, "staging does not touch the store")
}

func TestController_StaleExpandAfterReset(t *testing.T) {
	f := newFixture(t)
	f.seed("n1")

	f.collab.On("SuggestChildren", mock.Anything, "node n1", 3).
		Run(func(mock.Arguments) { f.store.Reset() }).
		Return([]ports.Suggestion{{Label: "late"}}, nil)

	_, err := f.ctrl.Expand(context.Background(), "n1", 3)

	assert.ErrorIs(t, err, services.ErrStaleResponse)
	assert.Empty(t, f.store.Nodes())
	assert.Empty(t, f.store.Edges())
	assert.Empty(t, f.surface.Elements())
	assert.Empty(t, f.store.Status().Error)
}

func TestController_ExpandFailureSetsError(t *testing.T) {
	f := newFixture(t)
	f.seed("a")
	f.collab.On("SuggestChildren", mock.Anything, "node a", 3).
		Return(nil, apperrors.NewExternalError("llm", errors.New("status 502")))

	_, err := f.ctrl.Expand(context.Background(), "a", 0)

	require.Error(t, err)
	assert.Contains(t, f.store.Status().Error, "status 502")
	assert.True(t, f.store.HasNode("a"), "expansion failures never clear the map")
}

func TestController_AcceptAndReject(t *testing.T) {
	f := newFixture(t)
	f.seed("a")
	f.collab.On("SuggestChildren", mock.Anything, "node a", 3).
		Return([]ports.Suggestion{{Label: "x"}, {Label: "y"}}, nil)

	_, err := f.ctrl.Expand(context.Background(), "a", 3)
	require.NoError(t, err)
	assert.True(t, f.ctrl.Reject("a"))
	assert.Len(t, f.surface.Elements(), 1)

	_, err = f.ctrl.Expand(context.Background(), "a", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, f.ctrl.Accept("a"))
	assert.Len(t, f.store.Nodes(), 3)
	for _, el := range f.surface.Elements() {
		assert.False(t, el.HasClass(graph.ClassProvisional))
	}
}

func TestController_ReformatMovesSurfaceOnly(t *testing.T) {
	f := newFixture(t)
	f.seed("a")
	before := f.store.Snapshot()

	f.layout.On("Layout", mock.Anything, mock.Anything, mock.Anything, DefaultSettings().Layout).
		Return(map[string]graph.Position{"a": {X: 42, Y: 24}}, nil)

	require.NoError(t, f.ctrl.Reformat(context.Background()))

	p, _ := f.surface.ModelPosition("a")
	assert.Equal(t, graph.Position{X: 42, Y: 24}, p)
	assert.Equal(t, before, f.store.Snapshot())
}

func TestController_PlaceNode(t *testing.T) {
	f := newFixture(t)

	n, err := f.ctrl.PlaceNode("Idea", &graph.Position{X: 300, Y: 300})
	require.NoError(t, err)

	p, ok := f.surface.ModelPosition(n.ID)
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 300, Y: 300}, p)

	_, err = f.ctrl.PlaceNode("", nil)
	assert.True(t, apperrors.IsValidation(err))
}
