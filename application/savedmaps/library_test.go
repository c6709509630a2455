package savedmaps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

func newTestLibrary() (*Library, *graph.Store) {
	repo, _ := newTestRepo()
	store := graph.NewStore()
	return NewLibrary(repo, store, nil), store
}

func TestLibrary_SaveResetLoadRoundTrip(t *testing.T) {
	lib, store := newTestLibrary()
	ctx := context.Background()

	nodes := []graph.Node{
		{ID: "a", Label: "A", Summary: "first"},
		{ID: "b", Label: "B", Position: &graph.Position{X: 3, Y: 4}},
		{ID: "c", Label: "C"},
	}
	edges := []graph.Edge{
		{Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
		{Source: "c", Target: "c"},
	}
	store.Replace(nodes, edges)
	store.AddNodes([]graph.Node{{ID: "p", Label: "pending", Provisional: true}})
	want := store.Snapshot().Confirmed()

	_, err := lib.Save(ctx, "X")
	require.NoError(t, err)
	store.Reset()
	require.Empty(t, store.Nodes())

	loaded, err := lib.Load(ctx, "X")
	require.NoError(t, err)
	require.True(t, loaded)

	assert.Equal(t, want, store.Snapshot())
	assert.Equal(t, "X", lib.Current())
}

func TestLibrary_LoadMissingLeavesStore(t *testing.T) {
	lib, store := newTestLibrary()
	store.Replace([]graph.Node{{ID: "keep", Label: "keep"}}, nil)

	loaded, err := lib.Load(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.True(t, store.HasNode("keep"))
}

func TestLibrary_DeleteCurrentResetsStore(t *testing.T) {
	lib, store := newTestLibrary()
	ctx := context.Background()
	store.Replace([]graph.Node{{ID: "a", Label: "a"}}, nil)
	_, err := lib.Save(ctx, "current")
	require.NoError(t, err)
	_, err = lib.Repository().Put(ctx, SavedMap{Name: "other"})
	require.NoError(t, err)

	require.NoError(t, lib.Delete(ctx, "other"))
	assert.True(t, store.HasNode("a"))

	require.NoError(t, lib.Delete(ctx, "current"))
	assert.Empty(t, store.Nodes())
	assert.Empty(t, lib.Current())
}

func TestLibrary_RenameFollowsCurrent(t *testing.T) {
	lib, store := newTestLibrary()
	ctx := context.Background()
	store.Replace([]graph.Node{{ID: "a", Label: "a"}}, nil)
	_, err := lib.Save(ctx, "draft")
	require.NoError(t, err)

	moved, err := lib.Rename(ctx, "draft", "final")
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, "final", lib.Current())

	maps, err := lib.List(ctx)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "final", maps[0].Name)
}
