package savedmaps

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

// Library binds a Repository to the live graph store of one editing session
// and tracks which saved map is currently loaded.
type Library struct {
	repo   *Repository
	store  *graph.Store
	logger *zap.Logger

	mu      sync.Mutex
	current string
}

func NewLibrary(repo *Repository, store *graph.Store, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{repo: repo, store: store, logger: logger}
}

// Repository returns the underlying repository.
func (l *Library) Repository() *Repository {
	return l.repo
}

// Current returns the name of the loaded map, or "".
func (l *Library) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Save snapshots the store's confirmed nodes and edges under name.
func (l *Library) Save(ctx context.Context, name string) (SavedMap, error) {
	snap := l.store.Snapshot().Confirmed()
	saved, err := l.repo.Put(ctx, SavedMap{Name: name, Nodes: snap.Nodes, Edges: snap.Edges})
	if err != nil {
		return SavedMap{}, err
	}
	l.mu.Lock()
	l.current = name
	l.mu.Unlock()
	return saved, nil
}

// Load replaces the store with the map called name. Missing or corrupt maps
// report false and leave the store unchanged.
func (l *Library) Load(ctx context.Context, name string) (bool, error) {
	m, found, err := l.repo.Get(ctx, name)
	if err != nil || !found {
		return false, err
	}
	l.store.Replace(m.Nodes, m.Edges)

	l.mu.Lock()
	l.current = name
	l.mu.Unlock()
	l.logger.Debug("Loaded map", zap.String("name", name), zap.Int("nodes", len(m.Nodes)))
	return true, nil
}

// Delete removes the map called name. Deleting the loaded map also clears
// the store.
func (l *Library) Delete(ctx context.Context, name string) error {
	if err := l.repo.Delete(ctx, name); err != nil {
		return err
	}

	l.mu.Lock()
	wasCurrent := l.current == name
	if wasCurrent {
		l.current = ""
	}
	l.mu.Unlock()

	if wasCurrent {
		l.store.Reset()
	}
	return nil
}

// Rename moves a saved map and follows it if it is the loaded one.
func (l *Library) Rename(ctx context.Context, oldName, newName string) (bool, error) {
	moved, err := l.repo.Rename(ctx, oldName, newName)
	if err != nil || !moved {
		return moved, err
	}
	l.mu.Lock()
	if l.current == oldName {
		l.current = newName
	}
	l.mu.Unlock()
	return true, nil
}

// List returns every valid saved map, newest first.
func (l *Library) List(ctx context.Context) ([]SavedMap, error) {
	return l.repo.List(ctx)
}
