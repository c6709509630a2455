package savedmaps

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// Metrics records saved-map operations.
type Metrics interface {
	RecordMapOperation(operation, result string)
}

type nopMetrics struct{}

func (nopMetrics) RecordMapOperation(string, string) {}

// Repository stores SavedMaps under KeyPrefix. Corrupt entries are treated
// as absent by reads and removed by CleanupInvalid; they never fail a scan.
type Repository struct {
	kv      ports.KeyValueStore
	logger  *zap.Logger
	metrics Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(r *Repository) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository creates a repository over kv.
func NewRepository(kv ports.KeyValueStore, logger *zap.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{
		kv:      kv,
		logger:  logger,
		metrics: nopMetrics{},
		tracer:  otel.Tracer("map-my-mind/savedmaps"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) start(ctx context.Context, op, name string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "savedmaps."+op, trace.WithAttributes(attribute.String("map.name", name)))
}

func (r *Repository) finish(span trace.Span, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.metrics.RecordMapOperation(op, result)
	span.End()
}

// Put writes m under its name, overwriting any previous entry. The
// createdAt of a valid existing entry is kept; updatedAt and the checksum
// are always refreshed. Provisional items are never persisted, and the graph
// is normalized with Normalize before it is written.
func (r *Repository) Put(ctx context.Context, m SavedMap) (saved SavedMap, err error) {
	ctx, span := r.start(ctx, "put", m.Name)
	defer func() { r.finish(span, "put", err) }()

	if verr := ValidateName(m.Name); verr != nil {
		return SavedMap{}, apperrors.NewValidationError(verr.Error())
	}

	confirmed := Normalize(m.Nodes, m.Edges)
	now := r.now().UnixMilli()

	saved = SavedMap{
		Name:      m.Name,
		Nodes:     confirmed.Nodes,
		Edges:     confirmed.Edges,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, found, gerr := r.Get(ctx, m.Name); gerr == nil && found {
		saved.CreatedAt = existing.CreatedAt
	}
	saved.Checksum = Checksum(saved.Nodes, saved.Edges)

	data, err := Encode(saved)
	if err != nil {
		return SavedMap{}, apperrors.NewInternalError("encode saved map").WithCause(err)
	}
	if err := r.kv.Set(ctx, Key(m.Name), data); err != nil {
		return SavedMap{}, apperrors.NewStorageError("set", err)
	}

	r.logger.Debug("Saved map",
		zap.String("name", m.Name),
		zap.Int("nodes", len(saved.Nodes)),
		zap.Int("edges", len(saved.Edges)),
	)
	return saved, nil
}

// Normalize applies the store invariants to a graph read from outside: the
// first node with an id wins, and dangling edges are dropped, as are edges
// repeating a pair or an id. Provisional items are removed.
func Normalize(nodes []graph.Node, edges []graph.Edge) graph.Snapshot {
	store := graph.NewStore()
	store.Replace(nodes, edges)
	return store.Snapshot().Confirmed()
}

// Get returns the map called name. Missing and corrupt entries both report
// found=false with a nil error.
func (r *Repository) Get(ctx context.Context, name string) (m SavedMap, found bool, err error) {
	ctx, span := r.start(ctx, "get", name)
	defer func() { r.finish(span, "get", err) }()

	data, ok, err := r.kv.Get(ctx, Key(name))
	if err != nil {
		return SavedMap{}, false, apperrors.NewStorageError("get", err)
	}
	if !ok {
		return SavedMap{}, false, nil
	}
	m, derr := Decode(data)
	if derr != nil {
		r.logger.Debug("Ignoring corrupt saved map", zap.String("name", name), zap.Error(derr))
		return SavedMap{}, false, nil
	}
	return m, true, nil
}

// List returns every valid map, newest createdAt first. Invalid entries are
// skipped.
func (r *Repository) List(ctx context.Context) (maps []SavedMap, err error) {
	ctx, span := r.start(ctx, "list", "")
	defer func() { r.finish(span, "list", err) }()

	keys, err := r.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, apperrors.NewStorageError("keys", err)
	}

	maps = make([]SavedMap, 0, len(keys))
	for _, key := range keys {
		data, ok, gerr := r.kv.Get(ctx, key)
		if gerr != nil {
			r.logger.Warn("Skipping unreadable saved map", zap.String("key", key), zap.Error(gerr))
			continue
		}
		if !ok {
			continue
		}
		m, derr := Decode(data)
		if derr != nil {
			continue
		}
		maps = append(maps, m)
	}

	sort.SliceStable(maps, func(i, j int) bool {
		if maps[i].CreatedAt != maps[j].CreatedAt {
			return maps[i].CreatedAt > maps[j].CreatedAt
		}
		return maps[i].Name < maps[j].Name
	})
	span.SetAttributes(attribute.Int("map.count", len(maps)))
	return maps, nil
}

// Delete removes the map called name. Deleting a missing map is not an error.
func (r *Repository) Delete(ctx context.Context, name string) (err error) {
	ctx, span := r.start(ctx, "delete", name)
	defer func() { r.finish(span, "delete", err) }()

	if err := r.kv.Delete(ctx, Key(name)); err != nil {
		return apperrors.NewStorageError("delete", err)
	}
	return nil
}

// Rename moves oldName to newName, keeping its content and createdAt. An
// existing newName is overwritten. It reports false when oldName does not
// exist as a valid map.
func (r *Repository) Rename(ctx context.Context, oldName, newName string) (moved bool, err error) {
	ctx, span := r.start(ctx, "rename", oldName)
	defer func() { r.finish(span, "rename", err) }()

	if verr := ValidateName(newName); verr != nil {
		return false, apperrors.NewValidationError(verr.Error())
	}
	if oldName == newName {
		_, found, gerr := r.Get(ctx, oldName)
		return found, gerr
	}

	m, found, err := r.Get(ctx, oldName)
	if err != nil || !found {
		return false, err
	}

	m.Name = newName
	m.UpdatedAt = r.now().UnixMilli()
	data, err := Encode(m)
	if err != nil {
		return false, apperrors.NewInternalError("encode saved map").WithCause(err)
	}
	if err := r.kv.Set(ctx, Key(newName), data); err != nil {
		return false, apperrors.NewStorageError("set", err)
	}
	if err := r.kv.Delete(ctx, Key(oldName)); err != nil {
		return false, apperrors.NewStorageError("delete", err)
	}

	r.logger.Info("Renamed map", zap.String("from", oldName), zap.String("to", newName))
	return true, nil
}

// CleanupInvalid deletes every entry in the namespace that fails validation
// and returns the removed names.
func (r *Repository) CleanupInvalid(ctx context.Context) (removed []string, err error) {
	ctx, span := r.start(ctx, "cleanup", "")
	defer func() { r.finish(span, "cleanup", err) }()

	keys, err := r.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, apperrors.NewStorageError("keys", err)
	}

	removed = []string{}
	for _, key := range keys {
		data, ok, gerr := r.kv.Get(ctx, key)
		if gerr != nil || !ok {
			continue
		}
		if _, derr := Decode(data); derr == nil {
			continue
		}
		if derr := r.kv.Delete(ctx, key); derr != nil {
			r.logger.Warn("Failed to delete invalid map", zap.String("key", key), zap.Error(derr))
			continue
		}
		removed = append(removed, NameFromKey(key))
	}

	if len(removed) > 0 {
		r.logger.Info("Removed invalid saved maps", zap.Strings("names", removed))
	}
	return removed, nil
}
