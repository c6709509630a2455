// Package layout positions mind-map nodes. The force-directed "cose" layout
// is the default; "grid" and "circle" are deterministic alternatives.
package layout

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/utils"
)

// Layout names.
const (
	NameCose   = "cose"
	NameGrid   = "grid"
	NameCircle = "circle"
)

// DefaultOptions returns the stock cose settings.
func DefaultOptions() ports.LayoutOptions {
	return ports.LayoutOptions{
		Name:            NameCose,
		NodeRepulsion:   8000,
		IdealEdgeLength: 120,
		Gravity:         0.25,
		Padding:         30,
		Iterations:      500,
	}
}

// Engine implements ports.LayoutEngine.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a layout engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Layout computes a position for every node. Edges whose endpoints are not in
// nodes are ignored.
func (e *Engine) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts ports.LayoutOptions) (map[string]graph.Position, error) {
	if err := utils.ValidateStruct(opts); err != nil {
		return nil, err
	}
	opts = withDefaults(opts)

	// Sorted ids keep the output independent of input order.
	ids := make([]string, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	out := make(map[string]graph.Position, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var pos []vec
	switch opts.Name {
	case NameGrid:
		pos = gridPositions(len(ids), opts.IdealEdgeLength)
	case NameCircle:
		pos = circlePositions(len(ids), opts.IdealEdgeLength)
	default:
		var err error
		pos, err = cose(ctx, ids, springs(ids, edges), opts)
		if err != nil {
			return nil, apperrors.Wrap(err, "layout cancelled")
		}
	}

	fit(pos, opts)
	for i, id := range ids {
		out[id] = graph.Position{X: round(pos[i].x), Y: round(pos[i].y)}
	}
	e.logger.Debug("Layout computed",
		zap.String("layout", opts.Name),
		zap.Int("nodes", len(ids)),
	)
	return out, nil
}

func withDefaults(opts ports.LayoutOptions) ports.LayoutOptions {
	d := DefaultOptions()
	if opts.Name == "" {
		opts.Name = d.Name
	}
	if opts.NodeRepulsion == 0 {
		opts.NodeRepulsion = d.NodeRepulsion
	}
	if opts.IdealEdgeLength == 0 {
		opts.IdealEdgeLength = d.IdealEdgeLength
	}
	if opts.Iterations == 0 {
		opts.Iterations = d.Iterations
	}
	return opts
}

// speed converts net force into displacement per iteration.
const speed = 4.0

type vec struct{ x, y float64 }

type spring struct{ a, b int }

// springs maps edges to index pairs, dropping self loops, duplicates and
// dangling endpoints.
func springs(ids []string, edges []graph.Edge) []spring {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	seen := map[spring]bool{}
	var out []spring
	for _, e := range edges {
		a, okA := index[e.Source]
		b, okB := index[e.Target]
		if !okA || !okB || a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		s := spring{a, b}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func gridPositions(n int, spacing float64) []vec {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	pos := make([]vec, n)
	for i := range pos {
		pos[i] = vec{float64(i%cols) * spacing, float64(i/cols) * spacing}
	}
	return pos
}

func circlePositions(n int, spacing float64) []vec {
	pos := make([]vec, n)
	if n == 1 {
		return pos
	}
	// Circumference of n*spacing keeps neighbours one ideal length apart.
	r := float64(n) * spacing / (2 * math.Pi)
	for i := range pos {
		a := 2 * math.Pi * float64(i) / float64(n)
		pos[i] = vec{r * math.Cos(a), r * math.Sin(a)}
	}
	return pos
}

// cose runs a compound-spring-embedder style simulation: inverse-square
// repulsion between all pairs, linear springs along edges and a pull towards
// the centroid, with a linearly cooling step limit.
func cose(ctx context.Context, ids []string, springs []spring, opts ports.LayoutOptions) ([]vec, error) {
	n := len(ids)
	pos := circlePositions(n, opts.IdealEdgeLength)
	if n == 1 {
		return pos, nil
	}

	disp := make([]vec, n)
	maxStep := opts.IdealEdgeLength
	for it := 0; it < opts.Iterations; it++ {
		if it%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for i := range disp {
			disp[i] = vec{}
		}

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx, dy := pos[i].x-pos[j].x, pos[i].y-pos[j].y
				d2 := dx*dx + dy*dy
				if d2 < 1 {
					// Coincident nodes are nudged apart along a fixed axis.
					dx, dy, d2 = float64(j-i), 1, 1+float64((j-i)*(j-i))
				}
				d := math.Sqrt(d2)
				f := opts.NodeRepulsion / d2
				fx, fy := f*dx/d, f*dy/d
				disp[i].x += fx
				disp[i].y += fy
				disp[j].x -= fx
				disp[j].y -= fy
			}
		}

		for _, s := range springs {
			dx, dy := pos[s.b].x-pos[s.a].x, pos[s.b].y-pos[s.a].y
			d := math.Max(math.Hypot(dx, dy), 0.01)
			f := (d - opts.IdealEdgeLength) / opts.IdealEdgeLength
			fx, fy := f*dx/d, f*dy/d
			disp[s.a].x += fx
			disp[s.a].y += fy
			disp[s.b].x -= fx
			disp[s.b].y -= fy
		}

		var cx, cy float64
		for _, p := range pos {
			cx += p.x
			cy += p.y
		}
		cx, cy = cx/float64(n), cy/float64(n)
		for i := range pos {
			disp[i].x -= opts.Gravity * (pos[i].x - cx) / opts.IdealEdgeLength
			disp[i].y -= opts.Gravity * (pos[i].y - cy) / opts.IdealEdgeLength
		}

		limit := maxStep * (1 - float64(it)/float64(opts.Iterations))
		for i := range pos {
			l := math.Hypot(disp[i].x, disp[i].y)
			if l == 0 {
				continue
			}
			step := math.Min(l*speed, limit)
			pos[i].x += disp[i].x / l * step
			pos[i].y += disp[i].y / l * step
		}
	}
	return pos, nil
}

// fit translates positions so the bounding box starts at the padding and,
// when a viewport is given, scales down to fit inside it.
func fit(pos []vec, opts ports.LayoutOptions) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX, minY = math.Min(minX, p.x), math.Min(minY, p.y)
		maxX, maxY = math.Max(maxX, p.x), math.Max(maxY, p.y)
	}

	scale := 1.0
	if w := opts.Width - 2*opts.Padding; opts.Width > 0 && w > 0 && maxX > minX {
		scale = math.Min(scale, w/(maxX-minX))
	}
	if h := opts.Height - 2*opts.Padding; opts.Height > 0 && h > 0 && maxY > minY {
		scale = math.Min(scale, h/(maxY-minY))
	}

	for i := range pos {
		pos[i].x = (pos[i].x-minX)*scale + opts.Padding
		pos[i].y = (pos[i].y-minY)*scale + opts.Padding
	}
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ ports.LayoutEngine = (*Engine)(nil)
