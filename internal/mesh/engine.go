package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/maomaofreedom/topomesh/internal/db"
	"github.com/maomaofreedom/topomesh/internal/domain/relation"
)

// ErrPrimitiveNotFound signals a missing mesh primitive.
var ErrPrimitiveNotFound = errors.New("mesh: primitive not found")

// Engine manages one mesh per topology, serializing access and persisting
// snapshots through the JSON store. With a nil store the meshes are memory
// only, which the embedded client and the tests rely on.
type Engine struct {
	store  db.JSONStore
	prefix string
	logger *zap.Logger

	mu     sync.Mutex
	meshes map[string]*Mesh
}

// NewEngine creates a mesh engine.
func NewEngine(store db.JSONStore, prefix string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		prefix: prefix,
		logger: logger,
		meshes: make(map[string]*Mesh),
	}
}

// AddPoint inserts a point into the topology's mesh.
func (e *Engine) AddPoint(ctx context.Context, topology string, p *geom.Point, tolerance float64) ([]int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.mesh(ctx, topology)
	if err != nil {
		return nil, err
	}
	id := m.AddPoint(XY{p.X(), p.Y()}, tolerance)
	if err := e.persist(ctx, topology, m); err != nil {
		return nil, err
	}
	e.logger.Debug("point inserted",
		zap.String("topology", topology),
		zap.Int64("node_id", id),
		zap.Float64("tolerance", tolerance),
	)
	return []int64{id}, nil
}

// AddLineString inserts a linestring into the topology's mesh. The returned
// ids cover the line, possibly after splitting against existing content.
func (e *Engine) AddLineString(ctx context.Context, topology string, ls *geom.LineString, tolerance float64) ([]int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.mesh(ctx, topology)
	if err != nil {
		return nil, err
	}
	ids, err := m.AddLineString(lineCoords(ls), tolerance)
	if err != nil {
		return nil, err
	}
	if err := e.persist(ctx, topology, m); err != nil {
		return nil, err
	}
	e.logger.Debug("linestring inserted",
		zap.String("topology", topology),
		zap.Int64s("edge_ids", ids),
		zap.Float64("tolerance", tolerance),
	)
	return ids, nil
}

// AddPolygon inserts a polygon into the topology's mesh.
func (e *Engine) AddPolygon(ctx context.Context, topology string, pg *geom.Polygon, tolerance float64) ([]int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.mesh(ctx, topology)
	if err != nil {
		return nil, err
	}
	ids, err := m.AddPolygon(polygonRings(pg), tolerance)
	if err != nil {
		return nil, err
	}
	if err := e.persist(ctx, topology, m); err != nil {
		return nil, err
	}
	e.logger.Debug("polygon inserted",
		zap.String("topology", topology),
		zap.Int64s("face_ids", ids),
		zap.Float64("tolerance", tolerance),
	)
	return ids, nil
}

// Primitive returns the geometry of a mesh primitive by element type and id.
func (e *Engine) Primitive(ctx context.Context, topology string, elementType int, id int64) (geom.T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.mesh(ctx, topology)
	if err != nil {
		return nil, err
	}

	switch elementType {
	case relation.ElementNode:
		n, ok := m.Node(id)
		if !ok {
			return nil, fmt.Errorf("node %d: %w", id, ErrPrimitiveNotFound)
		}
		return geom.NewPointFlat(geom.XY, []float64{n.Pt[0], n.Pt[1]}), nil
	case relation.ElementEdge:
		ed, ok := m.Edge(id)
		if !ok {
			return nil, fmt.Errorf("edge %d: %w", id, ErrPrimitiveNotFound)
		}
		flat := make([]float64, 0, 2*len(ed.Pts))
		for _, p := range ed.Pts {
			flat = append(flat, p[0], p[1])
		}
		return geom.NewLineStringFlat(geom.XY, flat), nil
	case relation.ElementFace:
		f, ok := m.Face(id)
		if !ok {
			return nil, fmt.Errorf("face %d: %w", id, ErrPrimitiveNotFound)
		}
		return faceGeometry(f)
	default:
		return nil, fmt.Errorf("element type %d: %w", elementType, ErrPrimitiveNotFound)
	}
}

// mesh returns the topology's mesh, loading the snapshot on first use.
func (e *Engine) mesh(ctx context.Context, topology string) (*Mesh, error) {
	if m, ok := e.meshes[topology]; ok {
		return m, nil
	}

	m := New()
	if e.store != nil {
		raw, err := e.store.JSONGet(ctx, e.key(topology), "$")
		switch {
		case errors.Is(err, db.ErrKeyNotFound):
			// fresh topology
		case err != nil:
			return nil, fmt.Errorf("load mesh %s: %w", topology, err)
		default:
			var snaps []Snapshot
			if err := json.Unmarshal(raw, &snaps); err != nil {
				return nil, fmt.Errorf("unmarshal mesh %s: %w", topology, err)
			}
			if len(snaps) > 0 {
				m = FromSnapshot(&snaps[0])
			}
		}
	}
	e.meshes[topology] = m
	return m, nil
}

func (e *Engine) persist(ctx context.Context, topology string, m *Mesh) error {
	if e.store == nil {
		return nil
	}
	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal mesh %s: %w", topology, err)
	}
	if err := e.store.JSONSet(ctx, e.key(topology), "$", data); err != nil {
		return fmt.Errorf("persist mesh %s: %w", topology, err)
	}
	return nil
}

func (e *Engine) key(topology string) string {
	return e.prefix + topology + ":mesh"
}

func lineCoords(ls *geom.LineString) []XY {
	out := make([]XY, ls.NumCoords())
	for i := 0; i < ls.NumCoords(); i++ {
		c := ls.Coord(i)
		out[i] = XY{c[0], c[1]}
	}
	return out
}

func polygonRings(pg *geom.Polygon) [][]XY {
	out := make([][]XY, pg.NumLinearRings())
	for i := 0; i < pg.NumLinearRings(); i++ {
		ring := pg.LinearRing(i)
		pts := make([]XY, ring.NumCoords())
		for j := 0; j < ring.NumCoords(); j++ {
			c := ring.Coord(j)
			pts[j] = XY{c[0], c[1]}
		}
		out[i] = pts
	}
	return out
}

func faceGeometry(f Face) (geom.T, error) {
	coords := make([][]geom.Coord, 0, 1+len(f.Holes))
	coords = append(coords, ringCoords(f.Shell))
	for _, h := range f.Holes {
		coords = append(coords, ringCoords(h))
	}
	pg := geom.NewPolygon(geom.XY)
	if _, err := pg.SetCoords(coords); err != nil {
		return nil, fmt.Errorf("face %d geometry: %w", f.ID, err)
	}
	return pg, nil
}

func ringCoords(ring []XY) []geom.Coord {
	out := make([]geom.Coord, len(ring))
	for i, p := range ring {
		out[i] = geom.Coord{p[0], p[1]}
	}
	return out
}
