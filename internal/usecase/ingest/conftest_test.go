package ingest

import (
	"context"
	"fmt"

	"github.com/twpayne/go-geom"

	"github.com/maomaofreedom/topomesh/internal/domain"
	domfeat "github.com/maomaofreedom/topomesh/internal/domain/feature"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/relation"
	"github.com/maomaofreedom/topomesh/internal/domain/topology"
)

type mockRegistry struct {
	topologyFn func(ctx context.Context, name string) (topology.Topology, error)
	layerFn    func(ctx context.Context, topo topology.Topology, layerID int) (layer.Layer, error)
}

func (m *mockRegistry) TopologyByName(ctx context.Context, name string) (topology.Topology, error) {
	return m.topologyFn(ctx, name)
}

func (m *mockRegistry) Layer(ctx context.Context, topo topology.Topology, layerID int) (layer.Layer, error) {
	return m.layerFn(ctx, topo, layerID)
}

// fixedRegistry serves one topology named "city" with one layer.
func fixedRegistry(precision float64, layerType layer.FeatureType, level int) *mockRegistry {
	topo := topology.Reconstruct(1, "city", 4326, precision, 0)
	return &mockRegistry{
		topologyFn: func(_ context.Context, name string) (topology.Topology, error) {
			if name != "city" {
				return topology.Topology{}, fmt.Errorf("%q: %w", name, domain.ErrTopologyNotFound)
			}
			return topo, nil
		},
		layerFn: func(_ context.Context, topo topology.Topology, layerID int) (layer.Layer, error) {
			if layerID != 1 {
				return layer.Layer{}, fmt.Errorf("%d: %w", layerID, domain.ErrLayerNotFound)
			}
			return layer.Reconstruct(1, topo.ID(), layerType, level, 0), nil
		},
	}
}

type mockFactory struct {
	nextID   int64
	features map[int64]domfeat.TopoGeometry
}

func newMockFactory() *mockFactory {
	return &mockFactory{features: make(map[int64]domfeat.TopoGeometry)}
}

func (m *mockFactory) Create(_ context.Context, topologyName string, class layer.FeatureType, layerID int) (domfeat.TopoGeometry, error) {
	m.nextID++
	f := domfeat.New(m.nextID, layerID, topologyName, class, 0)
	m.features[m.nextID] = f
	return f, nil
}

func (m *mockFactory) Get(_ context.Context, _ string, _ int, id int64) (domfeat.TopoGeometry, error) {
	f, ok := m.features[id]
	if !ok {
		return domfeat.TopoGeometry{}, fmt.Errorf("%d: %w", id, domain.ErrFeatureNotFound)
	}
	return f, nil
}

// mockInserter records every call and hands out ids from the configured
// slices (cycling on the last element).
type mockInserter struct {
	pointIDs   []int64
	lineIDs    []int64
	polygonIDs []int64

	tolerances []float64
	points     int
	lines      int
	polygons   int
}

func take(ids []int64, call int) []int64 {
	if len(ids) == 0 {
		return nil
	}
	if call >= len(ids) {
		call = len(ids) - 1
	}
	return []int64{ids[call]}
}

func (m *mockInserter) AddPoint(_ context.Context, _ string, _ *geom.Point, tol float64) ([]int64, error) {
	m.tolerances = append(m.tolerances, tol)
	out := take(m.pointIDs, m.points)
	m.points++
	return out, nil
}

func (m *mockInserter) AddLineString(_ context.Context, _ string, _ *geom.LineString, tol float64) ([]int64, error) {
	m.tolerances = append(m.tolerances, tol)
	out := take(m.lineIDs, m.lines)
	m.lines++
	return out, nil
}

func (m *mockInserter) AddPolygon(_ context.Context, _ string, _ *geom.Polygon, tol float64) ([]int64, error) {
	m.tolerances = append(m.tolerances, tol)
	out := take(m.polygonIDs, m.polygons)
	m.polygons++
	return out, nil
}

type mockPrimitives struct {
	primitiveFn func(ctx context.Context, topology string, elementType int, id int64) (geom.T, error)
}

func (m *mockPrimitives) Primitive(ctx context.Context, topology string, elementType int, id int64) (geom.T, error) {
	return m.primitiveFn(ctx, topology, elementType, id)
}

// mockLedger keeps tuples in append order and counts writes.
type mockLedger struct {
	tuples  []relation.Relation
	appends int
}

func (m *mockLedger) has(rel relation.Relation) bool {
	for _, t := range m.tuples {
		if t == rel {
			return true
		}
	}
	return false
}

func (m *mockLedger) Exists(_ context.Context, _ string, rel relation.Relation) (bool, error) {
	return m.has(rel), nil
}

func (m *mockLedger) Append(_ context.Context, _ string, rel relation.Relation) error {
	m.appends++
	if !m.has(rel) {
		m.tuples = append(m.tuples, rel)
	}
	return nil
}

func (m *mockLedger) List(_ context.Context, _ string, layerID int, topoGeoID int64) ([]relation.Relation, error) {
	var out []relation.Relation
	for _, t := range m.tuples {
		if t.LayerID == layerID && t.TopoGeoID == topoGeoID {
			out = append(out, t)
		}
	}
	return out, nil
}
