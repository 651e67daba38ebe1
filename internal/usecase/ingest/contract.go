package ingest

import (
	"context"

	"github.com/twpayne/go-geom"

	domfeat "github.com/maomaofreedom/topomesh/internal/domain/feature"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/relation"
	"github.com/maomaofreedom/topomesh/internal/domain/topology"
)

// Registry resolves topology and layer metadata.
type Registry interface {
	TopologyByName(ctx context.Context, name string) (topology.Topology, error)
	Layer(ctx context.Context, topo topology.Topology, layerID int) (layer.Layer, error)
}

// FeatureFactory allocates and reads topology geometry containers.
type FeatureFactory interface {
	Create(ctx context.Context, topologyName string, class layer.FeatureType, layerID int) (domfeat.TopoGeometry, error)
	Get(ctx context.Context, topologyName string, layerID int, id int64) (domfeat.TopoGeometry, error)
}

// Inserter nodes geometry into a topology's mesh and returns the ids of the
// primitives each shape ended up as.
type Inserter interface {
	AddPoint(ctx context.Context, topology string, p *geom.Point, tolerance float64) ([]int64, error)
	AddLineString(ctx context.Context, topology string, ls *geom.LineString, tolerance float64) ([]int64, error)
	AddPolygon(ctx context.Context, topology string, pg *geom.Polygon, tolerance float64) ([]int64, error)
}

// PrimitiveReader reads a mesh primitive back as geometry.
type PrimitiveReader interface {
	Primitive(ctx context.Context, topology string, elementType int, id int64) (geom.T, error)
}

// Ledger is the persisted relation store for feature composition.
type Ledger interface {
	Exists(ctx context.Context, topology string, rel relation.Relation) (bool, error)
	Append(ctx context.Context, topology string, rel relation.Relation) error
	List(ctx context.Context, topology string, layerID int, topoGeoID int64) ([]relation.Relation, error)
}
