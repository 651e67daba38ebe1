package registry

import (
	"context"

	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/topology"
)

// Repository defines the storage contract for topology and layer metadata.
type Repository interface {
	CreateTopology(ctx context.Context, name string, srid int, precision float64) (topology.Topology, error)
	TopologyByName(ctx context.Context, name string) (topology.Topology, error)
	CreateLayer(ctx context.Context, topo topology.Topology, featureType layer.FeatureType, level int) (layer.Layer, error)
	Layer(ctx context.Context, topo topology.Topology, layerID int) (layer.Layer, error)
	Layers(ctx context.Context, topo topology.Topology) ([]layer.Layer, error)
}
