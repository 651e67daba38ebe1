// Package feature holds the topology geometry aggregate: a feature defined
// as a set of references to mesh primitives rather than raw coordinates.
package feature

import (
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
)

// TopoGeometry identifies one topology geometry within a layer.
// It is empty at birth; its composition lives in the relation ledger.
type TopoGeometry struct {
	id          int64
	layerID     int
	topology    string
	featureType layer.FeatureType
	createdAt   int64
}

// New creates a TopoGeometry reference.
func New(id int64, layerID int, topology string, featureType layer.FeatureType, createdAt int64) TopoGeometry {
	return TopoGeometry{
		id:          id,
		layerID:     layerID,
		topology:    topology,
		featureType: featureType,
		createdAt:   createdAt,
	}
}

// ID returns the feature id, unique within its layer.
func (f TopoGeometry) ID() int64 { return f.id }

// LayerID returns the owning layer id.
func (f TopoGeometry) LayerID() int { return f.layerID }

// Topology returns the owning topology name.
func (f TopoGeometry) Topology() string { return f.topology }

// FeatureType returns the class the feature was created with.
func (f TopoGeometry) FeatureType() layer.FeatureType { return f.featureType }

// CreatedAt returns the creation timestamp (unix millis).
func (f TopoGeometry) CreatedAt() int64 { return f.createdAt }
