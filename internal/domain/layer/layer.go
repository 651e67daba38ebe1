// Package layer holds the layer aggregate: a collection of topology
// geometries with a declared feature-type policy and hierarchy level.
package layer

import "fmt"

// FeatureType is the declared class of features a layer holds.
// The numeric values are also the element_type encoding in relation tuples
// (dimension + 1 for simple primitives).
type FeatureType int

const (
	// Puntal layers hold points and multipoints.
	Puntal FeatureType = 1
	// Lineal layers hold linestrings and multilinestrings.
	Lineal FeatureType = 2
	// Areal layers hold polygons and multipolygons.
	Areal FeatureType = 3
	// Collection layers hold geometry collections and any simple class.
	Collection FeatureType = 4
)

// IsValid checks if the feature type is one of the declared classes.
func (t FeatureType) IsValid() bool {
	return t >= Puntal && t <= Collection
}

// String returns the type label used in error messages.
func (t FeatureType) String() string {
	switch t {
	case Puntal:
		return "puntal"
	case Lineal:
		return "lineal"
	case Areal:
		return "areal"
	case Collection:
		return "mixed"
	default:
		return fmt.Sprintf("unexpected_%d", int(t))
	}
}

// ParseFeatureType converts a type label into a FeatureType.
func ParseFeatureType(s string) (FeatureType, error) {
	switch s {
	case "puntal":
		return Puntal, nil
	case "lineal":
		return Lineal, nil
	case "areal":
		return Areal, nil
	case "mixed", "collection":
		return Collection, nil
	default:
		return 0, fmt.Errorf("unknown feature type %q", s)
	}
}

// Layer is the layer metadata record (immutable value object).
type Layer struct {
	id          int
	topologyID  int
	featureType FeatureType
	level       int
	createdAt   int64
}

// New validates and creates a Layer.
func New(id, topologyID int, featureType FeatureType, level int, createdAt int64) (Layer, error) {
	if !featureType.IsValid() {
		return Layer{}, fmt.Errorf("invalid feature type %d", int(featureType))
	}
	if level < 0 {
		return Layer{}, fmt.Errorf("hierarchy level must not be negative")
	}
	return Layer{
		id:          id,
		topologyID:  topologyID,
		featureType: featureType,
		level:       level,
		createdAt:   createdAt,
	}, nil
}

// Reconstruct creates a Layer without validation (storage hydration).
func Reconstruct(id, topologyID int, featureType FeatureType, level int, createdAt int64) Layer {
	return Layer{
		id:          id,
		topologyID:  topologyID,
		featureType: featureType,
		level:       level,
		createdAt:   createdAt,
	}
}

// ID returns the layer id.
func (l Layer) ID() int { return l.id }

// TopologyID returns the owning topology id.
func (l Layer) TopologyID() int { return l.topologyID }

// FeatureType returns the declared feature type.
func (l Layer) FeatureType() FeatureType { return l.featureType }

// Level returns the hierarchy level (0 = simple primitives).
func (l Layer) Level() int { return l.level }

// IsHierarchical reports whether the layer references other layers
// instead of mesh primitives.
func (l Layer) IsHierarchical() bool { return l.level > 0 }

// CreatedAt returns the creation timestamp (unix millis).
func (l Layer) CreatedAt() int64 { return l.createdAt }

// CanHold reports whether a feature of the given class may be ingested.
// Collection layers accept every class; every other layer accepts only
// its own class.
func (l Layer) CanHold(class FeatureType) bool {
	switch l.featureType {
	case Collection:
		return true
	case Puntal, Lineal, Areal:
		return class == l.featureType
	default:
		return false
	}
}
