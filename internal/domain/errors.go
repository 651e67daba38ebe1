package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrTopologyNotFound signals a missing topology.
	ErrTopologyNotFound = fmt.Errorf("topology %w", ErrNotFound)
	// ErrLayerNotFound signals a missing layer.
	ErrLayerNotFound = fmt.Errorf("layer %w", ErrNotFound)
	// ErrFeatureNotFound signals a missing topology geometry.
	ErrFeatureNotFound = fmt.Errorf("feature %w", ErrNotFound)
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidName signals an invalid topology name.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidTolerance signals a negative snap tolerance.
	ErrInvalidTolerance = errors.New("tolerance must not be negative")
	// ErrHierarchicalLayer signals direct ingestion into a hierarchical layer.
	ErrHierarchicalLayer = errors.New("layer is hierarchical, cannot convert to it")
	// ErrTypeMismatch signals a geometry class the layer's feature type cannot hold.
	ErrTypeMismatch = errors.New("geometry class not allowed by layer")
	// ErrUnsupportedGeometry signals a geometry outside the supported classification.
	// Classification is exhaustive over the supported set, so this is an internal
	// invariant violation rather than a user input class.
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
)

// TypeMismatchError wraps ErrTypeMismatch with the layer, topology and type labels.
type TypeMismatchError struct {
	LayerID   int
	Topology  string
	LayerType string
	Class     string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf(
		"layer %d of topology %q is %s, cannot hold a %s feature",
		e.LayerID, e.Topology, e.LayerType, e.Class,
	)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// NewTypeMismatch creates a type mismatch error.
func NewTypeMismatch(layerID int, topology, layerType, class string) error {
	return &TypeMismatchError{
		LayerID:   layerID,
		Topology:  topology,
		LayerType: layerType,
		Class:     class,
	}
}
