// Package relation holds the persisted link between a topology geometry and
// the mesh primitives it comprises.
package relation

import (
	"fmt"
	"strconv"
	"strings"
)

// Element types in relation tuples: primitive dimension + 1.
const (
	ElementNode = 1
	ElementEdge = 2
	ElementFace = 3
)

// Relation is one (feature, layer, element) tuple.
type Relation struct {
	TopoGeoID   int64
	LayerID     int
	ElementType int
	ElementID   int64
}

// New creates a relation tuple.
func New(topoGeoID int64, layerID, elementType int, elementID int64) Relation {
	return Relation{
		TopoGeoID:   topoGeoID,
		LayerID:     layerID,
		ElementType: elementType,
		ElementID:   elementID,
	}
}

// Member returns the canonical "elementType:elementID" encoding used as a
// set member in the ledger. Feature and layer identify the set itself.
func (r Relation) Member() string {
	return strconv.Itoa(r.ElementType) + ":" + strconv.FormatInt(r.ElementID, 10)
}

// ParseMember decodes a ledger set member back into element type and id.
func ParseMember(topoGeoID int64, layerID int, member string) (Relation, error) {
	typePart, idPart, ok := strings.Cut(member, ":")
	if !ok {
		return Relation{}, fmt.Errorf("malformed relation member %q", member)
	}
	elementType, err := strconv.Atoi(typePart)
	if err != nil {
		return Relation{}, fmt.Errorf("malformed element type in %q: %w", member, err)
	}
	elementID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Relation{}, fmt.Errorf("malformed element id in %q: %w", member, err)
	}
	return New(topoGeoID, layerID, elementType, elementID), nil
}

// Set accumulates relations registered during a single ingestion call.
// It is the in-call half of the double duplicate guard; the other half is
// the existence check against the persisted ledger.
type Set struct {
	seen map[Relation]struct{}
}

// NewSet creates an empty accumulator.
func NewSet() *Set {
	return &Set{seen: make(map[Relation]struct{})}
}

// Add records a relation. Returns false if it was already present.
func (s *Set) Add(r Relation) bool {
	if _, ok := s.seen[r]; ok {
		return false
	}
	s.seen[r] = struct{}{}
	return true
}

// Len returns the number of distinct relations recorded.
func (s *Set) Len() int { return len(s.seen) }
