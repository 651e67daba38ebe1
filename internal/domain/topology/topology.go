// Package topology holds the topology aggregate: a named planar mesh of
// nodes, edges and faces shared by the features in its layers.
package topology

import (
	"fmt"
	"regexp"
	"time"

	"github.com/maomaofreedom/topomesh/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// DefaultSRID is used when no spatial reference is given.
const DefaultSRID = 4326

// Topology is the topology metadata record (immutable value object).
type Topology struct {
	id        int
	name      string
	srid      int
	precision float64
	createdAt int64
}

// ValidateName checks a topology name: ^[a-zA-Z0-9_]+$, 1-64 chars.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: topology name is required", domain.ErrInvalidName)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: topology name too long (max 64)", domain.ErrInvalidName)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: topology name must be alphanumeric with underscores", domain.ErrInvalidName)
	}
	return nil
}

// New validates and creates a Topology.
// Precision >= 0; 0 means the tolerance is derived per geometry.
func New(id int, name string, srid int, precision float64) (Topology, error) {
	if err := ValidateName(name); err != nil {
		return Topology{}, err
	}
	if precision < 0 {
		return Topology{}, fmt.Errorf("precision %g: %w", precision, domain.ErrInvalidTolerance)
	}
	if srid == 0 {
		srid = DefaultSRID
	}
	return Topology{
		id:        id,
		name:      name,
		srid:      srid,
		precision: precision,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Topology without validation (storage hydration).
func Reconstruct(id int, name string, srid int, precision float64, createdAt int64) Topology {
	return Topology{
		id:        id,
		name:      name,
		srid:      srid,
		precision: precision,
		createdAt: createdAt,
	}
}

// ID returns the topology id.
func (t Topology) ID() int { return t.id }

// Name returns the topology name.
func (t Topology) Name() string { return t.name }

// SRID returns the spatial reference id.
func (t Topology) SRID() int { return t.srid }

// Precision returns the coordinate precision (snapping floor, 0 = derived).
func (t Topology) Precision() float64 { return t.precision }

// CreatedAt returns the creation timestamp (unix millis).
func (t Topology) CreatedAt() int64 { return t.createdAt }
