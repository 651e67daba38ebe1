package ingest

import (
	"github.com/twpayne/go-geom"

	"github.com/maomaofreedom/topomesh/internal/domain/shape"
	"github.com/maomaofreedom/topomesh/internal/domain/topology"
)

// DefaultTolerance resolves the snap tolerance used when a caller passes
// none: the topology's configured precision, floored by the smallest
// distance representable without float64 rounding artifacts at the
// geometry's coordinate magnitude.
func DefaultTolerance(topo topology.Topology, g geom.T) float64 {
	minTol := shape.MinTolerance(g)
	if topo.Precision() > minTol {
		return topo.Precision()
	}
	return minTol
}
