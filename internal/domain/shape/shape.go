// Package shape provides geometry classification and decomposition helpers
// over go-geom types.
package shape

import (
	"fmt"
	"math"

	geom "github.com/twpayne/go-geom"

	"github.com/maomaofreedom/topomesh/internal/domain"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
)

// Classify maps a geometry's top-level type to a feature class.
// Collections classify as Collection regardless of their content.
func Classify(g geom.T) (layer.FeatureType, error) {
	switch g.(type) {
	case *geom.Point, *geom.MultiPoint:
		return layer.Puntal, nil
	case *geom.LineString, *geom.MultiLineString:
		return layer.Lineal, nil
	case *geom.Polygon, *geom.MultiPolygon:
		return layer.Areal, nil
	case *geom.GeometryCollection:
		return layer.Collection, nil
	default:
		return 0, fmt.Errorf("%w: %T", domain.ErrUnsupportedGeometry, g)
	}
}

// Parts decomposes a geometry into its constituent single (non-collection)
// parts, recursing into nested collections.
func Parts(g geom.T) []geom.T {
	switch g := g.(type) {
	case *geom.MultiPoint:
		out := make([]geom.T, 0, g.NumPoints())
		for i := 0; i < g.NumPoints(); i++ {
			out = append(out, g.Point(i))
		}
		return out
	case *geom.MultiLineString:
		out := make([]geom.T, 0, g.NumLineStrings())
		for i := 0; i < g.NumLineStrings(); i++ {
			out = append(out, g.LineString(i))
		}
		return out
	case *geom.MultiPolygon:
		out := make([]geom.T, 0, g.NumPolygons())
		for i := 0; i < g.NumPolygons(); i++ {
			out = append(out, g.Polygon(i))
		}
		return out
	case *geom.GeometryCollection:
		var out []geom.T
		for _, sub := range g.Geoms() {
			out = append(out, Parts(sub)...)
		}
		return out
	default:
		return []geom.T{g}
	}
}

// IsEmpty reports whether a geometry has no coordinates. A collection is
// empty when all of its members are.
func IsEmpty(g geom.T) bool {
	if gc, ok := g.(*geom.GeometryCollection); ok {
		for _, sub := range gc.Geoms() {
			if !IsEmpty(sub) {
				return false
			}
		}
		return true
	}
	return len(g.FlatCoords()) == 0
}

// Dimension returns the topological dimension of a geometry:
// 0 for points, 1 for lines, 2 for areas. Collections take the maximum
// dimension of their members.
func Dimension(g geom.T) (int, error) {
	switch g := g.(type) {
	case *geom.Point, *geom.MultiPoint:
		return 0, nil
	case *geom.LineString, *geom.MultiLineString, *geom.LinearRing:
		return 1, nil
	case *geom.Polygon, *geom.MultiPolygon:
		return 2, nil
	case *geom.GeometryCollection:
		dim := 0
		for _, sub := range g.Geoms() {
			d, err := Dimension(sub)
			if err != nil {
				return 0, err
			}
			if d > dim {
				dim = d
			}
		}
		return dim, nil
	default:
		return 0, fmt.Errorf("%w: %T", domain.ErrUnsupportedGeometry, g)
	}
}

// MinTolerance derives the smallest meaningful snapping tolerance for a
// geometry from its coordinate magnitude: float64 carries ~15 significant
// digits, so the tolerance scales with the largest absolute ordinate.
func MinTolerance(g geom.T) float64 {
	b := g.Bounds()
	if b.IsEmpty() {
		return 3.6 * math.Pow(10, -15)
	}
	maxAbs := math.Max(
		math.Max(math.Abs(b.Min(0)), math.Abs(b.Max(0))),
		math.Max(math.Abs(b.Min(1)), math.Abs(b.Max(1))),
	)
	if maxAbs == 0 {
		maxAbs = 1
	}
	return 3.6 * math.Pow(10, -(15-math.Log10(maxAbs)))
}
