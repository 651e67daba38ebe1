// Package ingest converts raw geometry into topology geometries: features
// defined by references into a shared mesh of nodes, edges and faces.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/maomaofreedom/topomesh/internal/domain"
	domfeat "github.com/maomaofreedom/topomesh/internal/domain/feature"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/relation"
	"github.com/maomaofreedom/topomesh/internal/domain/shape"
	"github.com/maomaofreedom/topomesh/internal/logger"
	"github.com/maomaofreedom/topomesh/internal/metrics"
)

var elementKind = map[int]string{
	relation.ElementNode: "node",
	relation.ElementEdge: "edge",
	relation.ElementFace: "face",
}

// Service converts geometry into topology geometries and reads them back.
type Service struct {
	registry   Registry
	features   FeatureFactory
	mesh       Inserter
	primitives PrimitiveReader
	ledger     Ledger
}

// New creates an ingestion service.
func New(registry Registry, features FeatureFactory, mesh Inserter, primitives PrimitiveReader, ledger Ledger) *Service {
	return &Service{
		registry:   registry,
		features:   features,
		mesh:       mesh,
		primitives: primitives,
		ledger:     ledger,
	}
}

// ToTopoGeom converts a geometry into a topology geometry in the given
// layer. The geometry is noded into the topology's shared mesh and the
// resulting feature holds references to the primitives it landed on.
// A zero tolerance selects the topology's default snapping tolerance.
func (s *Service) ToTopoGeom(
	ctx context.Context, topologyName string, layerID int, g geom.T, tolerance float64,
) (domfeat.TopoGeometry, error) {
	start := time.Now()

	topo, err := s.registry.TopologyByName(ctx, topologyName)
	if err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("get topology: %w", err)
	}
	ly, err := s.registry.Layer(ctx, topo, layerID)
	if err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("get layer: %w", err)
	}
	if ly.IsHierarchical() {
		return domfeat.TopoGeometry{}, fmt.Errorf(
			"layer %d of topology %q: %w", layerID, topologyName, domain.ErrHierarchicalLayer,
		)
	}

	class, err := shape.Classify(g)
	if err != nil {
		return domfeat.TopoGeometry{}, err
	}
	if !ly.CanHold(class) {
		return domfeat.TopoGeometry{}, domain.NewTypeMismatch(
			layerID, topologyName, ly.FeatureType().String(), class.String(),
		)
	}

	if tolerance < 0 {
		return domfeat.TopoGeometry{}, fmt.Errorf("%g: %w", tolerance, domain.ErrInvalidTolerance)
	}
	if tolerance == 0 {
		tolerance = DefaultTolerance(topo, g)
	}

	feat, err := s.features.Create(ctx, topologyName, class, layerID)
	if err != nil {
		metrics.FeaturesIngestedTotal.WithLabelValues(topologyName, class.String(), "error").Inc()
		return domfeat.TopoGeometry{}, fmt.Errorf("create feature: %w", err)
	}

	log := logger.FromContext(ctx).With(
		zap.String("topology", topologyName),
		zap.Int("layer_id", layerID),
		zap.Int64("feature_id", feat.ID()),
	)

	seen := relation.NewSet()
	for _, part := range shape.Parts(g) {
		if shape.IsEmpty(part) {
			continue
		}
		elementType, ids, err := s.insert(ctx, topologyName, part, tolerance)
		if err != nil {
			metrics.FeaturesIngestedTotal.WithLabelValues(topologyName, class.String(), "error").Inc()
			return domfeat.TopoGeometry{}, err
		}
		for _, id := range ids {
			if err := s.register(ctx, topologyName, seen, relation.New(feat.ID(), layerID, elementType, id)); err != nil {
				metrics.FeaturesIngestedTotal.WithLabelValues(topologyName, class.String(), "error").Inc()
				return domfeat.TopoGeometry{}, err
			}
			metrics.PrimitivesWrittenTotal.WithLabelValues(topologyName, elementKind[elementType]).Inc()
		}
	}

	log.Debug("feature ingested",
		zap.String("class", class.String()),
		zap.Float64("tolerance", tolerance),
		zap.Int("relations", seen.Len()),
	)
	metrics.FeaturesIngestedTotal.WithLabelValues(topologyName, class.String(), "ok").Inc()
	metrics.IngestDuration.WithLabelValues(topologyName, class.String()).Observe(time.Since(start).Seconds())
	return feat, nil
}

// insert nodes a single non-collection part into the mesh and returns the
// element type of the resulting primitives along with their ids.
func (s *Service) insert(ctx context.Context, topology string, part geom.T, tolerance float64) (int, []int64, error) {
	switch p := part.(type) {
	case *geom.Point:
		ids, err := s.mesh.AddPoint(ctx, topology, p, tolerance)
		if err != nil {
			return 0, nil, fmt.Errorf("add point: %w", err)
		}
		return relation.ElementNode, ids, nil
	case *geom.LineString:
		ids, err := s.mesh.AddLineString(ctx, topology, p, tolerance)
		if err != nil {
			return 0, nil, fmt.Errorf("add linestring: %w", err)
		}
		return relation.ElementEdge, ids, nil
	case *geom.Polygon:
		ids, err := s.mesh.AddPolygon(ctx, topology, p, tolerance)
		if err != nil {
			return 0, nil, fmt.Errorf("add polygon: %w", err)
		}
		return relation.ElementFace, ids, nil
	default:
		return 0, nil, fmt.Errorf("%w: %T", domain.ErrUnsupportedGeometry, part)
	}
}

// register appends a relation tuple unless an equivalent tuple was already
// recorded in this call or already exists in the persisted ledger.
func (s *Service) register(ctx context.Context, topology string, seen *relation.Set, rel relation.Relation) error {
	if !seen.Add(rel) {
		metrics.RelationDuplicatesTotal.WithLabelValues(topology).Inc()
		return nil
	}
	exists, err := s.ledger.Exists(ctx, topology, rel)
	if err != nil {
		return fmt.Errorf("check relation: %w", err)
	}
	if exists {
		metrics.RelationDuplicatesTotal.WithLabelValues(topology).Inc()
		return nil
	}
	if err := s.ledger.Append(ctx, topology, rel); err != nil {
		return fmt.Errorf("append relation: %w", err)
	}
	return nil
}

// Elements returns a feature's composition: the ordered relation tuples
// linking it to mesh primitives.
func (s *Service) Elements(ctx context.Context, topologyName string, layerID int, featureID int64) ([]relation.Relation, error) {
	topo, err := s.registry.TopologyByName(ctx, topologyName)
	if err != nil {
		return nil, fmt.Errorf("get topology: %w", err)
	}
	if _, err := s.registry.Layer(ctx, topo, layerID); err != nil {
		return nil, fmt.Errorf("get layer: %w", err)
	}
	if _, err := s.features.Get(ctx, topologyName, layerID, featureID); err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}

	rels, err := s.ledger.List(ctx, topologyName, layerID, featureID)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	return rels, nil
}

// Geometry materializes a feature back into coordinates by reading every
// referenced primitive from the mesh.
func (s *Service) Geometry(ctx context.Context, topologyName string, layerID int, featureID int64) (geom.T, error) {
	topo, err := s.registry.TopologyByName(ctx, topologyName)
	if err != nil {
		return nil, fmt.Errorf("get topology: %w", err)
	}
	if _, err := s.registry.Layer(ctx, topo, layerID); err != nil {
		return nil, fmt.Errorf("get layer: %w", err)
	}
	feat, err := s.features.Get(ctx, topologyName, layerID, featureID)
	if err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}

	rels, err := s.ledger.List(ctx, topologyName, layerID, featureID)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}

	parts := make([]geom.T, 0, len(rels))
	for _, rel := range rels {
		g, err := s.primitives.Primitive(ctx, topologyName, rel.ElementType, rel.ElementID)
		if err != nil {
			return nil, fmt.Errorf("read %s %d: %w", elementKind[rel.ElementType], rel.ElementID, err)
		}
		parts = append(parts, g)
	}
	return assemble(feat.FeatureType(), parts)
}

// assemble combines primitive geometries into the multi-geometry matching
// the feature's class, or a collection for mixed features.
func assemble(class layer.FeatureType, parts []geom.T) (geom.T, error) {
	switch class {
	case layer.Puntal:
		mp := geom.NewMultiPoint(geom.XY)
		for _, p := range parts {
			pt, ok := p.(*geom.Point)
			if !ok {
				return nil, fmt.Errorf("%w: %T in puntal feature", domain.ErrUnsupportedGeometry, p)
			}
			if err := mp.Push(pt); err != nil {
				return nil, fmt.Errorf("assemble multipoint: %w", err)
			}
		}
		return mp, nil
	case layer.Lineal:
		ml := geom.NewMultiLineString(geom.XY)
		for _, p := range parts {
			ls, ok := p.(*geom.LineString)
			if !ok {
				return nil, fmt.Errorf("%w: %T in lineal feature", domain.ErrUnsupportedGeometry, p)
			}
			if err := ml.Push(ls); err != nil {
				return nil, fmt.Errorf("assemble multilinestring: %w", err)
			}
		}
		return ml, nil
	case layer.Areal:
		mp := geom.NewMultiPolygon(geom.XY)
		for _, p := range parts {
			pg, ok := p.(*geom.Polygon)
			if !ok {
				return nil, fmt.Errorf("%w: %T in areal feature", domain.ErrUnsupportedGeometry, p)
			}
			if err := mp.Push(pg); err != nil {
				return nil, fmt.Errorf("assemble multipolygon: %w", err)
			}
		}
		return mp, nil
	default:
		gc := geom.NewGeometryCollection()
		if err := gc.Push(parts...); err != nil {
			return nil, fmt.Errorf("assemble collection: %w", err)
		}
		return gc, nil
	}
}
