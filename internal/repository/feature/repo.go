// Package feature persists topology geometry containers.
package feature

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/maomaofreedom/topomesh/internal/domain"
	domfeat "github.com/maomaofreedom/topomesh/internal/domain/feature"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
)

// store is the consumer interface for feature containers (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// Repo is the feature container factory: it allocates empty topology
// geometries within a layer.
type Repo struct {
	store  store
	prefix string
}

// New creates a feature repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Create allocates a new empty topology geometry of the given class.
func (r *Repo) Create(ctx context.Context, topologyName string, class layer.FeatureType, layerID int) (domfeat.TopoGeometry, error) {
	id, err := r.store.Incr(ctx, fmt.Sprintf("%s%s:layer:%d:seq", r.prefix, topologyName, layerID))
	if err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("allocate feature id: %w", err)
	}

	f := domfeat.New(id, layerID, topologyName, class, time.Now().UnixMilli())
	fields := map[string]string{
		"id":         strconv.FormatInt(f.ID(), 10),
		"layer_id":   strconv.Itoa(f.LayerID()),
		"type":       strconv.Itoa(int(f.FeatureType())),
		"created_at": strconv.FormatInt(f.CreatedAt(), 10),
	}
	if err := r.store.HSet(ctx, r.featureKey(topologyName, layerID, f.ID()), fields); err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("store feature %d: %w", f.ID(), err)
	}
	return f, nil
}

// Get returns a feature by (topology, layer, feature id).
func (r *Repo) Get(ctx context.Context, topologyName string, layerID int, id int64) (domfeat.TopoGeometry, error) {
	m, err := r.store.HGetAll(ctx, r.featureKey(topologyName, layerID, id))
	if err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("get feature %d: %w", id, err)
	}
	if len(m) == 0 {
		return domfeat.TopoGeometry{}, fmt.Errorf("%d in layer %d of %q: %w", id, layerID, topologyName, domain.ErrFeatureNotFound)
	}
	return parseFeature(topologyName, m)
}

func (r *Repo) featureKey(topology string, layerID int, id int64) string {
	return fmt.Sprintf("%s%s:topogeo:%d:%d", r.prefix, topology, layerID, id)
}

func parseFeature(topologyName string, m map[string]string) (domfeat.TopoGeometry, error) {
	id, err := strconv.ParseInt(m["id"], 10, 64)
	if err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("malformed feature id %q: %w", m["id"], err)
	}
	layerID, err := strconv.Atoi(m["layer_id"])
	if err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("malformed layer_id %q: %w", m["layer_id"], err)
	}
	featureType, err := strconv.Atoi(m["type"])
	if err != nil {
		return domfeat.TopoGeometry{}, fmt.Errorf("malformed type %q: %w", m["type"], err)
	}
	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)
	return domfeat.New(id, layerID, topologyName, layer.FeatureType(featureType), createdAt), nil
}
