// Package registry persists topology and layer metadata.
package registry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/maomaofreedom/topomesh/internal/domain"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/topology"
)

// store is the consumer interface for the registry (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements the topology/layer registry over the store.
type Repo struct {
	store  store
	prefix string
}

// New creates a registry repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// CreateTopology allocates and persists a new topology.
func (r *Repo) CreateTopology(ctx context.Context, name string, srid int, precision float64) (topology.Topology, error) {
	if err := topology.ValidateName(name); err != nil {
		return topology.Topology{}, err
	}

	key := r.topologyKey(name)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("check topology %s: %w", name, err)
	}
	if exists {
		return topology.Topology{}, fmt.Errorf("topology %q: %w", name, domain.ErrAlreadyExists)
	}

	id, err := r.store.Incr(ctx, r.prefix+"seq:topology")
	if err != nil {
		return topology.Topology{}, fmt.Errorf("allocate topology id: %w", err)
	}

	topo, err := topology.New(int(id), name, srid, precision)
	if err != nil {
		return topology.Topology{}, err
	}

	fields := map[string]string{
		"id":         strconv.Itoa(topo.ID()),
		"name":       topo.Name(),
		"srid":       strconv.Itoa(topo.SRID()),
		"precision":  strconv.FormatFloat(topo.Precision(), 'g', -1, 64),
		"created_at": strconv.FormatInt(topo.CreatedAt(), 10),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return topology.Topology{}, fmt.Errorf("store topology %s: %w", name, err)
	}
	return topo, nil
}

// TopologyByName looks up a topology by name.
func (r *Repo) TopologyByName(ctx context.Context, name string) (topology.Topology, error) {
	m, err := r.store.HGetAll(ctx, r.topologyKey(name))
	if err != nil {
		return topology.Topology{}, fmt.Errorf("get topology %s: %w", name, err)
	}
	if len(m) == 0 {
		return topology.Topology{}, fmt.Errorf("%q: %w", name, domain.ErrTopologyNotFound)
	}
	return parseTopology(m)
}

// CreateLayer allocates and persists a new layer in a topology.
func (r *Repo) CreateLayer(ctx context.Context, topo topology.Topology, featureType layer.FeatureType, level int) (layer.Layer, error) {
	id, err := r.store.Incr(ctx, r.prefix+topo.Name()+":seq:layer")
	if err != nil {
		return layer.Layer{}, fmt.Errorf("allocate layer id: %w", err)
	}

	ly, err := layer.New(int(id), topo.ID(), featureType, level, time.Now().UnixMilli())
	if err != nil {
		return layer.Layer{}, err
	}

	fields := map[string]string{
		"id":           strconv.Itoa(ly.ID()),
		"topology_id":  strconv.Itoa(ly.TopologyID()),
		"feature_type": strconv.Itoa(int(ly.FeatureType())),
		"level":        strconv.Itoa(ly.Level()),
		"created_at":   strconv.FormatInt(ly.CreatedAt(), 10),
	}
	if err := r.store.HSet(ctx, r.layerKey(topo.Name(), ly.ID()), fields); err != nil {
		return layer.Layer{}, fmt.Errorf("store layer %d: %w", ly.ID(), err)
	}
	if _, err := r.store.SAdd(ctx, r.prefix+topo.Name()+":layers", strconv.Itoa(ly.ID())); err != nil {
		return layer.Layer{}, fmt.Errorf("index layer %d: %w", ly.ID(), err)
	}
	return ly, nil
}

// Layer looks up a layer by (topology, layer id). A layer stored under
// another topology id does not match.
func (r *Repo) Layer(ctx context.Context, topo topology.Topology, layerID int) (layer.Layer, error) {
	m, err := r.store.HGetAll(ctx, r.layerKey(topo.Name(), layerID))
	if err != nil {
		return layer.Layer{}, fmt.Errorf("get layer %d: %w", layerID, err)
	}
	if len(m) == 0 {
		return layer.Layer{}, fmt.Errorf("%d in topology %q: %w", layerID, topo.Name(), domain.ErrLayerNotFound)
	}
	ly, err := parseLayer(m)
	if err != nil {
		return layer.Layer{}, err
	}
	if ly.TopologyID() != topo.ID() {
		return layer.Layer{}, fmt.Errorf("%d in topology %q: %w", layerID, topo.Name(), domain.ErrLayerNotFound)
	}
	return ly, nil
}

// Layers lists all layers of a topology.
func (r *Repo) Layers(ctx context.Context, topo topology.Topology) ([]layer.Layer, error) {
	ids, err := r.store.SMembers(ctx, r.prefix+topo.Name()+":layers")
	if err != nil {
		return nil, fmt.Errorf("list layers of %s: %w", topo.Name(), err)
	}

	layers := make([]layer.Layer, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed layer id %q: %w", raw, err)
		}
		ly, err := r.Layer(ctx, topo, id)
		if err != nil {
			return nil, err
		}
		layers = append(layers, ly)
	}
	return layers, nil
}

func (r *Repo) topologyKey(name string) string {
	return r.prefix + "topology:" + name
}

func (r *Repo) layerKey(topology string, layerID int) string {
	return fmt.Sprintf("%s%s:layer:%d", r.prefix, topology, layerID)
}

func parseTopology(m map[string]string) (topology.Topology, error) {
	id, err := strconv.Atoi(m["id"])
	if err != nil {
		return topology.Topology{}, fmt.Errorf("malformed topology id %q: %w", m["id"], err)
	}
	srid, err := strconv.Atoi(m["srid"])
	if err != nil {
		return topology.Topology{}, fmt.Errorf("malformed srid %q: %w", m["srid"], err)
	}
	precision, err := strconv.ParseFloat(m["precision"], 64)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("malformed precision %q: %w", m["precision"], err)
	}
	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)
	return topology.Reconstruct(id, m["name"], srid, precision, createdAt), nil
}

func parseLayer(m map[string]string) (layer.Layer, error) {
	id, err := strconv.Atoi(m["id"])
	if err != nil {
		return layer.Layer{}, fmt.Errorf("malformed layer id %q: %w", m["id"], err)
	}
	topologyID, err := strconv.Atoi(m["topology_id"])
	if err != nil {
		return layer.Layer{}, fmt.Errorf("malformed topology_id %q: %w", m["topology_id"], err)
	}
	featureType, err := strconv.Atoi(m["feature_type"])
	if err != nil {
		return layer.Layer{}, fmt.Errorf("malformed feature_type %q: %w", m["feature_type"], err)
	}
	level, err := strconv.Atoi(m["level"])
	if err != nil {
		return layer.Layer{}, fmt.Errorf("malformed level %q: %w", m["level"], err)
	}
	createdAt, _ := strconv.ParseInt(m["created_at"], 10, 64)
	return layer.Reconstruct(id, topologyID, layer.FeatureType(featureType), level, createdAt), nil
}
