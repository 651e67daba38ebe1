// Package topomesh is an embedded client for building topology geometries:
// features stored as references into a shared mesh of nodes, edges and faces
// instead of raw coordinates.
package topomesh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/maomaofreedom/topomesh/internal/db"
	dbRedis "github.com/maomaofreedom/topomesh/internal/db/redis"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/relation"
	"github.com/maomaofreedom/topomesh/internal/mesh"
	featurerepo "github.com/maomaofreedom/topomesh/internal/repository/feature"
	registryrepo "github.com/maomaofreedom/topomesh/internal/repository/registry"
	relationrepo "github.com/maomaofreedom/topomesh/internal/repository/relation"
	ingestuc "github.com/maomaofreedom/topomesh/internal/usecase/ingest"
	registryuc "github.com/maomaofreedom/topomesh/internal/usecase/registry"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the topomesh SDK entry point.
type Client struct {
	store       db.Store
	registrySvc *registryuc.Service
	ingestSvc   *ingestuc.Service
}

// New creates a topomesh Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix: "topo:",
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("topomesh: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("topomesh: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("topomesh: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	engine := mesh.NewEngine(store, cfg.keyPrefix, cfg.logger)

	registryRepo := registryrepo.New(store, cfg.keyPrefix)
	featureRepo := featurerepo.New(store, cfg.keyPrefix)
	relationRepo := relationrepo.New(store, cfg.keyPrefix)

	return &Client{
		store:       store,
		registrySvc: registryuc.New(registryRepo, cfg.defaultPrecision),
		ingestSvc:   ingestuc.New(registryRepo, featureRepo, engine, engine, relationRepo),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// CreateTopology creates a named topology. A zero precision selects the
// client's default.
func (c *Client) CreateTopology(ctx context.Context, name string, srid int, precision float64) (Topology, error) {
	topo, err := c.registrySvc.CreateTopology(ctx, name, srid, precision)
	if err != nil {
		return Topology{}, err
	}
	return Topology{ID: topo.ID(), Name: topo.Name(), SRID: topo.SRID(), Precision: topo.Precision()}, nil
}

// AddLayer registers a layer of the given feature type in a topology.
func (c *Client) AddLayer(ctx context.Context, topologyName string, featureType FeatureType, level int) (Layer, error) {
	ly, err := c.registrySvc.AddLayer(ctx, topologyName, layer.FeatureType(featureType), level)
	if err != nil {
		return Layer{}, err
	}
	return Layer{ID: ly.ID(), TopologyID: ly.TopologyID(), FeatureType: FeatureType(ly.FeatureType()), Level: ly.Level()}, nil
}

// ToTopoGeom converts a geometry into a topology geometry in the given
// layer. Tolerance 0 selects the topology's default snapping tolerance.
func (c *Client) ToTopoGeom(ctx context.Context, topologyName string, layerID int, g geom.T, tolerance float64) (TopoGeometry, error) {
	feat, err := c.ingestSvc.ToTopoGeom(ctx, topologyName, layerID, g, tolerance)
	if err != nil {
		return TopoGeometry{}, err
	}
	return TopoGeometry{ID: feat.ID(), LayerID: feat.LayerID(), Topology: feat.Topology()}, nil
}

// Elements returns a feature's composition as (element type, id) references.
func (c *Client) Elements(ctx context.Context, topologyName string, layerID int, featureID int64) ([]Element, error) {
	rels, err := c.ingestSvc.Elements(ctx, topologyName, layerID, featureID)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(rels))
	for i, rel := range rels {
		out[i] = Element{Type: ElementType(rel.ElementType), ID: rel.ElementID}
	}
	return out, nil
}

// Geometry materializes a feature back into coordinates.
func (c *Client) Geometry(ctx context.Context, topologyName string, layerID int, featureID int64) (geom.T, error) {
	return c.ingestSvc.Geometry(ctx, topologyName, layerID, featureID)
}

// FeatureType is the class a layer declares for its features.
type FeatureType int

// Feature classes.
const (
	Puntal     = FeatureType(layer.Puntal)
	Lineal     = FeatureType(layer.Lineal)
	Areal      = FeatureType(layer.Areal)
	Collection = FeatureType(layer.Collection)
)

// ElementType identifies the kind of mesh primitive a feature references.
type ElementType int

// Element types.
const (
	Node = ElementType(relation.ElementNode)
	Edge = ElementType(relation.ElementEdge)
	Face = ElementType(relation.ElementFace)
)

// Topology is a topology descriptor.
type Topology struct {
	ID        int
	Name      string
	SRID      int
	Precision float64
}

// Layer is a layer descriptor.
type Layer struct {
	ID          int
	TopologyID  int
	FeatureType FeatureType
	Level       int
}

// TopoGeometry identifies a created topology geometry.
type TopoGeometry struct {
	ID       int64
	LayerID  int
	Topology string
}

// Element is one mesh primitive reference.
type Element struct {
	Type ElementType
	ID   int64
}
