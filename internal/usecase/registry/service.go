// Package registry manages topology and layer metadata.
package registry

import (
	"context"
	"fmt"

	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/topology"
)

// Service handles topology and layer administration.
type Service struct {
	repo             Repository
	defaultPrecision float64
}

// New creates a registry service.
func New(repo Repository, defaultPrecision float64) *Service {
	return &Service{repo: repo, defaultPrecision: defaultPrecision}
}

// CreateTopology creates a new topology. A zero precision selects the
// configured default.
func (s *Service) CreateTopology(ctx context.Context, name string, srid int, precision float64) (topology.Topology, error) {
	if precision == 0 {
		precision = s.defaultPrecision
	}
	topo, err := s.repo.CreateTopology(ctx, name, srid, precision)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("create topology: %w", err)
	}
	return topo, nil
}

// Get retrieves a topology by name.
func (s *Service) Get(ctx context.Context, name string) (topology.Topology, error) {
	topo, err := s.repo.TopologyByName(ctx, name)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("get topology: %w", err)
	}
	return topo, nil
}

// AddLayer registers a new layer in a topology.
func (s *Service) AddLayer(ctx context.Context, topologyName string, featureType layer.FeatureType, level int) (layer.Layer, error) {
	topo, err := s.repo.TopologyByName(ctx, topologyName)
	if err != nil {
		return layer.Layer{}, fmt.Errorf("get topology: %w", err)
	}
	ly, err := s.repo.CreateLayer(ctx, topo, featureType, level)
	if err != nil {
		return layer.Layer{}, fmt.Errorf("create layer: %w", err)
	}
	return ly, nil
}

// Layers lists a topology's layers.
func (s *Service) Layers(ctx context.Context, topologyName string) ([]layer.Layer, error) {
	topo, err := s.repo.TopologyByName(ctx, topologyName)
	if err != nil {
		return nil, fmt.Errorf("get topology: %w", err)
	}
	layers, err := s.repo.Layers(ctx, topo)
	if err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}
	return layers, nil
}
