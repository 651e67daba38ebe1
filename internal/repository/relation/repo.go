// Package relation persists the relation ledger: the set of links between a
// topology geometry and its mesh primitives.
package relation

import (
	"context"
	"fmt"
	"sort"

	domrel "github.com/maomaofreedom/topomesh/internal/domain/relation"
)

// store is the consumer interface for the ledger (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// Repo implements the relation ledger over set storage. One set per
// (topology, layer, feature) holds the feature's composition; set semantics
// make Append a set-difference write against the durable state.
type Repo struct {
	store  store
	prefix string
}

// New creates a relation repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Exists checks whether an equivalent relation tuple is already persisted.
func (r *Repo) Exists(ctx context.Context, topology string, rel domrel.Relation) (bool, error) {
	ok, err := r.store.SIsMember(ctx, r.key(topology, rel.LayerID, rel.TopoGeoID), rel.Member())
	if err != nil {
		return false, fmt.Errorf("check relation %s: %w", rel.Member(), err)
	}
	return ok, nil
}

// Append persists a relation tuple. Appending an already-present tuple is a
// no-op at the server.
func (r *Repo) Append(ctx context.Context, topology string, rel domrel.Relation) error {
	if _, err := r.store.SAdd(ctx, r.key(topology, rel.LayerID, rel.TopoGeoID), rel.Member()); err != nil {
		return fmt.Errorf("append relation %s: %w", rel.Member(), err)
	}
	return nil
}

// List returns a feature's composition, ordered by element type then id.
func (r *Repo) List(ctx context.Context, topology string, layerID int, topoGeoID int64) ([]domrel.Relation, error) {
	members, err := r.store.SMembers(ctx, r.key(topology, layerID, topoGeoID))
	if err != nil {
		return nil, fmt.Errorf("list relations of feature %d: %w", topoGeoID, err)
	}

	rels := make([]domrel.Relation, 0, len(members))
	for _, m := range members {
		rel, err := domrel.ParseMember(topoGeoID, layerID, m)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].ElementType != rels[j].ElementType {
			return rels[i].ElementType < rels[j].ElementType
		}
		return rels[i].ElementID < rels[j].ElementID
	})
	return rels, nil
}

// Count returns the number of persisted relation tuples for a feature.
func (r *Repo) Count(ctx context.Context, topology string, layerID int, topoGeoID int64) (int64, error) {
	n, err := r.store.SCard(ctx, r.key(topology, layerID, topoGeoID))
	if err != nil {
		return 0, fmt.Errorf("count relations of feature %d: %w", topoGeoID, err)
	}
	return n, nil
}

func (r *Repo) key(topology string, layerID int, topoGeoID int64) string {
	return fmt.Sprintf("%s%s:relation:%d:%d", r.prefix, topology, layerID, topoGeoID)
}
