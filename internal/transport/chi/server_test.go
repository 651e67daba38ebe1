package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maomaofreedom/topomesh/internal/domain"
	domfeat "github.com/maomaofreedom/topomesh/internal/domain/feature"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	"github.com/maomaofreedom/topomesh/internal/domain/relation"
	"github.com/maomaofreedom/topomesh/internal/domain/topology"
	"github.com/maomaofreedom/topomesh/internal/mesh"
	healthuc "github.com/maomaofreedom/topomesh/internal/usecase/health"
	ingestuc "github.com/maomaofreedom/topomesh/internal/usecase/ingest"
	registryuc "github.com/maomaofreedom/topomesh/internal/usecase/registry"
)

// memRegistry is an in-memory registry repository.
type memRegistry struct {
	topologies map[string]topology.Topology
	layers     map[string][]layer.Layer
	nextTopo   int
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		topologies: make(map[string]topology.Topology),
		layers:     make(map[string][]layer.Layer),
	}
}

func (m *memRegistry) CreateTopology(_ context.Context, name string, srid int, precision float64) (topology.Topology, error) {
	if err := topology.ValidateName(name); err != nil {
		return topology.Topology{}, err
	}
	if _, ok := m.topologies[name]; ok {
		return topology.Topology{}, fmt.Errorf("topology %q: %w", name, domain.ErrAlreadyExists)
	}
	m.nextTopo++
	topo, err := topology.New(m.nextTopo, name, srid, precision)
	if err != nil {
		return topology.Topology{}, err
	}
	m.topologies[name] = topo
	return topo, nil
}

func (m *memRegistry) TopologyByName(_ context.Context, name string) (topology.Topology, error) {
	topo, ok := m.topologies[name]
	if !ok {
		return topology.Topology{}, fmt.Errorf("%q: %w", name, domain.ErrTopologyNotFound)
	}
	return topo, nil
}

func (m *memRegistry) CreateLayer(_ context.Context, topo topology.Topology, featureType layer.FeatureType, level int) (layer.Layer, error) {
	ly, err := layer.New(len(m.layers[topo.Name()])+1, topo.ID(), featureType, level, 0)
	if err != nil {
		return layer.Layer{}, err
	}
	m.layers[topo.Name()] = append(m.layers[topo.Name()], ly)
	return ly, nil
}

func (m *memRegistry) Layer(_ context.Context, topo topology.Topology, layerID int) (layer.Layer, error) {
	for _, ly := range m.layers[topo.Name()] {
		if ly.ID() == layerID {
			return ly, nil
		}
	}
	return layer.Layer{}, fmt.Errorf("%d: %w", layerID, domain.ErrLayerNotFound)
}

func (m *memRegistry) Layers(_ context.Context, topo topology.Topology) ([]layer.Layer, error) {
	return m.layers[topo.Name()], nil
}

type memFactory struct {
	nextID   int64
	features map[int64]domfeat.TopoGeometry
}

func (m *memFactory) Create(_ context.Context, topologyName string, class layer.FeatureType, layerID int) (domfeat.TopoGeometry, error) {
	m.nextID++
	f := domfeat.New(m.nextID, layerID, topologyName, class, 0)
	m.features[m.nextID] = f
	return f, nil
}

func (m *memFactory) Get(_ context.Context, _ string, _ int, id int64) (domfeat.TopoGeometry, error) {
	f, ok := m.features[id]
	if !ok {
		return domfeat.TopoGeometry{}, fmt.Errorf("%d: %w", id, domain.ErrFeatureNotFound)
	}
	return f, nil
}

type memLedger struct {
	tuples map[string][]relation.Relation
}

func (m *memLedger) key(topology string, rel relation.Relation) string {
	return fmt.Sprintf("%s:%d:%d", topology, rel.LayerID, rel.TopoGeoID)
}

func (m *memLedger) Exists(_ context.Context, topology string, rel relation.Relation) (bool, error) {
	for _, t := range m.tuples[m.key(topology, rel)] {
		if t == rel {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedger) Append(_ context.Context, topology string, rel relation.Relation) error {
	k := m.key(topology, rel)
	m.tuples[k] = append(m.tuples[k], rel)
	return nil
}

func (m *memLedger) List(_ context.Context, topology string, layerID int, topoGeoID int64) ([]relation.Relation, error) {
	return m.tuples[fmt.Sprintf("%s:%d:%d", topology, layerID, topoGeoID)], nil
}

type okPinger struct{}

func (okPinger) Ping(_ context.Context) error { return nil }

func newTestRouter() http.Handler {
	engine := mesh.NewEngine(nil, "", nil)
	registrySvc := registryuc.New(newMemRegistry(), 0.001)
	ingestSvc := ingestuc.New(
		registryAdapter{registryuc: registrySvc},
		&memFactory{features: make(map[int64]domfeat.TopoGeometry)},
		engine, engine,
		&memLedger{tuples: make(map[string][]relation.Relation)},
	)
	server := NewServer(registrySvc, ingestSvc, healthuc.New(okPinger{}), zap.NewNop())

	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

// registryAdapter narrows the registry service to the ingest contract.
type registryAdapter struct {
	registryuc *registryuc.Service
}

func (a registryAdapter) TopologyByName(ctx context.Context, name string) (topology.Topology, error) {
	return a.registryuc.Get(ctx, name)
}

func (a registryAdapter) Layer(ctx context.Context, topo topology.Topology, layerID int) (layer.Layer, error) {
	layers, err := a.registryuc.Layers(ctx, topo.Name())
	if err != nil {
		return layer.Layer{}, err
	}
	for _, ly := range layers {
		if ly.ID() == layerID {
			return ly, nil
		}
	}
	return layer.Layer{}, fmt.Errorf("%d: %w", layerID, domain.ErrLayerNotFound)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateTopology(t *testing.T) {
	h := newTestRouter()

	rr := doJSON(t, h, "POST", "/v1/topologies", map[string]any{"name": "city", "srid": 4326})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Name      string  `json:"name"`
		Precision float64 `json:"precision"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != "city" || resp.Precision != 0.001 {
		t.Errorf("unexpected response: %+v", resp)
	}

	rr = doJSON(t, h, "POST", "/v1/topologies", map[string]any{"name": "city"})
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCreateTopology_InvalidName(t *testing.T) {
	h := newTestRouter()

	rr := doJSON(t, h, "POST", "/v1/topologies", map[string]any{"name": "no spaces allowed"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d, body %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestGetTopology_NotFound(t *testing.T) {
	h := newTestRouter()

	rr := doJSON(t, h, "GET", "/v1/topologies/nowhere", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNotFound)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeTopologyNotFound {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeTopologyNotFound)
	}
}

func TestCreateLayer_BadFeatureType(t *testing.T) {
	h := newTestRouter()
	doJSON(t, h, "POST", "/v1/topologies", map[string]any{"name": "city"})

	rr := doJSON(t, h, "POST", "/v1/topologies/city/layers", map[string]any{"feature_type": "volumetric"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestFeatureLifecycle(t *testing.T) {
	h := newTestRouter()

	doJSON(t, h, "POST", "/v1/topologies", map[string]any{"name": "city"})
	rr := doJSON(t, h, "POST", "/v1/topologies/city/layers", map[string]any{"feature_type": "areal"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create layer: got %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, "POST", "/v1/topologies/city/layers/1/features", map[string]any{
		"geometry": map[string]any{
			"type": "Polygon",
			"coordinates": [][][]float64{{
				{0, 0}, {10, 0}, {10, 5}, {0, 5}, {0, 0},
			}},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create feature: got %d, body %s", rr.Code, rr.Body.String())
	}

	var created struct {
		ID          int64  `json:"id"`
		FeatureType string `json:"feature_type"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.FeatureType != "areal" {
		t.Errorf("expected areal feature, got %q", created.FeatureType)
	}

	rr = doJSON(t, h, "GET", fmt.Sprintf("/v1/topologies/city/layers/1/features/%d", created.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get feature: got %d, body %s", rr.Code, rr.Body.String())
	}

	var got struct {
		Elements []elementResponse `json:"elements"`
		Geometry struct {
			Type string `json:"type"`
		} `json:"geometry"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Elements) != 1 || got.Elements[0].Type != "face" {
		t.Errorf("expected one face element, got %+v", got.Elements)
	}
	if got.Geometry.Type != "MultiPolygon" {
		t.Errorf("expected MultiPolygon readback, got %q", got.Geometry.Type)
	}
}

func TestCreateFeature_TypeMismatch(t *testing.T) {
	h := newTestRouter()

	doJSON(t, h, "POST", "/v1/topologies", map[string]any{"name": "city"})
	doJSON(t, h, "POST", "/v1/topologies/city/layers", map[string]any{"feature_type": "puntal"})

	rr := doJSON(t, h, "POST", "/v1/topologies/city/layers/1/features", map[string]any{
		"geometry": map[string]any{
			"type":        "LineString",
			"coordinates": [][]float64{{0, 0}, {1, 1}},
		},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want %d, body %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeTypeMismatch {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeTypeMismatch)
	}
}

func TestCreateFeature_BadGeometry(t *testing.T) {
	h := newTestRouter()

	doJSON(t, h, "POST", "/v1/topologies", map[string]any{"name": "city"})
	doJSON(t, h, "POST", "/v1/topologies/city/layers", map[string]any{"feature_type": "puntal"})

	rr := doJSON(t, h, "POST", "/v1/topologies/city/layers/1/features", map[string]any{
		"geometry": map[string]any{"type": "Blob"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter()

	rr := doJSON(t, h, "GET", "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected ok, got %q", resp.Status)
	}
}
