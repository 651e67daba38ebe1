// Package chi exposes the topomesh HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/maomaofreedom/topomesh/internal/domain"
	"github.com/maomaofreedom/topomesh/internal/domain/layer"
	domtopo "github.com/maomaofreedom/topomesh/internal/domain/topology"
	healthuc "github.com/maomaofreedom/topomesh/internal/usecase/health"
	ingestuc "github.com/maomaofreedom/topomesh/internal/usecase/ingest"
	registryuc "github.com/maomaofreedom/topomesh/internal/usecase/registry"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeTopologyNotFound  = "topology_not_found"
	codeLayerNotFound     = "layer_not_found"
	codeFeatureNotFound   = "feature_not_found"
	codeNotFound          = "not_found"
	codeAlreadyExists     = "already_exists"
	codeTypeMismatch      = "type_mismatch"
	codeHierarchicalLayer = "hierarchical_layer"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes HTTP requests to the use case services.
type Server struct {
	registry      *registryuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	registry *registryuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		registry: registry,
		ingest:   ingest,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		typeMismatchHandler,
		sentinelHandler(domain.ErrTopologyNotFound, http.StatusNotFound, codeTopologyNotFound),
		sentinelHandler(domain.ErrLayerNotFound, http.StatusNotFound, codeLayerNotFound),
		sentinelHandler(domain.ErrFeatureNotFound, http.StatusNotFound, codeFeatureNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrHierarchicalLayer, http.StatusUnprocessableEntity, codeHierarchicalLayer),
		sentinelHandler(domain.ErrInvalidName, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidTolerance, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedGeometry, http.StatusBadRequest, codeValidationFailed),
	}
	return s
}

// Routes mounts the API on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.Health)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1/topologies", func(r chi.Router) {
		r.Post("/", s.CreateTopology)
		r.Route("/{topology}", func(r chi.Router) {
			r.Get("/", s.GetTopology)
			r.Route("/layers", func(r chi.Router) {
				r.Post("/", s.CreateLayer)
				r.Get("/", s.ListLayers)
				r.Route("/{layerID}", func(r chi.Router) {
					r.Post("/features", s.CreateFeature)
					r.Get("/features/{featureID}", s.GetFeature)
				})
			})
		})
	})
}

type topologyResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	SRID      int       `json:"srid"`
	Precision float64   `json:"precision"`
	CreatedAt time.Time `json:"created_at"`
}

type layerResponse struct {
	ID          int       `json:"id"`
	TopologyID  int       `json:"topology_id"`
	FeatureType string    `json:"feature_type"`
	Level       int       `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
}

type elementResponse struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// CreateTopology handles POST /v1/topologies.
func (s *Server) CreateTopology(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string  `json:"name"`
		SRID      int     `json:"srid"`
		Precision float64 `json:"precision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "topology name is required")
		return
	}

	topo, err := s.registry.CreateTopology(r.Context(), req.Name, req.SRID, req.Precision)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topologyToResponse(topo))
}

// GetTopology handles GET /v1/topologies/{topology}.
func (s *Server) GetTopology(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topology")

	topo, err := s.registry.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	layers, err := s.registry.Layers(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]layerResponse, len(layers))
	for i, ly := range layers {
		items[i] = layerToResponse(ly)
	}
	writeJSON(w, http.StatusOK, struct {
		topologyResponse
		Layers []layerResponse `json:"layers"`
	}{topologyToResponse(topo), items})
}

// CreateLayer handles POST /v1/topologies/{topology}/layers.
func (s *Server) CreateLayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topology")

	var req struct {
		FeatureType string `json:"feature_type"`
		Level       int    `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	featureType, err := layer.ParseFeatureType(req.FeatureType)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ly, err := s.registry.AddLayer(r.Context(), name, featureType, req.Level)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, layerToResponse(ly))
}

// ListLayers handles GET /v1/topologies/{topology}/layers.
func (s *Server) ListLayers(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topology")

	layers, err := s.registry.Layers(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]layerResponse, len(layers))
	for i, ly := range layers {
		items[i] = layerToResponse(ly)
	}
	writeJSON(w, http.StatusOK, struct {
		Items []layerResponse `json:"items"`
	}{items})
}

// CreateFeature handles POST /v1/topologies/{topology}/layers/{layerID}/features.
func (s *Server) CreateFeature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topology")
	layerID, err := strconv.Atoi(chi.URLParam(r, "layerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid layer id")
		return
	}

	var req struct {
		Geometry  json.RawMessage `json:"geometry"`
		Tolerance float64         `json:"tolerance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Geometry) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "geometry is required")
		return
	}

	var g geom.T
	if err := geojson.Unmarshal(req.Geometry, &g); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid geojson geometry: "+err.Error())
		return
	}

	feat, err := s.ingest.ToTopoGeom(r.Context(), name, layerID, g, req.Tolerance)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		ID          int64     `json:"id"`
		LayerID     int       `json:"layer_id"`
		Topology    string    `json:"topology"`
		FeatureType string    `json:"feature_type"`
		CreatedAt   time.Time `json:"created_at"`
	}{
		ID:          feat.ID(),
		LayerID:     feat.LayerID(),
		Topology:    feat.Topology(),
		FeatureType: feat.FeatureType().String(),
		CreatedAt:   time.UnixMilli(feat.CreatedAt()).UTC(),
	})
}

// GetFeature handles GET /v1/topologies/{topology}/layers/{layerID}/features/{featureID}.
func (s *Server) GetFeature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topology")
	layerID, err := strconv.Atoi(chi.URLParam(r, "layerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid layer id")
		return
	}
	featureID, err := strconv.ParseInt(chi.URLParam(r, "featureID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid feature id")
		return
	}

	rels, err := s.ingest.Elements(r.Context(), name, layerID, featureID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	g, err := s.ingest.Geometry(r.Context(), name, layerID, featureID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	rawGeometry, err := geojson.Marshal(g)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	elements := make([]elementResponse, len(rels))
	for i, rel := range rels {
		elements[i] = elementResponse{Type: elementLabel(rel.ElementType), ID: rel.ElementID}
	}
	writeJSON(w, http.StatusOK, struct {
		ID       int64             `json:"id"`
		LayerID  int               `json:"layer_id"`
		Elements []elementResponse `json:"elements"`
		Geometry json.RawMessage   `json:"geometry"`
	}{
		ID:       featureID,
		LayerID:  layerID,
		Elements: elements,
		Geometry: rawGeometry,
	})
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, struct {
		Status healthuc.Status                 `json:"status"`
		Checks map[string]healthuc.CheckResult `json:"checks"`
	}{report.Status, report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func topologyToResponse(t domtopo.Topology) topologyResponse {
	return topologyResponse{
		ID:        t.ID(),
		Name:      t.Name(),
		SRID:      t.SRID(),
		Precision: t.Precision(),
		CreatedAt: time.UnixMilli(t.CreatedAt()).UTC(),
	}
}

func layerToResponse(l layer.Layer) layerResponse {
	return layerResponse{
		ID:          l.ID(),
		TopologyID:  l.TopologyID(),
		FeatureType: l.FeatureType().String(),
		Level:       l.Level(),
		CreatedAt:   time.UnixMilli(l.CreatedAt()).UTC(),
	}
}

func elementLabel(elementType int) string {
	switch elementType {
	case 1:
		return "node"
	case 2:
		return "edge"
	case 3:
		return "face"
	default:
		return "unknown"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTopologyNotFound,
		domain.ErrLayerNotFound,
		domain.ErrFeatureNotFound,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidName,
		domain.ErrInvalidTolerance,
		domain.ErrHierarchicalLayer,
		domain.ErrUnsupportedGeometry,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// typeMismatchHandler surfaces the full mismatch description, which names
// only the layer and type labels.
func typeMismatchHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrTypeMismatch) {
		return false
	}
	var tme *domain.TypeMismatchError
	if errors.As(err, &tme) {
		writeError(w, http.StatusUnprocessableEntity, codeTypeMismatch, tme.Error())
		return true
	}
	writeError(w, http.StatusUnprocessableEntity, codeTypeMismatch, domain.ErrTypeMismatch.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
