// Package chi exposes the SCIM protocol surface over a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scimd/internal/domain"
	"github.com/kailas-cloud/scimd/internal/domain/filter"
	domres "github.com/kailas-cloud/scimd/internal/domain/resource"
	"github.com/kailas-cloud/scimd/internal/domain/value"
	healthuc "github.com/kailas-cloud/scimd/internal/usecase/health"
	resourceuc "github.com/kailas-cloud/scimd/internal/usecase/resource"
	searchuc "github.com/kailas-cloud/scimd/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes SCIM protocol requests to the use case services.
type Server struct {
	resources     *resourceuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	resourceTypes map[string]struct{}
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server serving the given resource types.
func NewServer(
	resources *resourceuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	resourceTypes []string,
	logger *zap.Logger,
) *Server {
	types := make(map[string]struct{}, len(resourceTypes))
	for _, rt := range resourceTypes {
		types[rt] = struct{}{}
	}
	s := &Server{
		resources:     resources,
		search:        search,
		health:        health,
		logger:        logger,
		resourceTypes: types,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(filter.ErrInvalidFilter, http.StatusBadRequest, scimTypeInvalidFilter),
		sentinelHandler(domain.ErrResourceNotFound, http.StatusNotFound, ""),
		sentinelHandler(domain.ErrResourceTypeUnknown, http.StatusNotFound, ""),
		sentinelHandler(domain.ErrInvalidResource, http.StatusBadRequest, scimTypeInvalidValue),
	}
	return s
}

// Routes mounts all SCIM endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/v2/{resourceType}", func(r chi.Router) {
		r.Post("/", s.createResource)
		r.Get("/", s.listResources)
		r.Post("/.search", s.searchResources)
		r.Get("/{id}", s.getResource)
		r.Put("/{id}", s.replaceResource)
		r.Delete("/{id}", s.deleteResource)
	})
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metrics)
}

// createResource handles POST /v2/{resourceType}.
func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	resourceType, ok := s.resourceType(w, r)
	if !ok {
		return
	}

	doc, err := readDocument(r)
	if err != nil {
		writeSCIMError(w, http.StatusBadRequest, scimTypeInvalidSyntax, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.resources.Create(r.Context(), resourceType, doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v2/%s/%s", resourceType, res.ID()))
	s.writeResource(w, http.StatusCreated, res)
}

// getResource handles GET /v2/{resourceType}/{id}.
func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	resourceType, ok := s.resourceType(w, r)
	if !ok {
		return
	}

	res, err := s.resources.Get(r.Context(), resourceType, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.writeResource(w, http.StatusOK, res)
}

// replaceResource handles PUT /v2/{resourceType}/{id}.
func (s *Server) replaceResource(w http.ResponseWriter, r *http.Request) {
	resourceType, ok := s.resourceType(w, r)
	if !ok {
		return
	}

	doc, err := readDocument(r)
	if err != nil {
		writeSCIMError(w, http.StatusBadRequest, scimTypeInvalidSyntax, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.resources.Replace(r.Context(), resourceType, chi.URLParam(r, "id"), doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.writeResource(w, http.StatusOK, res)
}

// deleteResource handles DELETE /v2/{resourceType}/{id}.
func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request) {
	resourceType, ok := s.resourceType(w, r)
	if !ok {
		return
	}

	if err := s.resources.Delete(r.Context(), resourceType, chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listResources handles GET /v2/{resourceType} with filter, startIndex
// and count query parameters.
func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	resourceType, ok := s.resourceType(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	startIndex, err := intParam(q.Get("startIndex"), 1)
	if err != nil {
		writeSCIMError(w, http.StatusBadRequest, scimTypeInvalidValue, "startIndex must be an integer")
		return
	}
	count, err := intParam(q.Get("count"), -1)
	if err != nil {
		writeSCIMError(w, http.StatusBadRequest, scimTypeInvalidValue, "count must be an integer")
		return
	}

	s.runSearch(w, r, resourceType, q.Get("filter"), startIndex, count)
}

// searchResources handles POST /v2/{resourceType}/.search with a SCIM
// SearchRequest body.
func (s *Server) searchResources(w http.ResponseWriter, r *http.Request) {
	resourceType, ok := s.resourceType(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSCIMError(w, http.StatusBadRequest, scimTypeInvalidSyntax, "Invalid request body: "+err.Error())
		return
	}

	startIndex := 1
	if req.StartIndex != nil {
		startIndex = *req.StartIndex
	}
	count := -1
	if req.Count != nil {
		count = *req.Count
	}

	s.runSearch(w, r, resourceType, req.Filter, startIndex, count)
}

func (s *Server) runSearch(
	w http.ResponseWriter, r *http.Request, resourceType, rawFilter string, startIndex, count int,
) {
	result, err := s.search.Search(r.Context(), resourceType, rawFilter, startIndex, count)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]json.RawMessage, 0, len(result.Resources))
	for _, res := range result.Resources {
		data, err := res.Document().MarshalJSON()
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		items = append(items, data)
	}

	writeSCIM(w, http.StatusOK, listResponse{
		Schemas:      []string{schemaListResponse},
		TotalResults: result.TotalResults,
		StartIndex:   result.StartIndex,
		ItemsPerPage: len(items),
		Resources:    items,
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// metrics handles GET /metrics.
func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// resourceType validates the {resourceType} URL parameter against the
// configured allowlist.
func (s *Server) resourceType(w http.ResponseWriter, r *http.Request) (string, bool) {
	rt := chi.URLParam(r, "resourceType")
	if _, ok := s.resourceTypes[rt]; !ok {
		s.handleDomainError(w, fmt.Errorf("%w: %s", domain.ErrResourceTypeUnknown, rt))
		return "", false
	}
	return rt, true
}

func (s *Server) writeResource(w http.ResponseWriter, status int, res domres.Resource) {
	data, err := res.Document().MarshalJSON()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeSCIM)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func readDocument(r *http.Request) (value.Value, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, domres.MaxDocumentSize+1))
	if err != nil {
		return value.Value{}, err
	}
	if len(body) > domres.MaxDocumentSize {
		return value.Value{}, fmt.Errorf("document exceeds %d bytes", domres.MaxDocumentSize)
	}
	return value.Parse(body)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		filter.ErrInvalidFilter,
		domain.ErrResourceNotFound,
		domain.ErrResourceTypeUnknown,
		domain.ErrInvalidResource,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, scimType string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeSCIMError(w, status, scimType, msg)
		return true
	}
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
	writeSCIMError(w, http.StatusInternalServerError, "", "internal error")
}
