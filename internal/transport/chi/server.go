package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document/patch"
	"github.com/kailas-cloud/facetdex/internal/logger"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
)

// BasePath prefixes every API route except /health and /metrics.
const BasePath = "/api/v1"

// Collection list paging.
const (
	defaultCollectionPageSize = 20
	maxCollectionPageSize     = 100
)

// DefaultMaxUploadBytes bounds an import body when no limit is configured.
const DefaultMaxUploadBytes int64 = 512 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements ServerInterface.
type Server struct {
	collections    CollectionService
	documents      DocumentService
	facets         FacetService
	search         SearchService
	imports        ImportService
	health         HealthService
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	collections CollectionService,
	documents DocumentService,
	facets FacetService,
	search SearchService,
	imports ImportService,
	health HealthService,
) *Server {
	s := &Server{
		collections:    collections,
		documents:      documents,
		facets:         facets,
		search:         search,
		imports:        imports,
		health:         health,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	s.errorHandlers = []errorHandler{
		validationHandler(domain.ErrInvalidSchema, ErrorResponseCodeValidationFailed),
		validationHandler(domain.ErrInvalidDocument, ErrorResponseCodeInvalidDocument),
		validationHandler(domain.ErrInvalidFilter, ErrorResponseCodeInvalidFilter),
		validationHandler(domain.ErrUnsupportedFormat, ErrorResponseCodeUnsupportedFormat),
		validationHandler(domain.ErrInvalidBatchSize, ErrorResponseCodeInvalidBatchSize),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, ErrorResponseCodeEmptyQuery),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, ErrorResponseCodeDocumentNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeCollectionNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorResponseCodeCollectionAlreadyExists),
		sentinelHandler(domain.ErrCollectionBusy, http.StatusConflict, ErrorResponseCodeCollectionBusy),
		sentinelHandler(db.ErrUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeEngineUnavailable),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorResponseCodeNotImplemented),
	}
	return s
}

// WithMaxUploadBytes bounds import request bodies. Non-positive disables the limit.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	s.maxUploadBytes = n
	return s
}

// CreateCollection handles POST /collections.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "Collection name is required")
		return
	}

	col, err := s.collections.Create(r.Context(), req.Name, fieldSpecs(req.Fields), metadataFromAPI(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	info, err := s.collections.Describe(r.Context(), col.Name())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", BasePath+"/collections/"+url.PathEscape(col.Name()))
	writeJSON(w, http.StatusCreated, collectionToAPI(info))
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request, params ListCollectionsParams) {
	infos, err := s.collections.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]Collection, len(infos))
	for i, info := range infos {
		items[i] = collectionToAPI(info)
	}

	writeJSON(w, http.StatusOK, paginateCollections(items, params.Cursor, params.Limit))
}

func paginateCollections(items []Collection, cursor *string, limitPtr *int) CollectionCursorListResponse {
	limit := defaultCollectionPageSize
	if limitPtr != nil && *limitPtr > 0 {
		limit = min(*limitPtr, maxCollectionPageSize)
	}

	startIdx := 0
	if cursor != nil && *cursor != "" {
		for i, item := range items {
			if item.Name == *cursor {
				startIdx = i + 1
				break
			}
		}
	}

	end := min(startIdx+limit, len(items))
	page := items[startIdx:end]
	hasMore := end < len(items)

	resp := CollectionCursorListResponse{
		Items:   page,
		HasMore: hasMore,
	}
	if hasMore && len(page) > 0 {
		c := page[len(page)-1].Name
		resp.NextCursor = &c
	}
	return resp
}

// GetCollection handles GET /collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request, collection CollectionName) {
	info, err := s.collections.Describe(r.Context(), collection)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToAPI(info))
}

// DeleteCollection handles DELETE /collections/{collection}.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request, collection CollectionName) {
	if err := s.collections.Delete(r.Context(), collection); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddFields handles POST /collections/{collection}/fields.
func (s *Server) AddFields(w http.ResponseWriter, r *http.Request, collection CollectionName) {
	var req AddFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if _, err := s.collections.AddFields(r.Context(), collection, fieldSpecs(req.Fields)); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	info, err := s.collections.Describe(r.Context(), collection)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToAPI(info))
}

// ListFacets handles GET /collections/{collection}/facets.
func (s *Server) ListFacets(w http.ResponseWriter, r *http.Request, collection CollectionName, params ListFacetsParams) {
	tables, err := s.facets.List(r.Context(), collection, deref(params.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FacetListResponse{Items: tables})
}

// GetFacet handles GET /collections/{collection}/facets/{field}.
func (s *Server) GetFacet(
	w http.ResponseWriter, r *http.Request, collection CollectionName, field FieldName, params GetFacetParams,
) {
	table, err := s.facets.Get(r.Context(), collection, field, deref(params.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// SearchDocuments handles POST /collections/{collection}/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request, collection CollectionName) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq, err := searchRequestFromAPI(req)
	if err != nil {
		s.handleRequestError(w, r, err)
		return
	}

	page, err := s.search.Search(r.Context(), collection, searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(page.Results))
	for i := range page.Results {
		res := &page.Results[i]
		items[i] = SearchResultItem{
			ID:         res.ID(),
			Score:      res.Score(),
			Fields:     res.Fields(),
			Highlights: res.Highlights(),
		}
	}
	writeJSON(w, http.StatusOK, SearchResultListResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// UpsertDocument handles PUT /collections/{collection}/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Fields.Len() == 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "at least one field is required")
		return
	}

	created, err := s.documents.Put(r.Context(), collection, id, req.Fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("%s/collections/%s/documents/%s",
			BasePath, url.PathEscape(collection), url.PathEscape(id)))
	}
	writeJSON(w, status, DocumentResponse{ID: id, Fields: req.Fields})
}

// PatchDocument handles PATCH /collections/{collection}/documents/{id}.
func (s *Server) PatchDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := patch.New(req.Fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	doc, err := s.documents.Patch(r.Context(), collection, id, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{ID: doc.ID(), Fields: doc.Fields()})
}

// GetDocument handles GET /collections/{collection}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID) {
	doc, err := s.documents.Get(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{ID: doc.ID(), Fields: doc.Fields()})
}

// DeleteDocument handles DELETE /collections/{collection}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID) {
	if err := s.documents.Delete(r.Context(), collection, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /collections/{collection}/documents.
func (s *Server) ListDocuments(
	w http.ResponseWriter, r *http.Request, collection CollectionName, params ListDocumentsParams,
) {
	cursor := ""
	if params.Cursor != nil {
		cursor = *params.Cursor
	}

	docs, nextCursor, err := s.documents.List(r.Context(), collection, cursor, deref(params.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		items[i] = DocumentResponse{ID: d.ID(), Fields: d.Fields()}
	}

	resp := DocumentCursorListResponse{
		Items:   items,
		HasMore: nextCursor != "",
	}
	if nextCursor != "" {
		resp.NextCursor = &nextCursor
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health. A degraded report still answers 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ParamErrorHandler renders binding failures of path and query parameters.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	msg := "invalid request"
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		msg = "invalid parameter " + pe.ParamName
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that answers with the sentinel's
// own message, hiding the wrapped context.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// validationHandler answers 400 with the full message, which names the
// offending input, and the field path when the error carries one.
func validationHandler(sentinel error, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		resp := ErrorResponse{Code: code, Message: err.Error()}
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			resp.Field = fe.Field
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

// handleRequestError treats an unclassified error as a malformed request.
func (s *Server) handleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logger.FromContext(r.Context()).Debug("invalid request", zap.Error(err))
	writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
