package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// CollectionName is the {collection} path parameter.
type CollectionName = string

// FieldName is the {field} path parameter.
type FieldName = string

// DocumentID is the {id} path parameter.
type DocumentID = string

// ListCollectionsParams are the query parameters of GET /collections.
type ListCollectionsParams struct {
	Cursor *string
	Limit  *int
}

// ListFacetsParams are the query parameters of GET /collections/{collection}/facets.
type ListFacetsParams struct {
	Limit *int
}

// GetFacetParams are the query parameters of GET /collections/{collection}/facets/{field}.
type GetFacetParams struct {
	Limit *int
}

// ListDocumentsParams are the query parameters of GET /collections/{collection}/documents.
type ListDocumentsParams struct {
	Cursor *string
	Limit  *int
}

// ImportDocumentsParams are the query parameters of POST /collections/{collection}/import.
type ImportDocumentsParams struct {
	Format    *string
	BatchSize *int
	IDField   *string
	Stream    *bool
}

// ServerInterface is implemented by the API handlers.
type ServerInterface interface {
	CreateCollection(w http.ResponseWriter, r *http.Request)
	ListCollections(w http.ResponseWriter, r *http.Request, params ListCollectionsParams)
	GetCollection(w http.ResponseWriter, r *http.Request, collection CollectionName)
	DeleteCollection(w http.ResponseWriter, r *http.Request, collection CollectionName)
	AddFields(w http.ResponseWriter, r *http.Request, collection CollectionName)
	ListFacets(w http.ResponseWriter, r *http.Request, collection CollectionName, params ListFacetsParams)
	GetFacet(w http.ResponseWriter, r *http.Request, collection CollectionName, field FieldName, params GetFacetParams)
	SearchDocuments(w http.ResponseWriter, r *http.Request, collection CollectionName)
	ImportDocuments(w http.ResponseWriter, r *http.Request, collection CollectionName, params ImportDocumentsParams)
	ListDocuments(w http.ResponseWriter, r *http.Request, collection CollectionName, params ListDocumentsParams)
	UpsertDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID)
	PatchDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID)
	GetDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID)
	DeleteDocument(w http.ResponseWriter, r *http.Request, collection CollectionName, id DocumentID)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper binds path and query parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (siw *ServerInterfaceWrapper) queryParam(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// CreateCollection operation middleware.
func (siw *ServerInterfaceWrapper) CreateCollection(w http.ResponseWriter, r *http.Request) {
	siw.Handler.CreateCollection(w, r)
}

// ListCollections operation middleware.
func (siw *ServerInterfaceWrapper) ListCollections(w http.ResponseWriter, r *http.Request) {
	var params ListCollectionsParams
	if !siw.queryParam(w, r, "cursor", &params.Cursor) || !siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.Handler.ListCollections(w, r, params)
}

// GetCollection operation middleware.
func (siw *ServerInterfaceWrapper) GetCollection(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	if !siw.pathParam(w, r, "collection", &collection) {
		return
	}
	siw.Handler.GetCollection(w, r, collection)
}

// DeleteCollection operation middleware.
func (siw *ServerInterfaceWrapper) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	if !siw.pathParam(w, r, "collection", &collection) {
		return
	}
	siw.Handler.DeleteCollection(w, r, collection)
}

// AddFields operation middleware.
func (siw *ServerInterfaceWrapper) AddFields(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	if !siw.pathParam(w, r, "collection", &collection) {
		return
	}
	siw.Handler.AddFields(w, r, collection)
}

// ListFacets operation middleware.
func (siw *ServerInterfaceWrapper) ListFacets(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	if !siw.pathParam(w, r, "collection", &collection) {
		return
	}
	var params ListFacetsParams
	if !siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.Handler.ListFacets(w, r, collection, params)
}

// GetFacet operation middleware.
func (siw *ServerInterfaceWrapper) GetFacet(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	var field FieldName
	if !siw.pathParam(w, r, "collection", &collection) || !siw.pathParam(w, r, "field", &field) {
		return
	}
	var params GetFacetParams
	if !siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.Handler.GetFacet(w, r, collection, field, params)
}

// SearchDocuments operation middleware.
func (siw *ServerInterfaceWrapper) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	if !siw.pathParam(w, r, "collection", &collection) {
		return
	}
	siw.Handler.SearchDocuments(w, r, collection)
}

// ImportDocuments operation middleware.
func (siw *ServerInterfaceWrapper) ImportDocuments(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	if !siw.pathParam(w, r, "collection", &collection) {
		return
	}
	var params ImportDocumentsParams
	if !siw.queryParam(w, r, "format", &params.Format) ||
		!siw.queryParam(w, r, "batch_size", &params.BatchSize) ||
		!siw.queryParam(w, r, "id_field", &params.IDField) ||
		!siw.queryParam(w, r, "stream", &params.Stream) {
		return
	}
	siw.Handler.ImportDocuments(w, r, collection, params)
}

// ListDocuments operation middleware.
func (siw *ServerInterfaceWrapper) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var collection CollectionName
	if !siw.pathParam(w, r, "collection", &collection) {
		return
	}
	var params ListDocumentsParams
	if !siw.queryParam(w, r, "cursor", &params.Cursor) || !siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.Handler.ListDocuments(w, r, collection, params)
}

func (siw *ServerInterfaceWrapper) documentParams(w http.ResponseWriter, r *http.Request) (CollectionName, DocumentID, bool) {
	var collection CollectionName
	var id DocumentID
	if !siw.pathParam(w, r, "collection", &collection) || !siw.pathParam(w, r, "id", &id) {
		return "", "", false
	}
	return collection, id, true
}

// UpsertDocument operation middleware.
func (siw *ServerInterfaceWrapper) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	if collection, id, ok := siw.documentParams(w, r); ok {
		siw.Handler.UpsertDocument(w, r, collection, id)
	}
}

// PatchDocument operation middleware.
func (siw *ServerInterfaceWrapper) PatchDocument(w http.ResponseWriter, r *http.Request) {
	if collection, id, ok := siw.documentParams(w, r); ok {
		siw.Handler.PatchDocument(w, r, collection, id)
	}
}

// GetDocument operation middleware.
func (siw *ServerInterfaceWrapper) GetDocument(w http.ResponseWriter, r *http.Request) {
	if collection, id, ok := siw.documentParams(w, r); ok {
		siw.Handler.GetDocument(w, r, collection, id)
	}
}

// DeleteDocument operation middleware.
func (siw *ServerInterfaceWrapper) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if collection, id, ok := siw.documentParams(w, r); ok {
		siw.Handler.DeleteDocument(w, r, collection, id)
	}
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	// BaseURL prefixes the API routes; /health and /metrics stay at the root.
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates an http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts every API route on options.BaseRouter.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	base := options.BaseURL
	r.Group(func(r chi.Router) {
		r.Post(base+"/collections", wrapper.CreateCollection)
		r.Get(base+"/collections", wrapper.ListCollections)
		r.Get(base+"/collections/{collection}", wrapper.GetCollection)
		r.Delete(base+"/collections/{collection}", wrapper.DeleteCollection)
		r.Post(base+"/collections/{collection}/fields", wrapper.AddFields)
		r.Get(base+"/collections/{collection}/facets", wrapper.ListFacets)
		r.Get(base+"/collections/{collection}/facets/{field}", wrapper.GetFacet)
		r.Post(base+"/collections/{collection}/search", wrapper.SearchDocuments)
		r.Post(base+"/collections/{collection}/import", wrapper.ImportDocuments)
		r.Get(base+"/collections/{collection}/documents", wrapper.ListDocuments)
		r.Put(base+"/collections/{collection}/documents/{id}", wrapper.UpsertDocument)
		r.Patch(base+"/collections/{collection}/documents/{id}", wrapper.PatchDocument)
		r.Get(base+"/collections/{collection}/documents/{id}", wrapper.GetDocument)
		r.Delete(base+"/collections/{collection}/documents/{id}", wrapper.DeleteDocument)
		r.Get("/health", si.HealthCheck)
		r.Get("/metrics", si.Metrics)
	})
	return r
}
