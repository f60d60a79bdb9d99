package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/query"
	"github.com/starford/quire/internal/searchservice"
)

const (
	searchPath     = "/api/search"
	degradedHeader = "X-Search-Degraded"
)

// Handler holds API route handlers.
type Handler struct {
	svc        *searchservice.Service
	degradeHot bool
	onReload   func(a *index.Artifact)
}

// NewHandler creates a new Handler.
func NewHandler(svc *searchservice.Service, degradeHot bool, onReload func(a *index.Artifact)) *Handler {
	return &Handler{svc: svc, degradeHot: degradeHot, onReload: onReload}
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrDependencyUnavailable):
		slog.Warn(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("engagement scores unavailable"))
	case errors.Is(err, searchservice.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("index not loaded"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Search handles GET /api/search.
//
//	@Summary		Search articles
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	false	"Free-text query"
//	@Param			scope		query		string	false	"Fields to match"	Enums(all, title, content, tags)
//	@Param			category	query		string	false	"Category slug"
//	@Param			tags		query		string	false	"Comma-separated tag slugs (max 5, AND)"
//	@Param			sort		query		string	false	"Sort mode"	Enums(relevance, latest, hot)
//	@Param			page		query		int		false	"Page number"
//	@Param			pageSize	query		int		false	"Page size (clamped)"
//	@Success		200			{object}	SearchResponse
//	@Failure		503			{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	d := query.Plan(query.ParamsFromValues(r.URL.Query()))

	var page *searchservice.Page
	var err error
	if h.degradeHot {
		page, err = h.svc.SearchOrDegrade(r.Context(), d)
	} else {
		page, err = h.svc.Search(r.Context(), d)
	}
	if err != nil {
		writeError(w, "search", err)
		return
	}

	resp := SearchResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		Degraded:   page.Degraded,
	}
	if page.Page < page.TotalPages {
		resp.Next = pageLink(d, page.Page+1, page.PageSize)
	}
	if page.Page > 1 && page.TotalPages > 0 {
		prev := page.Page - 1
		if prev > page.TotalPages {
			prev = page.TotalPages
		}
		resp.Prev = pageLink(d, prev, page.PageSize)
	}
	if page.Degraded != "" {
		w.Header().Set(degradedHeader, page.Degraded)
	}
	writeJSON(w, http.StatusOK, resp)
}

func pageLink(d query.Descriptor, page, size int) string {
	next := d.WithPage(page)
	if next.PageSize != 0 {
		next.PageSize = size
	}
	return searchPath + "?" + next.Values().Encode()
}

// GetDocument handles GET /api/documents/{slug}.
//
//	@Summary		Get an indexed article by slug
//	@Tags			documents
//	@Produce		json
//	@Param			slug	path		string	true	"Article slug"
//	@Success		200		{object}	DocumentResponse
//	@Success		304
//	@Failure		404		{object}	errResponse
//	@Router			/documents/{slug} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, err := h.svc.Document(r.Context(), slug)
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	body, err := encodeJSON(documentResponse(doc))
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeBody(w, http.StatusOK, body)
}

// GetOutline handles GET /api/documents/{slug}/outline.
//
//	@Summary		Get the heading outline of an article
//	@Tags			documents
//	@Produce		json
//	@Param			slug	path		string	true	"Article slug"
//	@Success		200		{object}	OutlineResponse
//	@Failure		404		{object}	errResponse
//	@Router			/documents/{slug}/outline [get]
func (h *Handler) GetOutline(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	headings, err := h.svc.Outline(r.Context(), slug)
	if err != nil {
		writeError(w, "get outline", err)
		return
	}
	writeJSON(w, http.StatusOK, OutlineResponse{Slug: slug, Headings: headings})
}

// Categories handles GET /api/categories.
//
//	@Summary		List categories with document counts
//	@Tags			facets
//	@Produce		json
//	@Success		200	{object}	FacetResponse
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Categories(r.Context())
	if err != nil {
		writeError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, FacetResponse{Items: facets})
}

// Tags handles GET /api/tags.
//
//	@Summary		List tags with document counts
//	@Tags			facets
//	@Produce		json
//	@Success		200	{object}	FacetResponse
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, FacetResponse{Items: facets})
}

// Reindex handles POST /api/admin/reindex.
//
//	@Summary		Rebuild the index from the content directory
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	ReindexResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/reindex [post]
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Reindex(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrSchema) || errors.Is(err, apperr.ErrDuplicateSlug) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
			return
		}
		writeError(w, "reindex", err)
		return
	}
	if h.onReload != nil {
		h.onReload(a)
	}
	writeJSON(w, http.StatusOK, ReindexResponse{Documents: a.Len(), Checksum: a.Checksum()})
}
