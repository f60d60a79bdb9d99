package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/searchservice"
)

// Options configures the API router.
type Options struct {
	// AuthEnabled guards the admin routes with a Bearer token.
	AuthEnabled bool
	Token       string
	// DegradeHot serves a hot query as latest when engagement is unavailable
	// instead of failing with 503.
	DegradeHot bool
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// OnReload is called after an admin reindex swaps in a new snapshot.
	OnReload func(a *index.Artifact)
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *searchservice.Service, opts Options) chi.Router {
	h := NewHandler(svc, opts.DegradeHot, opts.OnReload)

	r := chi.NewRouter()

	// Read-only retrieval.
	r.Get("/search", h.Search)
	r.Get("/documents/{slug}", h.GetDocument)
	r.Get("/documents/{slug}/outline", h.GetOutline)
	r.Get("/categories", h.Categories)
	r.Get("/tags", h.Tags)

	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))
		r.Post("/admin/reindex", h.Reindex)
	})

	return r
}
