// Package searchservice answers search, document and facet requests against
// the live index snapshot, fetching engagement scores when a query needs them.
package searchservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/engagement"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/query"
	"github.com/starford/quire/internal/search"
	"github.com/starford/quire/internal/storage"
)

// ErrNotReady is returned while no index snapshot has been loaded.
var ErrNotReady = errors.New("index not loaded")

// DegradedHot marks a page that was requested as hot but served as latest.
const DegradedHot = "hot"

// Hit is one search result as returned to callers.
type Hit struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Date        string     `json:"date"`
	Cover       string     `json:"cover,omitempty"`
	Series      string     `json:"series,omitempty"`
	Issue       string     `json:"issue,omitempty"`
	ReadingTime string     `json:"readingTime,omitempty"`
	Score       float64    `json:"score"`
	Engagement  float64    `json:"engagement,omitempty"`
	Snippet     string     `json:"snippet"`
	Highlights  Highlights `json:"highlights"`
}

// Highlights are the display fields of a hit split into marked segments.
type Highlights struct {
	Title   []search.Segment `json:"title"`
	Excerpt []search.Segment `json:"excerpt"`
	Snippet []search.Segment `json:"snippet"`
}

// Page is one page of hits plus the totals needed to render pagination.
type Page struct {
	Items      []Hit            `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	Degraded   string           `json:"degraded,omitempty"`
	Query      query.Descriptor `json:"-"`
}

// Config tunes a Service. Zero values select defaults.
type Config struct {
	Limits            search.Limits
	Weights           search.Weights
	EngagementTimeout time.Duration
	// Store and LoadOptions enable Reindex; ArtifactPath, when set, receives
	// every rebuilt artifact.
	Store        storage.Provider
	LoadOptions  index.LoadOptions
	ArtifactPath string
	Logger       *slog.Logger
}

// Service coordinates the index snapshot, the ranking engine and the
// engagement provider.
type Service struct {
	holder  *index.Holder
	engine  *search.Engine
	scores  engagement.Provider
	limits  search.Limits
	timeout time.Duration

	store        storage.Provider
	loadOpts     index.LoadOptions
	artifactPath string
	logger       *slog.Logger
}

// New creates a Service. scores may be nil, in which case hot queries see
// no engagement.
func New(holder *index.Holder, scores engagement.Provider, cfg Config) *Service {
	if cfg.Limits == (search.Limits{}) {
		cfg.Limits = search.DefaultLimits
	}
	if cfg.Weights == (search.Weights{}) {
		cfg.Weights = search.DefaultWeights
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if scores == nil {
		scores = engagement.Static{}
	}
	if cfg.LoadOptions.Logger == nil {
		cfg.LoadOptions.Logger = cfg.Logger
	}
	return &Service{
		holder:       holder,
		engine:       search.NewEngine(cfg.Weights),
		scores:       scores,
		limits:       cfg.Limits,
		timeout:      cfg.EngagementTimeout,
		store:        cfg.Store,
		loadOpts:     cfg.LoadOptions,
		artifactPath: cfg.ArtifactPath,
		logger:       cfg.Logger,
	}
}

// Ready reports whether a snapshot is loaded.
func (s *Service) Ready() bool {
	return s.holder.Load() != nil
}

func (s *Service) snapshot() (*index.Artifact, error) {
	a := s.holder.Load()
	if a == nil {
		return nil, ErrNotReady
	}
	return a, nil
}

// Search runs d against the current snapshot. For hot queries engagement is
// fetched once, only for documents passing the category and tag filters; a
// failed fetch is returned as a DependencyUnavailableError and never replaced
// by another ordering here.
func (s *Service) Search(ctx context.Context, d query.Descriptor) (*Page, error) {
	a, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	candidates := search.Filter(a.Documents(), d)

	var scores map[string]float64
	if d.Sort == query.SortHot && len(candidates) > 0 {
		scores, err = s.fetchScores(ctx, candidates)
		if err != nil {
			metrics.SearchRequestsTotal.WithLabelValues(string(d.Sort), "error").Inc()
			return nil, err
		}
	}

	ranked := s.engine.RankFiltered(candidates, d, scores)
	p := search.Paginate(ranked, d.Page, d.PageSize, s.limits)

	page := &Page{
		Items:      make([]Hit, len(p.Items)),
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		Query:      d,
	}
	for i, r := range p.Items {
		page.Items[i] = toHit(r, d.Q)
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(d.Sort), "ok").Inc()
	return page, nil
}

// SearchOrDegrade is Search, except that a hot query whose engagement lookup
// fails is re-run as latest and the page is marked Degraded.
func (s *Service) SearchOrDegrade(ctx context.Context, d query.Descriptor) (*Page, error) {
	page, err := s.Search(ctx, d)
	if err == nil || d.Sort != query.SortHot || !errors.Is(err, apperr.ErrDependencyUnavailable) {
		return page, err
	}
	s.logger.Warn("search: engagement unavailable, serving latest", slog.String("error", err.Error()))

	fallback := d.WithPage(d.Page)
	fallback.Sort = query.SortLatest
	page, err = s.Search(ctx, fallback)
	if err != nil {
		return nil, err
	}
	page.Degraded = DegradedHot
	page.Query = d
	metrics.SearchRequestsTotal.WithLabelValues(string(d.Sort), "degraded").Inc()
	return page, nil
}

func (s *Service) fetchScores(ctx context.Context, docs []*models.IndexDocument) (map[string]float64, error) {
	slugs := make([]string, len(docs))
	for i, d := range docs {
		slugs[i] = d.Slug
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	scores, err := s.scores.GetScores(ctx, slugs)
	metrics.ObserveEngagementFetch(start, err)
	if err != nil {
		return nil, &apperr.DependencyUnavailableError{Dependency: "engagement", Err: err}
	}
	return scores, nil
}

func toHit(r search.ScoredResult, q string) Hit {
	d := r.Document
	return Hit{
		Slug:        d.Slug,
		Title:       d.Title,
		Excerpt:     d.Excerpt,
		Category:    d.Category,
		Tags:        append([]string{}, d.Tags...),
		Date:        d.Date,
		Cover:       d.Cover,
		Series:      d.Series,
		Issue:       d.Issue,
		ReadingTime: d.ReadingTime,
		Score:       r.Score,
		Engagement:  r.Engagement,
		Snippet:     r.Snippet,
		Highlights: Highlights{
			Title:   search.Highlight(d.Title, q),
			Excerpt: search.Highlight(d.Excerpt, q),
			Snippet: search.Highlight(r.Snippet, q),
		},
	}
}

// Document returns the indexed document for slug.
func (s *Service) Document(_ context.Context, slug string) (*models.IndexDocument, error) {
	a, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	doc, ok := a.Lookup(slug)
	if !ok {
		return nil, fmt.Errorf("document %q: %w", slug, apperr.ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

// Outline returns the document's headings with stable anchor ids.
func (s *Service) Outline(ctx context.Context, slug string) ([]models.Heading, error) {
	doc, err := s.Document(ctx, slug)
	if err != nil {
		return nil, err
	}
	ids := parser.Anchors(doc.Headings)
	out := make([]models.Heading, len(doc.Headings))
	for i, h := range doc.Headings {
		out[i] = models.Heading{Text: h, ID: ids[i]}
	}
	return out, nil
}

// Categories returns category facets of the current snapshot.
func (s *Service) Categories(_ context.Context) ([]index.Facet, error) {
	a, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return a.Categories(), nil
}

// Tags returns tag facets of the current snapshot.
func (s *Service) Tags(_ context.Context) ([]index.Facet, error) {
	a, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return a.Tags(), nil
}

// Reindex rebuilds the artifact from the content store, persists it when an
// artifact path is configured, and swaps it in. On failure the current
// snapshot stays live.
func (s *Service) Reindex(ctx context.Context) (*index.Artifact, error) {
	if s.store == nil {
		return nil, errors.New("searchservice: no content store configured")
	}
	a, err := index.BuildIndex(ctx, s.store, s.loadOpts)
	if err != nil {
		metrics.ObserveReload(0, err)
		return nil, err
	}
	if s.artifactPath != "" {
		if err := index.WriteFile(s.artifactPath, a); err != nil {
			metrics.ObserveReload(0, err)
			return nil, err
		}
	}
	s.Swap(a)
	s.logger.Info("search: index reloaded",
		slog.Int("documents", a.Len()),
		slog.String("checksum", a.Checksum()))
	return a, nil
}

// Swap publishes a as the live snapshot.
func (s *Service) Swap(a *index.Artifact) {
	s.holder.Store(a)
	metrics.ObserveReload(a.Len(), nil)
}
