package api

import (
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/searchservice"
)

// SearchHit is a single search hit (aliased from the domain layer).
type SearchHit = searchservice.Hit

// SearchResponse is one page of results with links to its neighbours.
type SearchResponse struct {
	Items      []SearchHit `json:"items" validate:"required"`
	Total      int         `json:"total" example:"42" validate:"required"`
	Page       int         `json:"page" example:"1" validate:"required"`
	PageSize   int         `json:"pageSize" example:"12" validate:"required"`
	TotalPages int         `json:"totalPages" example:"4" validate:"required"`
	Degraded   string      `json:"degraded,omitempty" example:"hot"`
	Next       string      `json:"next,omitempty" example:"/api/search?page=2&q=ink"`
	Prev       string      `json:"prev,omitempty"`
}

// DocumentResponse is the full indexed document minus its search-only text.
type DocumentResponse struct {
	Slug        string   `json:"slug" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Excerpt     string   `json:"excerpt"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
	Headings    []string `json:"headings"`
	Cover       string   `json:"cover,omitempty"`
	Series      string   `json:"series,omitempty"`
	Issue       string   `json:"issue,omitempty"`
	ReadingTime string   `json:"readingTime,omitempty"`
}

func documentResponse(d *models.IndexDocument) DocumentResponse {
	return DocumentResponse{
		Slug:        d.Slug,
		Title:       d.Title,
		Excerpt:     d.Excerpt,
		Category:    d.Category,
		Tags:        d.Tags,
		Date:        d.Date,
		Headings:    d.Headings,
		Cover:       d.Cover,
		Series:      d.Series,
		Issue:       d.Issue,
		ReadingTime: d.ReadingTime,
	}
}

// OutlineResponse lists a document's headings with anchor ids.
type OutlineResponse struct {
	Slug     string           `json:"slug"`
	Headings []models.Heading `json:"headings"`
}

// FacetResponse lists facet values with document counts.
type FacetResponse struct {
	Items []index.Facet `json:"items"`
}

// ReindexResponse reports the snapshot produced by an admin reindex.
type ReindexResponse struct {
	Documents int    `json:"documents" example:"128"`
	Checksum  string `json:"checksum"`
}
