// Package models defines the domain types for Quire.
package models

import "time"

// IndexDocument is the searchable representation of one article.
// Values are created once by the index builder and never mutated afterwards.
type IndexDocument struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Date          string   `json:"date"`
	DateTimestamp int64    `json:"dateTimestamp"`
	Headings      []string `json:"headings"`
	ContentText   string   `json:"contentText"`
	Cover         string   `json:"cover,omitempty"`
	Series        string   `json:"series,omitempty"`
	Issue         string   `json:"issue,omitempty"`
	ReadingTime   string   `json:"readingTime,omitempty"`
	Draft         bool     `json:"draft,omitempty"`
}

// HasTags reports whether the document carries every tag in want.
func (d *IndexDocument) HasTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, t := range d.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Heading is one outline entry extracted from a document body.
type Heading struct {
	Depth int    `json:"depth,omitempty"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// FileMetadata describes one content file as seen by the storage layer.
// It comes from a directory listing; contents are not read.
type FileMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
