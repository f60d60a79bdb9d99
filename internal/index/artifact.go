// Package index builds the static search index artifact from the Markdown
// corpus and serves read-only snapshots of it at request time.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/storage"
)

// Artifact is an immutable, ordered set of IndexDocuments.
// Order is discovery order; it only matters for deterministic output.
type Artifact struct {
	docs     []models.IndexDocument
	bySlug   map[string]int
	checksum string
}

// Build assembles docs into an Artifact. It fails on the first document with
// a missing title, a malformed slug, or a slug already seen.
// docs is copied; later changes by the caller do not affect the artifact.
func Build(docs []models.IndexDocument) (*Artifact, error) {
	a := &Artifact{
		docs:   make([]models.IndexDocument, len(docs)),
		bySlug: make(map[string]int, len(docs)),
	}
	for i, d := range docs {
		if d.Title == "" {
			return nil, &apperr.SchemaError{Field: "title", Reason: fmt.Sprintf("document %q: cannot be blank", d.Slug)}
		}
		if !parser.IsSlug(d.Slug) {
			return nil, &apperr.SchemaError{Field: "slug", Reason: fmt.Sprintf("%q is not a valid slug", d.Slug)}
		}
		if _, dup := a.bySlug[d.Slug]; dup {
			return nil, &apperr.DuplicateSlugError{Slug: d.Slug}
		}
		d.Tags = cloneStrings(d.Tags)
		d.Headings = cloneStrings(d.Headings)
		a.docs[i] = d
		a.bySlug[d.Slug] = i
	}
	data, err := a.Encode()
	if err != nil {
		return nil, err
	}
	a.checksum = checksum.Sum(data)
	return a, nil
}

// BuildIndex loads the corpus from store and builds its artifact.
func BuildIndex(ctx context.Context, store storage.Provider, opts LoadOptions) (*Artifact, error) {
	docs, err := Load(ctx, store, opts)
	if err != nil {
		return nil, err
	}
	return Build(docs)
}

// Documents returns the artifact's documents in index order.
// The slice is shared; callers must treat it as read-only.
func (a *Artifact) Documents() []models.IndexDocument {
	return a.docs
}

// Len returns the number of documents.
func (a *Artifact) Len() int {
	return len(a.docs)
}

// Checksum returns the SHA-256 of the encoded artifact.
func (a *Artifact) Checksum() string {
	return a.checksum
}

// Lookup returns the document with the given slug.
func (a *Artifact) Lookup(slug string) (*models.IndexDocument, bool) {
	i, ok := a.bySlug[slug]
	if !ok {
		return nil, false
	}
	return &a.docs[i], true
}

// Encode renders the artifact as an indented JSON array, one object per
// document. Identical artifacts encode to identical bytes.
func (a *Artifact) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.docs); err != nil {
		return nil, fmt.Errorf("index: encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses an encoded artifact and re-validates it.
func Decode(data []byte) (*Artifact, error) {
	var docs []models.IndexDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("index: decode artifact: %w", err)
	}
	return Build(docs)
}

// ReadFile loads an artifact written by WriteFile.
func ReadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("index: read artifact: %w", err)
	}
	return Decode(data)
}

// WriteFile atomically writes the encoded artifact to path, creating parent
// directories as needed.
func WriteFile(path string, a *Artifact) error {
	data, err := a.Encode()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index: mkdir: %w", err)
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		return err
	}
	if err := fs.Write(filepath.Base(path), data); err != nil {
		return fmt.Errorf("index: write artifact: %w", err)
	}
	return nil
}

// Facet is a value with the number of documents carrying it.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Categories counts documents per category.
func (a *Artifact) Categories() []Facet {
	counts := make(map[string]int)
	for i := range a.docs {
		counts[a.docs[i].Category]++
	}
	return sortFacets(counts)
}

// Tags counts documents per tag.
func (a *Artifact) Tags() []Facet {
	counts := make(map[string]int)
	for i := range a.docs {
		for _, t := range a.docs[i].Tags {
			counts[t]++
		}
	}
	return sortFacets(counts)
}

// sortFacets orders by count descending, then name ascending.
func sortFacets(counts map[string]int) []Facet {
	out := make([]Facet, 0, len(counts))
	for name, n := range counts {
		out = append(out, Facet{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
