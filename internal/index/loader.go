package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/parser"
	"github.com/starford/quire/internal/storage"
)

const (
	defaultCategory = "uncategorized"
	excerptRunes    = 160
	wordsPerMinute  = 200
)

// LoadOptions controls corpus enumeration.
type LoadOptions struct {
	// IncludeDrafts keeps documents flagged draft; used only for local preview.
	IncludeDrafts bool
	Logger        *slog.Logger
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Load reads every Markdown file under the store root and returns one
// IndexDocument per published article, in discovery order. A malformed
// document or a duplicated slug aborts the whole load.
func Load(ctx context.Context, store storage.Provider, opts LoadOptions) ([]models.IndexDocument, error) {
	logger := opts.logger()

	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("index: list content: %w", err)
	}

	docs := make([]models.IndexDocument, 0, len(metas))
	owners := make(map[string]string, len(metas))
	var newest time.Time
	for _, m := range metas {
		if m.UpdatedAt.After(newest) {
			newest = m.UpdatedAt
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := store.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("index: read %s: %w", m.Path, err)
		}
		doc, err := Document(m.Path, data)
		if err != nil {
			return nil, err
		}
		// Drafts own their slug even when they are skipped.
		if first, dup := owners[doc.Slug]; dup {
			return nil, &apperr.DuplicateSlugError{Slug: doc.Slug, First: first, Second: m.Path}
		}
		owners[doc.Slug] = m.Path
		if doc.Draft && !opts.IncludeDrafts {
			logger.Debug("build: draft skipped", slog.String("path", m.Path), slog.String("slug", doc.Slug))
			continue
		}
		docs = append(docs, doc)
	}

	logger.Info("build: corpus loaded",
		slog.Int("files", len(metas)),
		slog.Int("documents", len(docs)),
		slog.Time("newest_change", newest))
	return docs, nil
}

// documentInput carries the required frontmatter fields through validation.
type documentInput struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Date  string `json:"date"`
}

// Document converts one raw Markdown file into an IndexDocument.
// filePath is used to derive the slug when the frontmatter has none.
func Document(filePath string, data []byte) (models.IndexDocument, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return models.IndexDocument{}, &apperr.SchemaError{Path: filePath, Field: "frontmatter", Reason: err.Error()}
	}
	meta := res.Meta

	in := documentInput{Title: meta.Title, Slug: meta.Slug, Date: meta.Date}
	if in.Slug == "" {
		base := path.Base(filePath)
		in.Slug = parser.Slugify(strings.TrimSuffix(base, path.Ext(base)))
	}

	var published time.Time
	err = validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Slug, validation.Required, validation.By(slugRule)),
		validation.Field(&in.Date, validation.Required, validation.By(func(any) error {
			t, perr := dateparse.ParseIn(in.Date, time.UTC)
			if perr != nil {
				return errors.New("must be a valid date")
			}
			published = t.UTC()
			return nil
		})),
	)
	if err != nil {
		return models.IndexDocument{}, schemaError(filePath, err)
	}

	extracted := parser.Extract(res.Body)
	headings := make([]string, len(extracted.Headings))
	for i, h := range extracted.Headings {
		headings[i] = h.Text
	}

	category := parser.Slugify(meta.Category)
	if category == "" {
		category = defaultCategory
	}

	excerpt := meta.Excerpt
	if excerpt == "" {
		excerpt = meta.Description
	}
	if excerpt == "" {
		excerpt = truncate(extracted.ContentText, excerptRunes)
	}

	readingTime := meta.ReadingTime
	if readingTime == "" {
		readingTime = estimateReadingTime(extracted.ContentText)
	}

	return models.IndexDocument{
		Slug:          in.Slug,
		Title:         meta.Title,
		Excerpt:       excerpt,
		Category:      category,
		Tags:          slugifyTags(meta.Tags),
		Date:          formatDate(published),
		DateTimestamp: published.UnixMilli(),
		Headings:      headings,
		ContentText:   extracted.ContentText,
		Cover:         meta.Cover,
		Series:        meta.Series,
		Issue:         meta.Issue,
		ReadingTime:   readingTime,
		Draft:         meta.Draft,
	}, nil
}

func slugRule(v any) error {
	s, _ := v.(string)
	if s != "" && !parser.IsSlug(s) {
		return errors.New("must be lowercase letters, digits and single hyphens")
	}
	return nil
}

// schemaError reduces a validation failure to the first offending field, in
// sorted order so the message is stable across runs.
func schemaError(filePath string, err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &apperr.SchemaError{Path: filePath, Field: "frontmatter", Reason: err.Error()}
	}
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &apperr.SchemaError{Path: filePath, Field: keys[0], Reason: verrs[keys[0]].Error()}
}

func slugifyTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		s := parser.Slugify(t)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// truncate cuts s to at most n runes on a word boundary, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)[:n]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func estimateReadingTime(text string) string {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
