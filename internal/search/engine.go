package search

import (
	"sort"
	"strings"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/query"
)

// Weights are the per-field contributions of one matching token.
type Weights struct {
	Title   float64
	Tags    float64
	Excerpt float64
	Content float64
}

// DefaultWeights rank a title hit above a tag hit above an excerpt hit above
// a body hit.
var DefaultWeights = Weights{Title: 10, Tags: 6, Excerpt: 3, Content: 1}

const defaultSnippetRunes = 160

// ScoredResult is one ranked document for one query.
type ScoredResult struct {
	// Document points into the artifact and must not be modified.
	Document   *models.IndexDocument
	Score      float64
	Engagement float64
	Snippet    string
}

// Engine ranks documents. The zero value is not usable; use NewEngine.
type Engine struct {
	weights      Weights
	snippetRunes int
}

// NewEngine creates an Engine with the given weights.
func NewEngine(w Weights) *Engine {
	return &Engine{weights: w, snippetRunes: defaultSnippetRunes}
}

// Filter returns the documents passing the category and tag predicates of d,
// in index order. Text matching is not applied.
func Filter(docs []models.IndexDocument, d query.Descriptor) []*models.IndexDocument {
	out := make([]*models.IndexDocument, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if d.Category != "" && doc.Category != d.Category {
			continue
		}
		if !doc.HasTags(d.Tags) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// Rank filters docs by d, scores them against d.Q, and sorts them by d.Sort.
// scores supplies engagement for the hot sort; missing slugs count as 0 and
// a nil map is valid.
func (e *Engine) Rank(docs []models.IndexDocument, d query.Descriptor, scores map[string]float64) []ScoredResult {
	return e.RankFiltered(Filter(docs, d), d, scores)
}

// RankFiltered is Rank over documents that already passed Filter.
func (e *Engine) RankFiltered(candidates []*models.IndexDocument, d query.Descriptor, scores map[string]float64) []ScoredResult {
	tokens := Tokenize(d.Q)
	needles := make([][]rune, len(tokens))
	for i, t := range tokens {
		needles[i] = []rune(t)
	}

	results := make([]ScoredResult, 0, len(candidates))
	for _, doc := range candidates {
		r := ScoredResult{Document: doc, Engagement: scores[doc.Slug]}
		if len(needles) > 0 {
			score, matched := e.score(doc, d.Scope, needles)
			if !matched {
				continue
			}
			r.Score = score
			r.Snippet = e.snippet(doc, needles)
		} else {
			r.Snippet = doc.Excerpt
		}
		results = append(results, r)
	}

	sortResults(results, d.Sort)
	return results
}

// score sums the weights of every (token, field) pair where the token occurs
// in the field. matched is false when no token occurs in any scoped field.
func (e *Engine) score(doc *models.IndexDocument, scope query.Scope, needles [][]rune) (float64, bool) {
	useTitle := scope == query.ScopeAll || scope == query.ScopeTitle
	useTags := scope == query.ScopeAll || scope == query.ScopeTags
	useExcerpt := scope == query.ScopeAll
	useContent := scope == query.ScopeAll || scope == query.ScopeContent

	var title, excerpt, content []rune
	var tags [][]rune
	if useTitle {
		title = fold(doc.Title)
	}
	if useExcerpt {
		excerpt = fold(doc.Excerpt)
	}
	if useContent {
		content = fold(doc.ContentText)
	}
	if useTags {
		tags = make([][]rune, len(doc.Tags))
		for i, t := range doc.Tags {
			tags[i] = fold(t)
		}
	}

	var total float64
	matched := false
	hit := func(ok bool, w float64) {
		if ok {
			total += w
			matched = true
		}
	}
	for _, n := range needles {
		if useTitle {
			hit(indexRunes(title, n, 0) >= 0, e.weights.Title)
		}
		if useTags {
			hit(anyContains(tags, n), e.weights.Tags)
		}
		if useExcerpt {
			hit(indexRunes(excerpt, n, 0) >= 0, e.weights.Excerpt)
		}
		if useContent {
			hit(indexRunes(content, n, 0) >= 0, e.weights.Content)
		}
	}
	return total, matched
}

func anyContains(fields [][]rune, needle []rune) bool {
	for _, f := range fields {
		if indexRunes(f, needle, 0) >= 0 {
			return true
		}
	}
	return false
}

// snippet returns a window of contentText around the earliest token hit, or
// the excerpt when no token occurs in the body.
func (e *Engine) snippet(doc *models.IndexDocument, needles [][]rune) string {
	content := fold(doc.ContentText)
	first := -1
	for _, n := range needles {
		if i := indexRunes(content, n, 0); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	if first < 0 {
		return doc.Excerpt
	}
	orig := []rune(doc.ContentText)
	if len(orig) <= e.snippetRunes {
		return doc.ContentText
	}
	start := first - e.snippetRunes/4
	if start < 0 {
		start = 0
	}
	end := start + e.snippetRunes
	if end > len(orig) {
		end = len(orig)
		start = end - e.snippetRunes
	}
	out := strings.TrimSpace(string(orig[start:end]))
	if start > 0 {
		out = "…" + out
	}
	if end < len(orig) {
		out += "…"
	}
	return out
}

// sortResults orders results by mode. Every mode ends in a slug comparison so
// the order is total and pages are stable across requests.
func sortResults(results []ScoredResult, mode query.Sort) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch mode {
		case query.SortLatest:
			if a.Document.DateTimestamp != b.Document.DateTimestamp {
				return a.Document.DateTimestamp > b.Document.DateTimestamp
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		case query.SortHot:
			if a.Engagement != b.Engagement {
				return a.Engagement > b.Engagement
			}
			if a.Document.DateTimestamp != b.Document.DateTimestamp {
				return a.Document.DateTimestamp > b.Document.DateTimestamp
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if a.Document.DateTimestamp != b.Document.DateTimestamp {
				return a.Document.DateTimestamp > b.Document.DateTimestamp
			}
		}
		return a.Document.Slug < b.Document.Slug
	})
}
