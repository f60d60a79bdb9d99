package search

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/query"
	"github.com/starford/quire/internal/testutil"
)

func slugs(results []ScoredResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.Slug
	}
	return out
}

func rank(docs []models.IndexDocument, p query.Params, scores map[string]float64) []ScoredResult {
	return NewEngine(DefaultWeights).Rank(docs, query.Plan(p), scores)
}

func TestScenario_TextQuery(t *testing.T) {
	got := rank(testutil.ScenarioDocs(), query.Params{Q: "ink", Scope: "all"}, nil)
	if !reflect.DeepEqual(slugs(got), []string{"b"}) {
		t.Fatalf("slugs = %v, want [b]", slugs(got))
	}
	if got[0].Score <= 0 {
		t.Errorf("score = %v, want > 0", got[0].Score)
	}
}

func TestScenario_TagFilter(t *testing.T) {
	docs := testutil.ScenarioDocs()
	got := rank(docs, query.Params{Tags: "craft"}, nil)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	latest := rank(docs, query.Params{Tags: "craft", Sort: "latest"}, nil)
	if !reflect.DeepEqual(slugs(latest), []string{"b", "a"}) {
		t.Errorf("latest = %v, want [b a]", slugs(latest))
	}
}

func TestScenario_UnknownCategory(t *testing.T) {
	got := rank(testutil.ScenarioDocs(), query.Params{Category: "none"}, nil)
	p := Paginate(got, 1, 0, DefaultLimits)
	if len(p.Items) != 0 || p.Total != 0 || p.TotalPages != 0 {
		t.Errorf("page = %+v, want empty with zero totals", p)
	}
}

func TestRank_ScopeRestrictsFields(t *testing.T) {
	docs := []models.IndexDocument{
		{Slug: "t", Title: "Letterpress", ContentText: "nothing here"},
		{Slug: "c", Title: "Other", ContentText: "about letterpress printing"},
		{Slug: "g", Title: "Tagged", Tags: []string{"letterpress"}},
	}
	tests := []struct {
		scope string
		want  []string
	}{
		{"title", []string{"t"}},
		{"content", []string{"c"}},
		{"tags", []string{"g"}},
	}
	for _, tc := range tests {
		t.Run(tc.scope, func(t *testing.T) {
			got := rank(docs, query.Params{Q: "LETTERPRESS", Scope: tc.scope}, nil)
			if !reflect.DeepEqual(slugs(got), tc.want) {
				t.Errorf("slugs = %v, want %v", slugs(got), tc.want)
			}
		})
	}
	all := rank(docs, query.Params{Q: "letterpress"}, nil)
	if !reflect.DeepEqual(slugs(all), []string{"t", "g", "c"}) {
		t.Errorf("all scope order = %v, want title > tags > content", slugs(all))
	}
}

func TestRank_ScoreSumsTokenFieldHits(t *testing.T) {
	docs := []models.IndexDocument{{
		Slug:        "x",
		Title:       "Ink and paper",
		Excerpt:     "paper",
		ContentText: "ink ink ink",
		Tags:        []string{"ink"},
	}}
	got := rank(docs, query.Params{Q: "ink paper ink"}, nil)
	w := DefaultWeights
	// ink: title, tags, content. paper: title, excerpt.
	want := w.Title + w.Tags + w.Content + w.Title + w.Excerpt
	if got[0].Score != want {
		t.Errorf("score = %v, want %v", got[0].Score, want)
	}
}

func TestRank_EmptyQueryKeepsAllWithZeroScore(t *testing.T) {
	got := rank(testutil.ScenarioDocs(), query.Params{}, nil)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for _, r := range got {
		if r.Score != 0 {
			t.Errorf("%s score = %v, want 0", r.Document.Slug, r.Score)
		}
		if r.Snippet != r.Document.Excerpt {
			t.Errorf("%s snippet = %q, want excerpt", r.Document.Slug, r.Snippet)
		}
	}
}

func TestRank_HotUsesEngagementWithDefaultZero(t *testing.T) {
	docs := testutil.ScenarioDocs()
	got := rank(docs, query.Params{Sort: "hot"}, map[string]float64{"a": 5, "b": 1, "unknown": 99})
	if !reflect.DeepEqual(slugs(got), []string{"a", "b", "c"}) {
		t.Errorf("hot = %v", slugs(got))
	}
	if got[2].Engagement != 0 {
		t.Errorf("missing slug engagement = %v", got[2].Engagement)
	}

	// Without any engagement, hot falls through to recency.
	none := rank(docs, query.Params{Sort: "hot"}, nil)
	if !reflect.DeepEqual(slugs(none), []string{"c", "b", "a"}) {
		t.Errorf("hot without scores = %v", slugs(none))
	}
}

func TestRank_HotIgnoresRelevanceScore(t *testing.T) {
	docs := []models.IndexDocument{
		{Slug: "strong", Title: "ink ink", DateTimestamp: 1},
		{Slug: "weak", ContentText: "ink", DateTimestamp: 1},
	}
	got := rank(docs, query.Params{Q: "ink", Sort: "hot"}, map[string]float64{"weak": 2, "strong": 1})
	if !reflect.DeepEqual(slugs(got), []string{"weak", "strong"}) {
		t.Errorf("hot = %v", slugs(got))
	}
}

func TestRank_StableTieBreak(t *testing.T) {
	docs := []models.IndexDocument{
		{Slug: "c", Title: "same", DateTimestamp: 10},
		{Slug: "a", Title: "same", DateTimestamp: 10},
		{Slug: "b", Title: "same", DateTimestamp: 10},
	}
	for _, sortMode := range []string{"relevance", "latest", "hot"} {
		for i := 0; i < 5; i++ {
			got := rank(docs, query.Params{Q: "same", Sort: sortMode}, nil)
			if !reflect.DeepEqual(slugs(got), []string{"a", "b", "c"}) {
				t.Fatalf("%s run %d = %v", sortMode, i, slugs(got))
			}
		}
	}
}

func TestRank_DoesNotMutateDocuments(t *testing.T) {
	docs := testutil.ScenarioDocs()
	before := fmt.Sprint(docs)
	rank(docs, query.Params{Q: "ink", Tags: "craft", Sort: "latest"}, nil)
	if fmt.Sprint(docs) != before {
		t.Error("Rank modified its input")
	}
}

func TestSnippet_WindowsAroundFirstHit(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "filler "
	}
	long += "the marbled endpaper appears here " + long
	docs := []models.IndexDocument{{Slug: "x", Title: "X", Excerpt: "short", ContentText: long}}
	got := rank(docs, query.Params{Q: "marbled"}, nil)
	s := got[0].Snippet
	if len([]rune(s)) > defaultSnippetRunes+2 {
		t.Errorf("snippet too long: %d runes", len([]rune(s)))
	}
	if !containsFold(s, "marbled") {
		t.Errorf("snippet %q does not contain the hit", s)
	}

	titleOnly := rank([]models.IndexDocument{{Slug: "y", Title: "Marbled", Excerpt: "short", ContentText: "body"}},
		query.Params{Q: "marbled"}, nil)
	if titleOnly[0].Snippet != "short" {
		t.Errorf("snippet = %q, want excerpt fallback", titleOnly[0].Snippet)
	}
}

func containsFold(s, sub string) bool {
	return indexRunes(fold(s), fold(sub), 0) >= 0
}

// randomCorpus builds n documents with tags drawn from a small alphabet.
func randomCorpus(r *rand.Rand, n int) []models.IndexDocument {
	alphabet := []string{"a", "b", "c", "d"}
	docs := make([]models.IndexDocument, n)
	for i := range docs {
		var tags []string
		for _, tag := range alphabet {
			if r.Intn(2) == 0 {
				tags = append(tags, tag)
			}
		}
		docs[i] = models.IndexDocument{
			Slug:          fmt.Sprintf("doc-%03d", i),
			Title:         fmt.Sprintf("Doc %d", i),
			Tags:          tags,
			DateTimestamp: int64(r.Intn(5)),
		}
	}
	return docs
}

func TestRank_TagANDSemantics(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		docs := randomCorpus(r, 30)
		ab := rank(docs, query.Params{Tags: "a,b"}, nil)
		a := rank(docs, query.Params{Tags: "a"}, nil)
		if len(ab) > len(a) {
			t.Fatalf("round %d: {a,b} returned %d > {a} %d", round, len(ab), len(a))
		}
		want := 0
		for i := range docs {
			if docs[i].HasTags([]string{"a", "b"}) {
				want++
			}
		}
		if len(ab) != want {
			t.Fatalf("round %d: got %d, want exactly %d superset docs", round, len(ab), want)
		}
		for _, res := range ab {
			if !res.Document.HasTags([]string{"a", "b"}) {
				t.Fatalf("round %d: %s lacks a tag", round, res.Document.Slug)
			}
		}
	}
}

func TestPaginate_ConcatenatedPagesReproduceResults(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 30; round++ {
		docs := randomCorpus(r, r.Intn(120))
		all := rank(docs, query.Params{Sort: "latest"}, nil)
		size := 10 + r.Intn(41)
		first := Paginate(all, 1, size, DefaultLimits)
		wantPages := (len(all) + size - 1) / size
		if first.TotalPages != wantPages {
			t.Fatalf("totalPages = %d, want %d", first.TotalPages, wantPages)
		}
		var joined []ScoredResult
		for p := 1; p <= first.TotalPages; p++ {
			joined = append(joined, Paginate(all, p, size, DefaultLimits).Items...)
		}
		if !reflect.DeepEqual(slugs(joined), slugs(all)) {
			t.Fatalf("round %d: pages do not reassemble the result list", round)
		}
	}
}

func TestPaginate_Bounds(t *testing.T) {
	all := rank(randomCorpus(rand.New(rand.NewSource(1)), 25), query.Params{}, nil)

	p := Paginate(all, 9, 10, DefaultLimits)
	if len(p.Items) != 0 || p.Total != 25 || p.TotalPages != 3 || p.Page != 9 {
		t.Errorf("out of range page = %+v", p)
	}

	if got := Paginate(all, 1, 1000, DefaultLimits).PageSize; got != 50 {
		t.Errorf("pageSize clamp high = %d", got)
	}
	if got := Paginate(all, 1, 2, DefaultLimits).PageSize; got != 10 {
		t.Errorf("pageSize clamp low = %d", got)
	}
	if got := Paginate(all, 1, 0, DefaultLimits).PageSize; got != 12 {
		t.Errorf("default pageSize = %d", got)
	}
	last := Paginate(all, 3, 10, DefaultLimits)
	if len(last.Items) != 5 {
		t.Errorf("last page items = %d, want 5", len(last.Items))
	}
}

func TestPaginate_HugePageIsEmpty(t *testing.T) {
	d := query.Plan(query.Params{Page: "9223372036854775807"})
	all := NewEngine(DefaultWeights).Rank(testutil.ScenarioDocs(), d, nil)

	p := Paginate(all, d.Page, d.PageSize, DefaultLimits)
	if len(p.Items) != 0 || p.Total != 3 || p.TotalPages != 1 {
		t.Errorf("page = %+v", p)
	}
	if p := Paginate(nil, d.Page, d.PageSize, DefaultLimits); len(p.Items) != 0 || p.Total != 0 {
		t.Errorf("empty result page = %+v", p)
	}
}
