package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_YAMLFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: Paper Studio\ndate: 2024-01-01\ncategory: Craft\ntags:\n  - craft\n  - paper\nissue: 7\ndraft: false\n---\n# Paper Studio\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Meta.Title != "Paper Studio" {
		t.Errorf("title = %q", r.Meta.Title)
	}
	if r.Meta.Date != "2024-01-01" {
		t.Errorf("date = %q, want 2024-01-01", r.Meta.Date)
	}
	if r.Meta.Issue != "7" {
		t.Errorf("issue = %q, want 7", r.Meta.Issue)
	}
	if !reflect.DeepEqual(r.Meta.Tags, []string{"craft", "paper"}) {
		t.Errorf("tags = %v", r.Meta.Tags)
	}
	if !strings.HasPrefix(string(r.Body), "# Paper Studio") {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_TOMLFrontmatter(t *testing.T) {
	input := []byte("+++\ntitle = \"Ink Notes\"\ndate = 2024-02-01\ntags = [\"ink\"]\ndraft = true\n+++\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Meta.Title != "Ink Notes" {
		t.Errorf("title = %q", r.Meta.Title)
	}
	if r.Meta.Date != "2024-02-01" {
		t.Errorf("date = %q, want 2024-02-01", r.Meta.Date)
	}
	if !r.Meta.Draft {
		t.Error("expected draft = true")
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Meta.Title != "" {
		t.Errorf("expected empty title, got %q", r.Meta.Title)
	}
	if string(r.Body) != "# Just a heading\nSome text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_InvalidYAMLFails(t *testing.T) {
	if _, err := Parse([]byte("---\ntitle: [unclosed\n---\nBody\n")); err == nil {
		t.Fatal("expected error for malformed frontmatter")
	}
}

func TestParse_TagsAsCommaString(t *testing.T) {
	r, err := Parse([]byte("---\ntitle: x\ntags: ink, paper ,\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(r.Meta.Tags, []string{"ink", "paper"}) {
		t.Errorf("tags = %v", r.Meta.Tags)
	}
}

func TestParse_NonScalarTitleFails(t *testing.T) {
	_, err := Parse([]byte("---\ntitle:\n  nested: true\n---\n"))
	if err == nil {
		t.Fatal("expected error for map-valued title")
	}
	if !strings.Contains(err.Error(), `"title"`) {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestExtract_StripsSyntax(t *testing.T) {
	body := []byte("# Title\n\nSome *emphasis* and **strong** with [a link](https://x.test) and `code`.\n\n" +
		"![alt text](img.png)\n\n```go\nfunc main() {}\n```\n\n## Section Two\n\nMore   text\nhere.\n")
	got := Extract(body)
	want := "Title Some emphasis and strong with a link and . Section Two More text here."
	if got.ContentText != want {
		t.Errorf("contentText =\n%q\nwant\n%q", got.ContentText, want)
	}
}

func TestExtract_HeadingDepths(t *testing.T) {
	body := []byte("# Top\n## Alpha\n### Beta\n#### Too Deep\n## Gamma `code`\n")
	got := Extract(body)
	var texts []string
	for _, h := range got.Headings {
		texts = append(texts, h.Text)
	}
	want := []string{"Alpha", "Beta", "Gamma code"}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("headings = %v, want %v", texts, want)
	}
	if got.Headings[1].Depth != 3 {
		t.Errorf("depth = %d, want 3", got.Headings[1].Depth)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	body := []byte("## Notes\n## Notes\n### Notes\ntext\n")
	a := Extract(body)
	b := Extract(body)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("extract not idempotent:\n%+v\n%+v", a, b)
	}
	ids := []string{a.Headings[0].ID, a.Headings[1].ID, a.Headings[2].ID}
	if !reflect.DeepEqual(ids, []string{"notes", "notes-1", "notes-2"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Paper Studio", "paper-studio"},
		{"  Café au lait!  ", "cafe-au-lait"},
		{"already-slugged", "already-slugged"},
		{"C++ & Go", "c-go"},
		{"---", ""},
		{"Issue #12", "issue-12"},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsSlug(t *testing.T) {
	if !IsSlug("ink-notes") {
		t.Error("ink-notes should be a slug")
	}
	for _, s := range []string{"", "Ink", "ink notes", "ink--notes", "-ink"} {
		if IsSlug(s) {
			t.Errorf("%q should not be a slug", s)
		}
	}
}

func TestAnchors_CollisionSuffix(t *testing.T) {
	got := Anchors([]string{"Intro", "Intro", "Intro 1", "?"})
	want := []string{"intro", "intro-1", "intro-1-1", "section"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("anchors = %v, want %v", got, want)
	}
}
