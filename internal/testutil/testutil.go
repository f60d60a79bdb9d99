// Package testutil provides shared test fixtures: content corpora, scenario
// documents, and engagement stores.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/quire/internal/engagement"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/storage"
)

// ScenarioFiles is a three-article corpus in Markdown form.
var ScenarioFiles = map[string]string{
	"a.md": "---\ntitle: Paper Studio\nslug: a\ndate: 2024-01-01\ncategory: studio\ntags: [craft]\n---\n" +
		"A visit to a small paper studio.\n\n## Process\n\nPulp, screens and patience.\n",
	"b.md": "---\ntitle: Ink Notes\nslug: b\ndate: 2024-02-01\ncategory: studio\ntags: [craft, ink]\n---\n" +
		"Notes on iron gall recipes.\n\n## Recipes\n\nOak galls and vitriol.\n",
	"c.md": "---\ntitle: Museum Guide\nslug: c\ndate: 2024-03-01\ncategory: travel\ntags: [museum]\n---\n" +
		"A short guide to the print room.\n",
}

// ScenarioDocs returns the three scenario documents in index order.
func ScenarioDocs() []models.IndexDocument {
	return []models.IndexDocument{
		Doc("a", "Paper Studio", "2024-01-01", "studio", "craft"),
		Doc("b", "Ink Notes", "2024-02-01", "studio", "craft", "ink"),
		Doc("c", "Museum Guide", "2024-03-01", "travel", "museum"),
	}
}

// Doc builds a minimal IndexDocument. date is YYYY-MM-DD in UTC.
func Doc(slug, title, date, category string, tags ...string) models.IndexDocument {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return models.IndexDocument{
		Slug:          slug,
		Title:         title,
		Excerpt:       title + " excerpt",
		Category:      category,
		Tags:          tags,
		Date:          date,
		DateTimestamp: t.UnixMilli(),
		Headings:      []string{},
		ContentText:   title + " body",
	}
}

// WriteCorpus writes files (path -> content) under a temp dir and returns
// the dir and a storage provider rooted there.
func WriteCorpus(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(filepath.ToSlash(p), []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return dir, store
}

// EngagementDB opens a SQLite engagement store in a temp dir that is closed on cleanup.
func EngagementDB(t *testing.T) *engagement.SQLite {
	t.Helper()
	db, err := engagement.NewSQLite(filepath.Join(t.TempDir(), "engagement.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
