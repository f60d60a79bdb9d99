package engagement

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/starford/quire/internal/apperr"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "engagement.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_ScoreCountsApprovedOnly(t *testing.T) {
	ctx := context.Background()
	db := testSQLite(t)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(db.AddLike(ctx, "a", "u1"))
	must(db.AddLike(ctx, "a", "u1")) // duplicate ignored
	must(db.AddLike(ctx, "a", "u2"))
	must(db.AddFavorite(ctx, "a", "u1"))
	approved, err := db.AddComment(ctx, "a", "u3", "lovely")
	must(err)
	_, err = db.AddComment(ctx, "a", "u4", "pending")
	must(err)
	rejected, err := db.AddComment(ctx, "b", "u4", "spam")
	must(err)
	must(db.SetCommentStatus(ctx, approved, CommentApproved))
	must(db.SetCommentStatus(ctx, rejected, CommentRejected))
	must(db.AddLike(ctx, "b", "u1"))

	c, err := db.Counts(ctx, "a")
	must(err)
	if c != (Counts{Likes: 2, Favorites: 1, ApprovedComments: 1}) {
		t.Errorf("counts = %+v", c)
	}

	scores, err := db.GetScores(ctx, []string{"a", "b", "c"})
	must(err)
	if scores["a"] != 4 || scores["b"] != 1 {
		t.Errorf("scores = %v", scores)
	}
	if _, ok := scores["c"]; ok {
		t.Error("slug without engagement should be absent")
	}
}

func TestSQLite_ManySlugs(t *testing.T) {
	ctx := context.Background()
	db := testSQLite(t)
	slugs := make([]string, 700)
	for i := range slugs {
		slugs[i] = fmt.Sprintf("s%d", i)
	}
	if err := db.AddLike(ctx, "s650", "u"); err != nil {
		t.Fatal(err)
	}
	scores, err := db.GetScores(ctx, slugs)
	if err != nil {
		t.Fatalf("GetScores over parameter limit: %v", err)
	}
	if scores["s650"] != 1 || len(scores) != 1 {
		t.Errorf("scores = %v", scores)
	}
}

func TestSQLite_SetCommentStatusErrors(t *testing.T) {
	ctx := context.Background()
	db := testSQLite(t)
	if err := db.SetCommentStatus(ctx, 99, CommentApproved); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}
	id, err := db.AddComment(ctx, "a", "u", "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SetCommentStatus(ctx, id, "published"); err == nil {
		t.Error("expected invalid status error")
	}
}
