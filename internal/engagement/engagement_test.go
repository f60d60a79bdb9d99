package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type recordingProvider struct {
	mu     sync.Mutex
	calls  [][]string
	scores map[string]float64
	err    error
}

func (r *recordingProvider) GetScores(_ context.Context, slugs []string) (map[string]float64, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), slugs...))
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return Static(r.scores).GetScores(context.Background(), slugs)
}

func TestCountsScore(t *testing.T) {
	c := Counts{Likes: 3, Favorites: 2, ApprovedComments: 4}
	if c.Score() != 9 {
		t.Errorf("score = %v, want 9", c.Score())
	}
}

func TestStatic_OmitsUnknown(t *testing.T) {
	got, err := Static{"a": 2}.GetScores(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["a"] != 2 {
		t.Errorf("got %v", got)
	}
}

func TestBatched_ChunksAndMerges(t *testing.T) {
	scores := map[string]float64{}
	var slugs []string
	for i := 0; i < 450; i++ {
		s := fmt.Sprintf("s%03d", i)
		slugs = append(slugs, s)
		scores[s] = float64(i)
	}
	inner := &recordingProvider{scores: scores}
	got, err := Batched(inner, 200).GetScores(context.Background(), append(slugs, "s001", "s002"))
	if err != nil {
		t.Fatalf("GetScores: %v", err)
	}
	if len(inner.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(inner.calls))
	}
	total := 0
	for _, c := range inner.calls {
		if len(c) > 200 {
			t.Errorf("chunk of %d exceeds batch size", len(c))
		}
		total += len(c)
	}
	if total != 450 {
		t.Errorf("slugs requested = %d, want 450 after dedupe", total)
	}
	if len(got) != 450 {
		t.Errorf("merged %d scores, want 450", len(got))
	}
	if got["s449"] != 449 {
		t.Errorf("s449 = %v", got["s449"])
	}
}

func TestBatched_SmallCallPassesThrough(t *testing.T) {
	inner := &recordingProvider{scores: map[string]float64{"a": 1}}
	if _, err := Batched(inner, 200).GetScores(context.Background(), []string{"a", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	if len(inner.calls) != 1 || len(inner.calls[0]) != 2 {
		t.Errorf("calls = %v", inner.calls)
	}

	if _, err := Batched(inner, 200).GetScores(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(inner.calls) != 1 {
		t.Error("empty request should not reach the store")
	}
}

func TestBatched_PropagatesError(t *testing.T) {
	boom := errors.New("store down")
	inner := &recordingProvider{err: boom}
	slugs := make([]string, 30)
	for i := range slugs {
		slugs[i] = fmt.Sprintf("s%d", i)
	}
	_, err := Batched(inner, 10).GetScores(context.Background(), slugs)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
