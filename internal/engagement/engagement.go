// Package engagement supplies per-article engagement scores (likes, favorites
// and approved comments) from an external store.
package engagement

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Provider looks up engagement scores for a batch of slugs.
// Slugs without any engagement may be absent from the result.
type Provider interface {
	GetScores(ctx context.Context, slugs []string) (map[string]float64, error)
}

// Store is a Provider that also records engagement. Used for seeding and tests.
type Store interface {
	Provider
	AddLike(ctx context.Context, slug, userID string) error
	AddFavorite(ctx context.Context, slug, userID string) error
	AddComment(ctx context.Context, slug, userID, body string) (int64, error)
	SetCommentStatus(ctx context.Context, id int64, status CommentStatus) error
	Counts(ctx context.Context, slug string) (Counts, error)
	Close() error
}

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// Counts are the raw engagement totals for one article.
type Counts struct {
	Likes            int64 `json:"likes"`
	Favorites        int64 `json:"favorites"`
	ApprovedComments int64 `json:"approvedComments"`
}

// Score is the hot-sort value: every interaction counts once.
func (c Counts) Score() float64 {
	return float64(c.Likes + c.Favorites + c.ApprovedComments)
}

// Static serves scores from a fixed map.
type Static map[string]float64

// GetScores implements Provider.
func (s Static) GetScores(_ context.Context, slugs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(slugs))
	for _, slug := range slugs {
		if v, ok := s[slug]; ok {
			out[slug] = v
		}
	}
	return out, nil
}

const batchParallelism = 4

type batched struct {
	p    Provider
	size int
}

// Batched wraps p so that no single call carries more than size slugs.
// Chunks are fetched concurrently and merged; any chunk error fails the call.
// Duplicate slugs are dropped before chunking.
func Batched(p Provider, size int) Provider {
	if size <= 0 {
		return p
	}
	return &batched{p: p, size: size}
}

func (b *batched) GetScores(ctx context.Context, slugs []string) (map[string]float64, error) {
	slugs = dedupe(slugs)
	if len(slugs) <= b.size {
		if len(slugs) == 0 {
			return map[string]float64{}, nil
		}
		return b.p.GetScores(ctx, slugs)
	}

	var mu sync.Mutex
	out := make(map[string]float64, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)
	for _, chunk := range chunks(slugs, b.size) {
		g.Go(func() error {
			scores, err := b.p.GetScores(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for k, v := range scores {
				out[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func dedupe(slugs []string) []string {
	out := make([]string, 0, len(slugs))
	seen := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func chunks(s []string, size int) [][]string {
	var out [][]string
	for len(s) > size {
		out = append(out, s[:size:size])
		s = s[size:]
	}
	if len(s) > 0 {
		out = append(out, s)
	}
	return out
}
