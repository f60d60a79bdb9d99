package engagement

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

const (
	redisKeyPrefix = "engagement:"

	fieldLikes     = "likes"
	fieldFavorites = "favorites"
	fieldComments  = "comments"
)

// Verify *Redis satisfies Provider at compile time.
var _ Provider = (*Redis)(nil)

// RedisConfig holds connection parameters for the Redis counter store.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Redis reads engagement counters kept in one hash per article:
// engagement:{slug} -> {likes, favorites, comments}, where comments counts
// approved comments only.
type Redis struct {
	client rueidis.Client
}

// NewRedis creates a Redis provider via rueidis.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("engagement: redis addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("engagement: create redis client: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewRedisForTest wraps an existing client, typically a rueidis mock.
func NewRedisForTest(c rueidis.Client) *Redis {
	return &Redis{client: c}
}

// Close shuts down the client.
func (r *Redis) Close() error {
	r.client.Close()
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Do(ctx, r.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("engagement: ping: %w", err)
	}
	return nil
}

func redisKey(slug string) string {
	return redisKeyPrefix + slug
}

// Incr adds delta to one counter of slug. field is one of likes, favorites
// or comments.
func (r *Redis) Incr(ctx context.Context, slug, field string, delta int64) error {
	switch field {
	case fieldLikes, fieldFavorites, fieldComments:
	default:
		return fmt.Errorf("engagement: unknown counter %q", field)
	}
	cmd := r.client.B().Hincrby().Key(redisKey(slug)).Field(field).Increment(delta).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("engagement: incr %s: %w", slug, err)
	}
	return nil
}

// GetScores implements Provider with one DoMulti round-trip of HMGETs.
func (r *Redis) GetScores(ctx context.Context, slugs []string) (map[string]float64, error) {
	slugs = dedupe(slugs)
	out := make(map[string]float64, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}

	cmds := make(rueidis.Commands, len(slugs))
	for i, slug := range slugs {
		cmds[i] = r.client.B().Hmget().Key(redisKey(slug)).Field(fieldLikes, fieldFavorites, fieldComments).Build()
	}

	for i, res := range r.client.DoMulti(ctx, cmds...) {
		values, err := res.ToArray()
		if err != nil {
			return nil, fmt.Errorf("engagement: hmget %s: %w", slugs[i], err)
		}
		var c Counts
		dst := []*int64{&c.Likes, &c.Favorites, &c.ApprovedComments}
		for j, v := range values {
			if j >= len(dst) || v.IsNil() {
				continue
			}
			n, err := v.AsInt64()
			if err != nil {
				return nil, fmt.Errorf("engagement: parse %s: %w", slugs[i], err)
			}
			*dst[j] = n
		}
		if score := c.Score(); score > 0 {
			out[slugs[i]] = score
		}
	}
	return out, nil
}
