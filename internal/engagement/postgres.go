package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starford/quire/internal/apperr"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS likes (
	slug       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (slug, user_id)
);

CREATE TABLE IF NOT EXISTS favorites (
	slug       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (slug, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id         BIGSERIAL PRIMARY KEY,
	slug       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_likes_slug ON likes (slug);
CREATE INDEX IF NOT EXISTS idx_favorites_slug ON favorites (slug);
CREATE INDEX IF NOT EXISTS idx_comments_slug_status ON comments (slug, status);
`

const postgresScoresSQL = `
SELECT slug, SUM(n)::BIGINT FROM (
	SELECT slug, COUNT(*) AS n FROM likes WHERE slug = ANY($1) GROUP BY slug
	UNION ALL
	SELECT slug, COUNT(*) FROM favorites WHERE slug = ANY($1) GROUP BY slug
	UNION ALL
	SELECT slug, COUNT(*) FROM comments WHERE status = 'approved' AND slug = ANY($1) GROUP BY slug
) t GROUP BY slug`

// Verify *Postgres satisfies Store at compile time.
var _ Store = (*Postgres)(nil)

// Postgres is an engagement Store backed by PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("engagement: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("engagement: ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the engagement tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchemaSQL); err != nil {
		return fmt.Errorf("engagement: apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// AddLike records a like; repeated likes by one user count once.
func (p *Postgres) AddLike(ctx context.Context, slug, userID string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO likes (slug, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, slug, userID)
	if err != nil {
		return fmt.Errorf("engagement: add like: %w", err)
	}
	return nil
}

// AddFavorite records a favorite; repeated favorites by one user count once.
func (p *Postgres) AddFavorite(ctx context.Context, slug, userID string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO favorites (slug, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, slug, userID)
	if err != nil {
		return fmt.Errorf("engagement: add favorite: %w", err)
	}
	return nil
}

// AddComment stores a pending comment and returns its id.
func (p *Postgres) AddComment(ctx context.Context, slug, userID, body string) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO comments (slug, user_id, body, status) VALUES ($1, $2, $3, $4) RETURNING id`,
		slug, userID, body, string(CommentPending)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("engagement: add comment: %w", err)
	}
	return id, nil
}

// SetCommentStatus moves a comment to a new moderation state.
func (p *Postgres) SetCommentStatus(ctx context.Context, id int64, status CommentStatus) error {
	if err := validateStatus(status); err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `UPDATE comments SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("engagement: set comment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("engagement: comment %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Counts returns the raw totals for one slug.
func (p *Postgres) Counts(ctx context.Context, slug string) (Counts, error) {
	var c Counts
	err := p.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM likes WHERE slug = $1),
			(SELECT COUNT(*) FROM favorites WHERE slug = $1),
			(SELECT COUNT(*) FROM comments WHERE slug = $1 AND status = 'approved')`,
		slug).Scan(&c.Likes, &c.Favorites, &c.ApprovedComments)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Counts{}, fmt.Errorf("engagement: counts: %w", err)
	}
	return c, nil
}

// GetScores implements Provider with one round-trip per call.
func (p *Postgres) GetScores(ctx context.Context, slugs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	rows, err := p.pool.Query(ctx, postgresScoresSQL, dedupe(slugs))
	if err != nil {
		return nil, fmt.Errorf("engagement: scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var slug string
		var n int64
		if err := rows.Scan(&slug, &n); err != nil {
			return nil, fmt.Errorf("engagement: scan score: %w", err)
		}
		out[slug] = float64(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("engagement: scores: %w", err)
	}
	return out, nil
}
