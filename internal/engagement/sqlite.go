package engagement

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/quire/internal/apperr"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS likes (
	slug       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(slug, user_id)
);

CREATE TABLE IF NOT EXISTS favorites (
	slug       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(slug, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	slug       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_likes_slug ON likes(slug);
CREATE INDEX IF NOT EXISTS idx_favorites_slug ON favorites(slug);
CREATE INDEX IF NOT EXISTS idx_comments_slug_status ON comments(slug, status);
`

// sqliteChunk keeps 3*chunk bound parameters under SQLite's default limit of 999.
const sqliteChunk = 300

// Verify *SQLite satisfies Store at compile time.
var _ Store = (*SQLite)(nil)

// SQLite is an engagement Store backed by a local SQLite database.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("engagement: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("engagement: ping: %w", err)
	}
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("engagement: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Ping checks the connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// AddLike records a like; repeated likes by one user count once.
func (s *SQLite) AddLike(ctx context.Context, slug, userID string) error {
	_, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO likes (slug, user_id) VALUES (?, ?)`, slug, userID)
	if err != nil {
		return fmt.Errorf("engagement: add like: %w", err)
	}
	return nil
}

// AddFavorite records a favorite; repeated favorites by one user count once.
func (s *SQLite) AddFavorite(ctx context.Context, slug, userID string) error {
	_, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO favorites (slug, user_id) VALUES (?, ?)`, slug, userID)
	if err != nil {
		return fmt.Errorf("engagement: add favorite: %w", err)
	}
	return nil
}

// AddComment stores a pending comment and returns its id.
func (s *SQLite) AddComment(ctx context.Context, slug, userID, body string) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO comments (slug, user_id, body, status) VALUES (?, ?, ?, ?)`,
		slug, userID, body, CommentPending)
	if err != nil {
		return 0, fmt.Errorf("engagement: add comment: %w", err)
	}
	return res.LastInsertId()
}

// SetCommentStatus moves a comment to a new moderation state.
func (s *SQLite) SetCommentStatus(ctx context.Context, id int64, status CommentStatus) error {
	if err := validateStatus(status); err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, `UPDATE comments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("engagement: set comment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("engagement: set comment status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("engagement: comment %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Counts returns the raw totals for one slug.
func (s *SQLite) Counts(ctx context.Context, slug string) (Counts, error) {
	var c Counts
	err := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM likes WHERE slug = ?),
			(SELECT COUNT(*) FROM favorites WHERE slug = ?),
			(SELECT COUNT(*) FROM comments WHERE slug = ? AND status = 'approved')`,
		slug, slug, slug).Scan(&c.Likes, &c.Favorites, &c.ApprovedComments)
	if err != nil {
		return Counts{}, fmt.Errorf("engagement: counts: %w", err)
	}
	return c, nil
}

// GetScores implements Provider, querying in chunks to respect the bound
// parameter limit.
func (s *SQLite) GetScores(ctx context.Context, slugs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(slugs))
	for _, chunk := range chunks(dedupe(slugs), sqliteChunk) {
		if err := s.scoreChunk(ctx, chunk, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLite) scoreChunk(ctx context.Context, slugs []string, out map[string]float64) error {
	in := strings.TrimSuffix(strings.Repeat("?,", len(slugs)), ",")
	q := `
		SELECT slug, SUM(n) FROM (
			SELECT slug, COUNT(*) AS n FROM likes WHERE slug IN (` + in + `) GROUP BY slug
			UNION ALL
			SELECT slug, COUNT(*) FROM favorites WHERE slug IN (` + in + `) GROUP BY slug
			UNION ALL
			SELECT slug, COUNT(*) FROM comments WHERE status = 'approved' AND slug IN (` + in + `) GROUP BY slug
		) GROUP BY slug`

	args := make([]any, 0, 3*len(slugs))
	for i := 0; i < 3; i++ {
		for _, slug := range slugs {
			args = append(args, slug)
		}
	}

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("engagement: scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var slug string
		var n int64
		if err := rows.Scan(&slug, &n); err != nil {
			return fmt.Errorf("engagement: scan score: %w", err)
		}
		out[slug] = float64(n)
	}
	return rows.Err()
}

func validateStatus(status CommentStatus) error {
	err := validation.Validate(status, validation.Required,
		validation.In(CommentPending, CommentApproved, CommentRejected))
	if err != nil {
		return fmt.Errorf("engagement: comment status %q: %w", status, err)
	}
	return nil
}
