package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for post persistence.
type Repository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, filter Filter) ([]Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed post repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// selectPost is the join used by every read path so responses always
// carry the author summary.
const selectPost = `
	SELECT p.id, p.title, p.content, p.author_id, p.published, p.created_at, p.updated_at,
	       u.name, u.email
	FROM posts p
	JOIN users u ON p.author_id = u.id`

// Create inserts a new post and fills in the generated ID and author summary.
func (r *SQLiteRepository) Create(ctx context.Context, post *Post) error {
	now := time.Now().UTC().Truncate(time.Second)
	post.CreatedAt = now
	post.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (title, content, author_id, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.Title, post.Content, post.AuthorID, boolToInt(post.Published),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new post id: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reloading created post: %w", err)
	}
	*post = *created
	return nil
}

// GetByID retrieves a post with its author by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Post, error) {
	row := r.db.QueryRowContext(ctx, selectPost+" WHERE p.id = ?", id)
	p, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns posts newest first, optionally filtered by published
// state and author.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Post, error) {
	query := selectPost
	var args []any
	var conditions []string

	if filter.Published != nil {
		conditions = append(conditions, "p.published = ?")
		args = append(args, boolToInt(*filter.Published))
	}
	if filter.AuthorID != nil {
		conditions = append(conditions, "p.author_id = ?")
		args = append(args, *filter.AuthorID)
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY p.created_at DESC, p.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	result := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return result, nil
}

// Update modifies a post's title, content, and published flag.
// The author never changes after creation.
func (r *SQLiteRepository) Update(ctx context.Context, post *Post) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, published = ?, updated_at = ? WHERE id = ?`,
		post.Title, post.Content, boolToInt(post.Published),
		now.Format(time.RFC3339), post.ID,
	)
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrPostNotFound
	}

	updated, err := r.GetByID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("reloading updated post: %w", err)
	}
	*post = *updated
	return nil
}

// Delete removes a post by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Count returns the total number of posts.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return count, nil
}

// scanner is an interface covering sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*Post, error) {
	var p Post
	var published int
	var createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &published,
		&createdAt, &updatedAt, &p.Author.Name, &p.Author.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("scanning post: %w", err)
	}

	p.Published = published != 0
	p.Author.ID = p.AuthorID
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
