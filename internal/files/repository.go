package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for file metadata persistence.
type Repository interface {
	Create(ctx context.Context, file *File) error
	GetByID(ctx context.Context, id int64) (*File, error)
	List(ctx context.Context) ([]File, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed file metadata repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectFile = `
	SELECT f.id, f.filename, f.original_name, f.mimetype, f.size, f.uploaded_by, f.file_path, f.created_at,
	       u.name, u.email
	FROM files f
	JOIN users u ON f.uploaded_by = u.id`

// Create inserts file metadata and fills in the generated ID and
// uploader summary.
func (r *SQLiteRepository) Create(ctx context.Context, file *File) error {
	now := time.Now().UTC().Truncate(time.Second)
	file.CreatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO files (filename, original_name, mimetype, size, uploaded_by, file_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		file.Filename, file.OriginalName, file.Mimetype, file.Size,
		file.UploadedBy, file.FilePath, now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating file record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new file id: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reloading created file: %w", err)
	}
	*file = *created
	return nil
}

// GetByID retrieves file metadata with its uploader by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*File, error) {
	return scanFile(r.db.QueryRowContext(ctx, selectFile+" WHERE f.id = ?", id))
}

// List returns file metadata newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]File, error) {
	rows, err := r.db.QueryContext(ctx, selectFile+" ORDER BY f.created_at DESC, f.id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	result := []File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return result, nil
}

// Delete removes a file record by ID. The blob on disk is the caller's
// responsibility.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting file record: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrFileNotFound
	}
	return nil
}

// Count returns the total number of file records.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return count, nil
}

// scanner is an interface covering sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*File, error) {
	var f File
	var createdAt string

	err := s.Scan(&f.ID, &f.Filename, &f.OriginalName, &f.Mimetype, &f.Size,
		&f.UploadedBy, &f.FilePath, &createdAt, &f.Uploader.Name, &f.Uploader.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}

	f.Uploader.ID = f.UploadedBy
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &f, nil
}
