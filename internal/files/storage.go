package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage writes uploaded blobs to a directory on disk.
type Storage struct {
	dir string
}

// NewStorage creates a disk store rooted at dir, creating it if needed.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Dir returns the uploads directory path.
func (s *Storage) Dir() string {
	return s.dir
}

// GenerateFilename produces a collision-free stored name that keeps the
// original extension. The original basename is discarded so client
// input never forms a filesystem path.
func GenerateFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return uuid.NewString() + ext
}

// Save streams r to a new file named filename inside the store.
// Returns the path of the written file.
func (s *Storage) Save(filename string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing upload file: %w", err)
	}
	return path, nil
}

// Open opens a stored file for reading.
func (s *Storage) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("opening stored file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file from disk. A missing file is not an
// error so metadata cleanup can always proceed.
func (s *Storage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stored file: %w", err)
	}
	return nil
}
