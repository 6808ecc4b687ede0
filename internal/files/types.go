// Package files provides upload metadata persistence and a disk-backed
// blob store. Metadata lives in SQLite; file contents are written under
// a configured uploads directory with generated names so original
// filenames never touch the filesystem.
package files

import (
	"errors"
	"fmt"
	"time"
)

// MaxUploadSize is the default upload size ceiling (10MB).
const MaxUploadSize = 10 << 20

// Uploader is the uploading user summary embedded in file responses.
type Uploader struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// File is an uploaded file's metadata joined with its uploader.
type File struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Mimetype     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	UploadedBy   int64     `json:"-"`
	FilePath     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Uploader     Uploader  `json:"uploader"`
}

// ErrFileNotFound is returned when a file lookup misses.
var ErrFileNotFound = errors.New("file not found")

// allowedMimetypes are the content types accepted for upload.
var allowedMimetypes = map[string]bool{
	"image/jpeg":               true,
	"image/png":                true,
	"image/gif":                true,
	"image/webp":               true,
	"text/plain":               true,
	"application/pdf":          true,
	"application/json":         true,
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// ValidateUpload checks an upload's size and declared content type,
// returning human-readable messages for each failure.
func ValidateUpload(size int64, mimetype string, maxSize int64) []string {
	var errs []string

	if maxSize <= 0 {
		maxSize = MaxUploadSize
	}
	if size > maxSize {
		errs = append(errs, fmt.Sprintf("File size must be less than %dMB", maxSize>>20))
	}
	if !allowedMimetypes[mimetype] {
		errs = append(errs, "File type not supported. Allowed types: images, PDF, JSON, CSV, Excel")
	}

	return errs
}
