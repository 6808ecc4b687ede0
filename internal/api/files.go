package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/driftlabs/driftline/internal/files"
)

// handleUploadFile accepts a multipart upload in the "file" field,
// validates it, stores the blob under a generated name, and records
// the metadata.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	// Cap the multipart body slightly above the per-file limit so the
	// size check below produces a clean validation error.
	maxSize := s.cfg.Uploads.MaxSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeBadRequest(w, "No file provided")
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "No file provided")
		return
	}
	defer upload.Close()

	mimetype := header.Header.Get("Content-Type")
	if errs := files.ValidateUpload(header.Size, mimetype, maxSize); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	storedName := files.GenerateFilename(header.Filename)
	path, err := s.storage.Save(storedName, upload)
	if err != nil {
		s.logger.Error("upload save failed", "error", err)
		writeInternalError(w, "Upload failed", err.Error())
		return
	}

	record := &files.File{
		Filename:     storedName,
		OriginalName: header.Filename,
		Mimetype:     mimetype,
		Size:         header.Size,
		UploadedBy:   userFromContext(r.Context()).ID,
		FilePath:     path,
	}

	if err := s.files.Create(r.Context(), record); err != nil {
		// Roll back the orphaned blob
		if rmErr := s.storage.Remove(path); rmErr != nil {
			s.logger.Warn("orphaned upload cleanup failed", "path", path, "error", rmErr)
		}
		s.logger.Error("upload record failed", "error", err)
		writeInternalError(w, "Upload failed", err.Error())
		return
	}

	s.logger.Info("file uploaded",
		"file_id", record.ID,
		"original_name", record.OriginalName,
		"size", record.Size,
		"user_id", record.UploadedBy,
	)

	writeJSON(w, http.StatusCreated, record)
}

// handleListFiles returns a paginated listing of uploaded file metadata.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.List(r.Context())
	if err != nil {
		s.logger.Error("file list failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	page, limit := pageParams(r)
	writeJSON(w, http.StatusOK, paginate(list, page, limit))
}

// handleGetFile returns metadata for a single file by ID.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "File not found")
		return
	}

	record, err := s.files.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, files.ErrFileNotFound) {
			writeNotFound(w, "File not found")
			return
		}
		s.logger.Error("file get failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleDownloadFile streams a stored file back as an attachment with
// its original name.
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "File not found")
		return
	}

	record, err := s.files.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, files.ErrFileNotFound) {
			writeNotFound(w, "File not found")
			return
		}
		s.logger.Error("file get failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	f, err := s.storage.Open(record.FilePath)
	if err != nil {
		writeNotFound(w, "File not found on disk")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", record.Mimetype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.OriginalName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", record.Size))
	//nolint:errcheck // Best-effort stream; client may disconnect mid-transfer
	io.Copy(w, f)
}

// handleDeleteFile removes a file's metadata and its blob on disk.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "File not found")
		return
	}

	record, err := s.files.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, files.ErrFileNotFound) {
			writeNotFound(w, "File not found")
			return
		}
		s.logger.Error("file get failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	if err := s.files.Delete(r.Context(), id); err != nil {
		if errors.Is(err, files.ErrFileNotFound) {
			writeNotFound(w, "File not found")
			return
		}
		s.logger.Error("file delete failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	// Blob removal is best-effort once the metadata row is gone.
	if err := s.storage.Remove(record.FilePath); err != nil {
		s.logger.Warn("file blob removal failed", "path", record.FilePath, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}
