package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/driftlabs/driftline/internal/posts"
)

// postRequest is the request body for creating and updating posts.
type postRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	AuthorID  *int64 `json:"author_id"`
	Published *bool  `json:"published"`
}

// handleListPosts returns a paginated post listing with optional
// published and authorId filters.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	var filter posts.Filter

	if v := r.URL.Query().Get("published"); v != "" {
		published := v == "true"
		filter.Published = &published
	}
	if v := r.URL.Query().Get("authorId"); v != "" {
		authorID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(w, "Invalid authorId")
			return
		}
		filter.AuthorID = &authorID
	}

	list, err := s.posts.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("post list failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	page, limit := pageParams(r)
	writeJSON(w, http.StatusOK, paginate(list, page, limit))
}

// handleCreatePost creates a post. The author defaults to the
// authenticated user unless author_id names another existing user.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	errs := posts.ValidatePost(req.Title, req.Content)

	authorID := userFromContext(r.Context()).ID
	if req.AuthorID != nil {
		if _, err := s.users.GetByID(r.Context(), *req.AuthorID); err != nil {
			errs = append(errs, "Valid author_id is required")
		} else {
			authorID = *req.AuthorID
		}
	}

	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	post := &posts.Post{
		Title:    strings.TrimSpace(req.Title),
		Content:  strings.TrimSpace(req.Content),
		AuthorID: authorID,
	}
	if req.Published != nil {
		post.Published = *req.Published
	}

	if err := s.posts.Create(r.Context(), post); err != nil {
		s.logger.Error("post create failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// handleGetPost returns a single post by ID.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "Post not found")
		return
	}

	post, err := s.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, posts.ErrPostNotFound) {
			writeNotFound(w, "Post not found")
			return
		}
		s.logger.Error("post get failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// handleUpdatePost updates a post's title, content, and published flag.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "Post not found")
		return
	}

	existing, err := s.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, posts.ErrPostNotFound) {
			writeNotFound(w, "Post not found")
			return
		}
		s.logger.Error("post get failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if errs := posts.ValidatePost(req.Title, req.Content); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.Content = strings.TrimSpace(req.Content)
	if req.Published != nil {
		existing.Published = *req.Published
	}

	if err := s.posts.Update(r.Context(), existing); err != nil {
		if errors.Is(err, posts.ErrPostNotFound) {
			writeNotFound(w, "Post not found")
			return
		}
		s.logger.Error("post update failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeletePost deletes a post by ID.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "Post not found")
		return
	}

	if err := s.posts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, posts.ErrPostNotFound) {
			writeNotFound(w, "Post not found")
			return
		}
		s.logger.Error("post delete failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}
