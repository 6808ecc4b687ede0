package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/driftlabs/driftline/internal/auth"
)

// userRequest is the request body for creating and updating users.
type userRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// idParam parses the {id} URL parameter as a positive integer.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// handleListUsers returns a paginated user listing with optional search.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	users, err := s.users.List(r.Context(), search)
	if err != nil {
		s.logger.Error("user list failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	page, limit := pageParams(r)
	writeJSON(w, http.StatusOK, paginate(users, page, limit))
}

// handleCreateUser creates a new user account.
// Accounts created here have no password unless one is supplied, so
// they cannot log in until an admin sets one.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	role := auth.Role(req.Role)
	if req.Role == "" {
		role = auth.RoleUser
	}

	if errs := auth.ValidateUser(req.Name, req.Email, role); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	passwordHash := ""
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.Error("password hash failed", "error", err)
			writeInternalError(w, "Internal server error", "")
			return
		}
		passwordHash = hash
	}

	user := &auth.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Role:         role,
		PasswordHash: passwordHash,
	}

	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeConflict(w, "Email already exists")
			return
		}
		s.logger.Error("user create failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleGetUser returns a single user by ID.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "User not found")
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "User not found")
			return
		}
		s.logger.Error("user get failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser updates a user's name, email, and role.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "User not found")
		return
	}

	existing, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "User not found")
			return
		}
		s.logger.Error("user get failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	role := auth.Role(req.Role)
	if req.Role == "" {
		role = existing.Role
	}

	if errs := auth.ValidateUser(req.Name, req.Email, role); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Email = strings.TrimSpace(req.Email)
	existing.Role = role

	if err := s.users.Update(r.Context(), existing); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeConflict(w, "Email already exists")
			return
		}
		s.logger.Error("user update failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteUser deletes a user account. Refresh tokens, posts, and
// uploaded file records go with it via foreign key cascade.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeNotFound(w, "User not found")
		return
	}

	// Collect the user's stored file paths before the cascade removes
	// the metadata rows.
	orphaned := []string{}
	if all, err := s.files.List(r.Context()); err == nil {
		for _, f := range all {
			if f.UploadedBy == id {
				orphaned = append(orphaned, f.FilePath)
			}
		}
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "User not found")
			return
		}
		s.logger.Error("user delete failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	// Blob cleanup is best-effort once the delete has committed.
	for _, path := range orphaned {
		if err := s.storage.Remove(path); err != nil {
			s.logger.Warn("orphaned upload cleanup failed", "path", path, "error", err)
		}
	}

	s.logger.Info("user deleted", "user_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
