package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/driftlabs/driftline/internal/auth"
)

// accessTokenLifetime is the human-readable access token lifetime
// reported to clients alongside issued tokens.
const accessTokenLifetime = "15m"

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userSummary is the user object embedded in auth responses.
type userSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// loginResponse is the response body for POST /api/auth/login.
type loginResponse struct {
	User   userSummary `json:"user"`
	Tokens tokenPair   `json:"tokens"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// handleLogin verifies credentials and issues an access/refresh token pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "Email and password are required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "Invalid credentials")
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	// Verification failures and malformed stored hashes both fail closed.
	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "Invalid credentials")
		return
	}

	accessToken, err := auth.GenerateAccessToken(user, s.jwtSecret, s.cfg.Security.JWT.AccessTokenDuration())
	if err != nil {
		s.logger.Error("access token generation failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	rawRefresh, err := auth.GenerateRefreshToken()
	if err != nil {
		s.logger.Error("refresh token generation failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	record := &auth.RefreshToken{
		UserID:    user.ID,
		TokenHash: auth.HashToken(rawRefresh),
		ExpiresAt: time.Now().Add(s.cfg.Security.JWT.RefreshTokenDuration()),
	}
	if err := s.tokens.Create(r.Context(), record); err != nil {
		s.logger.Error("refresh token store failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)

	writeJSON(w, http.StatusOK, loginResponse{
		User: userSummary{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  string(user.Role),
		},
		Tokens: tokenPair{
			AccessToken:  accessToken,
			RefreshToken: rawRefresh,
			ExpiresIn:    accessTokenLifetime,
		},
	})
}

// refreshRequest is the request body for POST /api/auth/refresh and logout.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshResponse is the response body for POST /api/auth/refresh.
type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   string `json:"expiresIn"`
}

// handleRefresh exchanges a live refresh token for a fresh access token.
// The refresh token itself is not rotated; it stays valid until expiry
// or logout.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if req.RefreshToken == "" {
		writeBadRequest(w, "Refresh token is required")
		return
	}

	record, err := s.tokens.GetByTokenHash(r.Context(), auth.HashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) {
			writeUnauthorized(w, "Invalid or expired refresh token")
			return
		}
		s.logger.Error("refresh token lookup failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	if record.Expired(time.Now()) {
		writeUnauthorized(w, "Invalid or expired refresh token")
		return
	}

	user, err := s.users.GetByID(r.Context(), record.UserID)
	if err != nil {
		writeUnauthorized(w, "Invalid or expired refresh token")
		return
	}

	accessToken, err := auth.GenerateAccessToken(user, s.jwtSecret, s.cfg.Security.JWT.AccessTokenDuration())
	if err != nil {
		s.logger.Error("access token generation failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: accessToken,
		ExpiresIn:   accessTokenLifetime,
	})
}

// handleLogout deletes the presented refresh token. Always succeeds so
// repeated or stale logouts are harmless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	//nolint:errcheck // Missing or malformed body still logs out successfully
	json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		if err := s.tokens.DeleteByTokenHash(r.Context(), auth.HashToken(req.RefreshToken)); err != nil {
			s.logger.Warn("refresh token delete failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
