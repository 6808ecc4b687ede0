package api

import (
	"fmt"
	"net/http"
	"time"
)

// handleIndex returns a plain-text endpoint listing.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	//nolint:errcheck // Best-effort write to response
	fmt.Fprintf(w, `Driftline API %s

Users:
- GET /api/users - List users (with pagination)
- GET /api/users/{id} - Get user by ID
- POST /api/users - Create user
- PUT /api/users/{id} - Update user
- DELETE /api/users/{id} - Delete user

Posts:
- GET /api/posts - List posts (with pagination & filtering)
- GET /api/posts/{id} - Get post by ID
- POST /api/posts - Create post (requires auth)
- PUT /api/posts/{id} - Update post (requires auth)
- DELETE /api/posts/{id} - Delete post (requires auth)

Files:
- POST /api/files/upload - Upload file (requires auth)
- GET /api/files - List uploaded files (with pagination)
- GET /api/files/{id} - Get file info by ID
- GET /api/files/{id}/download - Download file by ID
- DELETE /api/files/{id} - Delete file (requires auth)

WebSocket:
- WS /ws - Real-time WebSocket connection
  Types: authenticate, chat_message, ping
  Channels: global-notifications, global-chat, user-{id}

Authentication:
- POST /api/auth/login - Login with email/password
- POST /api/auth/refresh - Refresh access token
- POST /api/auth/logout - Logout (invalidate refresh token)

Utility:
- GET /api/status - Server status
- GET /api/health - Health check with database
`, s.version)
}

// statusResponse is the response body for GET /api/status.
type statusResponse struct {
	Status    string          `json:"status"`
	Port      int             `json:"port"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Uptime    string          `json:"uptime"`
	Stats     statusStats     `json:"stats"`
	WebSocket statusWebSocket `json:"websocket"`
}

type statusStats struct {
	Users            int `json:"users"`
	Posts            int `json:"posts"`
	Files            int `json:"files"`
	ConnectedClients int `json:"connectedClients"`
}

type statusWebSocket struct {
	Endpoint         string   `json:"endpoint"`
	ConnectedClients int      `json:"connectedClients"`
	Channels         []string `json:"channels"`
}

// handleStatus reports server uptime, entity counts, and WebSocket state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userCount, err := s.users.Count(r.Context())
	if err != nil {
		s.logger.Error("status user count failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}
	postCount, err := s.posts.Count(r.Context())
	if err != nil {
		s.logger.Error("status post count failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}
	fileCount, err := s.files.Count(r.Context())
	if err != nil {
		s.logger.Error("status file count failed", "error", err)
		writeInternalError(w, "Internal server error", "")
		return
	}

	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}

	uptime := time.Since(s.startedAt)

	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "healthy",
		Port:      s.cfg.Server.Port,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Uptime:    fmt.Sprintf("%dm %ds", int(uptime.Minutes()), int(uptime.Seconds())%60),
		Stats: statusStats{
			Users:            userCount,
			Posts:            postCount,
			Files:            fileCount,
			ConnectedClients: clients,
		},
		WebSocket: statusWebSocket{
			Endpoint:         fmt.Sprintf("ws://%s:%d/ws", s.cfg.Server.Host, s.cfg.Server.Port),
			ConnectedClients: clients,
			Channels:         []string{ChannelNotifications, ChannelChat, "user-{id}"},
		},
	})
}

// handleHealth verifies database connectivity. Returns 503 when the
// database is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "error",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"database":  "disconnected",
				"error":     err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  "connected (SQLite)",
	})
}
