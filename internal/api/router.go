package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware. Rate limiting runs first so rejected requests
	// do the least work.
	r.Use(s.rateLimitMiddleware)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Index and utility endpoints (no auth required)
	r.Get("/", s.handleIndex)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/health", s.handleHealth)

	// Auth endpoints (no auth required)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
	})

	// User endpoints (open, matching the original demo behaviour)
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Put("/", s.handleUpdateUser)
			r.Delete("/", s.handleDeleteUser)
		})
	})

	// Post endpoints (reads open, mutations protected)
	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", s.handleListPosts)
		r.With(s.authMiddleware).Post("/", s.handleCreatePost)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPost)
			r.With(s.authMiddleware).Put("/", s.handleUpdatePost)
			r.With(s.authMiddleware).Delete("/", s.handleDeletePost)
		})
	})

	// File endpoints (reads open, upload/delete protected)
	r.Route("/api/files", func(r chi.Router) {
		r.Get("/", s.handleListFiles)
		r.With(s.authMiddleware).Post("/upload", s.handleUploadFile)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetFile)
			r.Get("/download", s.handleDownloadFile)
			r.With(s.authMiddleware).Delete("/", s.handleDeleteFile)
		})
	})

	// WebSocket (auth in-band via authenticate message)
	r.Get("/ws", s.handleWebSocket)

	return r
}
