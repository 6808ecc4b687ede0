package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/driftlabs/driftline/internal/auth"
	"github.com/driftlabs/driftline/internal/files"
	"github.com/driftlabs/driftline/internal/infrastructure/config"
	"github.com/driftlabs/driftline/internal/infrastructure/database"
	"github.com/driftlabs/driftline/internal/infrastructure/logging"
	"github.com/driftlabs/driftline/internal/posts"
	"github.com/driftlabs/driftline/internal/ratelimit"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// tokenSweepInterval is how often expired refresh tokens are purged.
const tokenSweepInterval = time.Hour

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	DB      *database.DB
	Users   auth.UserRepository
	Tokens  auth.TokenRepository
	Posts   posts.Repository
	Files   files.Repository
	Storage *files.Storage
	Version string
}

// Server is the HTTP API and WebSocket server for Driftline.
//
// It manages the HTTP listener, routes, middleware, the rate limiter,
// and the WebSocket hub. The server is created with New() and started
// with Start().
type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	db        *database.DB
	users     auth.UserRepository
	tokens    auth.TokenRepository
	posts     posts.Repository
	files     files.Repository
	storage   *files.Storage
	jwtSecret string
	debug     bool
	version   string
	startedAt time.Time
	server    *http.Server
	hub       *Hub
	limiter   *ratelimit.Limiter
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("auth repositories are required")
	}
	if deps.Posts == nil || deps.Files == nil || deps.Storage == nil {
		return nil, fmt.Errorf("content repositories are required")
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		db:        deps.DB,
		users:     deps.Users,
		tokens:    deps.Tokens,
		posts:     deps.Posts,
		files:     deps.Files,
		storage:   deps.Storage,
		jwtSecret: deps.Config.Security.JWT.Secret,
		debug:     deps.Config.Server.Debug,
		version:   deps.Version,
	}

	if deps.Config.Security.RateLimit.Enabled {
		s.limiter = ratelimit.New(deps.Config.Security.RateLimit.RequestsPerMinute, time.Minute)
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, the rate limiter sweep loop, the expired
// token sweep loop, and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.startedAt = time.Now()

	s.hub = NewHub(s.cfg.WebSocket, s.logger)
	go s.hub.Run(srvCtx)

	if s.limiter != nil {
		go s.sweepLimiterLoop(srvCtx)
	}
	go s.sweepTokensLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, sweep loops)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// sweepLimiterLoop periodically drops expired rate limiter windows so
// the address map does not grow without bound.
func (s *Server) sweepLimiterLoop(ctx context.Context) {
	ticker := time.NewTicker(s.limiter.Window())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.limiter.Sweep(time.Now()); removed > 0 {
				s.logger.Debug("rate limiter sweep", "removed", removed)
			}
		}
	}
}

// sweepTokensLoop periodically deletes expired refresh tokens.
func (s *Server) sweepTokensLoop(ctx context.Context) {
	ticker := time.NewTicker(tokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.tokens.DeleteExpired(ctx)
			if err != nil {
				s.logger.Warn("expired token sweep failed", "error", err)
				continue
			}
			if count > 0 {
				s.logger.Info("expired refresh tokens deleted", "count", count)
			}
		}
	}
}
