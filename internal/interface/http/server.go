// Package http exposes the adherence engine over a JSON REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rehab-hub/rehab-adherence/internal/application/command"
	"github.com/rehab-hub/rehab-adherence/internal/application/query"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// AllowedOrigins - CORS origins; empty or "*" allows any.
	AllowedOrigins []string

	// TrustedProxies - proxies whose X-Forwarded-For is believed.
	TrustedProxies []string

	// Tracing - wrap every route in an OpenTelemetry span.
	Tracing     bool
	ServiceName string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
		AllowedOrigins: []string{"*"},
		ServiceName:    "rehab-adherence",
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Command Handlers (CQRS Write Side)
	CreateSchedule   *command.CreateScheduleHandler
	CompleteSchedule *command.CompleteScheduleHandler
	DeleteSchedule   *command.DeleteScheduleHandler
	RecordProgress   *command.RecordProgressHandler
	AmendProgress    *command.AmendProgressHandler

	// Query Handlers (CQRS Read Side)
	ListSchedules *query.ListSchedulesHandler
	GetSchedule   *query.GetScheduleHandler
	ListProgress  *query.ListProgressHandler
	GetSummary    *query.GetSummaryHandler
	Analytics     *query.AnalyticsHandler

	Auth *Authenticator

	// RateLimiter is optional.
	RateLimiter RateLimiter

	// Health is optional; nil reports healthy with no checks.
	Health *HealthChecker

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	engine     *gin.Engine
	httpServer *http.Server
	health     *HealthChecker
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		health: deps.Health,
		logger: deps.Logger,
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With(logger.Component("http"))
	if s.health == nil {
		s.health = NewHealthChecker("")
	}

	s.engine = gin.New()
	if err := s.engine.SetTrustedProxies(config.TrustedProxies); err != nil {
		s.logger.Warn("invalid trusted proxies, trusting none", logger.Err(err))
		_ = s.engine.SetTrustedProxies(nil)
	}
	s.buildMiddlewareChain()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.engine,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) buildMiddlewareChain() {
	if s.config.Tracing {
		s.engine.Use(otelgin.Middleware(s.config.ServiceName))
	}
	s.engine.Use(
		requestID(s.logger),
		requestLogger(s.logger),
		recovery(s.logger),
		corsMiddleware(s.config.AllowedOrigins),
	)
	if s.deps.RateLimiter != nil {
		s.engine.Use(rateLimit(s.deps.RateLimiter, s.logger))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/live", s.handleLive)

	api := s.engine.Group("/api", authenticate(s.deps.Auth))

	// ─────────────────────────────────────────────────────────────────────────
	// Schedules
	// ─────────────────────────────────────────────────────────────────────────
	schedules := api.Group("/schedules")
	schedules.GET("", s.handleListSchedules)
	schedules.POST("", s.handleCreateSchedule)
	schedules.GET("/:id", s.handleGetSchedule)
	schedules.PUT("/:id/complete", s.handleCompleteSchedule)
	schedules.DELETE("/:id", s.handleDeleteSchedule)

	// ─────────────────────────────────────────────────────────────────────────
	// Progress
	// ─────────────────────────────────────────────────────────────────────────
	prog := api.Group("/progress")
	prog.GET("", s.handleListProgress)
	prog.POST("", s.handleRecordProgress)
	prog.GET("/stats", s.handleProgressStats)
	prog.PUT("/:id", s.handleAmendProgress)

	// ─────────────────────────────────────────────────────────────────────────
	// Staff analytics
	// ─────────────────────────────────────────────────────────────────────────
	stats := api.Group("/stats", requireRoles(user.RoleExpert, user.RoleAdmin))
	stats.GET("/overview", s.handleOverview)
	stats.GET("/active-users", s.handleActiveUsers)
	stats.GET("/videos", s.handleTopVideos)
	stats.GET("/engagement", s.handleEngagement)
	stats.GET("/categories", s.handleCategories)
	stats.GET("/hospitals", requireRoles(user.RoleAdmin), s.handleHospitals)

	admin := api.Group("/admin", requireRoles(user.RoleExpert, user.RoleAdmin))
	admin.GET("/progress", s.handleListAllProgress)

	s.engine.NoRoute(func(c *gin.Context) {
		abortError(c, http.StatusNotFound, codeNotFound, "route not found")
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}
