package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"vidlingo/auth"
	"vidlingo/config"
	"vidlingo/middleware"
	"vidlingo/pipeline"
	"vidlingo/services/deck"
	"vidlingo/services/subtitles"
	"vidlingo/services/tasks"
	"vidlingo/services/videos"
	"vidlingo/storage"
	"vidlingo/validation"
)

// streamPrefixes are routes carrying long-lived streaming responses; the
// request timeout middleware skips them.
var streamPrefixes = []string{"/stream/", "/video", "/videos/"}

type Server struct {
	media     *MediaHandler
	deck      *DeckHandler
	videos    *VideosHandler
	tasks     *TasksHandler
	pipeline  *PipelineHandler
	settings  *SettingsHandler
	auth      *AuthHandler
	config    *config.Config
	logger    *logrus.Logger
	server    *http.Server
	startTime time.Time
}

type ServerOption func(*Server)

// NewServer creates a new API server with the provided services and options
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	s := &Server{
		config:    cfg,
		logger:    logrus.StandardLogger(),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Services bundles everything the handlers need. Backup is nil when remote
// deck backups are disabled.
type Services struct {
	Deck      deck.Service
	Videos    videos.Service
	Subtitles subtitles.Service
	Tasks     tasks.Store
	Bridge    *pipeline.Bridge
	Auth      *auth.Client
	Backup    *storage.SpacesClient
}

// WithServices sets up the handlers with the provided services
func WithServices(svcs Services) ServerOption {
	return func(s *Server) {
		validator := validation.NewValidator(s.config)
		baseURL := "http://127.0.0.1:" + s.config.ServerPort

		s.media = NewMediaHandler(s.config)
		s.deck = NewDeckHandler(svcs.Deck, validator, svcs.Backup)
		s.videos = NewVideosHandler(svcs.Videos, svcs.Subtitles, baseURL)
		s.tasks = NewTasksHandler(svcs.Tasks)
		s.pipeline = NewPipelineHandler(svcs.Bridge, svcs.Videos, validator, s.logger, s.config.Pipeline.ProcessTimeout)
		s.settings = NewSettingsHandler(s.config)
		s.auth = NewAuthHandler(svcs.Auth)
	}
}

// WithLogger sets a custom logger for the server
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("port", s.config.ServerPort).Info("Starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// routes sets up all the routes for the API
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Streaming endpoints sit outside the versioned API; the player loads
	// them directly.
	mux.HandleFunc("GET /stream/video/{name}", s.media.HandleStream)
	mux.HandleFunc("HEAD /stream/video/{name}", s.media.HandleStream)
	mux.HandleFunc("GET /video", s.media.HandleVideoByPath)
	mux.HandleFunc("GET /videos/{name}", s.media.HandlePublic)

	s.addV1Routes(mux)

	mux.HandleFunc("GET /health", s.handleHealth)

	return s.middleware(mux)
}

// addV1Routes adds all the v1 API routes
func (s *Server) addV1Routes(mux *http.ServeMux) {
	const v1Prefix = "/api/v1"

	// Deck endpoints
	mux.HandleFunc("GET "+v1Prefix+"/deck", s.deck.HandleState)
	mux.HandleFunc("GET "+v1Prefix+"/deck/cards", s.deck.HandleCards)
	mux.HandleFunc("GET "+v1Prefix+"/deck/current", s.deck.HandleCurrent)
	mux.HandleFunc("POST "+v1Prefix+"/deck/answer", s.deck.HandleAnswer)
	mux.HandleFunc("POST "+v1Prefix+"/deck/restart", s.deck.HandleRestart)
	mux.HandleFunc("POST "+v1Prefix+"/deck/cards", s.deck.HandleAdd)
	mux.HandleFunc("DELETE "+v1Prefix+"/deck/cards/{id}", s.deck.HandleRemove)
	mux.HandleFunc("POST "+v1Prefix+"/deck/import/vocab", s.deck.HandleImportVocab)
	mux.HandleFunc("POST "+v1Prefix+"/deck/import/backup", s.deck.HandleImportBackup)
	mux.HandleFunc("GET "+v1Prefix+"/deck/export", s.deck.HandleExport)
	mux.HandleFunc("POST "+v1Prefix+"/deck/backup/{name}", s.deck.HandleRemoteBackup)
	mux.HandleFunc("POST "+v1Prefix+"/deck/restore/{name}", s.deck.HandleRemoteRestore)
	mux.HandleFunc("POST "+v1Prefix+"/deck/clear", s.deck.HandleClear)

	// Video library endpoints
	mux.HandleFunc("GET "+v1Prefix+"/library", s.videos.HandleList)
	mux.HandleFunc("GET "+v1Prefix+"/library/{id}", s.videos.HandleGet)
	mux.HandleFunc("POST "+v1Prefix+"/library/import", s.videos.HandleImport)
	mux.HandleFunc("POST "+v1Prefix+"/library", s.videos.HandleAdd)
	mux.HandleFunc("PATCH "+v1Prefix+"/library/{id}", s.videos.HandleUpdate)
	mux.HandleFunc("DELETE "+v1Prefix+"/library/{id}", s.videos.HandleRemove)
	mux.HandleFunc("GET "+v1Prefix+"/library/{id}/subtitles", s.videos.HandleSubtitles)
	mux.HandleFunc("PUT "+v1Prefix+"/library/{id}/subtitles", s.videos.HandleSetSubtitles)

	// Task endpoints
	mux.HandleFunc("GET "+v1Prefix+"/tasks", s.tasks.HandleList)
	mux.HandleFunc("GET "+v1Prefix+"/tasks/{id}", s.tasks.HandleGet)
	mux.HandleFunc("POST "+v1Prefix+"/tasks/{id}/cancel", s.tasks.HandleCancel)

	// Processing endpoints
	mux.HandleFunc("GET "+v1Prefix+"/pipeline/status", s.pipeline.HandleStatus)
	mux.HandleFunc("POST "+v1Prefix+"/pipeline/extract", s.pipeline.HandleExtract)
	mux.HandleFunc("POST "+v1Prefix+"/pipeline/label", s.pipeline.HandleLabel)
	mux.HandleFunc("POST "+v1Prefix+"/pipeline/translate", s.pipeline.HandleTranslate)
	mux.HandleFunc("POST "+v1Prefix+"/pipeline/embed", s.pipeline.HandleEmbed)

	// Settings endpoints
	mux.HandleFunc("GET "+v1Prefix+"/settings", s.settings.HandleGet)
	mux.HandleFunc("PUT "+v1Prefix+"/settings", s.settings.HandlePut)

	// Account endpoints
	mux.HandleFunc("POST "+v1Prefix+"/auth/login", s.auth.HandleLogin)
	mux.HandleFunc("POST "+v1Prefix+"/auth/register", s.auth.HandleRegister)
	mux.HandleFunc("POST "+v1Prefix+"/auth/password-reset", s.auth.HandlePasswordReset)
	mux.HandleFunc("POST "+v1Prefix+"/auth/logout", s.auth.HandleLogout)
}

// middleware sets up the middleware chain
func (s *Server) middleware(handler http.Handler) http.Handler {
	var rateLimiter middleware.RateLimiter
	if s.config.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(
			s.config.RateLimit.RequestsPerMinute,
			s.config.RateLimit.BurstSize,
		)
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.CORS(s.config.CORS),
		middleware.Timeout(s.config.RequestTimeout, streamPrefixes...),
	}

	if rateLimiter != nil {
		middlewares = append(middlewares, rateLimiter.Middleware)
	}

	return middleware.Chain(handler, middlewares...)
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"uptime":    time.Since(s.startTime).String(),
	}

	if s.config.Debug {
		status["debug"] = true
		status["goroutines"] = runtime.NumGoroutine()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status["memory"] = map[string]interface{}{
			"allocated": m.Alloc,
			"total":     m.TotalAlloc,
			"system":    m.Sys,
			"gc_cycles": m.NumGC,
		}
	}

	respondJSON(w, r, http.StatusOK, status)
}
