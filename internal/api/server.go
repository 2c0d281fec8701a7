package api

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"codepad/internal/billing"
	"codepad/internal/config"
	"codepad/internal/history"
	"codepad/internal/identity"
	"codepad/internal/language"
	"codepad/internal/monitor"
	"codepad/internal/session"
	"codepad/internal/storage"
)

// Server is the HTTP server for the editor API.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	cfg        *config.Config
	startTime  time.Time
}

// NewServer creates and configures the HTTP server with all routes and middleware.
func NewServer(cfg *config.Config, registry *language.Registry, exec session.Executor, db *storage.DB, hist *history.Writer, webhooks *billing.Processor, metrics *monitor.Metrics) *Server {
	defaults := session.Defaults{
		Language: cfg.Editor.DefaultLanguage,
		Theme:    cfg.Editor.DefaultTheme,
		FontSize: cfg.Editor.DefaultFontSize,
	}
	sessions := NewSessionManager(registry, exec, defaults, metrics)

	var reader HistoryReader
	if db != nil {
		reader = db
	}
	handlers := NewHandlers(registry, sessions, hist, reader, webhooks, metrics)

	s := &Server{
		handlers:  handlers,
		cfg:       cfg,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", handlers.HandleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", handlers.HandleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", handlers.HandleDeleteSession)
	mux.HandleFunc("PUT /sessions/{id}/buffer", handlers.HandleUpdateBuffer)
	mux.HandleFunc("POST /sessions/{id}/run", handlers.HandleRun)
	mux.HandleFunc("POST /sessions/{id}/language", handlers.HandleSetLanguage)
	mux.HandleFunc("POST /sessions/{id}/theme", handlers.HandleSetTheme)
	mux.HandleFunc("POST /sessions/{id}/fontsize", handlers.HandleSetFontSize)
	mux.HandleFunc("GET /languages", handlers.HandleListLanguages)
	mux.HandleFunc("GET /executions", handlers.HandleListExecutions)
	mux.HandleFunc("GET /executions/{id}", handlers.HandleGetExecution)
	mux.HandleFunc("POST /webhooks/billing", handlers.HandleBillingWebhook)
	mux.HandleFunc("GET /health", s.handleHealth(db))
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}

	// Apply middleware chain (outermost first)
	var handler http.Handler = mux
	handler = IdentityMiddleware(identity.TokenMap(cfg.Security.Tokens))(handler)
	handler = MetricsMiddleware(metrics)(handler)
	handler = RateLimitMiddleware(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)(handler)
	handler = MaxBodyMiddleware(cfg.Server.MaxRequestBody)(handler)
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins listening for requests. Uses TLS if configured.
func (s *Server) Start() error {
	if s.cfg.TLS.Enabled {
		log.Info().
			Str("addr", s.httpServer.Addr).
			Str("cert", s.cfg.TLS.CertFile).
			Msg("starting HTTPS server with TLS")

		s.httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		return s.httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	}

	log.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbOK := db == nil || db.Healthy(r.Context())

		resp := HealthResponse{
			Status:   "ok",
			Database: dbOK,
			Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		}

		if !dbOK {
			resp.Status = "degraded"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, resp)
	}
}
