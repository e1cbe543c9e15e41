// Package api provides the REST and WebSocket sync server for quad.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/quadjournal/quad/internal/events"
	"github.com/quadjournal/quad/internal/journal"
	"github.com/quadjournal/quad/internal/reminder"
	"github.com/quadjournal/quad/internal/settings"
	"github.com/quadjournal/quad/internal/store"
)

// Server is the quad sync server. Every window (CLI, TUI, external UIs)
// talks to the same store through it and hears about changes over /ws.
type Server struct {
	addr   string
	mux    *http.ServeMux
	logger *slog.Logger

	store    *store.Store
	journal  *journal.Store
	settings *settings.Manager
	engine   *reminder.Engine

	publisher events.Publisher
	wsHandler *WSHandler

	now func() time.Time
}

// Config holds server configuration.
type Config struct {
	Addr     string
	Logger   *slog.Logger
	Store    *store.Store
	Journal  *journal.Store
	Settings *settings.Manager
	Engine   *reminder.Engine
	Events   events.Publisher
}

// New creates a new sync server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pub := cfg.Events
	if pub == nil {
		pub = events.NewNopPublisher()
	}

	s := &Server{
		addr:      cfg.Addr,
		mux:       http.NewServeMux(),
		logger:    logger,
		store:     cfg.Store,
		journal:   cfg.Journal,
		settings:  cfg.Settings,
		engine:    cfg.Engine,
		publisher: pub,
		now:       time.Now,
	}
	s.wsHandler = NewWSHandler(pub, s, logger)
	s.registerRoutes()
	return s
}

// Handler returns the server's root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	cors := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			h(w, r)
		}
	}

	// Health check
	s.mux.HandleFunc("GET /api/health", cors(s.handleHealth))

	// Tasks
	s.mux.HandleFunc("GET /api/tasks", cors(s.handleListTasks))
	s.mux.HandleFunc("POST /api/tasks", cors(s.handleCreateTask))
	s.mux.HandleFunc("GET /api/tasks/{id}", cors(s.handleGetTask))
	s.mux.HandleFunc("PATCH /api/tasks/{id}", cors(s.handleUpdateTask))
	s.mux.HandleFunc("DELETE /api/tasks/{id}", cors(s.handleDeleteTask))
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", cors(s.handleToggleTask))
	s.mux.HandleFunc("POST /api/tasks/{id}/move", cors(s.handleMoveTask))
	s.mux.HandleFunc("POST /api/tasks/clean-completed", cors(s.handleCleanCompleted))

	// Reminders
	s.mux.HandleFunc("GET /api/reminders/badges", cors(s.handleBadges))
	s.mux.HandleFunc("GET /api/reminders/countdown", cors(s.handleCountdown))
	s.mux.HandleFunc("POST /api/reminders/check-now", cors(s.handleCheckNow))

	// Import / export / backups
	s.mux.HandleFunc("POST /api/import", cors(s.handleImport))
	s.mux.HandleFunc("GET /api/export", cors(s.handleExport))
	s.mux.HandleFunc("GET /api/backups", cors(s.handleListBackups))
	s.mux.HandleFunc("POST /api/backups/reset", cors(s.handleReset))
	s.mux.HandleFunc("POST /api/backups/{key}/restore", cors(s.handleRestore))

	// Journal entries
	s.mux.HandleFunc("GET /api/entries", cors(s.handleListEntries))
	s.mux.HandleFunc("POST /api/entries", cors(s.handleCreateEntry))
	s.mux.HandleFunc("GET /api/entries/{id}", cors(s.handleGetEntry))
	s.mux.HandleFunc("PATCH /api/entries/{id}", cors(s.handleUpdateEntry))
	s.mux.HandleFunc("DELETE /api/entries/{id}", cors(s.handleDeleteEntry))

	// Settings
	s.mux.HandleFunc("GET /api/settings/quadrant", cors(s.handleGetQuadrantSettings))
	s.mux.HandleFunc("PUT /api/settings/quadrant", cors(s.handlePutQuadrantSettings))
	s.mux.HandleFunc("GET /api/settings/app", cors(s.handleGetAppSettings))
	s.mux.HandleFunc("PUT /api/settings/app", cors(s.handlePutAppSettings))

	// WebSocket event stream
	s.mux.Handle("/ws", s.wsHandler)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, map[string]any{
		"status": "ok",
		"tasks":  s.store.TaskCount(),
	})
}

// Start starts the sync server.
func (s *Server) Start() error {
	s.logger.Info("starting sync server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// StartContext starts the sync server with context for graceful shutdown.
func (s *Server) StartContext(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		s.wsHandler.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting sync server", "addr", s.addr)
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
