package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/safexec/safexec/config"
	"github.com/safexec/safexec/executor"
	"github.com/safexec/safexec/outcome"
)

// Server is the HTTP front end for code execution
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	exec   executor.Service
	router chi.Router
	http   *http.Server
}

// New creates a new Server
func New(cfg *config.Config, logger *zap.Logger, exec executor.Service) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		exec:   exec,
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/run", s.handleRun)
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(indexHTML))
}

type runRequest struct {
	// Pointer so a missing or non-string field is distinguishable
	Code *string `json:"code"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	// Cap the body before buffering it. A JSON escape can spend up to six
	// bytes per character, so the cap leaves that much headroom above the
	// code length limit; oversized code within the cap is still rejected
	// by character count downstream.
	body := http.MaxBytesReader(w, r.Body, int64(s.cfg.Sandbox.MaxCodeChars)*6+1024)

	var req runRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil || req.Code == nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "code must be a string")
		return
	}

	result, err := s.exec.Execute(r.Context(), *req.Code)
	if err != nil {
		var verr *executor.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		s.logger.Error("unexpected execution error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch result.Kind {
	case outcome.KindSuccess:
		writeJSON(w, http.StatusOK, map[string]string{"output": result.Output})
	case outcome.KindProgramError:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"output": result.Output,
			"error":  result.Message,
		})
	case outcome.KindTimeout:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("execution timed out after %d seconds", result.TimeoutSeconds))
	default:
		writeError(w, http.StatusInternalServerError, result.Message)
	}
}

// Start begins listening on the configured port
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.HTTPPort)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
