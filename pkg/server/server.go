// pkg/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/pipeline"
)

// Executor runs one pipeline operation
type Executor interface {
	Execute(ctx context.Context, operation string) (*pipeline.RunSummary, error)
}

// Server triggers pipeline runs over HTTP, one at a time
type Server struct {
	exec   Executor
	logger *zap.Logger
	mu     sync.Mutex
}

// New creates a server for exec
func New(exec Executor, logger *zap.Logger) (*Server, error) {
	if exec == nil {
		return nil, errors.New("executor cannot be nil")
	}
	return &Server{exec: exec, logger: logger.Named("server")}, nil
}

// Router returns the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// GET / runs the full pipeline
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		s.handleRun(w, r, pipeline.OperationRun)
	})

	r.Post("/runs", func(w http.ResponseWriter, r *http.Request) {
		op := r.URL.Query().Get("operation")
		if op == "" {
			op = pipeline.OperationRun
		}
		s.handleRun(w, r, op)
	})

	return r
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, operation string) {
	switch operation {
	case pipeline.OperationRun, pipeline.OperationIngest, pipeline.OperationValidate:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown operation: " + operation})
		return
	}

	if !s.mu.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	defer s.mu.Unlock()

	requestID := middleware.GetReqID(r.Context())
	s.logger.Info("Triggered run",
		zap.String("operation", operation),
		zap.String("requestId", requestID))

	summary, err := s.exec.Execute(r.Context(), operation)
	if err != nil {
		s.logger.Error("Run failed",
			zap.String("operation", operation),
			zap.String("requestId", requestID),
			zap.Error(err))
		if summary == nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, summary)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("Server stopped")
	return nil
}
