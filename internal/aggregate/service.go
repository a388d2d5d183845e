// ABOUTME: Read-only aggregate SQL passthrough guarded by static API keys
// ABOUTME: Provides POST /aggregate executing parameterized SELECT statements

package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// shutdownTimeout bounds how long in-flight queries may run during shutdown.
const shutdownTimeout = 10 * time.Second

// QueryStore runs parameterized read queries against the product database.
type QueryStore interface {
	Query(ctx context.Context, query string, params []any) ([]map[string]any, error)
}

// Service is the aggregate query endpoint: a thin, API-key-guarded
// passthrough to parameterized SELECT statements.
type Service struct {
	addr   string
	store  QueryStore
	keys   map[string]string // api key -> user
	logger *slog.Logger

	httpServer *http.Server
}

// New creates a Service listening on addr, authorizing against the
// given key-to-user map.
func New(addr string, store QueryStore, keys map[string]string, logger *slog.Logger) *Service {
	return &Service{
		addr:   addr,
		store:  store,
		keys:   keys,
		logger: logger.With("component", "aggregate"),
	}
}

// AggregateRequest is the JSON request body for POST /aggregate.
type AggregateRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// AggregateResponse is the JSON response for a successful query.
type AggregateResponse struct {
	Rows []map[string]any `json:"rows"`
}

// routes builds the HTTP mux for the service.
func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/aggregate", s.handleAggregate)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the server fails.
func (s *Service) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case serverErr = <-errCh:
		s.logger.Error("HTTP server failed", "error", serverErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		if serverErr == nil {
			serverErr = fmt.Errorf("shutting down HTTP server: %w", err)
		}
	}

	return serverErr
}

// handleHealth responds to liveness probes.
func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAggregate authorizes the caller, enforces the SELECT-only
// policy, and executes the parameterized query.
func (s *Service) handleAggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := s.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.SQL) == "" {
		writeError(w, http.StatusBadRequest, "sql required")
		return
	}

	if !isSelect(req.SQL) {
		s.logger.Warn("non-SELECT statement rejected", "user", user)
		writeError(w, http.StatusForbidden, "only SELECT statements are allowed")
		return
	}

	rows, err := s.store.Query(r.Context(), req.SQL, req.Params)
	if err != nil {
		s.logger.Error("query failed", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if rows == nil {
		rows = []map[string]any{}
	}

	s.logger.Info("query executed", "user", user, "rows", len(rows))
	writeJSON(w, http.StatusOK, AggregateResponse{Rows: rows})
}

// authorize resolves the bearer API key to a user.
func (s *Service) authorize(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	key := strings.TrimPrefix(header, "Bearer ")
	user, ok := s.keys[key]
	return user, ok
}

// isSelect reports whether the statement begins with SELECT, ignoring
// leading whitespace and case.
func isSelect(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	return len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "SELECT")
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with a message field.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
