// ABOUTME: Gateway wiring and HTTP server lifecycle for toolgate
// ABOUTME: Builds the auth components, mounts routes, and handles graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/toolgate/internal/auth"
	"github.com/2389/toolgate/internal/config"
)

// shutdownTimeout bounds how long in-flight requests may run during shutdown.
const shutdownTimeout = 10 * time.Second

// Gateway owns the three stores and the HTTP surface that mediates
// between tool calls and the out-of-band authorization handshake.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	creds   *auth.CredentialStore
	pending *auth.PendingRegistry
	tokens  *auth.TokenIssuer
	gate    *auth.Gate

	httpServer *http.Server
}

// New constructs a Gateway from configuration. The stores are created
// here and passed by reference to the handlers; nothing in the package
// reaches for ambient globals.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	creds, err := auth.NewCredentialStore(seedCredentials(cfg))
	if err != nil {
		return nil, fmt.Errorf("building credential store: %w", err)
	}

	pending := auth.NewPendingRegistry(cfg.Auth.UserCodeTTL)
	tokens := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	gate := auth.NewGate(tokens, pending, activateURI(cfg))

	return &Gateway{
		cfg:     cfg,
		logger:  logger.With("component", "gateway"),
		creds:   creds,
		pending: pending,
		tokens:  tokens,
		gate:    gate,
	}, nil
}

// seedCredentials maps configured principals to store seeds. With no
// principals configured, a development account is seeded so the
// handshake is usable out of the box.
func seedCredentials(cfg *config.Config) []auth.Credential {
	if len(cfg.Auth.Principals) == 0 {
		return []auth.Credential{
			{Username: "alice", Password: "wonderland"},
			{Username: "bob", Password: "builder"},
		}
	}

	seeds := make([]auth.Credential, len(cfg.Auth.Principals))
	for i, p := range cfg.Auth.Principals {
		seeds[i] = auth.Credential{
			Username:     p.Username,
			Password:     p.Password,
			PasswordHash: p.PasswordHash,
		}
	}
	return seeds
}

// activateURI builds the verification URI handed out in challenges.
func activateURI(cfg *config.Config) string {
	return fmt.Sprintf("http://localhost:%d/local-auth/activate", cfg.Server.Port)
}

// routes builds the HTTP mux for the gateway.
func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/local-auth/start", g.handleAuthStart)
	mux.HandleFunc("/local-auth/activate", g.handleActivate)
	mux.HandleFunc("/tool/dice", g.handleDiceTool)

	return requestLogging(g.logger, mux)
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the server fails, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	g.httpServer = &http.Server{
		Addr:    g.cfg.Server.Addr(),
		Handler: g.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("shutdown signal received")
	case serverErr = <-errCh:
		g.logger.Error("HTTP server failed", "error", serverErr)
	}

	shutdownErr := g.Shutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown stops the HTTP server and releases store resources. Uses a
// fresh context so shutdown proceeds even when Run's context is gone.
func (g *Gateway) Shutdown() error {
	defer g.pending.Close()

	if g.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	g.logger.Info("gateway stopped")
	return nil
}

// handleHealth responds to liveness probes.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
