// ABOUTME: Shared test helpers for gateway handler tests
// ABOUTME: Builds a fully wired Gateway against a quiet logger

package gateway

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/2389/toolgate/internal/config"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "gateway-test-secret-32-bytes!!!!"
	cfg.Auth.Principals = []config.SeedPrincipal{
		{Username: "alice", Password: "wonderland"},
	}
	return cfg
}

func newTestGateway(t *testing.T, cfg *config.Config) *Gateway {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := New(cfg, logger)
	require.NoError(t, err)

	t.Cleanup(func() { g.pending.Close() })

	return g
}

// authorizeSubject runs the handshake for a subject directly against
// the stores, leaving it with a valid token.
func authorizeSubject(t *testing.T, g *Gateway, subjectID string) {
	t.Helper()

	decision, err := g.gate.Authorize(subjectID)
	require.NoError(t, err)
	require.NotNil(t, decision.Challenge)

	_, err = g.pending.MarkVerified(decision.Challenge.UserCode)
	require.NoError(t, err)

	_, err = g.tokens.Issue(subjectID)
	require.NoError(t, err)
	require.True(t, g.tokens.Valid(subjectID))
}

// expiredCodeConfig returns a config whose user codes are already
// expired at creation, for exercising expiry paths over HTTP.
func expiredCodeConfig() *config.Config {
	cfg := testConfig()
	cfg.Auth.UserCodeTTL = -time.Minute
	return cfg
}
