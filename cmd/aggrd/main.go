// ABOUTME: Entry point for aggrd, the read-only aggregate query service
// ABOUTME: Serves parameterized SELECT queries against the product database

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/toolgate/internal/aggregate"
	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: aggrd <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the aggregate query service")
		fmt.Println("  health  Check service health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("TOOLGATE_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	keys, err := aggregate.ParseAPIKeys(cfg.Aggregate.APIKeys)
	if err != nil {
		return fmt.Errorf("parsing api keys: %w", err)
	}

	db, err := store.NewProductStore(cfg.Aggregate.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening product store: %w", err)
	}
	defer db.Close()

	gray := color.New(color.FgHiBlack)
	gray.Printf("aggrd %s\n", version)

	green := color.New(color.FgGreen)
	green.Print("  ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Aggregate.Addr())
	green.Print("  ▶ ")
	fmt.Printf("Database: %s\n", cfg.Aggregate.DatabasePath)

	if len(keys) == 0 {
		yellow := color.New(color.FgYellow)
		yellow.Println("  ⚠ no API keys configured; all requests will be rejected (set AGGREGATE_API_KEYS)")
		logger.Warn("no API keys configured")
	}

	fmt.Println()

	logger.Info("starting aggrd",
		"http_addr", cfg.Aggregate.Addr(),
		"database", cfg.Aggregate.DatabasePath,
		"api_keys", len(keys),
	)

	svc := aggregate.New(cfg.Aggregate.Addr(), db, keys, logger)
	return svc.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("TOOLGATE_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://localhost%s/health", cfg.Aggregate.Addr())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
