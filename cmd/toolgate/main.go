// ABOUTME: Entry point for the toolgate authorization gateway
// ABOUTME: Gates tool calls behind an out-of-band authorization handshake

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _              _            _
 | |_ ___   ___ | | __ _  __ _| |_ ___
 | __/ _ \ / _ \| |/ _' |/ _' | __/ _ \
 | || (_) | (_) | | (_| | (_| | ||  __/
  \__\___/ \___/|_|\__, |\__,_|\__\___|
                   |___/
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: toolgate <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve          Start the authorization gateway")
		fmt.Println("  health         Check gateway health")
		fmt.Println("  hash-password  Generate a bcrypt hash for a seed principal")
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
	case "hash-password":
		err = runHashPassword()
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

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:   %s\n", cfg.Server.Addr())
	green.Print("    ▶ ")
	fmt.Printf("Codes:  valid %s\n", cfg.Auth.UserCodeTTL)
	green.Print("    ▶ ")
	fmt.Printf("Tokens: valid %s\n", cfg.Auth.TokenTTL)

	if cfg.InsecureSecret() {
		yellow := color.New(color.FgYellow)
		yellow.Println("    ⚠ signing secret is the built-in development placeholder; set JWT_PRIVATE_KEY before production use")
		logger.Warn("insecure default signing secret in use")
	}

	fmt.Println()

	logger.Info("starting toolgate",
		"http_addr", cfg.Server.Addr(),
		"token_ttl", cfg.Auth.TokenTTL,
		"user_code_ttl", cfg.Auth.UserCodeTTL,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("TOOLGATE_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://localhost%s/health", cfg.Server.Addr())
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

// runHashPassword reads a password from stdin and prints its bcrypt
// hash, for use as password_hash in the principals config.
func runHashPassword() error {
	fmt.Print("Password: ")

	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Println(string(hash))
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
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
