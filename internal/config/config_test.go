// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers defaults, YAML loading, env var expansion, and environment overrides

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("expected default token TTL 1h, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.UserCodeTTL != 10*time.Minute {
		t.Errorf("expected default user code TTL 10m, got %v", cfg.Auth.UserCodeTTL)
	}
	if cfg.Auth.JWTSecret != DefaultJWTSecret {
		t.Errorf("expected default secret, got %q", cfg.Auth.JWTSecret)
	}
	if !cfg.InsecureSecret() {
		t.Error("default secret should be flagged insecure")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 8080

auth:
  jwt_secret: "file-secret-value"
  token_ttl: "30m"
  user_code_ttl: "5m"
  principals:
    - username: alice
      password: "wonderland"

aggregate:
  port: 9090
  database_path: "./products.db"
  api_keys: "svc:abc123"

logging:
  level: "debug"
  format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "file-secret-value" {
		t.Errorf("unexpected jwt secret: %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("expected token TTL 30m, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.UserCodeTTL != 5*time.Minute {
		t.Errorf("expected user code TTL 5m, got %v", cfg.Auth.UserCodeTTL)
	}
	if len(cfg.Auth.Principals) != 1 || cfg.Auth.Principals[0].Username != "alice" {
		t.Errorf("unexpected principals: %+v", cfg.Auth.Principals)
	}
	if cfg.Aggregate.Port != 9090 {
		t.Errorf("expected aggregate port 9090, got %d", cfg.Aggregate.Port)
	}
	if cfg.InsecureSecret() {
		t.Error("configured secret should not be flagged insecure")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TOOLGATE_TEST_SECRET", "expanded-secret")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
auth:
  jwt_secret: "${TOOLGATE_TEST_SECRET}"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.JWTSecret != "expanded-secret" {
		t.Errorf("expected expanded secret, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "4444")
	t.Setenv("TOKEN_TTL_SEC", "120")
	t.Setenv("JWT_PRIVATE_KEY", "env-secret")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 8080
auth:
  jwt_secret: "file-secret"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 4444 {
		t.Errorf("env PORT should win, got %d", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 2*time.Minute {
		t.Errorf("env TOKEN_TTL_SEC should win, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("env JWT_PRIVATE_KEY should win, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("PORT", "3123")
	t.Setenv("USER_CODE_TTL_SEC", "300")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 3123 {
		t.Errorf("expected port 3123, got %d", cfg.Server.Port)
	}
	if cfg.Auth.UserCodeTTL != 5*time.Minute {
		t.Errorf("expected user code TTL 5m, got %v", cfg.Auth.UserCodeTTL)
	}
}

func TestLoad_InvalidPortEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for invalid PORT")
	}
	if !strings.Contains(err.Error(), "PORT") {
		t.Errorf("error should mention PORT: %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
auth:
  token_ttl: "soon"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_PrincipalWithoutCredential(t *testing.T) {
	cfg := Default()
	cfg.Auth.Principals = []SeedPrincipal{{Username: "alice"}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for principal without credential")
	}
}
