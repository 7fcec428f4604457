package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Razorpay.Currency != "INR" || cfg.Razorpay.Timeout != 10*time.Second {
		t.Fatalf("unexpected razorpay defaults: %+v", cfg.Razorpay)
	}
	if cfg.Notify.MaxAttempts != 5 {
		t.Fatalf("unexpected notify defaults: %+v", cfg.Notify)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", cfg.Timeout)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for empty secrets")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  address: ":9090"
postgres:
  dbname: marketplace
razorpay:
  key_id: rzp_test_key
  timeout: 3s
auth:
  jwt_secret: from-file
  admin_user_ids: [1, 42]
timeout: 20s
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RAZORPAY_KEY_SECRET", "from-env")
	t.Setenv("AUTH_JWT_SECRET", "env-wins")

	cfg, err := load(viper.New(), dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Razorpay.KeySecret != "from-env" {
		t.Fatalf("expected secret from env, got %q", cfg.Razorpay.KeySecret)
	}
	if cfg.Auth.JWTSecret != "env-wins" {
		t.Fatalf("expected env to override file, got %q", cfg.Auth.JWTSecret)
	}
	if len(cfg.Auth.AdminUserIDs) != 2 || cfg.Auth.AdminUserIDs[1] != 42 {
		t.Fatalf("unexpected admin ids: %v", cfg.Auth.AdminUserIDs)
	}
	if cfg.Razorpay.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Razorpay.Timeout)
	}
	if cfg.Timeout != 20*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", cfg.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
