// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("IDENTITY_SALT", "test-identity")
	t.Setenv("SHARE_TOKEN_SALT", "test-share")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("VOTE_TIMEOUT", "250ms")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.VoteTimeout != 250*time.Millisecond {
		t.Errorf("expected 250ms vote timeout, got %v", cfg.VoteTimeout)
	}
	if cfg.Retention != 30*24*time.Hour {
		t.Errorf("expected 30 day retention, got %v", cfg.Retention)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-admin-salt", "s1", "-identity-salt", "s2", "-share-salt", "s3", "-vote-timeout", "1s"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %s", cfg.DatabaseType)
	}
	if cfg.VoteTimeout != time.Second {
		t.Errorf("expected 1s, got %v", cfg.VoteTimeout)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("ADMIN_KEY_SALT", "")
	t.Setenv("IDENTITY_SALT", "")
	t.Setenv("SHARE_TOKEN_SALT", "")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when secrets are missing")
	}
}

func TestParseFlags_MemoryNeedsNoURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	cfg, err := ParseFlags([]string{"-t", "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseType != "memory" {
		t.Errorf("expected memory, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_UnknownDatabaseType(t *testing.T) {
	setRequiredEnv(t)

	if _, err := ParseFlags([]string{"-t", "mongo", "-d", "x"}); err == nil {
		t.Error("expected error for unknown database type")
	}
}

func TestParseFlags_DotEnv(t *testing.T) {
	dir := t.TempDir()
	env := "DATABASE_URL=file:dotenv.db\nADMIN_KEY_SALT=a\nIDENTITY_SALT=b\nSHARE_TOKEN_SALT=c\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	// godotenv never overrides existing variables, so clear them first
	for _, k := range []string{"DATABASE_URL", "ADMIN_KEY_SALT", "IDENTITY_SALT", "SHARE_TOKEN_SALT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURL != "file:dotenv.db" {
		t.Errorf("expected DATABASE_URL from .env, got %q", cfg.DatabaseURL)
	}
}

func TestParseFlags_RateLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_TYPE", "memory")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RateLimitMax != 100 || cfg.RateLimitWindow != 15*time.Minute {
		t.Errorf("expected 100 per 15m default, got %d per %v", cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	t.Setenv("RATE_LIMIT_MAX", "20")
	cfg, err = ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RateLimitMax != 20 {
		t.Errorf("expected 20 from env, got %d", cfg.RateLimitMax)
	}

	// explicit zero disables limiting even when env sets a value
	cfg, err = ParseFlags([]string{"-rate-limit", "0"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RateLimitMax != 0 {
		t.Errorf("expected 0 from flag, got %d", cfg.RateLimitMax)
	}

	t.Setenv("RATE_LIMIT_MAX", "lots")
	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error for invalid RATE_LIMIT_MAX")
	}
}

func TestParseFlags_RejectsBadDurations(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"negative rate window flag", []string{"-rate-window", "-1m"}, nil},
		{"window too short to limit", nil, map[string]string{"RATE_LIMIT_WINDOW": "50ns"}},
		{"zero rate window env", nil, map[string]string{"RATE_LIMIT_WINDOW": "0s"}},
		{"negative vote timeout env", nil, map[string]string{"VOTE_TIMEOUT": "-5s"}},
		{"negative sweep interval flag", []string{"-sweep-interval", "-1h"}, nil},
		{"negative retention env", nil, map[string]string{"POLL_RETENTION": "-24h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("DATABASE_TYPE", "memory")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseFlags_ShortWindowWithoutLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_TYPE", "memory")
	t.Setenv("RATE_LIMIT_WINDOW", "50ms")

	cfg, err := ParseFlags([]string{"-rate-limit", "0"})
	if err != nil {
		t.Fatalf("limiting is off, window should not matter: %v", err)
	}
	if cfg.RateLimitWindow != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", cfg.RateLimitWindow)
	}
}
