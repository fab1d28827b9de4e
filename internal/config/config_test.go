package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "123")
	t.Setenv("TEST_BAD_INT", "abc")
	t.Setenv("TEST_BOOL_TRUE", "yes")
	t.Setenv("TEST_BOOL_FALSE", "0")

	if v := getEnv("TEST_STR", ""); v != "value" {
		t.Fatalf("expected value, got %s", v)
	}
	if v := getEnvAsInt("TEST_INT", 0); v != 123 {
		t.Fatalf("expected 123, got %d", v)
	}
	if v := getEnvAsInt("TEST_BAD_INT", 7); v != 7 {
		t.Fatalf("expected default 7 for bad int, got %d", v)
	}
	if !getEnvAsBool("TEST_BOOL_TRUE", false) {
		t.Fatalf("expected true")
	}
	if getEnvAsBool("TEST_BOOL_FALSE", true) {
		t.Fatalf("expected false")
	}
	if !getEnvAsBool("TEST_BOOL_MISSING", true) {
		t.Fatalf("expected default for missing bool")
	}
}

func TestLoadDefaults(t *testing.T) {
	// ensure no interfering env vars
	_ = os.Unsetenv("SERVER_PORT")
	_ = os.Unsetenv("VALUATION_METHOD")
	_ = os.Unsetenv("RATE_LIMIT_TRUST_PROXY")
	cfg := Load()
	if cfg.Server.Port == "" {
		t.Fatalf("expected default server port set")
	}
	if cfg.Valuation.Method != "linear" {
		t.Fatalf("expected linear method by default, got %q", cfg.Valuation.Method)
	}
	if cfg.Valuation.CacheTTLMinutes == 0 {
		t.Fatalf("expected valuation defaults set")
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topics.Valuations == "" {
		t.Fatalf("expected kafka defaults set")
	}
	if cfg.RateLimit.TrustProxyHeaders {
		t.Fatalf("proxy headers must not be trusted by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VALUATION_METHOD", "compound")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_TRUST_PROXY", "yes")

	cfg := Load()
	if cfg.Valuation.Method != "compound" {
		t.Fatalf("expected compound, got %q", cfg.Valuation.Method)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", cfg.Kafka.Brokers)
	}
	if !cfg.RateLimit.Enabled {
		t.Fatalf("expected rate limit enabled")
	}
	if !cfg.RateLimit.TrustProxyHeaders {
		t.Fatalf("expected proxy headers trusted")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VALUATION_CACHE_TTL_MINUTES=5\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Cleanup(func() { _ = os.Unsetenv("VALUATION_CACHE_TTL_MINUTES") })

	cfg := Load()
	if cfg.Valuation.CacheTTLMinutes != 5 {
		t.Fatalf("expected ttl from .env, got %d", cfg.Valuation.CacheTTLMinutes)
	}
}
