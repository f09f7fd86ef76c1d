package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GOSSL_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("GOSSL_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("GOSSL_PORT"); v > 0 {
		cfg.Port = v
	}
	if envBool("GOSSL_NO_DNS") {
		cfg.AddressOnly = true
	}
	if v := envInt("GOSSL_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}

	// TLS
	if v := os.Getenv("GOSSL_CA_FILE"); v != "" {
		cfg.CAFile = v
	}
	if envBool("GOSSL_INSECURE") {
		cfg.Insecure = true
	}
	if v := envInt("GOSSL_CACHE_SIZE"); v > 0 {
		cfg.CacheSize = v
	}
	if v := os.Getenv("GOSSL_TLS_MIN"); v != "" {
		cfg.MinTLS = v
	}
	if v := envInt("GOSSL_BUFFER_SIZE"); v > 0 {
		cfg.BufferSize = v
	}

	// SSH tunnel
	if v := os.Getenv("GOSSL_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("GOSSL_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("GOSSL_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("GOSSL_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("GOSSL_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("GOSSL_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Behaviour
	if v := envInt("GOSSL_RETRY"); v > 0 {
		cfg.RetryAttempts = v
	}

	// Output
	if v := envInt("GOSSL_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("GOSSL_METRICS") {
		cfg.ShowMetrics = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}
