package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultPort is the standard HTTPS port.
	DefaultPort = 443

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultTimeout bounds transport open plus TLS handshake.  TLS
	// negotiations take seconds on slow links, so this stays generous.
	DefaultTimeout = 10 * time.Second

	// DefaultCacheSize is the session cache capacity.  Each slot
	// holds its full buffer permanently, so small numbers win.
	DefaultCacheSize = 2

	// DefaultRetryAttempts is how many connect attempts are made
	// before giving up (1 = no retry).
	DefaultRetryAttempts = 1

	// DefaultSSHConnTimeout is the SSH gateway dial timeout.
	DefaultSSHConnTimeout = 30 * time.Second
)

// ApplyDefaults fills unset fields.  Called after file, env, and flag
// loading so explicit zero values set by the user survive only where
// zero is meaningful.
func ApplyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
}
