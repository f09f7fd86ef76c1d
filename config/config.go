// Package config defines the runtime configuration for gossl and
// provides helpers for parsing tunnel specifications and TLS version
// names.
package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"
)

// Config holds every tuneable for a single gossl invocation.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host        string
	Port        int
	AddressOnly bool // -n: numeric address, no DNS, chain-only certificate check
	Timeout     time.Duration

	// ── TLS ──────────────────────────────────────────────────────────
	CAFile     string // trust anchor PEM bundle ("" = system roots)
	Insecure   bool   // skip certificate verification
	CacheSize  int    // session cache capacity
	MinTLS     string // "1.2" or "1.3"
	BufferSize int    // engine write-buffering unit

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Behaviour ────────────────────────────────────────────────────
	RetryAttempts int // connect attempts before giving up

	// ── Output ───────────────────────────────────────────────────────
	Verbose     int
	ShowMetrics bool
}

// ── TLS version helper ───────────────────────────────────────────────

// tlsVersions maps the accepted --tls-min values.
var tlsVersions = map[string]uint16{
	"":    0,
	"1.2": 0x0303,
	"1.3": 0x0304,
}

// MinTLSVersion resolves the configured name to a protocol constant,
// 0 when unset (engine default applies).
func (c *Config) MinTLSVersion() (uint16, error) {
	v, ok := tlsVersions[c.MinTLS]
	if !ok {
		return 0, fmt.Errorf("unknown TLS version %q (use 1.2 or 1.3)", c.MinTLS)
	}
	return v, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("hostname is required (use --help for usage)")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	if c.AddressOnly && net.ParseIP(c.Host) == nil {
		return fmt.Errorf("cannot parse %q as an IP address (DNS disabled with -n)", c.Host)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size %d is negative", c.CacheSize)
	}
	if _, err := c.MinTLSVersion(); err != nil {
		return err
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size %d is negative", c.BufferSize)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry count %d is negative", c.RetryAttempts)
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return fmt.Errorf("tunnel host is required")
	}
	return nil
}
