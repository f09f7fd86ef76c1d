// Package cmd wires up the CLI flags and dispatches to the TLS client.
package cmd

import (
	"context"
	"crypto/x509"
	"fmt"
	"net/netip"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"gossl/config"
	"gossl/engine"
	ncerr "gossl/internal/errors"
	"gossl/internal/metrics"
	"gossl/internal/retry"
	"gossl/sslclient"
	"gossl/transport"
	"gossl/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gossl/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs a TLS connect session.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{}
	fs := flag.NewFlagSet("gossl", flag.ContinueOnError)

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.AddressOnly, "no-dns", "n", false, "Numeric address only (no DNS, no hostname check)")
	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Connect+handshake timeout in seconds")

	// ── TLS ──────────────────────────────────────────────────────
	fs.StringVar(&cfg.CAFile, "ca", "", "Trust anchor PEM bundle (default: system roots)")
	fs.BoolVarP(&cfg.Insecure, "insecure", "k", false, "Skip certificate verification")
	fs.IntVar(&cfg.CacheSize, "cache-size", 0, "Session cache capacity")
	fs.StringVar(&cfg.MinTLS, "tls-min", "", "Minimum TLS version (1.2 or 1.3)")
	fs.IntVar(&cfg.BufferSize, "buffer-size", 0, "Write buffering unit in bytes")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", "", "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", "", "Custom known_hosts path")

	// ── behaviour ────────────────────────────────────────────────
	fs.IntVar(&cfg.RetryAttempts, "retry", 0, "Connect attempts before giving up")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.ShowMetrics, "metrics", false, "Print a metrics report on exit")

	var configFile string
	fs.StringVar(&configFile, "config", "", "YAML config file")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── config file (lowest precedence) ──────────────────────────
	// Peek for --config before the real parse so the file loads
	// underneath env vars and flags.
	if path := peekConfigFlag(args); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return err
		}
	}

	// ── environment ──────────────────────────────────────────────
	config.LoadFromEnv(cfg)

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("gossl %s\n", version)
		return nil
	}

	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	return run(ctx, cfg)
}

// run builds the adapter stack from cfg and relays stdin/stdout over
// the secure stream.
func run(ctx context.Context, cfg *config.Config) error {
	logger := util.NewLogger(verbosityToLevel(cfg.Verbose))
	stats := buildMetrics(cfg)

	anchors, err := loadTrustAnchors(cfg.CAFile)
	if err != nil {
		return err
	}
	minVersion, err := cfg.MinTLSVersion()
	if err != nil {
		return err
	}

	tr := buildTransport(cfg, logger)
	eng := engine.New(engine.Options{
		BufferSize: cfg.BufferSize,
		MinVersion: minVersion,
		Logger:     logger,
	})
	client := sslclient.New(tr, eng, sslclient.Options{
		CacheSize:          cfg.CacheSize,
		Timeout:            cfg.Timeout,
		TrustAnchors:       anchors,
		InsecureSkipVerify: cfg.Insecure,
		Logger:             logger,
		Metrics:            stats,
	})

	if cfg.ShowMetrics {
		defer func() { fmt.Fprintln(os.Stderr, stats.JSON()) }()
	}

	if err := connectWithRetry(ctx, client, cfg, logger); err != nil {
		return err
	}
	defer client.Stop() //nolint:errcheck

	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Info("connected to %s:%d; interactive mode, ^C or EOF to quit", cfg.Host, cfg.Port)
	}

	return util.Relay(ctx, clientStream{client}, os.Stdin, os.Stdout)
}

// connectWithRetry wraps Connect in the configured backoff budget.
// Certificate failures are permanent: a bad trust anchor will not fix
// itself on the next dial.
func connectWithRetry(ctx context.Context, client *sslclient.Client, cfg *config.Config, logger *util.Logger) error {
	b := retry.DefaultBackoff()
	b.MaxAttempts = cfg.RetryAttempts
	if cfg.Timeout > 0 {
		// Never wait longer between attempts than one attempt may take.
		b.MaxDelay = cfg.Timeout
	}

	return b.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			logger.Info("connect attempt %d/%d", attempt, cfg.RetryAttempts)
		}
		err := doConnect(ctx, client, cfg)
		if err == nil {
			return nil
		}
		var cvErr x509.CertificateInvalidError
		var uaErr x509.UnknownAuthorityError
		var hnErr x509.HostnameError
		if ncerr.As(err, &cvErr) || ncerr.As(err, &uaErr) || ncerr.As(err, &hnErr) {
			return retry.Permanent(err)
		}
		return err
	})
}

func doConnect(ctx context.Context, client *sslclient.Client, cfg *config.Config) error {
	if cfg.AddressOnly {
		addr, err := netip.ParseAddr(cfg.Host)
		if err != nil {
			return retry.Permanent(fmt.Errorf("address %q: %w", cfg.Host, err))
		}
		return client.ConnectAddr(ctx, addr, cfg.Port)
	}
	return client.Connect(ctx, cfg.Host, cfg.Port)
}

// clientStream adapts the adapter for the relay: Stop becomes Close,
// and every write is flushed through so interactive traffic is not
// held back by the engine's record buffering.
type clientStream struct {
	*sslclient.Client
}

func (s clientStream) Write(p []byte) (int, error) {
	n, err := s.Client.Write(p)
	if err != nil {
		return n, err
	}
	return n, s.Client.Flush()
}

func (s clientStream) Close() error { return s.Stop() }

// ── component builders ───────────────────────────────────────────────

func buildTransport(cfg *config.Config, logger *util.Logger) transport.Transport {
	if cfg.TunnelEnabled {
		return transport.NewSSH(&transport.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   config.DefaultSSHConnTimeout,
		}, logger)
	}
	return &transport.TCP{Timeout: cfg.Timeout}
}

func buildMetrics(cfg *config.Config) *metrics.Collector {
	if !cfg.ShowMetrics && cfg.Verbose < 2 {
		return nil // nil collector: all recording becomes no-ops
	}
	return metrics.New()
}

func loadTrustAnchors(caFile string) (*x509.CertPool, error) {
	if caFile == "" {
		return nil, nil // system roots
	}
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("reading trust anchors: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no usable certificates in %s", caFile)
	}
	return pool, nil
}

func verbosityToLevel(v int) util.LogLevel {
	switch {
	case v <= 0:
		return util.LogWarn
	case v == 1:
		return util.LogInfo
	default:
		return util.LogDebug
	}
}

// peekConfigFlag scans args for --config without a full parse.
func peekConfigFlag(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(a) > len("--config=") && a[:len("--config=")] == "--config=" {
			return a[len("--config="):]
		}
	}
	return ""
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		if cfg.Host == "" {
			return fmt.Errorf("hostname required (use --help for usage)")
		}
	case 1:
		cfg.Host = remaining[0]
	case 2:
		cfg.Host = remaining[0]
		port, err := parsePort(remaining[1])
		if err != nil {
			return err
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments")
	}
	return nil
}

func parsePort(s string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(s, "%d", &port); err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `gossl – TLS client with session caching v%s

A netcat-style TLS client that caches sessions for fast reconnects.

Usage:
  gossl [options] <host> [port]               Connect (port defaults to 443)
  gossl -n [options] <ip> [port]              Connect by address
  gossl -T user@gateway <host> [port]         Connect through an SSH tunnel

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  gossl example.com                           HTTPS connect
  gossl --ca roots.pem example.com 8443       Custom trust anchors
  gossl -T admin@bastion internal.host 443    Via SSH gateway
  echo "PING" | gossl -v example.com 9000     Pipe data
  gossl --retry 5 --metrics example.com       Retry with exit report
`)
}
