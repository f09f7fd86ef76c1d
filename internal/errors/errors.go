// Package errors provides domain-specific error types for gossl.
//
// These types carry structured context (operation, address, whether a
// resumption was in play, retryability) that helps callers decide how
// to handle failures and provides better diagnostics than plain string
// wrapping.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrTransportClosed  = errors.New("transport is closed")
	ErrHandshakeFailed  = errors.New("TLS handshake failed")
	ErrEngineClosed     = errors.New("TLS engine is closed")
	ErrTimeout          = errors.New("operation timed out")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a raw transport operation.
type NetworkError struct {
	Op        string // operation: "open", "send", "receive", "close"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HandshakeError represents a failed TLS negotiation with peer context.
// Resumed records whether the failed attempt carried resumption
// material, which matters to the fallback policy: a rejected resumption
// is retried once as a full handshake, a failed full handshake is
// terminal.
type HandshakeError struct {
	Host    string // server name, empty for by-address connects
	Port    int
	Resumed bool // the attempt tried to resume a cached session
	Err     error
}

func (e *HandshakeError) Error() string {
	kind := "full handshake"
	if e.Resumed {
		kind = "session resumption"
	}
	host := e.Host
	if host == "" {
		host = "<by-address>"
	}
	return fmt.Sprintf("%s with %s:%d: %v", kind, host, e.Port, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapHandshake creates a HandshakeError.
func WrapHandshake(host string, port int, resumed bool, err error) *HandshakeError {
	return &HandshakeError{Host: host, Port: port, Resumed: resumed, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	// net.OpError with Temporary() hint
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	// DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use gossl/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
