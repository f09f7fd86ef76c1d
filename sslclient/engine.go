package sslclient

import (
	"context"
	"crypto/x509"
	"io"

	"gossl/transport"
)

// HandshakeParams carries everything the engine needs to negotiate one
// connection.
type HandshakeParams struct {
	// ServerName is the hostname to verify the peer certificate
	// against.  Empty for by-address connects, which skip hostname
	// verification and session resumption.
	ServerName string

	// Address is the dialed host:port, used for diagnostics only.
	Address string

	// TrustAnchors holds the root certificates for chain
	// verification.  Nil means the system pool.
	TrustAnchors *x509.CertPool

	// InsecureSkipVerify disables certificate verification entirely.
	InsecureSkipVerify bool

	// Session is the resumption material from a cached session, or
	// nil to force a full handshake.
	Session []byte

	// Rand is the seeded random source for the handshake.
	Rand io.Reader
}

// HandshakeResult reports the outcome of a successful negotiation.
type HandshakeResult struct {
	// Resumed is true when the peer accepted the cached session.
	Resumed bool

	// SessionData is fresh resumption material to cache, nil when
	// the peer issued none (yet).
	SessionData []byte
}

// Engine is the external TLS engine the adapter delegates handshaking
// and record processing to.  The adapter never inspects TLS records
// itself; it only decides when to hand the engine bytes, when to pump
// it, and which cached session to offer.
//
// Engines are single-connection: Handshake binds the engine to one
// transport until Close.
type Engine interface {
	// Handshake negotiates (or resumes) a TLS session over the open
	// transport.  On error the engine is left unbound and the
	// transport's state is undefined; the caller closes it.
	Handshake(ctx context.Context, tr transport.Transport, p HandshakeParams) (HandshakeResult, error)

	// Write appends application bytes to the outgoing record buffer,
	// transparently flushing full buffering units to the transport.
	// Callers should chunk writes to BufferSize.
	Write(p []byte) (int, error)

	// Flush blocks until all buffered outgoing bytes are handed to
	// the transport.
	Flush() error

	// Available pumps the engine — submitting buffered writes and
	// processing incoming records — and returns the number of
	// decrypted application bytes ready to read.
	Available() int

	// Read copies decrypted application bytes into p, blocking when
	// none are buffered.
	Read(p []byte) (int, error)

	// Peek returns the next decrypted byte without consuming it.
	Peek() (byte, bool)

	// SessionData returns the most recent resumption material issued
	// by the peer during this connection, nil if none.
	SessionData() []byte

	// Close performs a graceful TLS close, discarding unread
	// application data.  Idempotent.
	Close() error

	// Alive reports whether the engine holds an active session.
	Alive() bool

	// BufferSize returns the outgoing buffering unit in bytes.
	BufferSize() int
}
