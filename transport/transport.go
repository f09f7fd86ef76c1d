// Package transport provides the byte-stream contract the TLS adapter
// sits on, plus concrete implementations.  Transports handle the "how"
// of raw data movement — plain TCP or an SSH-forwarded stream —
// independent of the encryption layered on top (which is the engine's
// job).
package transport

import (
	"context"
	"net"
	"time"
)

// Transport moves raw bytes for exactly one connection at a time.
// Implementations are not safe for concurrent use; the adapter owns
// its transport exclusively and drives it from a single goroutine.
type Transport interface {
	// Open establishes the underlying connection to address
	// ("host:port").  Opening an already-open transport is an error.
	Open(ctx context.Context, address string) error

	// Close tears down the connection.  Safe to call when not open.
	Close() error

	// Send writes raw bytes to the network.
	Send(p []byte) (int, error)

	// Receive reads raw bytes from the network, blocking until at
	// least one byte arrives, the connection closes, or a deadline
	// set via [Deadliner] expires.
	Receive(p []byte) (int, error)

	// IsOpen reports whether the connection is established.
	IsOpen() bool
}

// Endpoints is the optional endpoint-accessor capability.  Transports
// that know their local and remote addresses implement it; the adapter
// substitutes zero values and logs a warning when it is absent.
type Endpoints interface {
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// Deadliner is the optional read-deadline capability.  The engine uses
// it to poll for incoming records without blocking; transports that
// cannot interrupt a pending read (e.g. SSH channels) simply don't
// implement it and the engine falls back to reporting only
// already-buffered data.
type Deadliner interface {
	SetReadDeadline(t time.Time) error
}
