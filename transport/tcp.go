package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	ncerr "gossl/internal/errors"
)

// TCP is a plain TCP transport, optionally binding to a specific
// source port.  The zero value is usable; Open dials with an ephemeral
// source port and no dial timeout.
type TCP struct {
	Timeout   time.Duration
	LocalPort int // optional source-port binding (0 = ephemeral)

	conn net.Conn
}

// Open connects to address over TCP.
func (t *TCP) Open(ctx context.Context, address string) error {
	if t.conn != nil {
		return ncerr.Wrap("open", address, ncerr.ErrAlreadyConnected)
	}

	dialer := net.Dialer{Timeout: t.Timeout}

	if t.LocalPort > 0 {
		local := fmt.Sprintf(":%d", t.LocalPort)
		a, err := net.ResolveTCPAddr("tcp", local)
		if err != nil {
			return fmt.Errorf("resolve local addr: %w", err)
		}
		dialer.LocalAddr = a
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return ncerr.Wrap("open", address, err)
	}
	t.conn = conn
	return nil
}

// Close tears down the connection.  A no-op when not open.
func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// Send writes raw bytes to the socket.
func (t *TCP) Send(p []byte) (int, error) {
	if t.conn == nil {
		return 0, ncerr.ErrTransportClosed
	}
	return t.conn.Write(p)
}

// Receive reads raw bytes from the socket.
func (t *TCP) Receive(p []byte) (int, error) {
	if t.conn == nil {
		return 0, ncerr.ErrTransportClosed
	}
	return t.conn.Read(p)
}

// IsOpen reports whether the socket is established.
func (t *TCP) IsOpen() bool { return t.conn != nil }

// LocalAddr returns the bound local address, or nil before Open.
func (t *TCP) LocalAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// RemoteAddr returns the peer address, or nil before Open.
func (t *TCP) RemoteAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.RemoteAddr()
}

// SetReadDeadline implements the optional [Deadliner] capability.
func (t *TCP) SetReadDeadline(dl time.Time) error {
	if t.conn == nil {
		return ncerr.ErrTransportClosed
	}
	return t.conn.SetReadDeadline(dl)
}
