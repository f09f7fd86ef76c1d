package engine

import (
	"errors"
	"net"
	"time"

	"gossl/transport"
)

// errNoDeadline is returned when the transport lacks the optional
// deadline capability.  crypto/tls ignores deadline failures during
// HandshakeContext interruption, and the engine checks the capability
// before polling, so this never escapes to callers.
var errNoDeadline = errors.New("transport does not support deadlines")

// streamConn adapts a transport.Transport to net.Conn so crypto/tls
// can drive it.
type streamConn struct {
	tr transport.Transport
}

func newStreamConn(tr transport.Transport) *streamConn {
	return &streamConn{tr: tr}
}

func (c *streamConn) Read(p []byte) (int, error)  { return c.tr.Receive(p) }
func (c *streamConn) Write(p []byte) (int, error) { return c.tr.Send(p) }
func (c *streamConn) Close() error                { return c.tr.Close() }

func (c *streamConn) LocalAddr() net.Addr {
	if ep, ok := c.tr.(transport.Endpoints); ok {
		return ep.LocalAddr()
	}
	return unknownAddr{}
}

func (c *streamConn) RemoteAddr() net.Addr {
	if ep, ok := c.tr.(transport.Endpoints); ok {
		return ep.RemoteAddr()
	}
	return unknownAddr{}
}

func (c *streamConn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

func (c *streamConn) SetReadDeadline(t time.Time) error {
	if d, ok := c.tr.(transport.Deadliner); ok {
		return d.SetReadDeadline(t)
	}
	return errNoDeadline
}

func (c *streamConn) SetWriteDeadline(time.Time) error {
	// Writes are bounded by the transport's own timeout handling.
	return nil
}

// unknownAddr stands in for transports without endpoint accessors.
type unknownAddr struct{}

func (unknownAddr) Network() string { return "unknown" }
func (unknownAddr) String() string  { return "unknown" }
