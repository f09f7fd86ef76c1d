// Package engine implements the adapter's TLS engine on crypto/tls:
// handshake and record processing over an abstract transport, with
// buffered application-data writes and a deadline-based pump that
// makes non-blocking "available" semantics work on a blocking stream.
package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	ncerr "gossl/internal/errors"
	"gossl/sslclient"
	"gossl/transport"
	"gossl/util"
)

const (
	// DefaultBufferSize is the outgoing buffering unit.  Writes
	// accumulate here and go to the transport one unit at a time,
	// keeping network writes grouped on slow links.
	DefaultBufferSize = 2048

	// defaultTicketWait is how long Handshake polls for the first
	// post-handshake session ticket (TLS 1.3 servers send it after
	// the handshake completes, often within a round trip).
	defaultTicketWait = 100 * time.Millisecond

	// defaultPollWait bounds each pump's read deadline.  Long enough
	// for data already in flight to land, short enough that polls
	// stay cheap.
	defaultPollWait = 5 * time.Millisecond

	// maxPending caps decrypted bytes buffered by the pump so a
	// flooding peer cannot grow memory unboundedly.
	maxPending = 16 * 1024
)

// Options tunes a TLS engine.  The zero value is usable.
type Options struct {
	// BufferSize overrides the outgoing buffering unit.
	BufferSize int

	// TicketWait overrides the post-handshake ticket poll window.
	TicketWait time.Duration

	// MinVersion overrides the minimum TLS version (default 1.2).
	MinVersion uint16

	Logger *util.Logger
}

// TLS is a crypto/tls-backed [sslclient.Engine].  One engine drives at
// most one connection at a time and is reusable after Close.
type TLS struct {
	opts Options
	log  *util.Logger

	conn    *tls.Conn
	capture *captureCache
	canPoll bool // transport supports read deadlines

	wbuf    []byte // outgoing application data, flushed per unit
	pending []byte // decrypted bytes pulled in by the pump
	rdErr   error  // terminal read error seen by the pump, served after pending drains
}

var _ sslclient.Engine = (*TLS)(nil)

// New builds an engine.
func New(opts Options) *TLS {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.TicketWait <= 0 {
		opts.TicketWait = defaultTicketWait
	}
	if opts.MinVersion == 0 {
		opts.MinVersion = tls.VersionTLS12
	}
	return &TLS{
		opts: opts,
		log:  opts.Logger,
		wbuf: make([]byte, 0, opts.BufferSize),
	}
}

// Handshake negotiates a TLS session over the open transport, resuming
// from p.Session when the peer accepts it.
func (e *TLS) Handshake(ctx context.Context, tr transport.Transport, p sslclient.HandshakeParams) (sslclient.HandshakeResult, error) {
	if e.conn != nil {
		return sslclient.HandshakeResult{}, errors.New("engine already bound to a connection")
	}

	e.capture = newCaptureCache(p.Session, e.log)
	cfg := &tls.Config{
		ServerName:         p.ServerName,
		RootCAs:            p.TrustAnchors,
		InsecureSkipVerify: p.InsecureSkipVerify || p.ServerName == "",
		ClientSessionCache: e.capture,
		Rand:               p.Rand,
		MinVersion:         e.opts.MinVersion,
	}
	if p.ServerName == "" && !p.InsecureSkipVerify {
		// By-address connect: crypto/tls cannot verify without a server
		// name, so only hostname matching is waived.  The chain is
		// still checked against the trust anchors in the callback.
		cfg.VerifyPeerCertificate = verifyChainOnly(p.TrustAnchors)
	}

	conn := tls.Client(newStreamConn(tr), cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		return sslclient.HandshakeResult{}, err
	}

	e.conn = conn
	_, e.canPoll = tr.(transport.Deadliner)
	e.wbuf = e.wbuf[:0]
	e.pending = nil
	e.rdErr = nil

	if !e.canPoll {
		e.log.Warn("transport has no read-deadline support; Available reports only already-buffered data")
	} else if !conn.ConnectionState().DidResume {
		// Give the server's first session ticket a chance to arrive
		// so even the very next connect can resume.
		e.poll(e.opts.TicketWait)
	}

	return sslclient.HandshakeResult{
		Resumed:     conn.ConnectionState().DidResume,
		SessionData: e.capture.exported(),
	}, nil
}

// Write appends p to the outgoing buffer, flushing each time a full
// buffering unit accumulates.
func (e *TLS) Write(p []byte) (int, error) {
	if e.conn == nil {
		return 0, ncerr.ErrEngineClosed
	}
	e.wbuf = append(e.wbuf, p...)
	if len(e.wbuf) >= e.opts.BufferSize {
		if err := e.Flush(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes all buffered outgoing bytes through the record layer.
func (e *TLS) Flush() error {
	if e.conn == nil || len(e.wbuf) == 0 {
		return nil
	}
	_, err := e.conn.Write(e.wbuf)
	e.wbuf = e.wbuf[:0]
	if err != nil {
		e.fail(err)
	}
	return err
}

// Available submits buffered writes, pumps incoming records, and
// returns the number of decrypted bytes ready to read.
func (e *TLS) Available() int {
	if e.conn == nil {
		return 0
	}
	if err := e.Flush(); err != nil {
		return 0
	}
	if len(e.pending) == 0 && e.canPoll && e.rdErr == nil {
		e.poll(defaultPollWait)
	}
	return len(e.pending)
}

// poll drains whatever the record layer can decrypt within wait.
// Timeouts are the normal exit; any other error retires the session.
// A timed-out read leaves a partially received record buffered inside
// crypto/tls, to be completed by a later read.
func (e *TLS) poll(wait time.Duration) {
	var tmp [4096]byte
	deadline := time.Now().Add(wait)
	e.conn.SetReadDeadline(deadline) //nolint:errcheck
	for len(e.pending) < maxPending {
		n, err := e.conn.Read(tmp[:])
		if n > 0 {
			e.pending = append(e.pending, tmp[:n]...)
		}
		if err != nil {
			var nerr net.Error
			switch {
			case errors.As(err, &nerr) && nerr.Timeout():
				// Normal exit: nothing more in flight right now.
			case errors.Is(err, io.EOF):
				// Peer closed; already-decrypted bytes stay readable.
				e.rdErr = io.EOF
			default:
				e.fail(err)
			}
			break
		}
		if time.Now().After(deadline) {
			break
		}
	}
	if e.conn != nil {
		e.conn.SetReadDeadline(time.Time{}) //nolint:errcheck
	}
}

// Read copies decrypted bytes into p, blocking when the pump has
// nothing buffered.
func (e *TLS) Read(p []byte) (int, error) {
	if n := e.consume(p); n > 0 {
		return n, nil
	}
	if e.conn == nil {
		return 0, ncerr.ErrEngineClosed
	}
	if e.rdErr != nil {
		return 0, e.rdErr
	}
	if err := e.Flush(); err != nil {
		return 0, err
	}
	n, err := e.conn.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		e.fail(err)
	}
	return n, err
}

// Peek returns the next decrypted byte without consuming it.
func (e *TLS) Peek() (byte, bool) {
	if e.Available() == 0 {
		return 0, false
	}
	return e.pending[0], true
}

// consume moves pump-buffered bytes into p.
func (e *TLS) consume(p []byte) int {
	if len(e.pending) == 0 {
		return 0
	}
	n := copy(p, e.pending)
	e.pending = e.pending[n:]
	return n
}

// SessionData returns the latest server-issued resumption material.
func (e *TLS) SessionData() []byte {
	if e.capture == nil {
		return nil
	}
	return e.capture.exported()
}

// Close flushes pending writes and performs a graceful TLS close,
// discarding unread application data.  Idempotent.
func (e *TLS) Close() error {
	if e.conn == nil {
		return nil
	}
	e.Flush() //nolint:errcheck // best effort on the way down
	err := e.conn.Close()
	e.conn = nil
	e.pending = nil
	e.rdErr = nil
	return err
}

// Alive reports whether the engine holds an active session.  A peer
// close observed by the pump ends the session even while decrypted
// bytes remain readable.
func (e *TLS) Alive() bool { return e.conn != nil && e.rdErr == nil }

// BufferSize returns the outgoing buffering unit.
func (e *TLS) BufferSize() int { return e.opts.BufferSize }

// fail retires the connection after a fatal record-layer error.  The
// transport itself is closed by the lifecycle controller.
func (e *TLS) fail(err error) {
	e.log.Debug("engine: connection retired: %v", err)
	e.conn = nil
	e.pending = nil
}

// verifyChainOnly validates the presented chain against roots without
// matching any hostname.  A nil roots pool falls back to the system
// roots, mirroring crypto/tls.
func verifyChainOnly(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("peer presented no certificate")
		}
		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			c, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("parsing peer certificate: %w", err)
			}
			certs = append(certs, c)
		}
		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		}
		for _, c := range certs[1:] {
			opts.Intermediates.AddCert(c)
		}
		_, err := certs[0].Verify(opts)
		return err
	}
}
