package sslclient

import (
	"context"
	"crypto/x509"
	"net"
	"net/netip"
	"time"

	"gossl/internal/entropy"
	ncerr "gossl/internal/errors"
	"gossl/internal/metrics"
	"gossl/transport"
	"gossl/util"
)

// DefaultTimeout bounds transport open plus handshake.  TLS
// negotiations on slow links legitimately take seconds, so the default
// is generous rather than snappy.
const DefaultTimeout = 10 * time.Second

// State is the lifecycle phase of the adapter's single connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Options tunes a Client.  The zero value is usable: warning-level
// logging, default cache size and timeout, jitter-based entropy, no
// metrics.
type Options struct {
	// CacheSize is the session cache capacity (default 2, see
	// DefaultCacheSize).
	CacheSize int

	// Timeout bounds transport open plus handshake per connect
	// attempt (default DefaultTimeout).
	Timeout time.Duration

	// TrustAnchors holds the root certificates for peer
	// verification.  Nil means the system pool.
	TrustAnchors *x509.CertPool

	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool

	// Entropy supplies the supplementary handshake seed (default
	// clock-jitter sampling).
	Entropy entropy.Source

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Client is the connection lifecycle controller: it owns one transport
// and one engine, binds at most one active connection at a time, and
// keeps the session cache in sync with handshake outcomes.  A Client
// outlives its connections and is reusable after Stop or a failed
// connect.
//
// Client is not safe for concurrent use; the model is single-threaded
// and every operation blocks to completion.
type Client struct {
	tr    transport.Transport
	eng   Engine
	cache *Cache
	opts  Options
	log   *util.Logger
	stats *metrics.Collector

	state   State
	current *Session // cache slot bound by the most recent connect
}

// New builds a Client over the given transport and engine.  The
// transport instance is held for the adapter's whole lifetime and used
// for all raw byte movement.
func New(tr transport.Transport, eng Engine, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = util.NewLogger(util.LogWarn)
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Entropy == nil {
		opts.Entropy = entropy.Jitter{}
	}
	return &Client{
		tr:    tr,
		eng:   eng,
		cache: NewCache(opts.CacheSize, opts.Logger, opts.Metrics),
		opts:  opts,
		log:   opts.Logger,
		stats: opts.Metrics,
	}
}

// ── connect ──────────────────────────────────────────────────────────

// Connect opens the transport to host:port, performs (or resumes) a
// TLS handshake verifying the peer certificate against host, and on
// success updates the session cache.  Preferred over ConnectAddr:
// hostname verification is part of certificate legitimacy, and only
// hostname connects can resume cached sessions.
//
// If the peer rejects an offered cached session, Connect retries once
// with a full handshake inside the same call.  On failure the adapter
// is left Idle and fully reusable, and the cache is untouched.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	return c.connect(ctx, host, port, util.FormatAddr(host, port))
}

// ConnectAddr opens the transport to a numeric address.  The peer
// chain is still verified against the trust anchors, but with no
// hostname to match; session resumption is disabled and the session
// cache is neither consulted nor updated.
func (c *Client) ConnectAddr(ctx context.Context, addr netip.Addr, port int) error {
	return c.connect(ctx, "", port, util.FormatAddr(addr.String(), port))
}

func (c *Client) connect(ctx context.Context, host string, port int, address string) error {
	if c.state != StateIdle {
		c.log.Warn("connect to %s: adapter is %s, not idle", address, c.state)
		return ncerr.ErrAlreadyConnected
	}
	if c.tr.IsOpen() {
		c.log.Warn("connect to %s: transport already open", address)
		return ncerr.ErrAlreadyConnected
	}

	c.state = StateConnecting
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := c.tr.Open(ctx, address); err != nil {
		c.state = StateIdle
		c.stats.ConnectFailed()
		c.stats.RecordError(err.Error())
		return err
	}

	// Hostname connects consult the cache; the slot's identity is
	// finalized only after the handshake succeeds.
	var sess *Session
	var material []byte
	if host != "" {
		sess = c.cache.Get(host, c.remoteIP())
		if sess.Host() == host {
			material = sess.Data()
		}
	}

	seed := make([]byte, entropy.SeedSize)
	if err := c.opts.Entropy.Seed(seed); err != nil {
		// Degraded, not fatal: the mixer still draws from the OS
		// CSPRNG.
		c.log.Warn("entropy seed: %v", err)
	}

	params := HandshakeParams{
		ServerName:         host,
		Address:            address,
		TrustAnchors:       c.opts.TrustAnchors,
		InsecureSkipVerify: c.opts.InsecureSkipVerify,
		Session:            material,
		Rand:               entropy.Reader(seed),
	}

	start := time.Now()
	res, err := c.eng.Handshake(ctx, c.tr, params)
	if err != nil && len(material) > 0 {
		// The offered session was rejected (or the attempt died with
		// it in play).  Retry once with a full handshake on a fresh
		// transport before giving up.  The cached slot is not
		// cleared: only a later successful handshake overwrites it.
		c.log.Info("resumption with %s failed (%v); retrying with full handshake", address, err)
		c.tr.Close()
		if oerr := c.tr.Open(ctx, address); oerr != nil {
			return c.failConnect(host, port, false, oerr)
		}
		params.Session = nil
		res, err = c.eng.Handshake(ctx, c.tr, params)
		if err != nil {
			return c.failConnect(host, port, false, err)
		}
	} else if err != nil {
		return c.failConnect(host, port, false, err)
	}

	elapsed := time.Since(start)
	c.stats.HandshakeDone(res.Resumed, elapsed)
	if res.Resumed {
		c.log.Info("resumed TLS session with %s in %s", address, elapsed.Truncate(time.Millisecond))
	} else {
		c.log.Info("negotiated TLS session with %s in %s", address, elapsed.Truncate(time.Millisecond))
	}

	if sess != nil {
		c.bindSession(sess, host, res)
	}
	c.state = StateConnected
	return nil
}

func (c *Client) failConnect(host string, port int, resumed bool, err error) error {
	c.tr.Close()
	c.state = StateIdle
	c.stats.ConnectFailed()
	c.stats.RecordError(err.Error())
	herr := ncerr.WrapHandshake(host, port, resumed, err)
	c.log.Error("%v", herr)
	return herr
}

// bindSession finalizes the cache slot after a successful hostname
// handshake: the identity is (re)associated and any fresh resumption
// material replaces the old.  A resumed handshake with no new ticket
// keeps the material that just proved itself.
func (c *Client) bindSession(sess *Session, host string, res HandshakeResult) {
	c.current = sess
	data := res.SessionData
	if data == nil && res.Resumed && sess.Host() == host {
		data = sess.Data()
	}
	if !sess.set(host, c.remoteIP(), data) {
		c.log.Warn("session ticket for %s exceeds %d bytes; resumption disabled for this identity",
			host, MaxSessionData)
	}
}

// ── data transfer ────────────────────────────────────────────────────

// Write hands bytes to the engine's outgoing application-data buffer,
// submitting them in chunks of one buffering unit; a single call may
// therefore trigger several network flushes internally.  Bytes are not
// guaranteed to reach the network until Flush or a pump via Available.
//
// Returns 0 and ErrNotConnected when no connection is active.
func (c *Client) Write(p []byte) (int, error) {
	if !c.writable() {
		c.log.Warn("write of %d bytes ignored: %s", len(p), c.state)
		return 0, ncerr.ErrNotConnected
	}

	unit := c.eng.BufferSize()
	written := 0
	for written < len(p) {
		chunk := p[written:]
		if len(chunk) > unit {
			chunk = chunk[:unit]
		}
		n, err := c.eng.Write(chunk)
		written += n
		if err != nil {
			c.stats.RecordError(err.Error())
			c.stats.BytesSent(int64(written))
			return written, err
		}
	}
	c.stats.BytesSent(int64(written))
	return written, nil
}

// WriteByte writes a single byte.
func (c *Client) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

// Available pumps the engine (submitting buffered writes, processing
// incoming records) and returns the number of decrypted bytes ready to
// read.  Call it periodically even when only writing, or the record
// engine may stall.  Returns 0 without touching the transport when no
// connection is active — ambiguous with "legitimately zero bytes", so
// check Connected first when it matters.
func (c *Client) Available() int {
	if c.state != StateConnected {
		c.log.Debug("available: no active connection")
		return 0
	}
	return c.eng.Available()
}

// Read copies decrypted application bytes into p, blocking when none
// are buffered.  Returns 0 and ErrNotConnected when no connection is
// active.  Bytes decrypted before a peer close stay readable until
// drained; the drain then ends with io.EOF.
func (c *Client) Read(p []byte) (int, error) {
	if c.state != StateConnected {
		c.log.Warn("read ignored: %s", c.state)
		return 0, ncerr.ErrNotConnected
	}
	n, err := c.eng.Read(p)
	c.stats.BytesReceived(int64(n))
	return n, err
}

// ReadByte reads a single byte.
func (c *Client) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := c.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Peek returns the next decrypted byte without consuming it.  The
// second return is false when no byte is available or no connection is
// active.
func (c *Client) Peek() (byte, bool) {
	if c.state != StateConnected {
		c.log.Debug("peek: no active connection")
		return 0, false
	}
	return c.eng.Peek()
}

// Flush blocks until all engine-buffered outgoing bytes have been
// handed to the transport.  Meaningful only while connected; otherwise
// a no-op.
func (c *Client) Flush() error {
	if !c.writable() {
		return nil
	}
	return c.eng.Flush()
}

// ── shutdown ─────────────────────────────────────────────────────────

// Stop closes the connection.  While a session is active the engine
// performs a graceful TLS close first, discarding unread application
// data; fresh resumption material issued during the connection is
// folded into the cache before teardown.  Idempotent: stopping an idle
// adapter just (re)closes the transport.  Always ends Idle.
func (c *Client) Stop() error {
	if c.state == StateIdle {
		return c.tr.Close()
	}
	c.state = StateClosing

	// Tickets can arrive any time after the handshake; capture the
	// latest before the session goes away.
	if c.current != nil {
		if data := c.eng.SessionData(); data != nil {
			if !c.current.set(c.current.Host(), c.current.Addr(), data) {
				c.log.Warn("session ticket for %s exceeds %d bytes; dropped", c.current.Host(), MaxSessionData)
			}
		}
		c.current = nil
	}

	engErr := c.eng.Close()
	trErr := c.tr.Close()
	c.state = StateIdle

	if engErr != nil {
		return engErr
	}
	return trErr
}

// Connected reports whether both the transport and the TLS layer hold
// an active session.  It pumps the engine first, so a peer close or a
// record-layer failure flips the report as soon as it is observable.
func (c *Client) Connected() bool {
	if c.state != StateConnected || !c.tr.IsOpen() {
		return false
	}
	c.eng.Available()
	return c.eng.Alive()
}

// State returns the lifecycle phase.
func (c *Client) State() State { return c.state }

func (c *Client) writable() bool {
	return c.state == StateConnected && c.eng.Alive()
}

// ── session accessors ────────────────────────────────────────────────

// GetSession returns the cache slot for the given identity, rotating
// in a fresh slot on a miss.  See [Cache.Get].
func (c *Client) GetSession(host string, addr netip.Addr) *Session {
	return c.cache.Get(host, addr)
}

// RemoveSession clears the cached session for the given identity.
func (c *Client) RemoveSession(host string, addr netip.Addr) {
	c.cache.Remove(host, addr)
}

// SessionCount returns the cache capacity.
func (c *Client) SessionCount() int { return c.cache.Size() }

// ── transport identity ───────────────────────────────────────────────

// Transport returns the transport instance held by this adapter.
// Take care not to break it.
func (c *Client) Transport() transport.Transport { return c.tr }

// Equal reports whether two adapters share the same underlying
// transport instance.
func (c *Client) Equal(other *Client) bool {
	return other != nil && c.tr == other.tr
}

// UsesTransport reports whether this adapter wraps the given transport
// instance.
func (c *Client) UsesTransport(tr transport.Transport) bool { return c.tr == tr }

// LocalPort returns the transport's local port, or 0 (with a warning)
// when the transport lacks the optional endpoint capability.
func (c *Client) LocalPort() int {
	ep, ok := c.tr.(transport.Endpoints)
	if !ok {
		c.log.Warn("transport has no endpoint accessors; LocalPort will always return 0")
		return 0
	}
	if tcp, ok := ep.LocalAddr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// RemoteIP returns the transport's remote address, or the zero Addr
// (with a warning) when the transport lacks the optional endpoint
// capability.  Without a remote address, address-based session
// matching is disabled.
func (c *Client) RemoteIP() netip.Addr {
	ip := c.remoteIP()
	if !ip.IsValid() {
		c.log.Warn("transport has no usable remote address; address-based session caching disabled")
	}
	return ip
}

// remoteIP is RemoteIP without the diagnostic, for internal use where
// a missing capability is routine.
func (c *Client) remoteIP() netip.Addr {
	ep, ok := c.tr.(transport.Endpoints)
	if !ok {
		return netip.Addr{}
	}
	switch a := ep.RemoteAddr().(type) {
	case *net.TCPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			return netip.Addr{}
		}
		return ip.Unmap()
	default:
		return netip.Addr{}
	}
}
