package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "gossl/internal/errors"
	"gossl/util"
)

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// SSH is a transport that reaches the TLS target through an SSH
// gateway: Open dials the gateway, completes the SSH handshake, and
// forwards a TCP stream to the target with ssh.Client.Dial.  The TLS
// handshake then runs end-to-end inside the forwarded stream, so the
// gateway never sees plaintext.
//
// SSH channels cannot interrupt a pending read, so this transport does
// not implement [Deadliner]; the engine's poll degrades to reporting
// only already-buffered data.
type SSH struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	conn   net.Conn
	alive  bool
}

// NewSSH creates a tunnelled transport that is ready to Open.
func NewSSH(cfg *SSHConfig, logger *util.Logger) *SSH {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSH{config: cfg, logger: logger}
}

// Open dials the SSH gateway, then forwards a stream to address.
func (t *SSH) Open(ctx context.Context, address string) error {
	if t.IsOpen() {
		return ncerr.Wrap("open", address, ncerr.ErrAlreadyConnected)
	}

	authMethods, err := BuildAuthMethods(t.config, t.logger)
	if err != nil {
		return fmt.Errorf("ssh auth %s:%d: %w", t.config.Host, t.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(t.config, t.logger)
	if err != nil {
		return fmt.Errorf("ssh hostkey %s:%d: %w", t.config.Host, t.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         t.config.ConnTimeout,
	}

	gateway := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)
	t.logger.Debug("SSH: dialing %s as %s", gateway, t.config.User)

	// Use a context-aware TCP dial so callers can cancel.
	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", gateway)
	if err != nil {
		return ncerr.Wrap("open", gateway, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, gateway, sshCfg)
	if err != nil {
		tcpConn.Close()
		return fmt.Errorf("ssh handshake %s: %w", gateway, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	t.logger.Debug("SSH: forwarding to %s", address)
	conn, err := client.Dial("tcp", address)
	if err != nil {
		client.Close()
		return ncerr.Wrap("open", address, err)
	}

	t.mu.Lock()
	t.client = client
	t.conn = conn
	t.alive = true
	t.mu.Unlock()

	go t.monitor()

	return nil
}

// Close shuts down the forwarded stream and the SSH connection.
func (t *SSH) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	var err error
	if t.conn != nil {
		err = t.conn.Close()
		t.conn = nil
	}
	if t.client != nil {
		if cerr := t.client.Close(); err == nil {
			err = cerr
		}
		t.client = nil
	}
	return err
}

// Send writes raw bytes to the forwarded stream.
func (t *SSH) Send(p []byte) (int, error) {
	conn := t.stream()
	if conn == nil {
		return 0, ncerr.ErrTransportClosed
	}
	return conn.Write(p)
}

// Receive reads raw bytes from the forwarded stream.
func (t *SSH) Receive(p []byte) (int, error) {
	conn := t.stream()
	if conn == nil {
		return 0, ncerr.ErrTransportClosed
	}
	return conn.Read(p)
}

// IsOpen reports whether the forwarded stream is established.
func (t *SSH) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive && t.conn != nil
}

// RemoteAddr returns the forwarded stream's remote address.
func (t *SSH) RemoteAddr() net.Addr {
	conn := t.stream()
	if conn == nil {
		return nil
	}
	return conn.RemoteAddr()
}

// LocalAddr returns the forwarded stream's local address.
func (t *SSH) LocalAddr() net.Addr {
	conn := t.stream()
	if conn == nil {
		return nil
	}
	return conn.LocalAddr()
}

func (t *SSH) stream() net.Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.alive {
		return nil
	}
	return t.conn
}

// monitor blocks until the SSH connection closes and flips the alive flag.
func (t *SSH) monitor() {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return
	}

	err := client.Wait()

	t.mu.Lock()
	t.alive = false
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("SSH connection closed: %v", err)
	} else {
		t.logger.Debug("SSH connection closed")
	}
}
