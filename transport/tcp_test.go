package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	ncerr "gossl/internal/errors"
)

// echoListener accepts one connection and echoes until it closes.
func echoListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn) //nolint:errcheck
	}()
	return ln
}

func TestTCP_OpenSendReceive(t *testing.T) {
	ln := echoListener(t)

	tr := &TCP{Timeout: 2 * time.Second}
	if tr.IsOpen() {
		t.Fatal("zero-value transport should not be open")
	}
	if err := tr.Open(context.Background(), ln.Addr().String()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close()

	if !tr.IsOpen() {
		t.Fatal("transport should be open after Open")
	}

	msg := []byte("round trip")
	if n, err := tr.Send(msg); err != nil || n != len(msg) {
		t.Fatalf("Send = (%d, %v)", n, err)
	}

	buf := make([]byte, 64)
	n, err := tr.Receive(buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got := string(buf[:n]); got != string(msg) {
		t.Errorf("echo = %q, want %q", got, msg)
	}
}

func TestTCP_OpenTwice(t *testing.T) {
	ln := echoListener(t)

	tr := &TCP{Timeout: 2 * time.Second}
	if err := tr.Open(context.Background(), ln.Addr().String()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close()

	err := tr.Open(context.Background(), ln.Addr().String())
	if !errors.Is(err, ncerr.ErrAlreadyConnected) {
		t.Errorf("second Open = %v, want ErrAlreadyConnected", err)
	}
}

func TestTCP_OpenCancelled(t *testing.T) {
	tr := &TCP{Timeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tr.Open(ctx, "127.0.0.1:1"); err == nil {
		tr.Close()
		t.Fatal("expected error from cancelled context")
	}
	if tr.IsOpen() {
		t.Error("failed open must leave the transport closed")
	}
}

func TestTCP_ClosedOperations(t *testing.T) {
	tr := &TCP{}
	if err := tr.Close(); err != nil {
		t.Errorf("Close on a closed transport = %v, want nil", err)
	}
	if _, err := tr.Send([]byte("x")); !errors.Is(err, ncerr.ErrTransportClosed) {
		t.Errorf("Send = %v, want ErrTransportClosed", err)
	}
	if _, err := tr.Receive(make([]byte, 4)); !errors.Is(err, ncerr.ErrTransportClosed) {
		t.Errorf("Receive = %v, want ErrTransportClosed", err)
	}
	if err := tr.SetReadDeadline(time.Now()); !errors.Is(err, ncerr.ErrTransportClosed) {
		t.Errorf("SetReadDeadline = %v, want ErrTransportClosed", err)
	}
	if tr.LocalAddr() != nil || tr.RemoteAddr() != nil {
		t.Error("endpoint accessors should be nil before Open")
	}
}

func TestTCP_CloseThenReopen(t *testing.T) {
	ln := echoListener(t)
	tr := &TCP{Timeout: 2 * time.Second}

	if err := tr.Open(context.Background(), ln.Addr().String()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if tr.IsOpen() {
		t.Fatal("transport should be closed")
	}

	ln2 := echoListener(t)
	if err := tr.Open(context.Background(), ln2.Addr().String()); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	tr.Close()
}

func TestTCP_ReadDeadline(t *testing.T) {
	ln := echoListener(t)
	tr := &TCP{Timeout: 2 * time.Second}
	if err := tr.Open(context.Background(), ln.Addr().String()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close()

	if err := tr.SetReadDeadline(time.Now().Add(30 * time.Millisecond)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	_, err := tr.Receive(make([]byte, 8))
	var nerr net.Error
	if !errors.As(err, &nerr) || !nerr.Timeout() {
		t.Errorf("Receive after deadline = %v, want a timeout", err)
	}

	// Clearing the deadline makes the connection usable again.
	if err := tr.SetReadDeadline(time.Time{}); err != nil {
		t.Fatalf("clear deadline: %v", err)
	}
	tr.Send([]byte("ping")) //nolint:errcheck
	buf := make([]byte, 8)
	if n, err := tr.Receive(buf); err != nil || string(buf[:n]) != "ping" {
		t.Errorf("Receive = (%q, %v), want the echo", buf[:n], err)
	}
}

func TestTCP_Endpoints(t *testing.T) {
	ln := echoListener(t)
	tr := &TCP{Timeout: 2 * time.Second}
	if err := tr.Open(context.Background(), ln.Addr().String()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close()

	local, ok := tr.LocalAddr().(*net.TCPAddr)
	if !ok || local.Port == 0 {
		t.Errorf("LocalAddr = %v, want a bound TCP address", tr.LocalAddr())
	}
	if got := tr.RemoteAddr().String(); got != ln.Addr().String() {
		t.Errorf("RemoteAddr = %q, want %q", got, ln.Addr())
	}

	// The transport satisfies both optional capabilities.
	var _ Endpoints = tr
	var _ Deadliner = tr
}
