package util

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the relay's writer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRelay_BothDirections(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	// Remote peer: read the 5 uploaded bytes, answer, close.
	go func() {
		buf := make([]byte, 5)
		if _, err := io.ReadFull(remote, buf); err != nil {
			return
		}
		remote.Write([]byte("world")) //nolint:errcheck
		remote.Close()
	}()

	var out syncBuffer
	err := Relay(context.Background(), local, strings.NewReader("hello"), &out)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if got := out.String(); got != "world" {
		t.Errorf("downstream = %q, want %q", got, "world")
	}
}

// A drained stdin must not tear the stream down while the remote is
// still sending.
func TestRelay_InputEOFKeepsDraining(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	go func() {
		// Send well after the empty reader has hit EOF.
		time.Sleep(50 * time.Millisecond)
		remote.Write([]byte("late data")) //nolint:errcheck
		remote.Close()
	}()

	var out syncBuffer
	err := Relay(context.Background(), local, strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if got := out.String(); got != "late data" {
		t.Errorf("downstream = %q, want %q", got, "late data")
	}
}

func TestRelay_ContextCancel(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		var out syncBuffer
		// blockingReader never produces data, so only cancellation
		// can end the relay.
		done <- Relay(ctx, local, blockingReader{}, &out)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancelled Relay = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Relay did not return after cancellation")
	}
}

// blockingReader blocks forever, standing in for an idle terminal.
type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}

func TestIsHarmless(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"eof", io.EOF, true},
		{"closed pipe", io.ErrClosedPipe, true},
		{"net closed", net.ErrClosed, true},
		{"op error wrapping closed", &net.OpError{Op: "read", Err: net.ErrClosed}, true},
		{"real error", io.ErrUnexpectedEOF, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHarmless(tt.err); got != tt.want {
				t.Errorf("isHarmless(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCopyBufs_RoundTrip(t *testing.T) {
	buf := copyBufs.Get().(*[]byte)
	if buf == nil || len(*buf) != DefaultBufSize {
		t.Fatalf("pool returned %v", buf)
	}
	copyBufs.Put(buf)
}
