package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// DefaultBufSize is the standard buffer size for relay I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// copyBufs recycles the relay copy buffers; a long-lived session would
// otherwise allocate one per direction on every reconnect.
var copyBufs = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// writeCloser is the optional half-close capability.  Streams that can
// signal end-of-write without tearing down the read side (TCP, TLS)
// implement it.
type writeCloser interface {
	CloseWrite() error
}

// Relay shuffles data between an established secure stream and an
// arbitrary reader/writer pair (typically stdin/stdout) until one side
// reaches EOF or the context is cancelled.
func Relay(ctx context.Context, stream io.ReadWriteCloser, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	// stream → writer
	go func() {
		buf := copyBufs.Get().(*[]byte)
		_, err := io.CopyBuffer(w, stream, *buf)
		copyBufs.Put(buf)
		errCh <- err
		cancel()
	}()

	// reader → stream
	go func() {
		buf := copyBufs.Get().(*[]byte)
		_, err := io.CopyBuffer(stream, r, *buf)
		copyBufs.Put(buf)
		// Half-close the write side so the remote knows we're done
		// sending, but keep the read side open to drain any remaining
		// data from the server (the other goroutine handles that).
		if wc, ok := stream.(writeCloser); ok {
			wc.CloseWrite() //nolint:errcheck
		}
		errCh <- err
		// Only cancel on real errors; a normal EOF from the reader
		// should NOT tear down the stream before the remote finishes
		// sending.
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	stream.Close() // unblock any pending reads/writes

	// Closing the stream always unblocks the downstream copy.  The
	// upstream copy may stay parked on a reader that will never
	// produce another byte (an idle terminal), so it gets a grace
	// window rather than an unconditional join.
	var first error
	for i := 0; i < 2; i++ {
		select {
		case err := <-errCh:
			if err != nil && !isHarmless(err) && first == nil {
				first = err
			}
		case <-time.After(200 * time.Millisecond):
			return first
		}
	}
	return first
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
