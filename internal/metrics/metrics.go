// Package metrics provides lightweight, lock-free counters for
// tracking runtime statistics of a gossl adapter.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a single adapter instance.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	handshakesFull    atomic.Int64
	handshakesResumed atomic.Int64
	connectsFailed    atomic.Int64
	cacheHits         atomic.Int64
	cacheEvictions    atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	errorsTotal       atomic.Int64

	mu            sync.RWMutex
	startTime     time.Time
	lastHandshake time.Duration
	lastError     time.Time
	lastErrorMsg  string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Handshake metrics ────────────────────────────────────────────────

// HandshakeDone records a completed handshake and its duration.
// resumed marks whether a cached session was reused.
func (c *Collector) HandshakeDone(resumed bool, d time.Duration) {
	if c == nil {
		return
	}
	if resumed {
		c.handshakesResumed.Add(1)
	} else {
		c.handshakesFull.Add(1)
	}
	c.mu.Lock()
	c.lastHandshake = d
	c.mu.Unlock()
}

// ConnectFailed records a failed connect attempt.
func (c *Collector) ConnectFailed() {
	if c == nil {
		return
	}
	c.connectsFailed.Add(1)
}

// FullHandshakes returns the lifetime full-handshake count.
func (c *Collector) FullHandshakes() int64 {
	if c == nil {
		return 0
	}
	return c.handshakesFull.Load()
}

// ResumedHandshakes returns the lifetime resumed-handshake count.
func (c *Collector) ResumedHandshakes() int64 {
	if c == nil {
		return 0
	}
	return c.handshakesResumed.Load()
}

// LastHandshakeDuration returns the duration of the most recent
// successful handshake.
func (c *Collector) LastHandshakeDuration() time.Duration {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHandshake
}

// ── Cache metrics ────────────────────────────────────────────────────

// CacheHit records a session-cache identity match.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Add(1)
}

// CacheEviction records a round-robin slot rotation on a cache miss.
func (c *Collector) CacheEviction() {
	if c == nil {
		return
	}
	c.cacheEvictions.Add(1)
}

// CacheHits returns the lifetime cache-hit count.
func (c *Collector) CacheHits() int64 {
	if c == nil {
		return 0
	}
	return c.cacheHits.Load()
}

// CacheEvictions returns the lifetime eviction count.
func (c *Collector) CacheEvictions() int64 {
	if c == nil {
		return 0
	}
	return c.cacheEvictions.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes of application data read.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes of application data written.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total application bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total application bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	HandshakesFull    int64  `json:"handshakes_full"`
	HandshakesResumed int64  `json:"handshakes_resumed"`
	ConnectsFailed    int64  `json:"connects_failed"`
	CacheHits         int64  `json:"cache_hits"`
	CacheEvictions    int64  `json:"cache_evictions"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastHandshake     string `json:"last_handshake,omitempty"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		HandshakesFull:    c.handshakesFull.Load(),
		HandshakesResumed: c.handshakesResumed.Load(),
		ConnectsFailed:    c.connectsFailed.Load(),
		CacheHits:         c.cacheHits.Load(),
		CacheEvictions:    c.cacheEvictions.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if c.lastHandshake > 0 {
		s.LastHandshake = c.lastHandshake.Truncate(time.Millisecond).String()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
