package metrics

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCollector_Handshakes(t *testing.T) {
	c := New()
	c.HandshakeDone(false, 120*time.Millisecond)
	c.HandshakeDone(true, 15*time.Millisecond)
	c.HandshakeDone(true, 10*time.Millisecond)

	if got := c.FullHandshakes(); got != 1 {
		t.Errorf("FullHandshakes = %d, want 1", got)
	}
	if got := c.ResumedHandshakes(); got != 2 {
		t.Errorf("ResumedHandshakes = %d, want 2", got)
	}
	if got := c.LastHandshakeDuration(); got != 10*time.Millisecond {
		t.Errorf("LastHandshakeDuration = %v, want 10ms", got)
	}
}

func TestCollector_CacheAndIO(t *testing.T) {
	c := New()
	c.CacheHit()
	c.CacheHit()
	c.CacheEviction()
	c.BytesSent(100)
	c.BytesSent(50)
	c.BytesReceived(7)

	if got := c.CacheHits(); got != 2 {
		t.Errorf("CacheHits = %d, want 2", got)
	}
	if got := c.CacheEvictions(); got != 1 {
		t.Errorf("CacheEvictions = %d, want 1", got)
	}
	if got := c.TotalBytesOut(); got != 150 {
		t.Errorf("TotalBytesOut = %d, want 150", got)
	}
	if got := c.TotalBytesIn(); got != 7 {
		t.Errorf("TotalBytesIn = %d, want 7", got)
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()
	c.RecordError("first")
	c.ConnectFailed()
	c.RecordError("second")

	if got := c.ErrorCount(); got != 2 {
		t.Errorf("ErrorCount = %d, want 2", got)
	}
	s := c.Snapshot()
	if s.ConnectsFailed != 1 {
		t.Errorf("ConnectsFailed = %d, want 1", s.ConnectsFailed)
	}
	if s.LastErrorMessage != "second" {
		t.Errorf("LastErrorMessage = %q, want %q", s.LastErrorMessage, "second")
	}
	if s.LastError == "" {
		t.Error("LastError timestamp should be set")
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.HandshakeDone(true, time.Second)
	c.ConnectFailed()
	c.CacheHit()
	c.CacheEviction()
	c.BytesSent(1)
	c.BytesReceived(1)
	c.RecordError("ignored")

	if c.FullHandshakes() != 0 || c.ResumedHandshakes() != 0 || c.CacheHits() != 0 ||
		c.CacheEvictions() != 0 || c.TotalBytesIn() != 0 || c.TotalBytesOut() != 0 ||
		c.ErrorCount() != 0 || c.LastHandshakeDuration() != 0 {
		t.Error("nil collector accessors should all return zero")
	}
	if got := c.Snapshot(); got != (Snapshot{}) {
		t.Errorf("nil Snapshot = %+v, want zero value", got)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.HandshakeDone(false, 42*time.Millisecond)
	c.BytesSent(9)

	var s Snapshot
	if err := json.Unmarshal([]byte(c.JSON()), &s); err != nil {
		t.Fatalf("JSON output not parseable: %v", err)
	}
	if s.HandshakesFull != 1 || s.BytesOut != 9 {
		t.Errorf("round-tripped snapshot = %+v", s)
	}
	if s.LastHandshake != "42ms" {
		t.Errorf("LastHandshake = %q, want %q", s.LastHandshake, "42ms")
	}
}
