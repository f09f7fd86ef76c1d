package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func fastBackoff(attempts int) *Backoff {
	return &Backoff{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  attempts,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := fastBackoff(5).Do(context.Background(), func(attempt int) error {
		calls++
		if attempt != calls {
			t.Errorf("attempt = %d, want %d", attempt, calls)
		}
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_FirstTrySuccess(t *testing.T) {
	calls := 0
	err := fastBackoff(5).Do(context.Background(), func(int) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Do = %v after %d calls, want immediate success", err, calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	inner := errors.New("still failing")
	calls := 0
	err := fastBackoff(3).Do(context.Background(), func(int) error {
		calls++
		return inner
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if err == nil || !errors.Is(err, inner) {
		t.Fatalf("Do = %v, want wrapped inner error", err)
	}
	if !strings.Contains(err.Error(), "max retries (3)") {
		t.Errorf("error %q should mention the attempt budget", err)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	inner := errors.New("bad certificate")
	calls := 0
	err := fastBackoff(5).Do(context.Background(), func(int) error {
		calls++
		return Permanent(inner)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after a permanent error)", calls)
	}
	if err != inner {
		t.Errorf("Do = %v, want the unwrapped inner error", err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Backoff{InitialDelay: time.Hour, MaxAttempts: 5}

	done := make(chan error, 1)
	go func() {
		done <- b.Do(ctx, func(int) error { return errors.New("fail") })
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	inner := errors.New("x")
	p := Permanent(inner)
	if !IsPermanent(p) {
		t.Error("IsPermanent should detect the marker")
	}
	if !IsPermanent(fmt.Errorf("wrapped: %w", p)) {
		t.Error("IsPermanent should see through wrapping")
	}
	if IsPermanent(inner) {
		t.Error("unmarked errors are not permanent")
	}
	if p.Error() != "x" {
		t.Errorf("Error = %q, want the inner message", p.Error())
	}
}

func TestAddJitter_Bounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 200; i++ {
		got := addJitter(d)
		if got < 75*time.Millisecond || got > 125*time.Millisecond {
			t.Fatalf("addJitter(%v) = %v, outside the ±25%% band", d, got)
		}
	}
}

func TestDefaultBackoff(t *testing.T) {
	b := DefaultBackoff()
	if b.InitialDelay != 500*time.Millisecond || b.MaxDelay != 30*time.Second ||
		b.Multiplier != 2.0 || b.MaxAttempts != 5 || !b.Jitter {
		t.Errorf("DefaultBackoff = %+v", b)
	}
}
