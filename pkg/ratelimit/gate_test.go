package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestGate(t *testing.T, cfg GateConfig) *Gate {
	t.Helper()

	gate, err := NewGate(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGate() error: %v", err)
	}
	return gate
}

func TestNewGate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GateConfig
		wantErr bool
	}{
		{
			name:    "default config",
			cfg:     DefaultGateConfig(),
			wantErr: false,
		},
		{
			name:    "zero concurrency",
			cfg:     GateConfig{Concurrency: 0, Rate: 30, Window: time.Second},
			wantErr: true,
		},
		{
			name:    "negative rate",
			cfg:     GateConfig{Concurrency: 30, Rate: -1, Window: time.Second},
			wantErr: true,
		},
		{
			name:    "zero window",
			cfg:     GateConfig{Concurrency: 30, Rate: 30, Window: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGate(tt.cfg, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGate_DefaultConfig(t *testing.T) {
	cfg := DefaultGateConfig()
	if cfg.Concurrency != 30 {
		t.Errorf("Concurrency = %d, want 30", cfg.Concurrency)
	}
	if cfg.Rate != 30 {
		t.Errorf("Rate = %d, want 30", cfg.Rate)
	}
	if cfg.Window != time.Second {
		t.Errorf("Window = %s, want 1s", cfg.Window)
	}
}

// TestGate_ConcurrencyCeiling verifies that in-flight tickets never exceed
// the configured ceiling, even with many more callers than slots.
func TestGate_ConcurrencyCeiling(t *testing.T) {
	const ceiling = 5
	const callers = 40

	gate := newTestGate(t, GateConfig{
		Concurrency: ceiling,
		Rate:        1000, // rate ceiling out of the way
		Window:      time.Second,
	})

	var inFlight, highWater int64
	var wg sync.WaitGroup
	ctx := context.Background()

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ticket, err := gate.Acquire(ctx)
			if err != nil {
				t.Errorf("Acquire() error: %v", err)
				return
			}

			cur := atomic.AddInt64(&inFlight, 1)
			for {
				prev := atomic.LoadInt64(&highWater)
				if cur <= prev || atomic.CompareAndSwapInt64(&highWater, prev, cur) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			gate.Release(ticket)
		}()
	}

	wg.Wait()

	if hw := atomic.LoadInt64(&highWater); hw > ceiling {
		t.Errorf("in-flight high water = %d, ceiling %d", hw, ceiling)
	}
	if gate.InFlight() != 0 {
		t.Errorf("InFlight() = %d after all releases, want 0", gate.InFlight())
	}
}

// TestGate_RateCeiling verifies that a burst of fast calls is throttled to
// the admission rate even though no call is concurrently open for long.
func TestGate_RateCeiling(t *testing.T) {
	const rate = 10
	const calls = 30 // three windows' worth
	window := 100 * time.Millisecond

	gate := newTestGate(t, GateConfig{
		Concurrency: 1000, // concurrency ceiling out of the way
		Rate:        rate,
		Window:      window,
	})

	ctx := context.Background()
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ticket, err := gate.Acquire(ctx)
			if err != nil {
				t.Errorf("Acquire() error: %v", err)
				return
			}
			if n := gate.AdmittedInWindow(); n > rate {
				t.Errorf("admissions in window = %d, ceiling %d", n, rate)
			}
			// Fast call: release immediately. The rate-window slot must
			// still stay occupied until it expires.
			gate.Release(ticket)
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)

	// 30 calls at 10 per 100ms need at least two full extra windows.
	if min := 2 * window; elapsed < min {
		t.Errorf("burst of %d calls finished in %s, want >= %s", calls, elapsed, min)
	}
}

func TestGate_AcquireContextCancelled(t *testing.T) {
	gate := newTestGate(t, GateConfig{Concurrency: 1, Rate: 100, Window: time.Second})

	// Occupy the only slot.
	ticket, err := gate.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer gate.Release(ticket)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = gate.Acquire(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Acquire() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestGate_ReleaseFreesConcurrencySlot(t *testing.T) {
	gate := newTestGate(t, GateConfig{Concurrency: 1, Rate: 100, Window: time.Second})
	ctx := context.Background()

	first, err := gate.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := gate.Acquire(ctx)
		if err != nil {
			t.Errorf("second Acquire() error: %v", err)
			return
		}
		close(acquired)
		gate.Release(second)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire() succeeded while slot was held")
	case <-time.After(30 * time.Millisecond):
	}

	gate.Release(first)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire() did not proceed after Release")
	}
}

func TestGate_DoubleReleaseIsNoop(t *testing.T) {
	gate := newTestGate(t, GateConfig{Concurrency: 2, Rate: 100, Window: time.Second})

	ticket, err := gate.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	gate.Release(ticket)
	gate.Release(ticket)
	gate.Release(nil)

	if got := gate.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d after double release, want 0", got)
	}
}

func TestGate_WindowSlotsExpireByTime(t *testing.T) {
	window := 50 * time.Millisecond
	gate := newTestGate(t, GateConfig{Concurrency: 10, Rate: 2, Window: window})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ticket, err := gate.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error: %v", err)
		}
		gate.Release(ticket)
	}

	// Both rate slots are taken even though nothing is in flight.
	if n := gate.AdmittedInWindow(); n != 2 {
		t.Fatalf("AdmittedInWindow() = %d, want 2", n)
	}

	start := time.Now()
	ticket, err := gate.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	gate.Release(ticket)

	if waited := time.Since(start); waited < window/2 {
		t.Errorf("third Acquire() waited %s, want at least ~%s", waited, window)
	}
}
