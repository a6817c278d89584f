// Package ratelimit implements the admission gate that bounds concurrent
// in-flight ERS calls and the number of calls started per rolling window.
// Cisco ISE enforces 30 concurrent connections per node on the ERS API;
// exceeding it produces 500 errors, so every call the client makes must
// hold a gate ticket.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for gate admission.
var (
	gateInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ise_gate_in_flight",
		Help: "Number of calls currently holding a gate ticket",
	})

	gateAdmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ise_gate_admissions_total",
		Help: "Total number of calls admitted through the gate",
	})

	gateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ise_gate_wait_seconds",
		Help:    "Time callers spent waiting for gate admission",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10},
	})
)

// GateConfig holds the gate ceilings.
type GateConfig struct {
	// Concurrency is the maximum number of calls that may hold a ticket
	// at the same time.
	Concurrency int

	// Rate is the maximum number of calls that may be admitted within
	// one trailing Window.
	Rate int

	// Window is the length of the rolling admission window.
	Window time.Duration
}

// DefaultGateConfig returns the documented ISE ERS limits:
// 30 concurrent connections and 30 request starts per second.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Concurrency: 30,
		Rate:        30,
		Window:      time.Second,
	}
}

// Ticket represents permission to have one call in flight.
// It must be returned to the gate via Release exactly once.
type Ticket struct {
	released sync.Once
}

// Gate admits calls subject to the concurrency and rate ceilings.
//
// Both ceilings share one mutex: the in-flight counter and the
// admission-window timestamps are checked and updated together, so a
// release racing a window expiry cannot over-admit.
type Gate struct {
	cfg    GateConfig
	logger zerolog.Logger

	mu       sync.Mutex
	inFlight int
	starts   []time.Time   // admission timestamps within the trailing window
	wakeup   chan struct{} // closed and replaced on every release
}

// NewGate creates a gate with the given ceilings.
func NewGate(cfg GateConfig, logger zerolog.Logger) (*Gate, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("gate concurrency must be positive (got %d)", cfg.Concurrency)
	}
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("gate rate must be positive (got %d)", cfg.Rate)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("gate window must be positive (got %s)", cfg.Window)
	}

	return &Gate{
		cfg:    cfg,
		logger: logger,
		starts: make([]time.Time, 0, cfg.Rate),
		wakeup: make(chan struct{}),
	}, nil
}

// Acquire blocks until a ticket is available or the context is cancelled.
// A ticket is granted only when both the concurrency ceiling and the
// rolling-window rate ceiling have headroom.
func (g *Gate) Acquire(ctx context.Context) (*Ticket, error) {
	waitStart := time.Now()

	for {
		g.mu.Lock()
		now := time.Now()
		g.expireLocked(now)

		if g.inFlight < g.cfg.Concurrency && len(g.starts) < g.cfg.Rate {
			g.inFlight++
			g.starts = append(g.starts, now)
			g.mu.Unlock()

			gateInFlight.Inc()
			gateAdmissionsTotal.Inc()
			gateWaitSeconds.Observe(time.Since(waitStart).Seconds())

			return &Ticket{}, nil
		}

		// Blocked: wait for a release (frees a concurrency slot) or for
		// the oldest window timestamp to expire (frees a rate slot).
		var timer *time.Timer
		var expiry <-chan time.Time
		if len(g.starts) >= g.cfg.Rate {
			d := g.starts[0].Add(g.cfg.Window).Sub(now)
			if d <= 0 {
				g.mu.Unlock()
				continue
			}
			timer = time.NewTimer(d)
			expiry = timer.C
		}
		wakeup := g.wakeup
		inFlight := g.inFlight
		g.mu.Unlock()

		g.logger.Debug().
			Int("in_flight", inFlight).
			Msg("waiting for gate admission")

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, ctx.Err()
		case <-expiry:
		case <-wakeup:
			if timer != nil {
				timer.Stop()
			}
		}
	}
}

// Release returns the concurrency slot of a ticket. The rate-window slot
// is not freed: it expires only by time passing, so a burst of fast calls
// is still throttled to the admission rate. Releasing twice is a no-op.
func (g *Gate) Release(t *Ticket) {
	if t == nil {
		return
	}
	t.released.Do(func() {
		g.mu.Lock()
		g.inFlight--
		close(g.wakeup)
		g.wakeup = make(chan struct{})
		g.mu.Unlock()

		gateInFlight.Dec()
	})
}

// InFlight reports the number of tickets currently held. Used by tests
// to assert the concurrency invariant.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// AdmittedInWindow reports how many admissions fall inside the current
// trailing window.
func (g *Gate) AdmittedInWindow() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expireLocked(time.Now())
	return len(g.starts)
}

// expireLocked drops admission timestamps older than the window.
// Callers must hold g.mu.
func (g *Gate) expireLocked(now time.Time) {
	cutoff := now.Add(-g.cfg.Window)
	i := 0
	for i < len(g.starts) && !g.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		g.starts = append(g.starts[:0], g.starts[i:]...)
	}
}
