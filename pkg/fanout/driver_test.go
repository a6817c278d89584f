package fanout

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

// TestRun_OrderPreserved injects random latency per item and verifies the
// result slice matches input order regardless of completion order.
func TestRun_OrderPreserved(t *testing.T) {
	const n = 50
	ctx := context.Background()

	results := Run(ctx, n, func(ctx context.Context, index int) string {
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		return fmt.Sprintf("item-%d", index)
	})

	if len(results) != n {
		t.Fatalf("got %d results, want %d", len(results), n)
	}
	for i, got := range results {
		if want := fmt.Sprintf("item-%d", i); got != want {
			t.Errorf("results[%d] = %q, want %q", i, got, want)
		}
	}
}

// TestRun_FailuresIsolated verifies one failing item does not disturb the
// others and every item still reports a result.
func TestRun_FailuresIsolated(t *testing.T) {
	const n = 10
	ctx := context.Background()

	type outcome struct {
		ok  bool
		err error
	}

	results := Run(ctx, n, func(ctx context.Context, index int) outcome {
		if index == 5 {
			return outcome{err: fmt.Errorf("item %d not found", index)}
		}
		return outcome{ok: true}
	})

	if len(results) != n {
		t.Fatalf("got %d results, want %d", len(results), n)
	}
	for i, r := range results {
		if i == 5 {
			if r.ok || r.err == nil {
				t.Errorf("results[5] = %+v, want failure", r)
			}
			continue
		}
		if !r.ok {
			t.Errorf("results[%d] = %+v, want success", i, r)
		}
	}
}

func TestRun_SingleItem(t *testing.T) {
	results := Run(context.Background(), 1, func(ctx context.Context, index int) int {
		return index + 41
	})

	if len(results) != 1 || results[0] != 41 {
		t.Errorf("results = %v, want [41]", results)
	}
}

func TestRun_ZeroItems(t *testing.T) {
	results := Run(context.Background(), 0, func(ctx context.Context, index int) int {
		t.Error("call should not run for empty batch")
		return 0
	})

	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}
