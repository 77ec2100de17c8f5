package pattern

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParallelPreservesInputOrder(t *testing.T) {
	t.Parallel()
	items := []string{"a", "b", "c"}
	results, err := Parallel(context.Background(), items, func(_ context.Context, s string) (string, error) {
		// Finish out of order; slots must still line up with inputs.
		if s == "a" {
			time.Sleep(30 * time.Millisecond)
		}
		return "r" + s, nil
	}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"ra", "rb", "rc"}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("slot %d: expected %q, got %q", i, want[i], results[i])
		}
	}
}

func TestParallelBoundsConcurrency(t *testing.T) {
	t.Parallel()
	const limit = 2
	var cur, maxSeen atomic.Int64
	items := make([]int, 12)
	_, err := Parallel(context.Background(), items, func(_ context.Context, _ int) (int, error) {
		c := cur.Add(1)
		for {
			m := maxSeen.Load()
			if c <= m || maxSeen.CompareAndSwap(m, c) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		cur.Add(-1)
		return 0, nil
	}, limit)
	if err != nil {
		t.Fatal(err)
	}
	if got := maxSeen.Load(); got > limit {
		t.Fatalf("observed concurrency %d exceeds limit %d", got, limit)
	}
}

func TestParallelFailureCancelsRemaining(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	items := []int{0, 1, 2, 3}
	results, err := Parallel(context.Background(), items, func(ctx context.Context, n int) (int, error) {
		if n == 1 {
			return 0, boom
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return n, nil
		}
	}, 4)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if results != nil {
		t.Fatal("no partial results on failure")
	}
}

func TestParallelSettledKeepsAllOutcomes(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	items := []int{1, 2, 3}
	outcomes := ParallelSettled(context.Background(), items, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 10, nil
	}, 3)
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Value != 10 {
		t.Fatalf("slot 0: %+v", outcomes[0])
	}
	if outcomes[1].Err != boom {
		t.Fatalf("slot 1 must hold its error, got %+v", outcomes[1])
	}
	if outcomes[2].Err != nil || outcomes[2].Value != 30 {
		t.Fatalf("slot 2: %+v", outcomes[2])
	}
}

func TestParallelEmptyInput(t *testing.T) {
	t.Parallel()
	results, err := Parallel(context.Background(), nil, func(_ context.Context, _ int) (int, error) {
		t.Error("fn must not run for empty input")
		return 0, nil
	}, 4)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results, got (%v, %v)", results, err)
	}
}
