package errgroup

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
	xerrgroup "golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// The adapter must behave like golang.org/x/sync/errgroup at the call
// sites it is meant to replace. Each case runs the same workload
// through both implementations and compares outcomes.

func TestParityFirstErrorWins(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	workload := func(spawn func(func() error), wait func() error) error {
		spawn(func() error { return nil })
		spawn(func() error {
			time.Sleep(10 * time.Millisecond)
			return boom
		})
		return wait()
	}

	xg, _ := xerrgroup.WithContext(context.Background())
	xErr := workload(xg.Go, xg.Wait)

	g, _ := WithContext(context.Background())
	ourErr := workload(g.Go, g.Wait)

	if !errors.Is(xErr, boom) || !errors.Is(ourErr, boom) {
		t.Fatalf("outcomes diverge: x/sync=%v ours=%v", xErr, ourErr)
	}
}

func TestParityContextCancelledOnFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	workload := func(spawn func(func() error), wait func() error, ctx context.Context) bool {
		observed := make(chan struct{})
		spawn(func() error { return boom })
		spawn(func() error {
			select {
			case <-ctx.Done():
				close(observed)
			case <-time.After(250 * time.Millisecond):
			}
			return nil
		})
		_ = wait()
		select {
		case <-observed:
			return true
		default:
			return false
		}
	}

	xg, xctx := xerrgroup.WithContext(context.Background())
	if !workload(xg.Go, xg.Wait, xctx) {
		t.Fatal("x/sync errgroup did not cancel its context")
	}
	g, gctx := WithContext(context.Background())
	if !workload(g.Go, g.Wait, gctx) {
		t.Fatal("adapter did not cancel its context")
	}
}

func TestParitySuccessReturnsNil(t *testing.T) {
	t.Parallel()
	run := func(spawn func(func() error), wait func() error) error {
		for i := 0; i < 4; i++ {
			spawn(func() error { return nil })
		}
		return wait()
	}
	xg, _ := xerrgroup.WithContext(context.Background())
	if err := run(xg.Go, xg.Wait); err != nil {
		t.Fatal(err)
	}
	g, _ := WithContext(context.Background())
	if err := run(g.Go, g.Wait); err != nil {
		t.Fatal(err)
	}
}
