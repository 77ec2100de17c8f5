package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStartDeliversReadyValue(t *testing.T) {
	t.Parallel()
	g := New(context.Background(), FailFast)
	port, err := Start(g, "listener", func(ctx context.Context, ready func(int)) error {
		ready(8080)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != 8080 {
		t.Fatalf("expected 8080, got %d", port)
	}
	g.Cancel()
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestStartFailureBeforeReadyGoesToCaller(t *testing.T) {
	t.Parallel()
	boom := errors.New("bind failed")
	g := New(context.Background(), FailFast)
	_, err := Start(g, "listener", func(_ context.Context, _ func(int)) error {
		return boom
	})
	if err != boom {
		t.Fatalf("pre-readiness failure must reach the caller, got %v", err)
	}
	// The failure was consumed by the caller, not the group.
	if werr := g.Wait(); werr != nil {
		t.Fatalf("group must not also report the consumed failure, got %v", werr)
	}
}

func TestStartNilReturnBeforeReady(t *testing.T) {
	t.Parallel()
	g := New(context.Background(), FailFast)
	_, err := Start(g, "quitter", func(_ context.Context, _ func(string)) error {
		return nil
	})
	if !errors.Is(err, ErrNeverStarted) {
		t.Fatalf("expected ErrNeverStarted, got %v", err)
	}
	if werr := g.Wait(); werr != nil {
		t.Fatal(werr)
	}
}

func TestStartFailureAfterReadyIsGroupFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("died later")
	g := New(context.Background(), FailFast)
	v, err := Start(g, "flaky", func(_ context.Context, ready func(string)) error {
		ready("up")
		time.Sleep(10 * time.Millisecond)
		return boom
	})
	if err != nil || v != "up" {
		t.Fatalf("expected ready value, got (%q, %v)", v, err)
	}
	if werr := g.Wait(); werr != boom {
		t.Fatalf("post-readiness failure belongs to the group, got %v", werr)
	}
}

func TestStartReadySignalRacingCancelWins(t *testing.T) {
	t.Parallel()
	for i := 0; i < 100; i++ {
		g := New(context.Background(), FailFast)
		v, err := Start(g, "racer", func(ctx context.Context, ready func(int)) error {
			ready(7)
			g.Cancel()
			<-ctx.Done()
			return ctx.Err()
		})
		if err != nil || v != 7 {
			t.Fatalf("a readiness signal sent before the cancel must win, got (%d, %v)", v, err)
		}
		if werr := g.Wait(); werr != nil {
			t.Fatal(werr)
		}
	}
}

func TestStartDoubleReadyPanics(t *testing.T) {
	t.Parallel()
	g := New(context.Background(), FailFast)
	_, err := Start(g, "eager", func(_ context.Context, ready func(int)) error {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on second ready call")
			}
		}()
		ready(1)
		ready(2)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if werr := g.Wait(); werr != nil {
		t.Fatal(werr)
	}
}
