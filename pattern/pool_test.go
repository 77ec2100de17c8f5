package pattern

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolReusesIdleConnections(t *testing.T) {
	t.Parallel()
	var dials atomic.Int64
	p := NewPool(4, func(_ context.Context) (int64, error) {
		return dials.Add(1), nil
	})

	c1, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	p.Put(c1)

	c2, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c2 != c1 {
		t.Fatalf("expected the idle connection back, got %d", c2)
	}
	if dials.Load() != 1 {
		t.Fatalf("expected a single dial, got %d", dials.Load())
	}
	p.Put(c2)
	if p.Idle() != 1 || p.InUse() != 0 {
		t.Fatalf("accounting off: idle=%d inuse=%d", p.Idle(), p.InUse())
	}
}

func TestPoolBlocksAtCapacity(t *testing.T) {
	t.Parallel()
	p := NewPool(1, func(_ context.Context) (string, error) {
		return "conn", nil
	})
	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan string)
	go func() {
		c2, err := p.Get(context.Background())
		if err != nil {
			t.Error(err)
			close(got)
			return
		}
		got <- c2
	}()

	select {
	case <-got:
		t.Fatal("second Get must block while the pool is exhausted")
	case <-time.After(30 * time.Millisecond):
	}

	p.Put(c)
	select {
	case <-got:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("blocked Get did not resume after Put")
	}
}

func TestPoolGetCancelledWhileBlocked(t *testing.T) {
	t.Parallel()
	p := NewPool(1, func(_ context.Context) (string, error) {
		return "conn", nil
	})
	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	p.Put(c)
	if p.InUse() != 0 {
		t.Fatalf("cancelled Get must not leak a slot, inuse=%d", p.InUse())
	}
}

func TestPoolFactoryErrorFreesSlot(t *testing.T) {
	t.Parallel()
	dialErr := errors.New("dial failed")
	fail := true
	p := NewPool(1, func(_ context.Context) (string, error) {
		if fail {
			return "", dialErr
		}
		return "conn", nil
	})
	if _, err := p.Get(context.Background()); err != dialErr {
		t.Fatalf("expected dial error, got %v", err)
	}
	fail = false
	// The failed checkout must have released its slot.
	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	p.Put(c)
}

func TestPoolClose(t *testing.T) {
	t.Parallel()
	var closed atomic.Int64
	p := NewPool(2, func(_ context.Context) (int, error) {
		return 7, nil
	}, WithCloser[int](func(int) error {
		closed.Add(1)
		return nil
	}))

	c1, _ := p.Get(context.Background())
	c2, _ := p.Get(context.Background())
	p.Put(c1)

	if err := p.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if closed.Load() != 1 {
		t.Fatalf("expected the idle connection disposed, got %d", closed.Load())
	}

	// An outstanding connection is disposed of when it comes back.
	p.Put(c2)
	if closed.Load() != 2 {
		t.Fatalf("expected the returned connection disposed, got %d", closed.Load())
	}
	if _, err := p.Get(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}
