package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitOrFail fails the test when fn does not return within d.
func waitOrFail(t *testing.T, d time.Duration, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s did not return within %v", what, d)
	}
}

func TestWorkerPoolParsesEveryFile(t *testing.T) {
	p := NewWorkerPool(4, 16)
	p.OnError = func(err error) { t.Errorf("unexpected job error: %v", err) }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	var mu sync.Mutex
	parsed := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("C%02d.csv", i)
		err := p.SubmitCtx(ctx, func(ctx context.Context) error {
			mu.Lock()
			parsed[name] = true
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("submit %s: %v", name, err)
		}
	}
	p.Close()

	if len(parsed) != 100 {
		t.Fatalf("expected 100 parsed files, got %d", len(parsed))
	}
}

func TestWorkerPoolRejectsSubmitAfterClose(t *testing.T) {
	p := NewWorkerPool(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	p.Close()
	p.Close() // second Close is a no-op

	noop := func(ctx context.Context) error { return nil }
	if err := p.Submit(noop); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("Submit: expected ErrPoolClosed, got %v", err)
	}
	if err := p.SubmitCtx(ctx, noop); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("SubmitCtx: expected ErrPoolClosed, got %v", err)
	}
}

func TestBlockedSubmitCtxReturnsOnClose(t *testing.T) {
	p := NewWorkerPool(1, 1)
	// Workers are never started, so the queue stays full after one job.
	if err := p.SubmitCtx(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("setup submit failed: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- p.SubmitCtx(context.Background(), func(ctx context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)

	waitOrFail(t, time.Second, "Close", p.Close)
	if err := <-errc; !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestBlockedSubmitCtxReturnsOnCancel(t *testing.T) {
	p := NewWorkerPool(1, 1)
	defer p.Close()
	if err := p.Submit(func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("setup submit failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- p.SubmitCtx(ctx, func(ctx context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("SubmitCtx stayed blocked after cancel")
	}
}

func TestCanceledPoolStopsWorkers(t *testing.T) {
	p := NewWorkerPool(2, 16)
	var reported int32
	p.OnError = func(error) { atomic.AddInt32(&reported, 1) }
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	started := make(chan struct{})
	if err := p.SubmitCtx(ctx, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started
	cancel()

	waitOrFail(t, time.Second, "Close after cancel", p.Close)
	if got := atomic.LoadInt32(&reported); got != 1 {
		t.Fatalf("expected the canceled job's error to be reported once, got %d", got)
	}
}

func TestWorkerPoolReportsJobErrors(t *testing.T) {
	p := NewWorkerPool(3, 8)
	var (
		mu     sync.Mutex
		errs   []error
		boom   = errors.New("malformed archive member")
		ctx, c = context.WithCancel(context.Background())
	)
	defer c()
	p.OnError = func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	p.Start(ctx)

	for i := 0; i < 10; i++ {
		fail := i%2 == 0
		if err := p.SubmitCtx(ctx, func(ctx context.Context) error {
			if fail {
				return fmt.Errorf("parse file %d: %w", i, boom)
			}
			return nil
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	p.Close()

	if len(errs) != 5 {
		t.Fatalf("expected 5 reported failures, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, boom) {
			t.Fatalf("reported error lost its cause: %v", err)
		}
	}
}
