package pool_test

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/XDXX/PNA/internal/pool"
	log "github.com/sirupsen/logrus"
)

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func pools(t *testing.T) map[string]func() pool.ThreadPool {
	t.Helper()

	return map[string]func() pool.ThreadPool{
		pool.KindShared: func() pool.ThreadPool {
			p, err := pool.NewSharedQueuePool(4, 16, quietLogger())
			if err != nil {
				t.Fatal(err)
			}
			return p
		},
		pool.KindNaive: func() pool.ThreadPool {
			return pool.NewNaivePool(quietLogger())
		},
	}
}

func TestPoolRunsEveryTask(t *testing.T) {
	for name, newPool := range pools(t) {
		t.Run(name, func(t *testing.T) {
			p := newPool()

			var done atomic.Int64
			for i := 0; i < 200; i++ {
				if err := p.Spawn(func() { done.Add(1) }); err != nil {
					t.Fatal(err)
				}
			}

			if err := p.Shutdown(); err != nil {
				t.Fatal(err)
			}
			if got := done.Load(); got != 200 {
				t.Fatalf("expected 200 tasks to run, got %d", got)
			}
		})
	}
}

func TestPoolSurvivesPanickingTasks(t *testing.T) {
	for name, newPool := range pools(t) {
		t.Run(name, func(t *testing.T) {
			p := newPool()

			var done atomic.Int64
			for i := 0; i < 50; i++ {
				p.Spawn(func() { panic("boom") })
				p.Spawn(func() { done.Add(1) })
			}

			p.Shutdown()
			if got := done.Load(); got != 50 {
				t.Fatalf("expected 50 healthy tasks to run, got %d", got)
			}
		})
	}
}

func TestPoolShutdownDrainsInFlightTasks(t *testing.T) {
	for name, newPool := range pools(t) {
		t.Run(name, func(t *testing.T) {
			p := newPool()

			var done atomic.Int64
			for i := 0; i < 8; i++ {
				p.Spawn(func() {
					time.Sleep(20 * time.Millisecond)
					done.Add(1)
				})
			}

			p.Shutdown()
			if got := done.Load(); got != 8 {
				t.Fatalf("shutdown returned before tasks finished: %d/8", got)
			}
		})
	}
}

func TestPoolRejectsTasksAfterShutdown(t *testing.T) {
	for name, newPool := range pools(t) {
		t.Run(name, func(t *testing.T) {
			p := newPool()
			p.Shutdown()

			if err := p.Spawn(func() {}); !errors.Is(err, pool.ErrPoolClosed) {
				t.Fatalf("expected ErrPoolClosed, got %v", err)
			}
			if err := p.Shutdown(); err != nil {
				t.Fatalf("second shutdown failed: %v", err)
			}
		})
	}
}

func TestSharedQueuePoolBoundsConcurrency(t *testing.T) {
	const workers = 3

	p, err := pool.NewSharedQueuePool(workers, 0, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu      sync.Mutex
		running int
		peak    int
	)

	for i := 0; i < 20; i++ {
		p.Spawn(func() {
			mu.Lock()
			running++
			peak = max(peak, running)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	p.Shutdown()

	if peak > workers {
		t.Fatalf("expected at most %d concurrent tasks, saw %d", workers, peak)
	}
}

func TestSharedQueuePoolIsFIFOWithOneWorker(t *testing.T) {
	p, err := pool.NewSharedQueuePool(1, 100, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		p.Spawn(func() { order = append(order, i) })
	}
	p.Shutdown()

	for i, got := range order {
		if got != i {
			t.Fatalf("task %d ran at position %d", got, i)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		workers int
		wantErr bool
	}{
		{pool.KindShared, 2, false},
		{pool.KindNaive, 0, false},
		{pool.KindShared, 0, true},
		{"rayon", 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			p, err := pool.New(tt.kind, tt.workers, 4, quietLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error: %v, got %v", tt.wantErr, err)
			}
			if p != nil {
				p.Shutdown()
			}
		})
	}
}
