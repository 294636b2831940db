package pool

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SharedQueuePool is a fixed set of workers consuming one FIFO queue.
type SharedQueuePool struct {
	tasks chan func()
	group errgroup.Group

	mu     sync.RWMutex
	closed bool

	logger log.FieldLogger
}

// NewSharedQueuePool starts workers goroutines. queueSize bounds how many
// tasks may wait for a worker before Spawn blocks; 0 makes Spawn hand tasks
// directly to an idle worker.
func NewSharedQueuePool(workers, queueSize int, logger log.FieldLogger) (*SharedQueuePool, error) {
	if workers < 1 {
		return nil, errors.New("shared pool needs at least one worker")
	}
	if queueSize < 0 {
		return nil, errors.New("queue size cannot be negative")
	}
	if logger == nil {
		logger = log.WithField("component", "pool")
	}

	p := &SharedQueuePool{
		tasks:  make(chan func(), queueSize),
		logger: logger.WithField("pool", KindShared),
	}

	for i := 0; i < workers; i++ {
		worker := p.logger.WithField("worker", i)
		p.group.Go(func() error {
			for task := range p.tasks {
				run(KindShared, worker, task)
			}
			return nil
		})
	}

	return p, nil
}

func (p *SharedQueuePool) Spawn(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.tasks <- task
	return nil
}

func (p *SharedQueuePool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	return p.group.Wait()
}

var _ ThreadPool = (*SharedQueuePool)(nil)
