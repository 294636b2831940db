package pool

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// NaivePool runs every task on its own goroutine.
type NaivePool struct {
	group errgroup.Group

	mu     sync.RWMutex
	closed bool

	logger log.FieldLogger
}

func NewNaivePool(logger log.FieldLogger) *NaivePool {
	if logger == nil {
		logger = log.WithField("component", "pool")
	}
	return &NaivePool{logger: logger.WithField("pool", KindNaive)}
}

func (p *NaivePool) Spawn(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.group.Go(func() error {
		run(KindNaive, p.logger, task)
		return nil
	})
	return nil
}

func (p *NaivePool) Shutdown() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	return p.group.Wait()
}

var _ ThreadPool = (*NaivePool)(nil)
