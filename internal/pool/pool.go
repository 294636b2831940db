// Package pool runs units of work on a set of goroutines. The server hands
// every accepted connection to a ThreadPool as one task.
package pool

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	KindShared = "shared"
	KindNaive  = "naive"
)

// ErrPoolClosed is returned by Spawn after Shutdown has been called.
var ErrPoolClosed = errors.New("pool is shut down")

var (
	TaskPanics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvs_pool_task_panics_total",
		Help: "number of tasks that panicked and were recovered",
	}, []string{"pool"})

	TasksCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvs_pool_tasks_completed_total",
		Help: "number of tasks that ran to completion",
	}, []string{"pool"})
)

func init() {
	prometheus.MustRegister(TaskPanics, TasksCompleted)
}

// ThreadPool executes submitted tasks.
type ThreadPool interface {
	// Spawn schedules task. It does not wait for the task to run.
	Spawn(task func()) error

	// Shutdown stops accepting tasks, waits for queued and running tasks to
	// finish and joins all workers.
	Shutdown() error
}

// New builds a pool of the given kind. workers and queueSize only apply to
// the shared pool.
func New(kind string, workers, queueSize int, logger log.FieldLogger) (ThreadPool, error) {
	switch kind {
	case KindShared:
		p, err := NewSharedQueuePool(workers, queueSize, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindNaive:
		return NewNaivePool(logger), nil
	default:
		return nil, fmt.Errorf("unknown pool %q", kind)
	}
}

// run executes task and turns a panic into a logged, counted event so the
// calling worker keeps serving.
func run(name string, logger log.FieldLogger, task func()) {
	defer func() {
		if r := recover(); r != nil {
			TaskPanics.WithLabelValues(name).Inc()
			logger.WithFields(log.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("task panicked")
			return
		}
		TasksCompleted.WithLabelValues(name).Inc()
	}()

	task()
}
