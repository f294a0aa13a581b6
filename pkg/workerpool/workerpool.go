package workerpool

import (
	"errors"
	"sync"
)

// ErrClosed is returned when submitting to a pool that has been closed.
var ErrClosed = errors.New("workerpool: closed")

// ErrQueueFull is returned by TrySubmit when no queue slot is free.
var ErrQueueFull = errors.New("workerpool: queue full")

// Task is a unit of work for the pool. Fn must be safe for concurrent execution.
// ResultC is optional; when set it receives exactly one Result.
type Task struct {
	Fn      func() (any, error)
	ResultC chan Result
}

type Result struct {
	Value any
	Err   error
}

type WorkerPool struct {
	tasks  chan Task
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts workerCount workers reading from a queue of queueSize tasks.
func NewWorkerPool(workerCount int, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	wp := &WorkerPool{
		tasks: make(chan Task, queueSize),
	}
	wp.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		res, err := task.Fn()
		if task.ResultC != nil {
			task.ResultC <- Result{Value: res, Err: err}
		}
	}
}

// Submit enqueues a task, blocking while the queue is full.
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrClosed
	}
	wp.tasks <- task
	return nil
}

// TrySubmit enqueues a task without blocking.
func (wp *WorkerPool) TrySubmit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrClosed
	}
	select {
	case wp.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.tasks)
	wp.mu.Unlock()

	wp.wg.Wait()
}
