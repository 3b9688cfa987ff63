package engine

import (
	"context"
	"sync"
	"sync/atomic"
)

// workerPool runs a fixed number of goroutines fed from a bounded queue.
type workerPool[T any] struct {
	queue   chan T
	process func(ctx context.Context, t T)
	wg      sync.WaitGroup
	active  atomic.Int64
	closeMu sync.RWMutex
	closed  bool
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T any](ctx context.Context, n, cap int, fn func(context.Context, T)) *workerPool[T] {
	p := &workerPool[T]{
		queue:   make(chan T, cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			p.active.Add(1)
			p.process(ctx, t)
			p.active.Add(-1)
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues t without blocking. It returns false when the queue is
// full or the pool has been drained.
func (p *workerPool[T]) Submit(t T) bool {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- t:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for the workers to finish what is queued.
// Further calls are no-ops.
func (p *workerPool[T]) Drain() {
	p.closeMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.closeMu.Unlock()
	p.wg.Wait()
}

// QueueLen returns how many items wait for a worker.
func (p *workerPool[T]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T]) QueueCap() int {
	return cap(p.queue)
}

// Active returns how many items are being processed right now.
func (p *workerPool[T]) Active() int {
	return int(p.active.Load())
}
