package ledger

import (
	"context"
	"errors"
	"sync"
)

var ErrStopped = errors.New("ledger stopped")

// dispatcher shards work by key onto single-goroutine workers, so all tasks for one key run
// one at a time and in submission order, while different shards run in parallel.
type dispatcher struct {
	workers []chan func()
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func newDispatcher(workers, queueSize int) *dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	d := &dispatcher{
		workers: make([]chan func(), workers),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for i := range d.workers {
		ch := make(chan func(), queueSize)
		d.workers[i] = ch
		d.wg.Add(1)
		go d.loop(ch)
	}
	return d
}

func (d *dispatcher) loop(ch chan func()) {
	defer d.wg.Done()
	for {
		select {
		case task := <-ch:
			task()
		case <-d.quit:
			// finish whatever was accepted before the stop
			for {
				select {
				case task := <-ch:
					task()
				default:
					return
				}
			}
		}
	}
}

// run executes fn on the worker owning key and waits for its result. A task still queued
// when ctx is done is skipped; a task that has started runs to completion with a context
// that ignores the caller's cancellation.
func (d *dispatcher) run(ctx context.Context, key int64, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	task := func() {
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}
		result <- fn(context.WithoutCancel(ctx))
	}

	select {
	case <-d.quit:
		return ErrStopped
	default:
	}

	ch := d.workers[uint64(key)%uint64(len(d.workers))]
	select {
	case ch <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.quit:
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-d.stopped:
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	}
}

func (d *dispatcher) stop() {
	d.once.Do(func() {
		close(d.quit)
		d.wg.Wait()
		close(d.stopped)
	})
}
