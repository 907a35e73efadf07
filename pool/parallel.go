// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pool implements the bounded-concurrency parallel worker pool and
// the strict-FIFO sequential queue of spec.md §4.6/§4.7.
//
// Grounded on the wider reference corpus's pervasive use of
// golang.org/x/sync for concurrency primitives: ParallelPool is backed by
// golang.org/x/sync/semaphore.Weighted rather than a hand-rolled buffered
// channel, which is the idiomatic Go analogue of the source's
// parallelCount-bounded async queue.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Future is a handle to one enqueued unit of work's eventual result.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the work completes (or ctx is canceled) and returns
// its result.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// ParallelPool runs a fixed handler over queued items with at most
// parallelCount invocations in flight at any instant. A single FIFO
// dispatcher goroutine acquires the concurrency slot for each item in the
// order Queue was called, so items strictly start processing in enqueue
// order (modulo the concurrency bound); it does not guarantee completion
// order.
type ParallelPool[T, R any] struct {
	handler func(ctx context.Context, item T) (R, error)
	sem     *semaphore.Weighted

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []job[T, R]
	pending int // queued + in-flight, never completed
	wg      sync.WaitGroup
}

// job is one FIFO-dispatched unit of work awaiting a concurrency slot.
type job[T, R any] struct {
	ctx    context.Context
	item   T
	future *Future[R]
}

// New builds a ParallelPool with the given handler and concurrency bound.
func New[T, R any](handler func(ctx context.Context, item T) (R, error), parallelCount int) *ParallelPool[T, R] {
	if parallelCount <= 0 {
		parallelCount = 1
	}
	p := &ParallelPool[T, R]{
		handler: handler,
		sem:     semaphore.NewWeighted(int64(parallelCount)),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.dispatchLoop()
	return p
}

// dispatchLoop is the single goroutine that pulls queued jobs in FIFO
// order and acquires a concurrency slot for each before handing it off to
// its own goroutine to run the handler. Because the slot is acquired here,
// strictly in queue order, a job never starts processing ahead of a job
// queued before it.
func (p *ParallelPool[T, R]) dispatchLoop() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 {
			p.cond.Wait()
		}
		j := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if err := p.sem.Acquire(j.ctx, 1); err != nil {
			j.future.resolve(*new(R), err)
			p.mu.Lock()
			p.pending--
			p.mu.Unlock()
			p.wg.Done()
			continue
		}

		go func(j job[T, R]) {
			defer p.wg.Done()
			defer p.sem.Release(1)
			defer func() {
				p.mu.Lock()
				p.pending--
				p.mu.Unlock()
			}()

			val, err := p.handler(j.ctx, j.item)
			j.future.resolve(val, err)
		}(j)
	}
}

// Queue enqueues one item and returns a Future for its result. Queue
// returns immediately; the handler call happens once the dispatch loop
// has acquired a concurrency slot for this item in enqueue order.
func (p *ParallelPool[T, R]) Queue(ctx context.Context, item T) *Future[R] {
	future := newFuture[R]()

	p.wg.Add(1)
	p.mu.Lock()
	p.pending++
	p.queue = append(p.queue, job[T, R]{ctx: ctx, item: item, future: future})
	p.mu.Unlock()
	p.cond.Signal()

	return future
}

// QueueList enqueues every item in items, preserving order, and returns a
// Future that resolves once every item has completed, carrying the slice
// of per-item results in submission order. An error from any item is
// reported alongside; it does not cancel sibling items.
func (p *ParallelPool[T, R]) QueueList(ctx context.Context, items []T) *Future[[]Result[R]] {
	futures := make([]*Future[R], len(items))
	for i, item := range items {
		futures[i] = p.Queue(ctx, item)
	}

	agg := newFuture[[]Result[R]]()
	go func() {
		results := make([]Result[R], len(futures))
		for i, f := range futures {
			val, err := f.Wait(ctx)
			results[i] = Result[R]{Value: val, Err: err}
		}
		agg.resolve(results, nil)
	}()
	return agg
}

// Result pairs a QueueList item's value and error.
type Result[R any] struct {
	Value R
	Err   error
}

// GetQueueLength returns the number of items queued or currently in
// flight (not yet completed).
func (p *ParallelPool[T, R]) GetQueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Flush waits for all queued and in-flight work to finish, including
// work that errored. Flush never returns an error itself.
func (p *ParallelPool[T, R]) Flush() {
	p.wg.Wait()
}
