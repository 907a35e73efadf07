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

package pool

import (
	"context"
	"sync"
)

// SequentialQueue serializes calls to a single callback through a strict
// FIFO, single-writer loop: invocation i is fully awaited before
// invocation i+1 begins. It implements spec §4.7's `consequentially`.
type SequentialQueue[T, R any] struct {
	callback func(ctx context.Context, arg T) (R, error)

	mu       sync.Mutex
	items    []queuedItem[T, R]
	notify   chan struct{}
	cancelCh chan struct{}
	canceled bool
	started  bool
}

type queuedItem[T, R any] struct {
	ctx    context.Context
	arg    T
	future *Future[R]
}

// Consequentially wraps callback in a SequentialQueue and returns the
// queue; its Enqueue method plays the role of the callable the source's
// `consequentially(callback)` returns.
func Consequentially[T, R any](callback func(ctx context.Context, arg T) (R, error)) *SequentialQueue[T, R] {
	q := &SequentialQueue[T, R]{
		callback: callback,
		notify:   make(chan struct{}, 1),
		cancelCh: make(chan struct{}),
	}
	return q
}

// Enqueue appends one call to the back of the queue and returns a Future
// for its eventual result. The backing loop is started lazily on first
// use.
func (q *SequentialQueue[T, R]) Enqueue(ctx context.Context, arg T) *Future[R] {
	future := newFuture[R]()

	q.mu.Lock()
	if q.canceled {
		q.mu.Unlock()
		future.resolve(*new(R), context.Canceled)
		return future
	}
	q.items = append(q.items, queuedItem[T, R]{ctx: ctx, arg: arg, future: future})
	if !q.started {
		q.started = true
		go q.run()
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return future
}

func (q *SequentialQueue[T, R]) run() {
	for {
		q.mu.Lock()
		if q.canceled {
			q.mu.Unlock()
			return
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-q.notify:
				continue
			case <-q.cancelCh:
				return
			}
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		val, err := q.callback(item.ctx, item.arg)
		item.future.resolve(val, err)
	}
}

// GetQueueLength returns the number of calls not yet started.
func (q *SequentialQueue[T, R]) GetQueueLength() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cancel stops the backing loop. Already-running calls finish; queued
// calls that never started resolve with context.Canceled.
func (q *SequentialQueue[T, R]) Cancel() {
	q.mu.Lock()
	if q.canceled {
		q.mu.Unlock()
		return
	}
	q.canceled = true
	pending := q.items
	q.items = nil
	q.mu.Unlock()

	close(q.cancelCh)
	for _, item := range pending {
		item.future.resolve(*new(R), context.Canceled)
	}
}
