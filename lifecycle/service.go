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

// Package lifecycle provides the startable/stoppable service hierarchy the
// connector runs on: an ordered tree of nested services with one-way
// "done" tracking, optional periodic iteration, and signal-driven
// shutdown for the top-level harness.
//
// Grounded on the teacher framework's app package (app/lifecycle.go,
// app/server.go), which models the same shape — ordered hook execution,
// LIFO shutdown, panic-safe best-effort stop — via a single App type
// backed by slices of callbacks. The Design Notes in spec.md §9 ask for a
// capability interface instead of a class hierarchy, so this package
// expresses it as [Service] + an embeddable [BaseService] rather than the
// source's inheritance tree.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Service is the capability interface every nested component implements:
// start, stop, and report whether it is already done (so a parent never
// stops the same child twice).
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Done() bool
}

// EventHandler receives lifecycle events (start/stop/iteration errors) for
// logging or monitoring. Matches the teacher's EventHandler convention
// used throughout its ambient packages.
type EventHandler func(event string, args ...any)

// BaseService is an embeddable implementation of [Service] that manages a
// list of nested children, started in registration order and stopped in
// reverse order, skipping any child whose Done() already reports true.
//
// BaseService also supports periodic iteration via StartLoop/StopLoop.
type BaseService struct {
	mu       sync.Mutex
	children []Service
	done     atomic.Bool

	onEvent EventHandler

	// iteration state
	iterFn                  func(ctx context.Context) error
	allowParallelIterations bool
	throwOnIterationError   bool
	iterRunning             atomic.Bool
	iterTicker              *time.Ticker
	iterStop                chan struct{}
	iterStopped             chan struct{}
}

// NewBaseService builds a BaseService with the given event handler (may be
// nil, in which case events are dropped).
func NewBaseService(onEvent EventHandler) *BaseService {
	if onEvent == nil {
		onEvent = func(string, ...any) {}
	}
	return &BaseService{onEvent: onEvent}
}

// AddChild registers a nested service. Children start in the order added
// and stop in the reverse order.
func (b *BaseService) AddChild(child Service) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.children = append(b.children, child)
}

// Start starts every nested child in registration order. If a child fails
// to start, Start aborts immediately and returns that error — children
// already started are NOT unwound (lifecycle errors propagate up and
// abort startup of their parent, per spec §7).
func (b *BaseService) Start(ctx context.Context) error {
	b.mu.Lock()
	children := append([]Service(nil), b.children...)
	b.mu.Unlock()

	for i, child := range children {
		if err := child.Start(ctx); err != nil {
			b.onEvent("start_failed", "index", i, "error", err)
			return fmt.Errorf("lifecycle: starting child %d: %w", i, err)
		}
	}
	return nil
}

// Stop stops every nested child in reverse registration order, skipping
// any child whose Done() already reports true. Stop continues past a
// failing child so that teardown is best-effort; the first error
// encountered is returned after all children have been given a chance to
// stop.
func (b *BaseService) Stop(ctx context.Context) error {
	defer b.done.Store(true)
	if b.done.Load() {
		return nil
	}

	b.StopLoop()

	b.mu.Lock()
	children := append([]Service(nil), b.children...)
	b.mu.Unlock()

	var firstErr error
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		if child.Done() {
			continue
		}
		if err := child.Stop(ctx); err != nil {
			b.onEvent("stop_failed", "index", i, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Done reports whether Stop has already completed once for this service.
func (b *BaseService) Done() bool { return b.done.Load() }

// IterationOptions configures StartLoop.
type IterationOptions struct {
	// AllowParallelIterations lets a new iteration begin before the
	// previous one finished. When false (default), overlapping
	// iterations are dropped, not queued.
	AllowParallelIterations bool
	// ThrowOnIterationError, when true, propagates iteration errors to
	// onEvent as a fatal event and stops the loop. When false (default),
	// errors are logged via onEvent and swallowed.
	ThrowOnIterationError bool
}

// StartLoop schedules fn to run once after firstDelay, then every
// interval thereafter, until StopLoop is called. StartLoop returns
// immediately; the loop runs in a background goroutine.
func (b *BaseService) StartLoop(ctx context.Context, firstDelay, interval time.Duration, fn func(ctx context.Context) error, opts IterationOptions) {
	b.iterFn = fn
	b.allowParallelIterations = opts.AllowParallelIterations
	b.throwOnIterationError = opts.ThrowOnIterationError
	b.iterStop = make(chan struct{})
	b.iterStopped = make(chan struct{})

	go func() {
		defer close(b.iterStopped)
		timer := time.NewTimer(firstDelay)
		defer timer.Stop()

		for {
			select {
			case <-b.iterStop:
				return
			case <-timer.C:
				if b.allowParallelIterations {
					go b.runIteration(ctx)
				} else {
					b.runIteration(ctx)
				}
				timer.Reset(interval)
			}
		}
	}()
}

// runIteration executes one loop body, respecting AllowParallelIterations.
func (b *BaseService) runIteration(ctx context.Context) {
	if !b.allowParallelIterations {
		if !b.iterRunning.CompareAndSwap(false, true) {
			return // previous iteration still in flight: drop, don't queue
		}
		defer b.iterRunning.Store(false)
	}

	if err := b.iterFn(ctx); err != nil {
		if b.throwOnIterationError {
			b.onEvent("iteration_fatal", "error", err)
			b.StopLoop()
			return
		}
		b.onEvent("iteration_error", "error", err)
	}
}

// StopLoop prevents further iterations from starting. It does not cancel
// an iteration already in flight — the in-flight call runs to completion.
func (b *BaseService) StopLoop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.iterStop == nil {
		return
	}
	select {
	case <-b.iterStop:
		// already stopped
	default:
		close(b.iterStop)
	}
}
