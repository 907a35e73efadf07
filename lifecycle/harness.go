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

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// DatabaseAdapter is the external collaborator interface a Harness may
// optionally boot before starting its nested services. The concrete
// MongoDB/Postgres adapters are out of scope for this module (spec §1);
// callers supply their own implementation.
type DatabaseAdapter interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Harness is the main-process specialization of [BaseService]: it prints
// its environment configuration, installs a signal trap for graceful
// shutdown, optionally connects a database adapter before starting its
// nested children, and terminates the process on an unhandled panic in a
// background goroutine if configured to do so.
//
// Grounded on the teacher's App type (app/app.go, app/lifecycle.go), which
// plays the same "root of the service tree" role; this package splits that
// role from HTTP-specific concerns (those live in transport and connector).
type Harness struct {
	*BaseService

	name   string
	envLog func(string, ...any)
	db     DatabaseAdapter

	exitOnUnhandled bool
	onPanic         func(recovered any)

	sigCh chan os.Signal
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithDatabaseAdapter registers a database adapter to connect before
// nested services start and disconnect after they stop.
func WithDatabaseAdapter(db DatabaseAdapter) HarnessOption {
	return func(h *Harness) { h.db = db }
}

// WithEnvLogger sets the function used to print environment configuration
// at startup (typically logging.Logger.Info).
func WithEnvLogger(fn func(string, ...any)) HarnessOption {
	return func(h *Harness) { h.envLog = fn }
}

// WithExitOnUnhandledRejection makes the harness terminate the process
// with exit code 1 if a task started with RunBackground panics, matching
// the source's unhandled-promise-rejection trap.
func WithExitOnUnhandledRejection(onPanic func(recovered any)) HarnessOption {
	return func(h *Harness) {
		h.exitOnUnhandled = true
		h.onPanic = onPanic
	}
}

// NewHarness builds a Harness named name (used only in printed env/log
// lines), wired to onEvent for lifecycle event reporting.
func NewHarness(name string, onEvent EventHandler, opts ...HarnessOption) *Harness {
	h := &Harness{
		BaseService: NewBaseService(onEvent),
		name:        name,
		envLog:      func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PrintEnv logs every key/value pair in env via the configured env logger.
// Call before Start so the effective configuration is visible in logs
// before any nested service touches it.
func (h *Harness) PrintEnv(env map[string]string) {
	for k, v := range env {
		h.envLog(fmt.Sprintf("%s=%s", k, v))
	}
}

// Start connects the database adapter (if any), then starts all nested
// children in registration order via BaseService.Start.
func (h *Harness) Start(ctx context.Context) error {
	if h.db != nil {
		if err := h.db.Connect(ctx); err != nil {
			return fmt.Errorf("lifecycle: harness %q: database connect: %w", h.name, err)
		}
	}
	return h.BaseService.Start(ctx)
}

// Stop stops all nested children in reverse order, then disconnects the
// database adapter (if any). The database teardown runs even if stopping
// children returned an error, since it is best-effort.
func (h *Harness) Stop(ctx context.Context) error {
	stopErr := h.BaseService.Stop(ctx)
	if h.db != nil {
		if err := h.db.Disconnect(ctx); err != nil && stopErr == nil {
			stopErr = fmt.Errorf("lifecycle: harness %q: database disconnect: %w", h.name, err)
		}
	}
	return stopErr
}

// Run starts the harness, blocks until SIGINT/SIGTERM is received (or ctx
// is canceled), then stops the harness. It is the top-level entry point
// for a main() function.
func (h *Harness) Run(ctx context.Context) error {
	if err := h.Start(ctx); err != nil {
		return err
	}

	h.sigCh = make(chan os.Signal, 1)
	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(h.sigCh)

	select {
	case <-h.sigCh:
	case <-ctx.Done():
	}

	return h.Stop(context.Background())
}

// RunBackground executes fn in a new goroutine with a panic recovery
// around it; a recovered panic is passed to onPanic, if set. If the harness was built with
// WithExitOnUnhandledRejection, a panic in fn terminates the process with
// exit code 1 after invoking onPanic.
func (h *Harness) RunBackground(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if h.onPanic != nil {
					h.onPanic(r)
				}
				if h.exitOnUnhandled {
					os.Exit(1)
				}
			}
		}()
		fn()
	}()
}
