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

// Package transport provides the HTTP listener the connector binds its
// JSON-RPC endpoint to: either a TCP host:port pair or a Unix domain
// socket, with a request-body size limit.
//
// Grounded on the teacher framework's app/server.go runServer, which runs
// an *http.Server in a background goroutine and shuts it down on context
// cancellation; this package keeps that background-goroutine-plus-
// graceful-Shutdown shape but narrows the surface to the one listener
// kind the connector needs (single mount point, no TLS/mTLS variants).
package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
)

// Config selects how the listener binds. When Socket is non-empty it wins
// over Host/Port (spec.md §6: "JRS_CONNECTOR_SOCKET" takes precedence).
type Config struct {
	Host string
	Port int
	// Socket, if set, is a filesystem path for a Unix domain socket
	// listener, used instead of Host:Port.
	Socket string
	// BodySizeLimit caps the request body in bytes via MaxBytesHandler:
	// reading past the limit fails, and the wrapped handler chooses the
	// response (the connector answers 400).
	BodySizeLimit int64
}

// Addr returns the network address this config binds to, for logging.
func (c Config) Addr() string {
	if c.Socket != "" {
		return "unix:" + c.Socket
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Listener wraps a net/http server bound per Config, started and stopped
// as a lifecycle.Service-shaped component (Start/Stop/Done by duck
// typing, mirroring metrics.Server's avoidance of an import cycle).
type Listener struct {
	cfg        Config
	httpServer *http.Server
}

// New builds a Listener serving handler, with request bodies capped at
// cfg.BodySizeLimit (0 means unlimited).
func New(cfg Config, handler http.Handler) *Listener {
	if cfg.BodySizeLimit > 0 {
		handler = http.MaxBytesHandler(handler, cfg.BodySizeLimit)
	}
	return &Listener{
		cfg:        cfg,
		httpServer: &http.Server{Handler: handler},
	}
}

// Start binds the configured listener and begins serving in a background
// goroutine. A bind failure is returned synchronously; errors from a
// server that started and later failed are not observable here.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := l.listen()
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", l.cfg.Addr(), err)
	}
	go func() {
		_ = l.httpServer.Serve(ln)
	}()
	return nil
}

func (l *Listener) listen() (net.Listener, error) {
	if l.cfg.Socket != "" {
		_ = os.Remove(l.cfg.Socket)
		return net.Listen("unix", l.cfg.Socket)
	}
	return net.Listen("tcp", fmt.Sprintf("%s:%d", l.cfg.Host, l.cfg.Port))
}

// Stop gracefully shuts down the listener.
func (l *Listener) Stop(ctx context.Context) error {
	if l.cfg.Socket != "" {
		defer os.Remove(l.cfg.Socket)
	}
	return l.httpServer.Shutdown(ctx)
}

// Done always reports false; see metrics.Server.Done for the same
// reasoning — the lifecycle harness guarantees Stop is called at most once.
func (l *Listener) Done() bool { return false }
