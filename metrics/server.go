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

package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
)

// Server is a minimal lifecycle-managed HTTP server exposing Registry's
// /metrics endpoint, bound to JRS_METRICS_HOST:JRS_METRICS_PORT.
//
// It satisfies the lifecycle.Service interface's shape (Start/Stop) by
// duck typing rather than importing lifecycle, which otherwise would
// create a metrics<->lifecycle import cycle (lifecycle.Harness optionally
// starts a metrics server as a nested child).
type Server struct {
	httpServer *http.Server
}

// NewServer builds a metrics HTTP server bound to addr (host:port),
// serving r's Handler at /metrics.
func NewServer(addr string, r *Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Start begins serving in a background goroutine and returns immediately.
// A bind failure surfaces through the returned error only if it happens
// synchronously (e.g. address already in use); errors from a server that
// started successfully and later failed are not observable here, matching
// the best-effort nature of the teacher's own metrics server shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("metrics: listen %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		_ = s.httpServer.Serve(ln)
	}()
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Done always reports false; the metrics server has no one-way "done" bit
// of its own and relies on the lifecycle harness to call Stop at most once.
func (s *Server) Done() bool { return false }
