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

package connector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Format-X22/json-rpc-service/logging"
	"github.com/Format-X22/json-rpc-service/metrics"
	"github.com/Format-X22/json-rpc-service/rpcobj"
	"github.com/Format-X22/json-rpc-service/transport"
)

// Connector ties route compilation, the before/handler/after dispatcher,
// the outbound client registry, and the HTTP transport together into the
// single component spec.md §1 calls the "RPC Connector". It satisfies
// lifecycle.Service.
type Connector struct {
	Clients *ClientRegistry

	routes  map[string]*compiledRoute
	options dispatchOptions

	log *logging.Logger
	reg *metrics.Registry

	listener *transport.Listener
	done     bool
}

// Option configures a Connector at construction time.
type Option func(*Connector)

// WithEmptyResponseCorrection enables spec §4.2 step 5's falsy/"Ok"
// substitution, replacing such results with def (EmptyResponseDefault if
// def is nil).
func WithEmptyResponseCorrection(enabled bool, def any) Option {
	return func(c *Connector) {
		c.options.emptyResponseEnabled = enabled
		if def != nil {
			c.options.emptyResponseDefault = def
		}
	}
}

// WithPayloadHook installs a hook run once per dispatch before validation
// (spec §4.2 step 2).
func WithPayloadHook(hook PayloadHook) Option {
	return func(c *Connector) { c.options.payloadHook = hook }
}

// WithLogger overrides the Connector's logger. Defaults to logging.Nop().
func WithLogger(log *logging.Logger) Option {
	return func(c *Connector) { c.log = log }
}

// WithMetrics overrides the Connector's metrics registry. Defaults to
// metrics.Default().
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Connector) { c.reg = reg }
}

// New compiles routes against defaults and builds a Connector ready to
// bind a transport.Listener via Start. cfg controls the HTTP bind address
// and body size limit (spec.md §6); alias is the local `_ping` identity
// (spec §4.5).
func New(routes RouteTable, defaults ServerDefaults, cfg Config, alias string, opts ...Option) (*Connector, error) {
	compiled, err := CompileRoutes(routes, defaults)
	if err != nil {
		return nil, err
	}
	if alias != "" {
		compiled[PingRoute] = compilePingRoute(alias)
	}

	c := &Connector{
		routes: compiled,
		options: dispatchOptions{
			emptyResponseDefault: EmptyResponseDefault,
		},
		log: logging.Nop(),
		reg: metrics.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Clients = NewClientRegistry(c.log, c.reg, cfg.ExternalCallsMetric)

	mux := http.NewServeMux()
	mux.Handle(cfg.ConnectorPath, c)
	if cfg.StaticDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	c.listener = transport.New(transport.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		Socket:        cfg.Socket,
		BodySizeLimit: cfg.BodySizeLimit,
	}, mux)

	return c, nil
}

// Start binds the HTTP listener (spec §4.8 "start").
func (c *Connector) Start(ctx context.Context) error {
	return c.listener.Start(ctx)
}

// Stop gracefully shuts down the HTTP listener (spec §4.8 "stop").
func (c *Connector) Stop(ctx context.Context) error {
	defer func() { c.done = true }()
	return c.listener.Stop(ctx)
}

// Done reports whether Stop has already run.
func (c *Connector) Done() bool { return c.done }

// ServeHTTP implements the single JSON-RPC mount point: it decodes a
// request envelope, dispatches it through the matching compiled route,
// and writes back a success or error envelope (spec.md §6 "Wire
// protocol").
func (c *Connector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	req, err := rpcobj.DecodeRequest(body)
	if err != nil {
		http.Error(w, "malformed JSON-RPC request", http.StatusBadRequest)
		return
	}

	resp := c.Dispatch(r.Context(), req)

	raw, err := rpcobj.Encode(resp)
	if err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// Dispatch decodes req.Params, routes by req.Method, and runs the
// before/handler/after pipeline, returning a ready-to-encode response
// envelope. A call to an unregistered method is reported as an unknown
// error, matching spec §4.4 rule 4 (empty object, no information
// disclosure).
func (c *Connector) Dispatch(ctx context.Context, req *rpcobj.Request) *rpcobj.Response {
	route, ok := c.routes[req.Method]
	if !ok {
		c.log.Warn("connector: unknown method", "method", req.Method)
		return rpcobj.NewError(req.ID, 0, "")
	}

	var params any
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcobj.NewError(req.ID, CodeCriticalInternal, "Critical internal error")
		}
	}

	result, err := dispatch(ctx, route, params, c.options, c.log, c.reg)
	if err != nil {
		if rpcErr, ok := err.(*rpcobj.RPCError); ok {
			return rpcobj.NewError(req.ID, rpcErr.Code, rpcErr.Message)
		}
		return rpcobj.NewError(req.ID, 0, "")
	}

	success, encErr := rpcobj.NewSuccess(req.ID, result)
	if encErr != nil {
		return rpcobj.NewError(req.ID, CodeCriticalInternal, "Critical internal error")
	}
	return success
}
