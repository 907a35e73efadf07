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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Format-X22/json-rpc-service/logging"
	"github.com/Format-X22/json-rpc-service/metrics"
	"github.com/Format-X22/json-rpc-service/rpcobj"
)

// ClientSettings is the structured form of an outbound service registration
// (spec §3 "Client config", §4.3).
type ClientSettings struct {
	Connect           string
	OriginRemoteAlias string
}

// ClientConfig is either a bare connect URL or a ClientSettings value
// (spec §3's "a bare URL string or {connect, originRemoteAlias}").
type ClientConfig struct {
	URL      string
	Settings *ClientSettings
}

// URL wraps a bare connect URL into a ClientConfig.
func URL(url string) ClientConfig {
	return ClientConfig{URL: url}
}

// Settings wraps a ClientSettings value into a ClientConfig.
func Settings(s ClientSettings) ClientConfig {
	return ClientConfig{Settings: &s}
}

func (c ClientConfig) connect() string {
	if c.Settings != nil {
		return c.Settings.Connect
	}
	return c.URL
}

func (c ClientConfig) originRemoteAlias() string {
	if c.Settings != nil {
		return c.Settings.OriginRemoteAlias
	}
	return ""
}

// clientStub is one registered outbound peer (spec §3's "alias → stub"
// mapping entry).
type clientStub struct {
	alias   string
	connect string
	http    *http.Client
}

func (s *clientStub) call(ctx context.Context, method string, params any) (*rpcobj.Response, error) {
	req, err := rpcobj.NewRequest(method, params, "")
	if err != nil {
		return nil, err
	}
	body, err := rpcobj.Encode(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.connect, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("connector: building request to %q: %w", s.alias, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := s.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("connector: calling %q: %w", s.alias, err)
	}
	defer httpResp.Body.Close()

	var raw bytes.Buffer
	if _, err := raw.ReadFrom(httpResp.Body); err != nil {
		return nil, fmt.Errorf("connector: reading response from %q: %w", s.alias, err)
	}

	resp, err := rpcobj.DecodeResponse(raw.Bytes())
	if err != nil {
		return nil, fmt.Errorf("connector: decoding response from %q: %w", s.alias, err)
	}
	return resp, nil
}

// ClientRegistry maintains the alias → outbound client stub mapping of
// spec §4.3, including `_ping`-based identity verification on registration.
type ClientRegistry struct {
	mu       sync.RWMutex
	clients  map[string]*clientStub
	log      *logging.Logger
	reg      *metrics.Registry
	recordMs bool // JRS_EXTERNAL_CALLS_METRICS
}

// NewClientRegistry builds an empty registry. recordExternalMetrics mirrors
// the JRS_EXTERNAL_CALLS_METRICS environment switch (spec §6).
func NewClientRegistry(log *logging.Logger, reg *metrics.Registry, recordExternalMetrics bool) *ClientRegistry {
	return &ClientRegistry{
		clients:  make(map[string]*clientStub),
		log:      log,
		reg:      reg,
		recordMs: recordExternalMetrics,
	}
}

// AddService registers alias, replacing any existing entry (spec §4.3:
// "replacing any existing entry"). If config declares an OriginRemoteAlias,
// a `_ping` probe is issued and the peer's self-declared alias compared; a
// mismatch is logged but never fails the call (Design Note, spec §9 — the
// source's behavior diverges across revisions; this implementation picks
// the non-fatal reading).
func (r *ClientRegistry) AddService(ctx context.Context, alias string, config ClientConfig) error {
	stub := &clientStub{
		alias:   alias,
		connect: config.connect(),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	r.mu.Lock()
	r.clients[alias] = stub
	r.mu.Unlock()

	if expected := config.originRemoteAlias(); expected != "" {
		r.verifyIdentity(ctx, stub, expected)
	}
	return nil
}

func (r *ClientRegistry) verifyIdentity(ctx context.Context, stub *clientStub, expected string) {
	resp, err := stub.call(ctx, PingRoute, map[string]any{})
	if err != nil {
		r.log.Warn("connector: ping probe failed", "alias", stub.alias, "error", err)
		return
	}
	if resp.Error != nil {
		r.log.Warn("connector: ping probe returned an error", "alias", stub.alias, "error", resp.Error.Message)
		return
	}

	var ping PingResult
	if err := json.Unmarshal(resp.Result, &ping); err != nil {
		r.log.Warn("connector: ping probe returned an unparseable result", "alias", stub.alias, "error", err)
		return
	}
	if ping.Alias != expected {
		r.log.Error("connector: ping identity mismatch", "alias", stub.alias, "expected", expected, "got", ping.Alias)
		return
	}
	r.log.Info("connector: ping identity verified", "alias", stub.alias)
}

// SendTo issues method against the client registered under service,
// returning the raw response envelope (spec §4.3 "sendTo"). An unknown
// alias yields ErrUnknownService, a fatal error for the caller.
func (r *ClientRegistry) SendTo(ctx context.Context, service, method string, data any) (*rpcobj.Response, error) {
	r.mu.RLock()
	stub, ok := r.clients[service]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, service)
	}

	start := time.Now()
	resp, err := stub.call(ctx, method, data)
	elapsed := time.Since(start).Seconds()

	if r.recordMs && r.reg != nil {
		r.reg.RecordCall(service+"."+method, err == nil && (resp == nil || resp.Error == nil), elapsed)
	}
	return resp, err
}

// CallService is the higher-level variant of spec §4.3's "callService": it
// requires params to be a JSON object (ErrNonObjectParams/500 otherwise),
// delegates to SendTo, and interprets the response: a result is returned
// as-is; an error with a negative code is logged as an RPC-error and any
// other code as a safe provided error, and in both cases the *rpcobj.RPCError
// is returned unchanged. An error member that is not a {code, message}
// object with an integer code fails envelope decoding in SendTo and comes
// back as that decoding error, without a log line of its own.
func (r *ClientRegistry) CallService(ctx context.Context, service, method string, params any) (any, error) {
	if params != nil {
		if _, ok := params.(map[string]any); !ok {
			return nil, ErrNonObjectParams
		}
	}

	resp, err := r.SendTo(ctx, service, method, params)
	if err != nil {
		return nil, err
	}

	if resp.Error == nil {
		var result any
		if len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, &result); err != nil {
				return nil, fmt.Errorf("connector: decoding result from %q: %w", service, err)
			}
		}
		return result, nil
	}

	rpcErr := resp.Error
	switch {
	case rpcErr.Code < 0:
		r.log.Error("connector: RPC-error from downstream", "service", service, "method", method, "code", rpcErr.Code, "message", rpcErr.Message)
	default:
		r.log.Warn("connector: safe provided error from downstream", "service", service, "method", method, "code", rpcErr.Code, "message", rpcErr.Message)
	}
	return nil, rpcErr
}
