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

// Package connector implements the RPC Connector: route compilation with
// schema inheritance and custom validation types, the before/handler/after
// dispatch pipeline, the outbound client registry with ping-based identity
// verification, and per-route telemetry. This is the core component
// specified in spec.md §4.
package connector

import (
	"context"

	"github.com/Format-X22/json-rpc-service/validation"
)

// HandlerFunc is a structured route's primary handler (bare routes use
// BareRoute instead). It receives the current pipeline data and returns the
// replacement value (which may be nil — the original handler has no
// "no replacement" sentinel, unlike Stage).
type HandlerFunc func(ctx context.Context, scope any, data any) (any, error)

// Stage is one before/after pipeline entry: a handler paired with an
// opaque scope value passed as its receiver.
//
// StageFunc's (changed bool) return models the source's "undefined means
// pass-through" contract explicitly (spec §9 Design Notes): changed=false
// leaves currentData untouched; changed=true replaces it with the
// returned value, including nil.
type Stage struct {
	Handler StageFunc
	Scope   any
}

// StageFunc is a before/after pipeline entry point.
type StageFunc func(ctx context.Context, scope any, data any) (newData any, changed bool, err error)

// PayloadHook runs once per dispatch, before validation, with no
// arguments (spec §4.2 step 2). An error aborts the call as a handler
// error.
type PayloadHook func(ctx context.Context) error

// RouteConfig is a structured route entry (spec §3 "Route config").
type RouteConfig struct {
	Handler    HandlerFunc
	Scope      any
	Validation validation.Schema
	Before     []Stage
	After      []Stage
	Inherits   []string
}

// BareRoute wraps a callable that bypasses all wrapping except the outer
// dispatch wrapper (spec §4.1 step 1): no validation, no before/after,
// no inheritance.
type BareRoute func(ctx context.Context, params any) (any, error)

// RouteEntry is either a *RouteConfig or a BareRoute; exactly one is set.
type RouteEntry struct {
	Config *RouteConfig
	Bare   BareRoute
}

// Route wraps a structured RouteConfig into a RouteEntry.
func Route(cfg RouteConfig) RouteEntry {
	c := cfg
	return RouteEntry{Config: &c}
}

// BareEntry wraps a bare callable into a RouteEntry.
func BareEntry(fn BareRoute) RouteEntry {
	return RouteEntry{Bare: fn}
}

// ParentConfig is a partial route config contributed by
// ServerDefaults.Parents, consumed by a route's Inherits list (spec §3
// "Server defaults").
type ParentConfig struct {
	Before     []Stage
	After      []Stage
	Validation validation.Schema
}

// ServerDefaults holds inheritance parents and custom validation types
// shared across a route table (spec §3 "Server defaults").
type ServerDefaults struct {
	Parents         map[string]ParentConfig
	ValidationTypes map[string]validation.Schema
}

// RouteTable maps route name to its user-supplied entry, the input to
// CompileRoutes.
type RouteTable map[string]RouteEntry
