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
	"fmt"

	"github.com/Format-X22/json-rpc-service/validation"
)

// compiledRoute is the dispatch-ready form of a route (spec §4.1's output:
// "a mapping route name → dispatch-ready closure").
type compiledRoute struct {
	name string

	bare BareRoute // set iff this route bypasses the pipeline

	handler   HandlerFunc
	scope     any
	before    []Stage
	after     []Stage
	validator *validation.CompiledValidator
}

// CompileRoutes normalizes routes against defaults, producing dispatch-ready
// compiled routes (spec §4.1). The `_ping` route is injected automatically
// (spec §4.5) if not already present in routes.
func CompileRoutes(routes RouteTable, defaults ServerDefaults) (map[string]*compiledRoute, error) {
	out := make(map[string]*compiledRoute, len(routes)+1)

	for name, entry := range routes {
		compiled, err := compileOne(name, entry, defaults)
		if err != nil {
			return nil, fmt.Errorf("connector: compiling route %q: %w", name, err)
		}
		out[name] = compiled
	}

	if _, exists := out[PingRoute]; !exists {
		out[PingRoute] = compilePingRoute("anonymous")
	}

	return out, nil
}

func compileOne(name string, entry RouteEntry, defaults ServerDefaults) (*compiledRoute, error) {
	// Step 1: bare callables bypass all wrapping.
	if entry.Bare != nil {
		return &compiledRoute{name: name, bare: entry.Bare}, nil
	}

	cfg := entry.Config
	if cfg == nil || cfg.Handler == nil {
		return nil, fmt.Errorf("route %q has neither a bare callable nor a handler", name)
	}

	// Step 2: merge validation over the strict-object default.
	var schema validation.Schema
	if len(cfg.Validation) > 0 {
		schema = validation.MergeOverDefault(cfg.Validation)
	}

	before := append([]Stage(nil), cfg.Before...)
	after := append([]Stage(nil), cfg.After...)

	// Step 3: accumulate before/after/validation from each parent, in order.
	if len(cfg.Inherits) > 0 {
		var accBefore, accAfter []Stage
		var accValidation validation.Schema

		for _, alias := range cfg.Inherits {
			parent, ok := defaults.Parents[alias]
			if !ok {
				return nil, fmt.Errorf("inherits references unknown parent %q", alias)
			}
			accBefore = append(accBefore, parent.Before...)
			accAfter = append(accAfter, parent.After...)
			if len(parent.Validation) > 0 {
				if accValidation == nil {
					accValidation = parent.Validation
				} else {
					// later parents override earlier ones.
					accValidation = mergeValidationOverride(accValidation, parent.Validation)
				}
			}
		}

		before = append(accBefore, before...)
		after = append(accAfter, after...)

		if len(accValidation) > 0 {
			if schema != nil {
				// the route's own explicit values win over inherited ones.
				schema = validation.MergeUnder(schema, accValidation)
			} else {
				schema = accValidation
			}
		}
	}

	// Step 4: custom-type resolution, only if validation is non-empty.
	if len(schema) > 0 && len(defaults.ValidationTypes) > 0 {
		resolved := validation.ResolveTypes(defaults.ValidationTypes)
		schema = validation.Substitute(schema, resolved)
	}

	// Step 5: compile the final validation to a predicate.
	validator, err := validation.Compile(schema)
	if err != nil {
		return nil, fmt.Errorf("validator compile: %w", err)
	}

	return &compiledRoute{
		name:      name,
		handler:   cfg.Handler,
		scope:     cfg.Scope,
		before:    before,
		after:     after,
		validator: validator,
	}, nil
}

// mergeValidationOverride deep-merges next over acc, with next's (later
// parent's) values winning conflicts, per spec §4.1 step 3: "deep merge,
// later parents override earlier."
func mergeValidationOverride(acc, next validation.Schema) validation.Schema {
	return validation.MergeUnder(next, acc)
}
