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
	"time"

	"github.com/Format-X22/json-rpc-service/logging"
	"github.com/Format-X22/json-rpc-service/metrics"
)

// EmptyResponseDefault is the value substituted for a falsy-equivalent or
// literal "Ok" handler result (spec §4.2 step 5, §4 GLOSSARY "Empty-response
// correction"). It may be overridden per-Connector via the def argument of
// WithEmptyResponseCorrection.
var EmptyResponseDefault = map[string]any{"status": "OK"}

// dispatchOptions carries the per-connector knobs that affect dispatch
// behavior (empty-response correction, the payload hook).
type dispatchOptions struct {
	emptyResponseEnabled bool
	emptyResponseDefault any
	payloadHook          PayloadHook
}

// dispatch runs one call through the before/handler/after pipeline of
// spec §4.2, returning the final result or a classified error. It always
// records a metric for this route before returning, whether the call
// succeeded or failed.
func dispatch(ctx context.Context, route *compiledRoute, params any, opts dispatchOptions, log *logging.Logger, reg *metrics.Registry) (any, error) {
	start := time.Now()
	result, err := dispatchInner(ctx, route, params, opts, log)
	elapsed := time.Since(start).Seconds()

	success := err == nil
	if reg != nil {
		reg.RecordHandle(route.name, success, elapsed)
	}
	return result, err
}

func dispatchInner(ctx context.Context, route *compiledRoute, params any, opts dispatchOptions, log *logging.Logger) (any, error) {
	// Step 2: optional payload hook.
	if opts.payloadHook != nil {
		if err := opts.payloadHook(ctx); err != nil {
			return handleError(err, log)
		}
	}

	// Step 3: bare routes bypass validation and the before/after queue.
	if route.bare != nil {
		result, err := route.bare(ctx, params)
		if err != nil {
			return handleError(err, log)
		}
		return applyEmptyResponseCorrection(result, opts), nil
	}

	// Step 4a: run the compiled validator exactly once.
	if route.validator != nil {
		if err := route.validator.Validate(params); err != nil {
			return handleError(err, log)
		}
	}

	// Step 4b: build the ordered queue and run it.
	currentData := params

	for _, stage := range route.before {
		newData, changed, err := stage.Handler(ctx, stage.Scope, currentData)
		if err != nil {
			return handleError(err, log)
		}
		if changed {
			currentData = newData
		}
	}

	handlerResult, err := route.handler(ctx, route.scope, currentData)
	if err != nil {
		return handleError(err, log)
	}
	currentData = handlerResult

	for _, stage := range route.after {
		newData, changed, err := stage.Handler(ctx, stage.Scope, currentData)
		if err != nil {
			return handleError(err, log)
		}
		if changed {
			currentData = newData
		}
	}

	return applyEmptyResponseCorrection(currentData, opts), nil
}

// applyEmptyResponseCorrection implements spec §4.2 step 5.
func applyEmptyResponseCorrection(data any, opts dispatchOptions) any {
	if !opts.emptyResponseEnabled {
		return data
	}
	if isFalsyEquivalent(data) || data == "Ok" {
		return opts.emptyResponseDefault
	}
	return data
}

// isFalsyEquivalent reports whether data is JS-falsy-equivalent: nil,
// false, 0, "", or an empty slice/map — the Go analogue of the source's
// truthiness check.
func isFalsyEquivalent(data any) bool {
	switch v := data.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

// handleError runs error classification (spec §4.4) and logs
// appropriately, returning the (nil, error) pair dispatch hands back to
// the caller. The returned error is always the *rpcobj.RPCError produced by
// classify.
func handleError(err error, log *logging.Logger) (any, error) {
	rpcErr := classify(err)
	switch {
	case rpcErr.Code == CodeValidation:
		log.Warn("dispatch: validation failed", "error", rpcErr.Message)
	case rpcErr.Code == 0 && rpcErr.Message == "":
		log.Error("dispatch: unknown error suppressed", "error", err)
	default:
		log.Error("dispatch: handler error", "code", rpcErr.Code, "message", rpcErr.Message)
	}
	return nil, rpcErr
}
