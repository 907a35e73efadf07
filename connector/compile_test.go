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
	"testing"

	"github.com/Format-X22/json-rpc-service/validation"
	"github.com/stretchr/testify/require"
)

func TestCompileOneBareBypassesEverything(t *testing.T) {
	entry := BareEntry(func(ctx context.Context, params any) (any, error) {
		return "raw", nil
	})
	route, err := compileOne("r", entry, ServerDefaults{})
	require.NoError(t, err)
	require.NotNil(t, route.bare)
	require.Nil(t, route.validator)
}

func TestCompileOneAccumulatesInheritedStagesInOrder(t *testing.T) {
	var order []string
	mkStage := func(name string) Stage {
		return Stage{Handler: func(ctx context.Context, scope, data any) (any, bool, error) {
			order = append(order, name)
			return nil, false, nil
		}}
	}

	defaults := ServerDefaults{
		Parents: map[string]ParentConfig{
			"p1": {Before: []Stage{mkStage("p1")}},
			"p2": {Before: []Stage{mkStage("p2")}},
		},
	}

	entry := Route(RouteConfig{
		Inherits: []string{"p1", "p2"},
		Before:   []Stage{mkStage("own")},
		Handler: func(ctx context.Context, scope, data any) (any, error) {
			return nil, nil
		},
	})

	route, err := compileOne("r", entry, defaults)
	require.NoError(t, err)
	require.Len(t, route.before, 3)

	for _, stage := range route.before {
		_, _, _ = stage.Handler(context.Background(), stage.Scope, nil)
	}
	require.Equal(t, []string{"p1", "p2", "own"}, order)
}

func TestCompileOneMergesInheritedValidationUnderOwnRoute(t *testing.T) {
	defaults := ServerDefaults{
		Parents: map[string]ParentConfig{
			"auth": {Validation: validation.Schema{
				"properties": map[string]any{
					"token": map[string]any{"type": "string"},
				},
			}},
		},
	}

	entry := Route(RouteConfig{
		Inherits: []string{"auth"},
		Validation: validation.Schema{
			"required": []any{"token"},
		},
		Handler: func(ctx context.Context, scope, data any) (any, error) { return nil, nil },
	})

	route, err := compileOne("r", entry, defaults)
	require.NoError(t, err)
	require.NotNil(t, route.validator)

	require.Error(t, route.validator.Validate(map[string]any{}))
	require.NoError(t, route.validator.Validate(map[string]any{"token": "abc"}))
	require.Error(t, route.validator.Validate(map[string]any{"token": 5}))
}

// Round-trip: compiling an already-compiled route config is a no-op with
// respect to observable behavior (spec §8).
func TestCompileRoutesIsIdempotent(t *testing.T) {
	routes := RouteTable{
		"t": Route(RouteConfig{
			Validation: validation.Schema{
				"required": []any{"name"},
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
				},
			},
			Handler: func(ctx context.Context, scope, data any) (any, error) {
				return data, nil
			},
		}),
	}

	first, err := CompileRoutes(routes, ServerDefaults{})
	require.NoError(t, err)
	second, err := CompileRoutes(routes, ServerDefaults{})
	require.NoError(t, err)

	require.NoError(t, first["t"].validator.Validate(map[string]any{"name": "a"}))
	require.NoError(t, second["t"].validator.Validate(map[string]any{"name": "a"}))
	require.Error(t, first["t"].validator.Validate(map[string]any{}))
	require.Error(t, second["t"].validator.Validate(map[string]any{}))
}

func TestCompileOneRejectsUnknownParent(t *testing.T) {
	entry := Route(RouteConfig{
		Inherits: []string{"missing"},
		Handler:  func(ctx context.Context, scope, data any) (any, error) { return nil, nil },
	})
	_, err := compileOne("r", entry, ServerDefaults{})
	require.Error(t, err)
}
