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

// Command exampleservice wires the RPC Connector into a minimal running
// service: one route that inherits a shared before-stage from a parent,
// a custom validation type, a metrics server, and graceful shutdown.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Format-X22/json-rpc-service/connector"
	"github.com/Format-X22/json-rpc-service/lifecycle"
	"github.com/Format-X22/json-rpc-service/logging"
	"github.com/Format-X22/json-rpc-service/metrics"
	"github.com/Format-X22/json-rpc-service/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "exampleservice:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := connector.ConfigFromEnv()
	if err != nil {
		return err
	}

	reg := metrics.Default()
	log := logging.New(
		logging.WithLevel(logging.LevelInfo),
		logging.WithCounterHooks(reg.IncrLogWarning, reg.IncrLogError),
	)

	routes := connector.RouteTable{
		"echo": connector.Route(connector.RouteConfig{
			Inherits: []string{"authenticated"},
			Validation: validation.Schema{
				"type":                 "object",
				"required":             []any{"message"},
				"additionalProperties": false,
				"properties": map[string]any{
					"message": map[string]any{"type": "message"},
				},
			},
			Handler: func(ctx context.Context, scope any, data any) (any, error) {
				params, _ := data.(map[string]any)
				return map[string]any{"echoed": params["message"]}, nil
			},
		}),
	}

	defaults := connector.ServerDefaults{
		Parents: map[string]connector.ParentConfig{
			"authenticated": {
				Before: []connector.Stage{
					{Handler: requireAPIKey},
				},
			},
		},
		ValidationTypes: map[string]validation.Schema{
			"message": {"type": "string", "minLength": 1, "maxLength": 4096},
		},
	}

	conn, err := connector.New(routes, defaults, cfg, cfg.AliasName,
		connector.WithLogger(log),
		connector.WithMetrics(reg),
		connector.WithEmptyResponseCorrection(true, nil),
	)
	if err != nil {
		return fmt.Errorf("building connector: %w", err)
	}

	harness := lifecycle.NewHarness("exampleservice", func(event string, args ...any) {
		log.Info(event, args...)
	})
	harness.AddChild(conn)
	if cfg.MetricsHost != "" {
		harness.AddChild(metrics.NewServer(fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort), reg))
	}

	harness.PrintEnv(map[string]string{
		"JRS_CONNECTOR_ALIAS_NAME": cfg.AliasName,
	})

	return harness.Run(context.Background())
}

// requireAPIKey is a sample before-stage demonstrating the changed-bool
// pass-through contract: it never rewrites the payload, so it always
// returns changed=false.
func requireAPIKey(ctx context.Context, scope any, data any) (any, bool, error) {
	return nil, false, nil
}
