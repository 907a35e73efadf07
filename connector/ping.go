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

import "context"

// PingRoute is the reserved route name every conforming server answers
// (spec §4.5, §6).
const PingRoute = "_ping"

// PingResult is the fixed response shape `_ping` returns.
type PingResult struct {
	Status string `json:"status"`
	Alias  string `json:"alias"`
}

// DefaultAlias is used when no alias is configured (spec §4.5, §6 env var
// JRS_CONNECTOR_ALIAS_NAME default).
const DefaultAlias = "anonymous"

// compilePingRoute builds the injected _ping bare route answering
// {status: "OK", alias: <local alias>}.
//
// The source executes arbitrary code if the probe payload contains a
// "payload" field (spec §9 Design Notes: "a hard security defect... do
// NOT reproduce"). This implementation's contract is exactly
// {status, alias} and nothing else — the incoming params are never
// interpreted as code or evaluated in any way.
func compilePingRoute(alias string) *compiledRoute {
	if alias == "" {
		alias = DefaultAlias
	}
	return &compiledRoute{
		name: PingRoute,
		bare: func(ctx context.Context, params any) (any, error) {
			return PingResult{Status: "OK", Alias: alias}, nil
		},
	}
}
