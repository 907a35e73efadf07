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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Format-X22/json-rpc-service/logging"
	"github.com/Format-X22/json-rpc-service/metrics"
	"github.com/Format-X22/json-rpc-service/rpcobj"
	"github.com/stretchr/testify/require"
)

func newTestConnector(t *testing.T, routes RouteTable, defaults ServerDefaults) *Connector {
	t.Helper()
	cfg := Config{ConnectorPath: "/", BodySizeLimit: 1 << 20}
	conn, err := New(routes, defaults, cfg, "anonymous",
		WithLogger(logging.Nop()),
		WithMetrics(metrics.New()),
	)
	require.NoError(t, err)
	return conn
}

func TestConnectorServeHTTPRoundTrip(t *testing.T) {
	routes := RouteTable{
		"echo": Route(RouteConfig{
			Handler: func(ctx context.Context, scope, data any) (any, error) {
				return data, nil
			},
		}),
	}
	conn := newTestConnector(t, routes, ServerDefaults{})

	body, err := json.Marshal(rpcobj.Request{JSONRPC: rpcobj.Version, Method: "echo", Params: json.RawMessage(`{"x":1}`), ID: "1"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	conn.ServeHTTP(rec, req)

	var resp rpcobj.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)
	require.JSONEq(t, `{"x":1}`, string(resp.Result))
}

func TestConnectorServeHTTPPingRoute(t *testing.T) {
	conn := newTestConnector(t, RouteTable{}, ServerDefaults{})

	body, err := json.Marshal(rpcobj.Request{JSONRPC: rpcobj.Version, Method: PingRoute, ID: "1"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	conn.ServeHTTP(rec, req)

	var resp rpcobj.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)

	var ping PingResult
	require.NoError(t, json.Unmarshal(resp.Result, &ping))
	require.Equal(t, "OK", ping.Status)
	require.Equal(t, "anonymous", ping.Alias)
}

// Rule 4 of spec §4.4: an unknown method is reported as an empty error
// object, avoiding information disclosure.
func TestConnectorDispatchUnknownMethodYieldsEmptyError(t *testing.T) {
	conn := newTestConnector(t, RouteTable{}, ServerDefaults{})

	resp := conn.Dispatch(context.Background(), &rpcobj.Request{Method: "nonexistent", ID: "1"})
	require.NotNil(t, resp.Error)
	require.Equal(t, 0, resp.Error.Code)
	require.Equal(t, "", resp.Error.Message)
}

func TestConnectorRejectsNonPostMethod(t *testing.T) {
	conn := newTestConnector(t, RouteTable{}, ServerDefaults{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	conn.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
