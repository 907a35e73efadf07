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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Format-X22/json-rpc-service/logging"
	"github.com/Format-X22/json-rpc-service/rpcobj"
	"github.com/stretchr/testify/require"
)

// pingServer stands in for a peer connector answering `_ping` with alias.
func pingServer(t *testing.T, alias string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcobj.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp, err := rpcobj.NewSuccess(req.ID, PingResult{Status: "OK", Alias: alias})
		require.NoError(t, err)
		raw, err := rpcobj.Encode(resp)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}))
}

// Scenario 5: matching alias logs success; mismatched alias logs an error
// but AddService still succeeds (non-fatal per the Design Note decision).
func TestAddServicePingIdentityMatch(t *testing.T) {
	peer := pingServer(t, "b")
	defer peer.Close()

	reg := NewClientRegistry(logging.Nop(), nil, false)
	err := reg.AddService(context.Background(), "b", Settings(ClientSettings{
		Connect:           peer.URL,
		OriginRemoteAlias: "b",
	}))
	require.NoError(t, err)
}

func TestAddServicePingIdentityMismatchIsNonFatal(t *testing.T) {
	peer := pingServer(t, "b")
	defer peer.Close()

	reg := NewClientRegistry(logging.Nop(), nil, false)
	err := reg.AddService(context.Background(), "b", Settings(ClientSettings{
		Connect:           peer.URL,
		OriginRemoteAlias: "c",
	}))
	require.NoError(t, err, "mismatch must not fail AddService")
}

// Round-trip: addService(a, x); addService(a, y) leaves exactly the
// mapping to y.
func TestAddServiceReplacesExistingEntry(t *testing.T) {
	first := pingServer(t, "first")
	defer first.Close()
	second := pingServer(t, "second")
	defer second.Close()

	reg := NewClientRegistry(logging.Nop(), nil, false)
	require.NoError(t, reg.AddService(context.Background(), "svc", URL(first.URL)))
	require.NoError(t, reg.AddService(context.Background(), "svc", URL(second.URL)))

	resp, err := reg.SendTo(context.Background(), "svc", PingRoute, nil)
	require.NoError(t, err)

	var ping PingResult
	require.NoError(t, json.Unmarshal(resp.Result, &ping))
	require.Equal(t, "second", ping.Alias)
}

func TestSendToUnknownServiceFails(t *testing.T) {
	reg := NewClientRegistry(logging.Nop(), nil, false)
	_, err := reg.SendTo(context.Background(), "ghost", "anything", nil)
	require.ErrorIs(t, err, ErrUnknownService)
}

func TestCallServiceRejectsNonObjectParams(t *testing.T) {
	reg := NewClientRegistry(logging.Nop(), nil, false)
	_, err := reg.CallService(context.Background(), "anything", "method", []any{1, 2, 3})
	require.ErrorIs(t, err, ErrNonObjectParams)
}

func TestCallServiceReturnsResultOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcobj.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp, err := rpcobj.NewSuccess(req.ID, map[string]any{"echoed": true})
		require.NoError(t, err)
		raw, err := rpcobj.Encode(resp)
		require.NoError(t, err)
		_, _ = w.Write(raw)
	}))
	defer server.Close()

	reg := NewClientRegistry(logging.Nop(), nil, false)
	require.NoError(t, reg.AddService(context.Background(), "svc", URL(server.URL)))

	result, err := reg.CallService(context.Background(), "svc", "echo", map[string]any{"x": 1})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"echoed": true}, result)
}

func TestCallServiceForwardsSafeProvidedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcobj.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := rpcobj.NewError(req.ID, 404, "not found")
		raw, err := rpcobj.Encode(resp)
		require.NoError(t, err)
		_, _ = w.Write(raw)
	}))
	defer server.Close()

	reg := NewClientRegistry(logging.Nop(), nil, false)
	require.NoError(t, reg.AddService(context.Background(), "svc", URL(server.URL)))

	_, err := reg.CallService(context.Background(), "svc", "broken", map[string]any{})
	require.Error(t, err)
	rpcErr, ok := err.(*rpcobj.RPCError)
	require.True(t, ok)
	require.Equal(t, 404, rpcErr.Code)
}
