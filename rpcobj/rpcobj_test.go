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

package rpcobj

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	req, err := NewRequest("users.create", map[string]any{"name": "ann"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, req.ID)

	raw, err := Encode(req)
	require.NoError(t, err)

	decoded, err := DecodeRequest(raw)
	require.NoError(t, err)
	require.Equal(t, "users.create", decoded.Method)
	require.Equal(t, req.ID, decoded.ID)
	require.JSONEq(t, `{"name":"ann"}`, string(decoded.Params))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewError("id-1", 400, "bad params")
	require.Nil(t, resp.Result)
	require.Equal(t, 400, resp.Error.Code)
	require.Equal(t, "rpc error 400: bad params", resp.Error.Error())
}

func TestNewSuccessResponse(t *testing.T) {
	resp, err := NewSuccess("id-2", map[string]string{"status": "OK"})
	require.NoError(t, err)
	require.Nil(t, resp.Error)
	require.JSONEq(t, `{"status":"OK"}`, string(resp.Result))
}
