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

// Package rpcobj builds and parses JSON-RPC 2.0 envelopes.
//
// It covers the "RPC object helpers" component of the connector: request,
// success and error envelopes conforming to the JSON-RPC 2.0 wire format,
// plus an [RPCError] type that doubles as the canonical user-visible error
// shape forwarded verbatim by the connector (see connector package, error
// classification).
package rpcobj

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Version is the fixed JSON-RPC protocol version string.
const Version = "2.0"

// Request is an outbound or inbound JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      string          `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result or
// Error is populated, never both.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      string          `json:"id"`
}

// RPCError is the canonical JSON-RPC error shape: `{code, message}`.
//
// It is the "forwarded remote error" / "safe provided error" shape of
// spec §4.3-§4.4: a handler may return one directly and the connector
// forwards it to the caller unchanged.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewID returns a fresh request correlation ID.
func NewID() string {
	return uuid.NewString()
}

// NewRequest builds a request envelope, marshaling params to JSON.
func NewRequest(method string, params any, id string) (*Request, error) {
	if id == "" {
		id = NewID()
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("rpcobj: marshal params: %w", err)
	}
	return &Request{JSONRPC: Version, Method: method, Params: raw, ID: id}, nil
}

// NewSuccess builds a success response envelope for id, marshaling result.
func NewSuccess(id string, result any) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("rpcobj: marshal result: %w", err)
	}
	return &Response{JSONRPC: Version, Result: raw, ID: id}, nil
}

// NewError builds an error response envelope for id.
func NewError(id string, code int, message string) *Response {
	return &Response{JSONRPC: Version, Error: &RPCError{Code: code, Message: message}, ID: id}
}

// Encode serializes v (a *Request or *Response) to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeRequest parses a JSON-RPC request envelope from raw bytes.
func DecodeRequest(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("rpcobj: decode request: %w", err)
	}
	return &req, nil
}

// DecodeResponse parses a JSON-RPC response envelope from raw bytes.
func DecodeResponse(raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("rpcobj: decode response: %w", err)
	}
	return &resp, nil
}
