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
	"errors"
	"net"
	"syscall"

	"github.com/Format-X22/json-rpc-service/rpcobj"
	"github.com/Format-X22/json-rpc-service/validation"
)

// Sentinel errors for connector-local failure modes (spec §6 "Reserved
// error codes").
var (
	// ErrNonObjectParams is returned by CallService when invoked with
	// non-object params (spec §4.3, §6: code 500).
	ErrNonObjectParams = errors.New("connector: params must be a JSON object")

	// ErrUnknownService is returned by SendTo/CallService when no client
	// is registered under the given alias (spec §4.3).
	ErrUnknownService = errors.New("connector: unknown service")

	// ErrConnRefused is the sentinel matched by classification rule 2 of
	// spec §4.4 ("ECONNREFUSED"): a downstream connection refusal.
	ErrConnRefused = errors.New("connector: downstream connection refused")
)

const (
	// CodeValidation is the JSON-RPC error code for a failed validator
	// (spec §6).
	CodeValidation = 400
	// CodeCriticalInternal is the code for a bad call signature (spec §6).
	CodeCriticalInternal = 500
	// CodeInternalServerError is the code mapped from ErrConnRefused
	// (spec §6).
	CodeInternalServerError = 1001
)

// classify implements spec §4.4's inbound error classification, returning
// the RPCError to deliver to the caller. It returns nil only for a nil err.
func classify(err error) *rpcobj.RPCError {
	if err == nil {
		return nil
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		return &rpcobj.RPCError{Code: CodeValidation, Message: verr.Error()}
	}

	if errors.Is(err, ErrNonObjectParams) {
		return &rpcobj.RPCError{Code: CodeCriticalInternal, Message: "Critical internal error"}
	}

	if errors.Is(err, ErrConnRefused) || isConnRefused(err) {
		return &rpcobj.RPCError{Code: CodeInternalServerError, Message: "Internal server error"}
	}

	// Rule 3: a plain record with numeric code and string message forwards
	// verbatim — this is the canonical "user-visible error" shape.
	var rpcErr *rpcobj.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	// Rule 4 (Unknown, folded with rule 1 "internal bug" per the Go
	// adaptation recorded in SPEC_FULL.md/DESIGN.md): any other Go error
	// is logged by the caller and replaced with an empty {code:0,message:""}
	// object to avoid leaking internals — the literal Go rendering of
	// spec §4.4's "reply with an empty object."
	return &rpcobj.RPCError{}
}

// isConnRefused reports whether err wraps a syscall-level ECONNREFUSED,
// the transport-level fault spec §4.4 rule 2 maps to code 1001.
func isConnRefused(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.ECONNREFUSED)
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
