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

package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Error is returned by a CompiledValidator when params fail validation. It
// satisfies the standard error interface; Error() joins every underlying
// schema violation with "; ", per spec §4.2 step 4 ("fail the call with
// {code: 400, message: <concatenated validator errors>}").
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return strings.Join(e.Violations, "; ")
}

// CompiledValidator is the compiled predicate of spec §4.1 step 5: given
// params, it reports pass/fail plus a human-readable error description.
//
// Grounded on the teacher's validation/jsonschema.go compileSchema, which
// builds a github.com/santhosh-tekuri/jsonschema/v6 compiler, adds the
// document as an in-memory resource, and compiles it.
type CompiledValidator struct {
	schema *jsonschema.Schema
}

// Compile builds a CompiledValidator from a fully resolved schema document
// (the output of MergeOverDefault + inheritance accumulation + Substitute).
// An empty schema (no keys) compiles to a CompiledValidator that accepts
// everything, matching spec §4.1 step 4's "if the resulting validation is
// non-empty, apply custom-type resolution" — an empty validation never
// reaches the compiler with meaningful keywords, so it is a permissive
// pass-through.
func Compile(schema Schema) (*CompiledValidator, error) {
	if len(schema) == 0 {
		return &CompiledValidator{}, nil
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("validation: marshal schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("validation: unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	const resourceID = "route.json"
	if err := compiler.AddResource(resourceID, doc); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}

	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}

	return &CompiledValidator{schema: compiled}, nil
}

// Validate runs the compiled schema against params. params is normalized
// to the JSON-generic representation the jsonschema library requires
// (map[string]any, []any, string, float64, bool, nil) by a marshal/
// unmarshal round-trip, matching the teacher's validateWithSchema, which
// does the same before calling schema.Validate. This lets callers pass
// plain Go values (including int) without tripping the library's internal
// type checks.
func (v *CompiledValidator) Validate(params any) error {
	if v == nil || v.schema == nil {
		return nil
	}

	normalized, err := normalize(params)
	if err != nil {
		return &Error{Violations: []string{err.Error()}}
	}

	if err := v.schema.Validate(normalized); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			var violations []string
			collectViolations(verr, &violations)
			if len(violations) == 0 {
				violations = []string{verr.Error()}
			}
			return &Error{Violations: violations}
		}
		return &Error{Violations: []string{err.Error()}}
	}
	return nil
}

// normalize round-trips v through JSON so it matches the generic
// representation the jsonschema library expects.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("validation: marshal params: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("validation: unmarshal params: %w", err)
	}
	return out, nil
}

// collectViolations flattens the jsonschema.ValidationError tree into
// human-readable leaf messages, matching the teacher's
// collectSchemaErrors traversal.
func collectViolations(verr *jsonschema.ValidationError, out *[]string) {
	if verr == nil {
		return
	}
	if len(verr.Causes) == 0 {
		field := strings.Join(verr.InstanceLocation, ".")
		if field == "" {
			*out = append(*out, verr.Error())
		} else {
			*out = append(*out, fmt.Sprintf("%s: %s", field, verr.Error()))
		}
		return
	}
	for _, cause := range verr.Causes {
		collectViolations(cause, out)
	}
}
