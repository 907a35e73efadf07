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

// Package validation implements the route-schema transformation algorithm
// of spec.md §4.1: deep-merge of a route's validation fragment against the
// strict-object default, inheritance-driven accumulation, and recursive,
// cycle-tolerant resolution of custom validation types into a final
// JSON-Schema-subset document that is then compiled into a real validator.
//
// Grounded on the teacher framework's validation package
// (validation/jsonschema.go), which compiles a JSON Schema document via
// github.com/santhosh-tekuri/jsonschema/v6 and flattens its structured
// error tree into field-level messages; this package reuses that compile
// target but builds the schema document itself via the custom-type
// resolution algorithm spec.md §4.1 describes, which has no analogue in
// the teacher (its schemas come from struct tags / JSON Schema already on
// disk, not from a merge-and-substitute pipeline).
package validation

// Schema is the JSON-Schema subset document type: a plain keyword bag.
// Nested schemas (properties/items/oneOf/anyOf/allOf members) are
// represented the same way, recursively.
type Schema = map[string]any

// defaultTopLevel is prepended under every route's validation per spec
// §4.1 step 2: "merge validation over {type:"object",
// additionalProperties:false}... user values win on conflict."
func defaultTopLevel() Schema {
	return Schema{
		"type":                 "object",
		"additionalProperties": false,
	}
}

// schemaKeys that the custom-type substitution walk descends into, per
// spec §4.1 step 4.
var schemaKeys = []string{"properties", "items", "oneOf", "anyOf", "allOf"}

// deepMergeOver merges overlay's keys over base, returning a new map; base
// is not mutated. Conflicting scalar/array values take overlay's value.
// Conflicting map values are merged recursively (overlay wins at each
// leaf). This implements the "deep merge; X values win" language used
// throughout spec §4.1.
func deepMergeOver(base, overlay Schema) Schema {
	out := make(Schema, len(base)+len(overlay))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, ov := range overlay {
		if bv, exists := out[k]; exists {
			if bMap, ok := bv.(Schema); ok {
				if oMap, ok := ov.(Schema); ok {
					out[k] = deepMergeOver(bMap, oMap)
					continue
				}
			}
			if bMap, ok := asSchema(bv); ok {
				if oMap, ok := asSchema(ov); ok {
					out[k] = deepMergeOver(bMap, oMap)
					continue
				}
			}
		}
		out[k] = cloneValue(ov)
	}
	return out
}

// asSchema converts v to a Schema if it is a map[string]any in disguise
// (handles both the Schema alias and a plain map[string]any literal).
func asSchema(v any) (Schema, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// cloneValue deep-copies maps and slices so merge results never alias
// caller-owned data.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// MergeOverDefault applies spec §4.1 step 2: merges schema over the strict
// object default, with schema's values winning conflicts.
func MergeOverDefault(schema Schema) Schema {
	return deepMergeOver(defaultTopLevel(), schema)
}

// MergeUnder deep-merges accumulated (e.g. inherited validation) under
// own, with own's values winning conflicts — spec §4.1 step 3's "deep
// merge accumulated validation under the route's validation."
func MergeUnder(own, accumulated Schema) Schema {
	return deepMergeOver(accumulated, own)
}
