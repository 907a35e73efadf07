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

// typeNames returns the set of type names referenced by a node's "type"
// keyword. "type" may be a bare string or a []any of strings (already
// deduplicated JSON-Schema array form).
func typeNames(node Schema) []string {
	switch t := node["type"].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ResolveTypes implements spec §4.1 step 4's first half: "resolve custom
// types against themselves... rewrite its type through the same algorithm,
// [possibly requiring] multiple passes until no custom-typed type
// remains."
//
// It returns a new map where every definition's "type" keyword (and
// sibling keywords) has been expanded transitively to standard JSON-Schema
// type names, tolerating up to len(types) re-resolution passes per the
// §4.1.1 tie-break before giving up and leaving a residual custom-type
// name in place (which then surfaces as a compile-time validator failure,
// per spec).
func ResolveTypes(types map[string]Schema) map[string]Schema {
	resolved := make(map[string]Schema, len(types))
	for name, def := range types {
		resolved[name] = cloneValue(def).(Schema)
	}

	maxPasses := len(types) + 1
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for name, def := range resolved {
			newDef, didSubstitute := substituteNode(def, resolved, name, len(types))
			if didSubstitute {
				resolved[name] = newDef
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return resolved
}

// substituteNode replaces any custom-type name present in node's "type"
// keyword with the underlying standard schema, merging sibling keywords
// from the custom type in wherever node does not already define them (deep
// merging object-valued keywords under node's own value). selfName, when
// non-empty, is excluded from substitution to avoid a type trivially
// "resolving" into itself on the first pass.
//
// It returns the (possibly unchanged) node and whether any substitution
// was performed.
func substituteNode(node Schema, types map[string]Schema, selfName string, distinctTypeCount int) (Schema, bool) {
	names := typeNames(node)

	out := cloneValue(node).(Schema)
	anySubstituted := false

	var resultTypes []string
	for _, n := range names {
		def, isCustom := types[n]
		if !isCustom || n == selfName {
			resultTypes = append(resultTypes, n)
			continue
		}

		// §4.1.1: chase n's own underlying type chain, carrying the set of
		// custom-type names already being expanded along this chain. A name
		// reappearing in its own chain (direct or mutual cycle) is left in
		// place rather than expanded again, so a cyclic definition set
		// makes no further progress and surfaces as a compile-time
		// validator failure instead of unbounded recursion.
		visited := map[string]bool{n: true}
		if selfName != "" {
			visited[selfName] = true
		}
		underlying := resolveUnderlyingType(def, types, visited)

		resultTypes = append(resultTypes, typeNames(underlying)...)
		out = mergeSiblingsFromCustomType(out, underlying)
		anySubstituted = true
	}

	if anySubstituted {
		out["type"] = dedupeAndCollapse(resultTypes)
	}

	// Recurse into nested schema positions regardless of whether this
	// node itself substituted, since children may have their own custom
	// types.
	for _, key := range schemaKeys {
		child, ok := out[key]
		if !ok {
			continue
		}
		// "properties" maps property names to schemas: each member is a node.
		if props, isMap := child.(map[string]any); isMap && key == "properties" {
			for propName, prop := range props {
				if newProp, propChanged := substituteChild(prop, types, distinctTypeCount); propChanged {
					props[propName] = newProp
					anySubstituted = true
				}
			}
			continue
		}
		newChild, childChanged := substituteChild(child, types, distinctTypeCount)
		if childChanged {
			out[key] = newChild
			anySubstituted = true
		}
	}

	return out, anySubstituted
}

// resolveUnderlyingType expands def's own "type" keyword transitively
// against types, merging in sibling keywords from each custom type it
// passes through. visited holds the custom-type names already being
// expanded along the current chain; a name already in visited is left
// in place instead of being expanded again, which is how a cyclic
// definition set (direct or mutual) is bounded.
func resolveUnderlyingType(def Schema, types map[string]Schema, visited map[string]bool) Schema {
	names := typeNames(def)
	if len(names) == 0 {
		return def
	}

	out := cloneValue(def).(Schema)
	var resultTypes []string
	changed := false
	for _, n := range names {
		sub, isCustom := types[n]
		if !isCustom || visited[n] {
			resultTypes = append(resultTypes, n)
			continue
		}

		visited[n] = true
		underlying := resolveUnderlyingType(sub, types, visited)
		delete(visited, n)

		resultTypes = append(resultTypes, typeNames(underlying)...)
		out = mergeSiblingsFromCustomType(out, underlying)
		changed = true
	}
	if changed {
		out["type"] = dedupeAndCollapse(resultTypes)
	}
	return out
}

// substituteChild dispatches substitution over a schema-bearing value that
// may be a single node (properties/items) or a list of nodes (oneOf/anyOf/allOf).
func substituteChild(v any, types map[string]Schema, distinctTypeCount int) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return substituteNode(t, types, "", distinctTypeCount)
	case []any:
		changed := false
		out := make([]any, len(t))
		for i, item := range t {
			if m, ok := item.(map[string]any); ok {
				newM, didChange := substituteNode(m, types, "", distinctTypeCount)
				out[i] = newM
				if didChange {
					changed = true
				}
			} else {
				out[i] = item
			}
		}
		return out, changed
	default:
		return v, false
	}
}

// mergeSiblingsFromCustomType merges every sibling keyword of def (other
// than "type") into node, only where node does not already define that
// keyword; where both values are objects, the custom type's value is
// deep-merged under node's existing value (node wins conflicts). This is
// spec §4.1 step 4's sibling-keyword merge rule.
func mergeSiblingsFromCustomType(node, def Schema) Schema {
	out := node
	for k, v := range def {
		if k == "type" {
			continue
		}
		if existing, has := out[k]; has {
			if existingMap, ok := asSchema(existing); ok {
				if defMap, ok := asSchema(v); ok {
					out[k] = deepMergeOver(defMap, existingMap)
				}
			}
			continue // node already defines k with a non-mergeable value: node wins
		}
		out[k] = cloneValue(v)
	}
	return out
}

// dedupeAndCollapse removes duplicate type names (stable order) and
// collapses a single-element result to a bare string, per spec §4.1 step
// 4's "deduplicate the type array and collapse to scalar when
// single-valued."
func dedupeAndCollapse(names []string) any {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	asAny := make([]any, len(out))
	for i, n := range out {
		asAny[i] = n
	}
	return asAny
}

// Substitute walks route (a fully inheritance-merged validation document)
// and replaces every custom-type reference with its resolved standard
// schema, per spec §4.1 step 4's second half. resolvedTypes must already
// have been produced by ResolveTypes.
func Substitute(route Schema, resolvedTypes map[string]Schema) Schema {
	out, _ := substituteNode(route, resolvedTypes, "", len(resolvedTypes))
	return out
}
