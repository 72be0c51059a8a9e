// File path: internal/merge/merge.go

// Package merge provides the pure accumulation primitives every knowledge
// base write composes from. All functions operate on JSON-serialized arrays
// as stored in the catalog's text columns, never fail on malformed input,
// and are idempotent when a dedup key is supplied.
package merge

import "encoding/json"

// Array merges incoming items into an existing serialized JSON array and
// returns the serialized result.
//
// Without a dedup key the result is existing ++ incoming, preserving order
// and duplicates. With a dedup key, existing items are indexed by that field
// and incoming items overwrite matching keys in place (last write wins);
// unmatched keys are appended in incoming order. Items lacking the key are
// dropped. Malformed existing input is treated as an empty array.
func Array(existing string, incoming []map[string]interface{}, dedupKey string) string {
	items := decodeObjects(existing)

	if dedupKey == "" {
		return encode(append(items, incoming...))
	}

	index := make(map[string]int, len(items))
	merged := make([]map[string]interface{}, 0, len(items)+len(incoming))
	for _, item := range items {
		key, ok := stringKey(item, dedupKey)
		if !ok {
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	for _, item := range incoming {
		key, ok := stringKey(item, dedupKey)
		if !ok {
			continue
		}
		if pos, seen := index[key]; seen {
			merged[pos] = item
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	return encode(merged)
}

// Objects merges a slice of typed items into an existing serialized array by
// round-tripping them through their JSON form. It exists so callers holding
// typed extraction items do not need to build map slices by hand.
func Objects[T any](existing string, incoming []T, dedupKey string) string {
	converted := make([]map[string]interface{}, 0, len(incoming))
	for _, item := range incoming {
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		converted = append(converted, obj)
	}
	return Array(existing, converted, dedupKey)
}

// AddUnique appends value to a serialized JSON array of strings only if it is
// not already present. Malformed existing input is treated as empty.
func AddUnique(existing string, value string) string {
	list := Strings(existing)
	for _, v := range list {
		if v == value {
			return encodeStrings(list)
		}
	}
	return encodeStrings(append(list, value))
}

// AddAllUnique unions every value into the serialized string array.
func AddAllUnique(existing string, values []string) string {
	out := existing
	for _, v := range values {
		out = AddUnique(out, v)
	}
	return out
}

// Strings decodes a serialized JSON string array, treating malformed or
// empty input as an empty slice.
func Strings(serialized string) []string {
	if serialized == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(serialized), &list); err != nil {
		return nil
	}
	return list
}

func decodeObjects(serialized string) []map[string]interface{} {
	if serialized == "" {
		return nil
	}
	var items []map[string]interface{}
	if err := json.Unmarshal([]byte(serialized), &items); err != nil {
		return nil
	}
	return items
}

func stringKey(item map[string]interface{}, key string) (string, bool) {
	if item == nil {
		return "", false
	}
	value, ok := item[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func encode(items []map[string]interface{}) string {
	if items == nil {
		items = []map[string]interface{}{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func encodeStrings(list []string) string {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
