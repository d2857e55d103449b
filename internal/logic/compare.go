// internal/logic/compare.go
package logic

import "strings"

/*
 * Value comparison helpers.
 *
 * Implements the loose-equality semantics of the metadata DSL: numeric
 * values compare across int/float representations (JSON decoding yields
 * float64, programmatic records may carry int), everything else compares
 * by Go equality. Arrays are never equals-equal; membership is expressed
 * with contains/in.
 *
 * Why function-based: a handful of comparison helpers behind a switch reads
 * cleaner than interface polymorphism for behavior this uniform.
 */

// looseEqual performs equality comparison with numeric type mixing.
// Arrays and maps are never equal under this relation.
func looseEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	switch a.(type) {
	case []any, map[string]any:
		return false
	}
	switch b.(type) {
	case []any, map[string]any:
		return false
	}
	return a == b
}

// compareNumbers performs three-way numeric comparison (-1/0/1).
// ok is false when either side is not numeric; comparisons on non-numeric
// values fail closed at the call site.
func compareNumbers(a, b any) (int, bool) {
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// asNumbers attempts to convert both values to float64 for numeric comparison.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
// Handles float64 from JSON decoding plus int/int64 from programmatic records.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// isEmptyValue reports whether a record value counts as empty:
// nil (also missing attributes), empty string, or empty array.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// memberOf checks whether value appears in the literal list using
// loose-equality semantics. Non-array literals never match.
func memberOf(value any, list any) bool {
	arr, ok := list.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if looseEqual(value, elem) {
			return true
		}
	}
	return false
}

// containsValue checks array membership or string containment:
// an array attribute contains the literal, or a string attribute has the
// literal as a substring. Everything else is false.
func containsValue(value any, literal any) bool {
	switch v := value.(type) {
	case []any:
		for _, elem := range v {
			if looseEqual(elem, literal) {
				return true
			}
		}
		return false
	case string:
		s, ok := literal.(string)
		return ok && strings.Contains(v, s)
	default:
		return false
	}
}
