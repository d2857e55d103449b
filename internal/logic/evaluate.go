// internal/logic/evaluate.go
package logic

import (
	"github.com/helioscrm/dynlogic/internal/types"
)

/*
 * Condition evaluation.
 *
 * Evaluates a dynamic-logic condition tree against a record snapshot.
 * Pure and side-effect free: no I/O, no mutation of the record, no panics
 * on arbitrary input.
 *
 * Evaluation flow:
 *   1. Combinators recurse over children (and/or/not)
 *   2. Leaf conditions read record[attribute] (missing treated as nil)
 *   3. Comparison via loose-equality / numeric / emptiness helpers
 *
 * Fail-closed semantics: unknown condition types, malformed nodes, and
 * trees deeper than MaxConditionDepth evaluate to false. A single bad rule
 * dims one field, it never crashes the form. Data-quality issues are
 * surfaced through the observer hook and through Validate, not through
 * errors.
 *
 * Short-circuit semantics: "and" stops on the first false child, "or" on
 * the first true child. Child order is preserved from the metadata.
 */

// UnknownTypeFunc is invoked once per unknown condition type encountered
// during evaluation. Used to flag data-quality issues without breaking
// evaluation.
type UnknownTypeFunc func(conditionType types.ConditionType, attribute string)

// Evaluate maps a condition tree and a record snapshot to a boolean.
func Evaluate(cond types.Condition, record types.Record) bool {
	return evaluateNode(cond, record, 0, nil)
}

// evaluateNode evaluates a single node with depth tracking and an optional
// unknown-type observer. Depth overflow fails closed rather than recursing.
func evaluateNode(cond types.Condition, record types.Record, depth int, onUnknown UnknownTypeFunc) bool {
	if cond.Malformed || depth > types.MaxConditionDepth {
		return false
	}

	switch cond.Type {
	case types.ConditionAnd:
		return evaluateAll(cond.Children, record, depth+1, onUnknown)

	case types.ConditionOr:
		for _, child := range cond.Children {
			if evaluateNode(child, record, depth+1, onUnknown) {
				return true
			}
		}
		return false

	case types.ConditionNot:
		// Negation of the implicit AND of the children. A childless "not"
		// is !and([]) == false.
		return !evaluateAll(cond.Children, record, depth+1, onUnknown)
	}

	value, _ := record.Get(cond.Attribute)

	switch cond.Type {
	case types.ConditionEquals:
		return looseEqual(value, cond.Value)
	case types.ConditionNotEquals:
		return !looseEqual(value, cond.Value)
	case types.ConditionIsEmpty:
		return isEmptyValue(value)
	case types.ConditionIsNotEmpty:
		return !isEmptyValue(value)
	case types.ConditionGreaterThan:
		cmp, ok := compareNumbers(value, cond.Value)
		return ok && cmp > 0
	case types.ConditionGreaterThanOrEquals:
		cmp, ok := compareNumbers(value, cond.Value)
		return ok && cmp >= 0
	case types.ConditionLessThan:
		cmp, ok := compareNumbers(value, cond.Value)
		return ok && cmp < 0
	case types.ConditionLessThanOrEquals:
		cmp, ok := compareNumbers(value, cond.Value)
		return ok && cmp <= 0
	case types.ConditionIn:
		return memberOf(value, cond.Value)
	case types.ConditionNotIn:
		return !memberOf(value, cond.Value)
	case types.ConditionIsTrue:
		return value == true
	case types.ConditionIsFalse:
		return value == false || value == nil
	case types.ConditionContains:
		return containsValue(value, cond.Value)
	case types.ConditionNotContains:
		return !containsValue(value, cond.Value)
	default:
		if onUnknown != nil {
			onUnknown(cond.Type, cond.Attribute)
		}
		return false
	}
}

// evaluateAll evaluates an AND over children (empty list vacuously true).
func evaluateAll(children []types.Condition, record types.Record, depth int, onUnknown UnknownTypeFunc) bool {
	for _, child := range children {
		if !evaluateNode(child, record, depth, onUnknown) {
			return false
		}
	}
	return true
}
