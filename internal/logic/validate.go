// internal/logic/validate.go
package logic

import (
	"fmt"
	"sort"

	"github.com/helioscrm/dynlogic/internal/types"
)

/*
 * Rule-set validation.
 *
 * Walks every condition tree in a rule set and reports data-quality issues
 * as diagnostics. Validation runs at rule-set creation time (admin PUT,
 * lint command) so problems surface when the metadata is authored rather
 * than as silently-false conditions at form render time.
 *
 * Two severities:
 *   - Hard errors: resource-limit violations (depth, fan-out). These reject
 *     the rule set outright; an unbounded tree is an authoring bug, not a
 *     data-quality wrinkle.
 *   - Diagnostics: unknown condition types, missing attributes, malformed
 *     payloads. The evaluator fails closed on all of these, so the rule set
 *     is still accepted; the diagnostics tell the admin what will never
 *     match.
 */

// Diagnostic flags a data-quality issue in a rule set. The rule set remains
// usable; the flagged condition evaluates to false.
type Diagnostic struct {
	// Path locates the condition, e.g. "fields.partnerLevel.visible[0]".
	Path string `json:"path"`
	// Code is a stable machine-readable identifier.
	Code string `json:"code"`
	// Message is a human-readable explanation.
	Message string `json:"message"`
}

// Diagnostic codes.
const (
	DiagUnknownType      = "unknown-condition-type"
	DiagMissingAttribute = "missing-attribute"
	DiagMalformedNode    = "malformed-node"
	DiagNonArrayLiteral  = "non-array-literal"
)

// ValidateRuleSet checks every condition tree in the rule set.
// Returns diagnostics for conditions that will never match, and an error
// for resource-limit violations (ErrConditionTooDeep, ErrTooManyChildren).
func ValidateRuleSet(rs *types.RuleSet) ([]Diagnostic, error) {
	if rs == nil {
		return nil, nil
	}

	var diags []Diagnostic

	fieldNames := sortedKeys(rs.Fields)
	for _, name := range fieldNames {
		rules := rs.Fields[name]
		for _, slot := range []struct {
			label string
			cond  *types.Condition
		}{
			{"visible", rules.Visible},
			{"required", rules.Required},
			{"readOnly", rules.ReadOnly},
		} {
			if slot.cond == nil {
				continue
			}
			path := fmt.Sprintf("fields.%s.%s", name, slot.label)
			d, err := validateCondition(*slot.cond, path, 0)
			if err != nil {
				return nil, err
			}
			diags = append(diags, d...)
		}
	}

	panelNames := sortedKeys(rs.Panels)
	for _, name := range panelNames {
		rules := rs.Panels[name]
		if rules.Visible == nil {
			continue
		}
		path := fmt.Sprintf("panels.%s.visible", name)
		d, err := validateCondition(*rules.Visible, path, 0)
		if err != nil {
			return nil, err
		}
		diags = append(diags, d...)
	}

	return diags, nil
}

// validateCondition recursively checks a single condition tree.
func validateCondition(cond types.Condition, path string, depth int) ([]Diagnostic, error) {
	if depth > types.MaxConditionDepth {
		return nil, types.ErrConditionTooDeep
	}

	if cond.Malformed {
		return []Diagnostic{{
			Path:    path,
			Code:    DiagMalformedNode,
			Message: fmt.Sprintf("condition %q has a payload that does not match its type; it always evaluates false", cond.Type),
		}}, nil
	}

	if cond.Type.IsCombinator() {
		if len(cond.Children) > types.MaxConditionChildren {
			return nil, types.ErrTooManyChildren
		}
		var diags []Diagnostic
		for i, child := range cond.Children {
			d, err := validateCondition(child, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			diags = append(diags, d...)
		}
		return diags, nil
	}

	var diags []Diagnostic

	if !knownLeafType(cond.Type) {
		diags = append(diags, Diagnostic{
			Path:    path,
			Code:    DiagUnknownType,
			Message: fmt.Sprintf("unknown condition type %q always evaluates false", cond.Type),
		})
		return diags, nil
	}

	if cond.Attribute == "" {
		diags = append(diags, Diagnostic{
			Path:    path,
			Code:    DiagMissingAttribute,
			Message: fmt.Sprintf("condition %q references no attribute", cond.Type),
		})
	}

	if cond.Type == types.ConditionIn || cond.Type == types.ConditionNotIn {
		if _, ok := cond.Value.([]any); !ok {
			diags = append(diags, Diagnostic{
				Path:    path,
				Code:    DiagNonArrayLiteral,
				Message: fmt.Sprintf("condition %q requires an array literal", cond.Type),
			})
		}
	}

	return diags, nil
}

// knownLeafType reports whether the evaluator implements this leaf type.
func knownLeafType(t types.ConditionType) bool {
	switch t {
	case types.ConditionEquals, types.ConditionNotEquals,
		types.ConditionIsEmpty, types.ConditionIsNotEmpty,
		types.ConditionGreaterThan, types.ConditionGreaterThanOrEquals,
		types.ConditionLessThan, types.ConditionLessThanOrEquals,
		types.ConditionIn, types.ConditionNotIn,
		types.ConditionIsTrue, types.ConditionIsFalse,
		types.ConditionContains, types.ConditionNotContains:
		return true
	}
	return false
}

// sortedKeys returns map keys in deterministic order so diagnostics are
// stable across runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
