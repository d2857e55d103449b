package types

import "encoding/json"

/*
 * Condition trees and rule sets for dynamic logic.
 *
 * A Condition is a tagged node of a small boolean expression language over
 * record attributes. Leaf conditions reference an attribute and, where
 * applicable, a literal value. Combinators (and/or/not) hold an ordered list
 * of children which ride in the "value" key on the wire:
 *
 *   {"type": "and", "value": [
 *     {"type": "equals", "attribute": "type", "value": "Partner"}
 *   ]}
 *
 * Unknown condition types are preserved as-is: evaluation fails closed on
 * them and validation reports them as diagnostics, but a single bad rule
 * never breaks document loading.
 *
 * Wire-format agnostic beyond JSON: YAML metadata documents are converted to
 * JSON by internal/metadata before reaching these types.
 */

// ConditionType tags a condition node.
type ConditionType string

// Leaf condition types.
const (
	ConditionEquals              ConditionType = "equals"
	ConditionNotEquals           ConditionType = "notEquals"
	ConditionIsEmpty             ConditionType = "isEmpty"
	ConditionIsNotEmpty          ConditionType = "isNotEmpty"
	ConditionGreaterThan         ConditionType = "greaterThan"
	ConditionGreaterThanOrEquals ConditionType = "greaterThanOrEquals"
	ConditionLessThan            ConditionType = "lessThan"
	ConditionLessThanOrEquals    ConditionType = "lessThanOrEquals"
	ConditionIn                  ConditionType = "in"
	ConditionNotIn               ConditionType = "notIn"
	ConditionIsTrue              ConditionType = "isTrue"
	ConditionIsFalse             ConditionType = "isFalse"
	ConditionContains            ConditionType = "contains"
	ConditionNotContains         ConditionType = "notContains"
)

// Combinator condition types.
const (
	ConditionAnd ConditionType = "and"
	ConditionOr  ConditionType = "or"
	ConditionNot ConditionType = "not"
)

// IsCombinator reports whether t holds child conditions rather than a literal.
func (t ConditionType) IsCombinator() bool {
	switch t {
	case ConditionAnd, ConditionOr, ConditionNot:
		return true
	}
	return false
}

// Condition is one node of a dynamic-logic expression tree.
// Exactly one of Value/Children is meaningful depending on Type.
type Condition struct {
	Type      ConditionType
	Attribute string
	Value     any         // literal for leaf conditions
	Children  []Condition // child conditions for and/or/not

	// Malformed marks a node whose payload did not match its type (for
	// example a combinator whose "value" is not an array). Evaluation of a
	// malformed node is always false.
	Malformed bool
}

// conditionWire is the JSON shape of a condition node.
type conditionWire struct {
	Type      ConditionType   `json:"type"`
	Attribute string          `json:"attribute,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// UnmarshalJSON decodes a condition node, routing "value" to either the
// literal or the child list depending on the node type. Payloads that do not
// match the node type mark the node malformed instead of failing the decode.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var w conditionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	c.Type = w.Type
	c.Attribute = w.Attribute
	c.Value = nil
	c.Children = nil
	c.Malformed = false

	if w.Type.IsCombinator() {
		if len(w.Value) == 0 {
			// Combinator with no children: and([]) is vacuously true,
			// or([]) false, not([]) false. Valid, just empty.
			return nil
		}
		var children []Condition
		if err := json.Unmarshal(w.Value, &children); err != nil {
			c.Malformed = true
			return nil
		}
		c.Children = children
		return nil
	}

	if len(w.Value) > 0 {
		var v any
		if err := json.Unmarshal(w.Value, &v); err != nil {
			c.Malformed = true
			return nil
		}
		c.Value = v
	}
	return nil
}

// MarshalJSON encodes the node back into its wire shape.
func (c Condition) MarshalJSON() ([]byte, error) {
	w := struct {
		Type      ConditionType `json:"type"`
		Attribute string        `json:"attribute,omitempty"`
		Value     any           `json:"value,omitempty"`
	}{Type: c.Type, Attribute: c.Attribute}

	if c.Type.IsCombinator() {
		if c.Children != nil {
			w.Value = c.Children
		}
	} else {
		w.Value = c.Value
	}
	return json.Marshal(w)
}

// FieldRules holds the optional condition triple gating one field.
// Each condition is independent; a field can be simultaneously hidden and
// required, reconciliation is the caller's validation policy.
type FieldRules struct {
	Visible  *Condition `json:"visible,omitempty"`
	Required *Condition `json:"required,omitempty"`
	ReadOnly *Condition `json:"readOnly,omitempty"`
}

// PanelRules holds the optional visibility condition for one panel.
type PanelRules struct {
	Visible *Condition `json:"visible,omitempty"`
}

// RuleSet is the dynamic-logic metadata for one entity type.
// Loaded once per session and treated as immutable thereafter; swapping in a
// new rule set is a whole-value replacement.
type RuleSet struct {
	Fields map[string]FieldRules `json:"fields,omitempty"`
	Panels map[string]PanelRules `json:"panels,omitempty"`
}
