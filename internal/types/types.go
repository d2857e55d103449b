// Package types provides domain models shared across dynlogic components.
//
// Zero-dependency design: condition trees, records, and resolved states use
// only encoding/json so the evaluator core stays importable without pulling
// in storage or transport deps. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

// EntityType identifies a CRM entity (Account, Contact, Lead, ...).
// String alias enables type safety while maintaining JSON string serialization.
type EntityType string

// Revision identifies a stored rule-set version (UUIDv7 string).
type Revision string

// Record is a snapshot of an entity's current attribute values, supplied by
// the form/editor component. Values are the JSON scalar set plus arrays:
// string, float64, bool, nil, []any. The caller owns the underlying map and
// may mutate it between resolutions.
type Record map[string]any

// Get returns the value for attribute and whether it is present.
// A missing attribute and an explicit null are both treated as empty by the
// evaluator; presence matters only to callers inspecting the snapshot.
func (r Record) Get(attribute string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[attribute]
	return v, ok
}

// FieldState is the computed dynamic-logic outcome for a single field.
type FieldState struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
	ReadOnly bool `json:"readOnly"`
	// Invalid is reserved for future validation rules; always false.
	Invalid bool `json:"invalid"`
}

// PanelState is the computed dynamic-logic outcome for a panel.
// Panels support visibility only.
type PanelState struct {
	Visible bool `json:"visible"`
}

// DefaultFieldState returns the state applied when no rule exists:
// visible, not required, not read-only.
func DefaultFieldState() FieldState {
	return FieldState{Visible: true}
}

// DefaultPanelState returns the state applied when no rule exists.
func DefaultPanelState() PanelState {
	return PanelState{Visible: true}
}

// ValidationPolicy decides whether required-ness is enforced on fields that
// are currently hidden. The source behavior never specified this, so it is
// an explicit policy rather than an inference.
type ValidationPolicy string

const (
	// ValidationSkipHidden excludes hidden fields from required-validation.
	ValidationSkipHidden ValidationPolicy = "skip-hidden"
	// ValidationEnforceHidden validates required-ness even on hidden fields.
	ValidationEnforceHidden ValidationPolicy = "enforce-hidden"
)

// Validates reports whether a required field should be enforced at submit
// time under the given policy.
func (s FieldState) Validates(policy ValidationPolicy) bool {
	if !s.Required {
		return false
	}
	if policy == ValidationEnforceHidden {
		return true
	}
	return s.Visible
}

// ResolvedState is the full output of one resolver pass for an entity type.
type ResolvedState struct {
	EntityType EntityType `json:"entityType"`
	// Ready is false when no rule set has been loaded for the entity type.
	// All states are defaults in that case; callers may defer dependent
	// actions such as submit-validation until Ready is true.
	Ready  bool                  `json:"ready"`
	Fields map[string]FieldState `json:"fields"`
	Panels map[string]PanelState `json:"panels"`
}

// FieldState returns the resolved state for name, or the default state when
// the entity's rule set declares no rules for it.
func (s *ResolvedState) FieldState(name string) FieldState {
	if s != nil {
		if st, ok := s.Fields[name]; ok {
			return st
		}
	}
	return DefaultFieldState()
}

// PanelState returns the resolved state for name, or the default state when
// the entity's rule set declares no rules for it.
func (s *ResolvedState) PanelState(name string) PanelState {
	if s != nil {
		if st, ok := s.Panels[name]; ok {
			return st
		}
	}
	return DefaultPanelState()
}

// Resource limits enforced during rule-set validation to keep evaluation
// bounded on arbitrary admin-authored metadata.
const (
	// MaxConditionDepth prevents stack exhaustion during recursive
	// evaluation. 16 levels of nested combinators is far beyond any
	// hand-authored rule.
	MaxConditionDepth = 16

	// MaxConditionChildren limits combinator fan-out to keep a single
	// resolution pass bounded.
	MaxConditionChildren = 128

	// MaxDocumentSize caps a metadata document upload. 1MB covers every
	// entity of a large installation with room to spare.
	MaxDocumentSize = 1024 * 1024
)
