// internal/logic/validate_test.go
package logic

import (
	"errors"
	"testing"

	"github.com/helioscrm/dynlogic/internal/types"
)

func TestValidateRuleSet_Clean(t *testing.T) {
	rs := mustRuleSet(t, `{
		"fields": {
			"partnerLevel": {"visible": {"type": "equals", "attribute": "type", "value": "Partner"}}
		},
		"panels": {
			"details": {"visible": {"type": "isNotEmpty", "attribute": "name"}}
		}
	}`)

	diags, err := ValidateRuleSet(rs)
	if err != nil {
		t.Fatalf("ValidateRuleSet() error = %v, want nil", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestValidateRuleSet_Nil(t *testing.T) {
	diags, err := ValidateRuleSet(nil)
	if err != nil || diags != nil {
		t.Errorf("ValidateRuleSet(nil) = %v, %v, want nil, nil", diags, err)
	}
}

func TestValidateRuleSet_Diagnostics(t *testing.T) {
	rs := mustRuleSet(t, `{
		"fields": {
			"a": {"visible": {"type": "matchesRegex", "attribute": "email", "value": ".*"}},
			"b": {"required": {"type": "equals", "value": "x"}},
			"c": {"readOnly": {"type": "in", "attribute": "stage", "value": "Won"}},
			"d": {"visible": {"type": "and", "value": "broken"}}
		}
	}`)

	diags, err := ValidateRuleSet(rs)
	if err != nil {
		t.Fatalf("ValidateRuleSet() error = %v, want nil", err)
	}

	want := map[string]string{
		"fields.a.visible":  DiagUnknownType,
		"fields.b.required": DiagMissingAttribute,
		"fields.c.readOnly": DiagNonArrayLiteral,
		"fields.d.visible":  DiagMalformedNode,
	}
	if len(diags) != len(want) {
		t.Fatalf("got %d diagnostics, want %d: %v", len(diags), len(want), diags)
	}
	for _, d := range diags {
		if want[d.Path] != d.Code {
			t.Errorf("path %s: code = %s, want %s", d.Path, d.Code, want[d.Path])
		}
	}
}

func TestValidateRuleSet_DiagnosticPathsInsideCombinators(t *testing.T) {
	rs := mustRuleSet(t, `{
		"fields": {
			"x": {"visible": {"type": "and", "value": [
				{"type": "equals", "attribute": "a", "value": 1},
				{"type": "bogus", "attribute": "b"}
			]}}
		}
	}`)

	diags, err := ValidateRuleSet(rs)
	if err != nil {
		t.Fatalf("ValidateRuleSet() error = %v, want nil", err)
	}
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	if diags[0].Path != "fields.x.visible[1]" {
		t.Errorf("path = %s, want fields.x.visible[1]", diags[0].Path)
	}
}

func TestValidateRuleSet_DepthLimit(t *testing.T) {
	cond := &types.Condition{Type: types.ConditionEquals, Attribute: "a", Value: "x"}
	for i := 0; i < types.MaxConditionDepth+2; i++ {
		cond = &types.Condition{Type: types.ConditionAnd, Children: []types.Condition{*cond}}
	}
	rs := &types.RuleSet{Fields: map[string]types.FieldRules{"x": {Visible: cond}}}

	_, err := ValidateRuleSet(rs)
	if !errors.Is(err, types.ErrConditionTooDeep) {
		t.Errorf("error = %v, want ErrConditionTooDeep", err)
	}
}

func TestValidateRuleSet_ChildLimit(t *testing.T) {
	children := make([]types.Condition, types.MaxConditionChildren+1)
	for i := range children {
		children[i] = types.Condition{Type: types.ConditionIsEmpty, Attribute: "a"}
	}
	rs := &types.RuleSet{Fields: map[string]types.FieldRules{
		"x": {Visible: &types.Condition{Type: types.ConditionOr, Children: children}},
	}}

	_, err := ValidateRuleSet(rs)
	if !errors.Is(err, types.ErrTooManyChildren) {
		t.Errorf("error = %v, want ErrTooManyChildren", err)
	}
}
