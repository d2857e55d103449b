package types

import (
	"encoding/json"
	"testing"
)

func TestCondition_UnmarshalLeaf(t *testing.T) {
	var c Condition
	err := json.Unmarshal([]byte(`{"type": "equals", "attribute": "type", "value": "Partner"}`), &c)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	if c.Type != ConditionEquals {
		t.Errorf("Type = %v, want equals", c.Type)
	}
	if c.Attribute != "type" {
		t.Errorf("Attribute = %v, want type", c.Attribute)
	}
	if c.Value != "Partner" {
		t.Errorf("Value = %v, want Partner", c.Value)
	}
	if c.Children != nil || c.Malformed {
		t.Errorf("leaf decoded with children or malformed flag: %+v", c)
	}
}

func TestCondition_UnmarshalCombinator(t *testing.T) {
	var c Condition
	err := json.Unmarshal([]byte(`{"type": "and", "value": [
		{"type": "equals", "attribute": "a", "value": 1},
		{"type": "or", "value": [{"type": "isEmpty", "attribute": "b"}]}
	]}`), &c)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	if c.Type != ConditionAnd {
		t.Errorf("Type = %v, want and", c.Type)
	}
	if c.Value != nil {
		t.Errorf("combinator kept a literal value: %v", c.Value)
	}
	if len(c.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(c.Children))
	}
	if c.Children[1].Type != ConditionOr || len(c.Children[1].Children) != 1 {
		t.Errorf("nested combinator decoded wrong: %+v", c.Children[1])
	}
}

func TestCondition_UnmarshalMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"combinator with scalar value", `{"type": "and", "value": "oops"}`},
		{"combinator with object value", `{"type": "not", "value": {"a": 1}}`},
		{"combinator with non-condition elements", `{"type": "or", "value": [42]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Condition
			if err := json.Unmarshal([]byte(tt.src), &c); err != nil {
				t.Fatalf("Unmarshal() error = %v, want nil (tolerant decode)", err)
			}
			if !c.Malformed {
				t.Errorf("Malformed = false, want true")
			}
		})
	}
}

func TestCondition_UnmarshalEmptyCombinator(t *testing.T) {
	var c Condition
	if err := json.Unmarshal([]byte(`{"type": "and"}`), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	if c.Malformed {
		t.Errorf("childless combinator marked malformed")
	}
	if c.Children != nil {
		t.Errorf("Children = %v, want nil", c.Children)
	}
}

func TestCondition_MarshalRoundTrip(t *testing.T) {
	src := `{"type":"and","value":[{"type":"equals","attribute":"type","value":"Partner"},{"type":"not","value":[{"type":"isEmpty","attribute":"email"}]}]}`

	var c Condition
	if err := json.Unmarshal([]byte(src), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var again Condition
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("Unmarshal(round trip) error = %v", err)
	}
	if len(again.Children) != 2 || again.Children[1].Children[0].Attribute != "email" {
		t.Errorf("round trip lost structure: %s", out)
	}
}

func TestRuleSet_Unmarshal(t *testing.T) {
	var rs RuleSet
	err := json.Unmarshal([]byte(`{
		"fields": {
			"partnerLevel": {
				"visible": {"type": "equals", "attribute": "type", "value": "Partner"},
				"readOnly": {"type": "isTrue", "attribute": "locked"}
			}
		},
		"panels": {
			"details": {"visible": {"type": "isNotEmpty", "attribute": "name"}}
		}
	}`), &rs)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	fr, ok := rs.Fields["partnerLevel"]
	if !ok {
		t.Fatalf("partnerLevel missing from Fields")
	}
	if fr.Visible == nil || fr.ReadOnly == nil || fr.Required != nil {
		t.Errorf("field rules decoded wrong: %+v", fr)
	}
	if rs.Panels["details"].Visible == nil {
		t.Errorf("panel rule missing")
	}
}

func TestFieldState_Validates(t *testing.T) {
	tests := []struct {
		name   string
		state  FieldState
		policy ValidationPolicy
		want   bool
	}{
		{"visible required skip-hidden", FieldState{Visible: true, Required: true}, ValidationSkipHidden, true},
		{"hidden required skip-hidden", FieldState{Visible: false, Required: true}, ValidationSkipHidden, false},
		{"hidden required enforce-hidden", FieldState{Visible: false, Required: true}, ValidationEnforceHidden, true},
		{"not required", FieldState{Visible: true, Required: false}, ValidationEnforceHidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Validates(tt.policy); got != tt.want {
				t.Errorf("Validates(%s) = %v, want %v", tt.policy, got, tt.want)
			}
		})
	}
}

func TestResolvedState_Accessors(t *testing.T) {
	s := &ResolvedState{
		EntityType: "Account",
		Ready:      true,
		Fields:     map[string]FieldState{"a": {Visible: false, Required: true}},
		Panels:     map[string]PanelState{"p": {Visible: false}},
	}

	if got := s.FieldState("a"); got.Visible || !got.Required {
		t.Errorf("FieldState(a) = %+v", got)
	}
	if got := s.FieldState("undeclared"); !got.Visible || got.Required {
		t.Errorf("FieldState(undeclared) = %+v, want default", got)
	}
	if s.PanelState("p").Visible {
		t.Errorf("PanelState(p) visible = true, want false")
	}
	if !s.PanelState("undeclared").Visible {
		t.Errorf("PanelState(undeclared) visible = false, want default true")
	}
}
