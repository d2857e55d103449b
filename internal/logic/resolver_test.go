// internal/logic/resolver_test.go
package logic

import (
	"encoding/json"
	"testing"

	"github.com/helioscrm/dynlogic/internal/types"
)

func mustRuleSet(t *testing.T, src string) *types.RuleSet {
	t.Helper()
	var rs types.RuleSet
	if err := json.Unmarshal([]byte(src), &rs); err != nil {
		t.Fatalf("Unmarshal rule set error = %v, want nil", err)
	}
	return &rs
}

const accountRules = `{
	"fields": {
		"partnerLevel": {
			"visible": {"type": "equals", "attribute": "type", "value": "Partner"},
			"required": {"type": "equals", "attribute": "type", "value": "Partner"}
		},
		"closeReason": {
			"visible": {"type": "in", "attribute": "status", "value": ["Closed", "Lost"]}
		}
	},
	"panels": {
		"partnerDetails": {
			"visible": {"type": "equals", "attribute": "type", "value": "Partner"}
		}
	}
}`

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))

	state := r.Resolve("Account", types.Record{"type": "Partner", "status": "Open"})

	if !state.Ready {
		t.Fatalf("Ready = false, want true")
	}
	fs := state.FieldState("partnerLevel")
	if !fs.Visible || !fs.Required {
		t.Errorf("partnerLevel = %+v, want visible and required", fs)
	}
	if state.FieldState("closeReason").Visible {
		t.Errorf("closeReason visible = true, want false for Open status")
	}
	if !state.PanelState("partnerDetails").Visible {
		t.Errorf("partnerDetails visible = false, want true")
	}
}

func TestResolver_DefaultsForUndeclaredNames(t *testing.T) {
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))

	state := r.Resolve("Account", types.Record{})

	fs := state.FieldState("name")
	if !fs.Visible || fs.Required || fs.ReadOnly {
		t.Errorf("undeclared field state = %+v, want default (visible only)", fs)
	}
	if !state.PanelState("general").Visible {
		t.Errorf("undeclared panel visible = false, want true")
	}
}

func TestResolver_NotReady(t *testing.T) {
	r := NewResolver(Hooks{})

	state := r.Resolve("Account", types.Record{"type": "Partner"})

	if state.Ready {
		t.Errorf("Ready = true, want false before rule sets load")
	}
	if !state.FieldState("partnerLevel").Visible {
		t.Errorf("not-ready field state should be default visible")
	}
	if len(state.Fields) != 0 || len(state.Panels) != 0 {
		t.Errorf("not-ready state should declare no fields or panels")
	}
}

func TestResolver_MemoReturnsIdenticalPointer(t *testing.T) {
	var hits, misses int
	r := NewResolver(Hooks{
		MemoHit:  func(types.EntityType) { hits++ },
		MemoMiss: func(types.EntityType) { misses++ },
	})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))

	record := types.Record{"type": "Partner"}
	first := r.Resolve("Account", record)
	second := r.Resolve("Account", types.Record{"type": "Partner"})

	if first != second {
		t.Errorf("equal inputs returned different pointers; reference stability broken")
	}
	if hits != 1 || misses != 1 {
		t.Errorf("hits = %d misses = %d, want 1 and 1", hits, misses)
	}
}

func TestResolver_RecordChangeRecomputes(t *testing.T) {
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))

	record := types.Record{"type": "Partner"}
	first := r.Resolve("Account", record)

	// Caller mutates its own map between resolutions.
	record["type"] = "Customer"
	second := r.Resolve("Account", record)

	if first == second {
		t.Fatalf("changed record returned memoized pointer")
	}
	if second.FieldState("partnerLevel").Visible {
		t.Errorf("partnerLevel visible = true, want false after type change")
	}
}

func TestResolver_CrossEntityIsolation(t *testing.T) {
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))
	r.SetRuleSet("Contact", mustRuleSet(t, `{
		"fields": {"phone": {"required": {"type": "isNotEmpty", "attribute": "email"}}}
	}`))

	a := r.Resolve("Account", types.Record{"type": "Partner"})
	c := r.Resolve("Contact", types.Record{"email": "a@b.c"})
	a2 := r.Resolve("Account", types.Record{"type": "Partner"})

	if a != a2 {
		t.Errorf("interleaved entity resolution evicted the Account memo")
	}
	if !c.FieldState("phone").Required {
		t.Errorf("Contact phone required = false, want true")
	}
}

func TestResolver_SetRuleSetInvalidatesMemo(t *testing.T) {
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))

	record := types.Record{"type": "Partner"}
	first := r.Resolve("Account", record)

	r.SetRuleSet("Account", mustRuleSet(t, `{
		"fields": {"partnerLevel": {"visible": {"type": "equals", "attribute": "type", "value": "Reseller"}}}
	}`))
	second := r.Resolve("Account", record)

	if first == second {
		t.Fatalf("rule-set replacement returned stale memoized state")
	}
	if second.FieldState("partnerLevel").Visible {
		t.Errorf("partnerLevel visible = true, want false under replaced rules")
	}
}

func TestResolver_RemoveRuleSet(t *testing.T) {
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))
	r.SetRuleSet("Account", nil)

	if r.Ready("Account") {
		t.Errorf("Ready = true after removal, want false")
	}
	if state := r.Resolve("Account", types.Record{}); state.Ready {
		t.Errorf("Resolve after removal reports Ready = true")
	}
}

func TestResolver_ReplaceAll(t *testing.T) {
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, accountRules))

	r.ReplaceAll(map[types.EntityType]*types.RuleSet{
		"Lead": mustRuleSet(t, `{"fields": {"score": {}}}`),
	})

	if r.Ready("Account") {
		t.Errorf("Account still ready after ReplaceAll")
	}
	if !r.Ready("Lead") {
		t.Errorf("Lead not ready after ReplaceAll")
	}
}

func TestResolver_HiddenButRequired(t *testing.T) {
	// Contradictory rules resolve independently; reconciliation is the
	// validation policy's job.
	r := NewResolver(Hooks{})
	r.SetRuleSet("Account", mustRuleSet(t, `{
		"fields": {
			"vatNumber": {
				"visible": {"type": "equals", "attribute": "region", "value": "EU"},
				"required": {"type": "isNotEmpty", "attribute": "name"}
			}
		}
	}`))

	state := r.Resolve("Account", types.Record{"region": "US", "name": "Acme"})
	fs := state.FieldState("vatNumber")

	if fs.Visible || !fs.Required {
		t.Fatalf("vatNumber = %+v, want hidden and required", fs)
	}
	if fs.Validates(types.ValidationSkipHidden) {
		t.Errorf("Validates(skip-hidden) = true, want false for hidden field")
	}
	if !fs.Validates(types.ValidationEnforceHidden) {
		t.Errorf("Validates(enforce-hidden) = false, want true")
	}
}

func TestResolver_UnknownTypeHook(t *testing.T) {
	var got []string
	r := NewResolver(Hooks{
		UnknownType: func(et types.EntityType, ct types.ConditionType, attr string) {
			got = append(got, string(et)+"/"+string(ct)+"/"+attr)
		},
	})
	r.SetRuleSet("Account", mustRuleSet(t, `{
		"fields": {"x": {"visible": {"type": "matchesRegex", "attribute": "email", "value": ".*"}}}
	}`))

	state := r.Resolve("Account", types.Record{"email": "a@b.c"})

	if state.FieldState("x").Visible {
		t.Errorf("unknown condition type should fail closed to hidden")
	}
	if len(got) != 1 || got[0] != "Account/matchesRegex/email" {
		t.Errorf("hook observations = %v", got)
	}
}
