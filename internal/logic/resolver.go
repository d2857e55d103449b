// internal/logic/resolver.go
package logic

import (
	"reflect"
	"sync"

	"github.com/helioscrm/dynlogic/internal/types"
)

/*
 * Field/panel rule resolution.
 *
 * The Resolver maps (entity type, record snapshot) to a resolved state for
 * every field and panel declared in that entity's rule set. Resolution is a
 * pure function of (rule set, record); the only mutable state is the
 * per-entity memo of the last computed output.
 *
 * Memoization contract: identical (rule set, record) inputs return the
 * identical output pointer, keyed by deep equality. This is a correctness
 * requirement, not a performance nicety; consumers rely on reference
 * stability to skip redundant re-renders. The memo stores a deep copy of
 * the record because the caller owns a mutable map and may edit it on every
 * keystroke.
 *
 * The memo is keyed per entity type so that resolving multiple forms in the
 * same session never cross-contaminates. Rule sets are treated as immutable
 * once installed; Set/Replace swap whole values and drop affected memos.
 *
 * Readiness: before metadata loads there is nothing to resolve. The
 * resolver returns all-default states with Ready=false instead of failing,
 * so the form stays functional and the caller can defer submit-validation.
 */

// Hooks receive resolver observations. All fields are optional.
type Hooks struct {
	// UnknownType is called when evaluation hits an unknown condition type.
	UnknownType func(entityType types.EntityType, conditionType types.ConditionType, attribute string)
	// MemoHit is called when a resolution is served from the memo.
	MemoHit func(entityType types.EntityType)
	// MemoMiss is called when a resolution is recomputed.
	MemoMiss func(entityType types.EntityType)
}

// Resolver computes resolved field/panel states from rule sets.
// Construct one per process and inject it; no package-level state.
type Resolver struct {
	mu       sync.Mutex
	ruleSets map[types.EntityType]*types.RuleSet
	memo     map[types.EntityType]*memoEntry
	hooks    Hooks
}

type memoEntry struct {
	ruleSet *types.RuleSet
	record  types.Record
	state   *types.ResolvedState
}

// NewResolver creates an empty resolver. Rule sets arrive later via
// SetRuleSet or ReplaceAll once metadata loads.
func NewResolver(hooks Hooks) *Resolver {
	return &Resolver{
		ruleSets: make(map[types.EntityType]*types.RuleSet),
		memo:     make(map[types.EntityType]*memoEntry),
		hooks:    hooks,
	}
}

// SetRuleSet installs or replaces the rule set for one entity type and
// invalidates its memo. A nil rule set removes the entity (back to not ready).
func (r *Resolver) SetRuleSet(entityType types.EntityType, rs *types.RuleSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rs == nil {
		delete(r.ruleSets, entityType)
	} else {
		r.ruleSets[entityType] = rs
	}
	delete(r.memo, entityType)
}

// ReplaceAll swaps in a complete rule-set map (metadata reload) and drops
// every memo.
func (r *Resolver) ReplaceAll(ruleSets map[types.EntityType]*types.RuleSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ruleSets = make(map[types.EntityType]*types.RuleSet, len(ruleSets))
	for et, rs := range ruleSets {
		if rs != nil {
			r.ruleSets[et] = rs
		}
	}
	r.memo = make(map[types.EntityType]*memoEntry)
}

// Ready reports whether a rule set is loaded for the entity type.
func (r *Resolver) Ready(entityType types.EntityType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ruleSets[entityType]
	return ok
}

// RuleSet returns the installed rule set for the entity type, if any.
// The returned value must be treated as immutable.
func (r *Resolver) RuleSet(entityType types.EntityType) (*types.RuleSet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.ruleSets[entityType]
	return rs, ok
}

// EntityTypes returns the entity types with installed rule sets.
func (r *Resolver) EntityTypes() []types.EntityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.EntityType, 0, len(r.ruleSets))
	for et := range r.ruleSets {
		out = append(out, et)
	}
	return out
}

// Resolve computes the resolved state for every field and panel declared in
// the entity's rule set. Never fails: missing metadata yields defaults with
// Ready=false.
func (r *Resolver) Resolve(entityType types.EntityType, record types.Record) *types.ResolvedState {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.ruleSets[entityType]
	if !ok {
		return &types.ResolvedState{
			EntityType: entityType,
			Ready:      false,
			Fields:     map[string]types.FieldState{},
			Panels:     map[string]types.PanelState{},
		}
	}

	if e := r.memo[entityType]; e != nil {
		if (e.ruleSet == rs || reflect.DeepEqual(e.ruleSet, rs)) && reflect.DeepEqual(e.record, record) {
			if r.hooks.MemoHit != nil {
				r.hooks.MemoHit(entityType)
			}
			return e.state
		}
	}
	if r.hooks.MemoMiss != nil {
		r.hooks.MemoMiss(entityType)
	}

	state := r.compute(entityType, rs, record)
	r.memo[entityType] = &memoEntry{
		ruleSet: rs,
		record:  cloneRecord(record),
		state:   state,
	}
	return state
}

// compute performs one full resolution pass. Each condition is independent;
// a field can come out both hidden and required, reconciliation is the
// caller's validation policy.
func (r *Resolver) compute(entityType types.EntityType, rs *types.RuleSet, record types.Record) *types.ResolvedState {
	onUnknown := func(ct types.ConditionType, attr string) {
		if r.hooks.UnknownType != nil {
			r.hooks.UnknownType(entityType, ct, attr)
		}
	}

	state := &types.ResolvedState{
		EntityType: entityType,
		Ready:      true,
		Fields:     make(map[string]types.FieldState, len(rs.Fields)),
		Panels:     make(map[string]types.PanelState, len(rs.Panels)),
	}

	for name, rules := range rs.Fields {
		fs := types.DefaultFieldState()
		if rules.Visible != nil {
			fs.Visible = evaluateNode(*rules.Visible, record, 0, onUnknown)
		}
		if rules.Required != nil {
			fs.Required = evaluateNode(*rules.Required, record, 0, onUnknown)
		}
		if rules.ReadOnly != nil {
			fs.ReadOnly = evaluateNode(*rules.ReadOnly, record, 0, onUnknown)
		}
		state.Fields[name] = fs
	}

	for name, rules := range rs.Panels {
		ps := types.DefaultPanelState()
		if rules.Visible != nil {
			ps.Visible = evaluateNode(*rules.Visible, record, 0, onUnknown)
		}
		state.Panels[name] = ps
	}

	return state
}

// cloneRecord deep-copies a record snapshot for the memo. The caller's map
// mutates on every edit; comparing against a live reference would make the
// deep-equality key always match.
func cloneRecord(r types.Record) types.Record {
	if r == nil {
		return nil
	}
	out := make(types.Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = cloneValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = cloneValue(elem)
		}
		return out
	default:
		return t
	}
}
