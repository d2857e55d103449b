// Package metadata loads and stores per-entity dynamic-logic rule sets.
//
// A metadata document maps entity types to their dynamicLogic object:
//
//	{
//	  "Account": {
//	    "dynamicLogic": {
//	      "fields": {"partnerLevel": {"visible": {...}}},
//	      "panels": {"partnerDetails": {"visible": {...}}}
//	    }
//	  }
//	}
//
// Documents arrive from files (JSON or YAML) or from the database store.
// Parsing is tolerant the same way evaluation is: unknown condition types
// and malformed nodes survive the decode and fail closed later, so one bad
// rule never blocks a whole document.
package metadata

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/helioscrm/dynlogic/internal/types"
)

// Entry is the metadata for one entity type. Only the dynamicLogic portion
// is modeled here; the remainder of an entity definition (fields, layouts)
// belongs to other collaborators.
type Entry struct {
	DynamicLogic *types.RuleSet `json:"dynamicLogic,omitempty"`
}

// Document maps entity types to their metadata entries.
type Document map[types.EntityType]Entry

// ParseJSON decodes a JSON metadata document.
func ParseJSON(data []byte) (Document, error) {
	if len(data) > types.MaxDocumentSize {
		return nil, types.ErrDocumentTooLarge
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
	}
	return doc, nil
}

// ParseYAML decodes a YAML metadata document. The YAML is converted through
// JSON so condition nodes take the same tagged-union decode path as JSON
// documents.
func ParseYAML(data []byte) (Document, error) {
	if len(data) > types.MaxDocumentSize {
		return nil, types.ErrDocumentTooLarge
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
	}
	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
	}
	return ParseJSON(jsonBytes)
}

// RuleSets extracts the rule sets keyed by entity type, dropping entries
// without a dynamicLogic object.
func (d Document) RuleSets() map[types.EntityType]*types.RuleSet {
	out := make(map[types.EntityType]*types.RuleSet, len(d))
	for et, entry := range d {
		if entry.DynamicLogic != nil {
			out[et] = entry.DynamicLogic
		}
	}
	return out
}
