package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helioscrm/dynlogic/internal/core/db"
	"github.com/helioscrm/dynlogic/internal/types"
)

/*
 * Database-backed rule-set store.
 *
 * One row per entity type: the dynamic-logic document as JSON, a UUIDv7
 * revision, and the update timestamp. Admin writes go through Put, which
 * assigns a fresh revision; readers compare revisions to detect change
 * without diffing documents.
 *
 * The store persists and retrieves; validation happens in the API layer
 * before Put so diagnostics reach the admin client.
 */

// StoredRuleSet is a rule set with its storage metadata.
type StoredRuleSet struct {
	EntityType types.EntityType
	Revision   types.Revision
	UpdatedAt  time.Time
	RuleSet    *types.RuleSet
}

// RuleSetInfo summarizes a stored rule set without its document.
type RuleSetInfo struct {
	EntityType types.EntityType `db:"entity_type" json:"entityType"`
	Revision   types.Revision   `db:"revision" json:"revision"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}

// Store persists rule sets keyed by entity type.
type Store struct {
	queries *db.Queries
}

// NewStore creates a store over loaded named queries.
func NewStore(queries *db.Queries) *Store {
	return &Store{queries: queries}
}

type ruleSetRow struct {
	EntityType string    `db:"entity_type"`
	Revision   string    `db:"revision"`
	Document   string    `db:"document"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Get returns the stored rule set for an entity type.
// Returns types.ErrRuleSetNotFound when no row exists.
func (s *Store) Get(ctx context.Context, entityType types.EntityType) (*StoredRuleSet, error) {
	if entityType == "" {
		return nil, types.ErrEmptyEntityType
	}

	var row ruleSetRow
	err := s.queries.GetContext(ctx, "get-rule-set", &row, string(entityType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrRuleSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule set: %w", err)
	}

	return row.toStored()
}

// Put validates nothing; it stores the rule set under a fresh revision and
// returns it. Callers validate first so diagnostics surface upstream.
func (s *Store) Put(ctx context.Context, entityType types.EntityType, rs *types.RuleSet) (types.Revision, error) {
	if entityType == "" {
		return "", types.ErrEmptyEntityType
	}
	if rs == nil {
		return "", fmt.Errorf("rule set cannot be nil")
	}

	document, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("failed to encode rule set: %w", err)
	}
	if len(document) > types.MaxDocumentSize {
		return "", types.ErrDocumentTooLarge
	}

	revision := types.NewRevision()
	_, err = s.queries.ExecContext(ctx, "upsert-rule-set",
		string(entityType), string(revision), string(document), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to store rule set: %w", err)
	}

	return revision, nil
}

// Delete removes the stored rule set for an entity type.
func (s *Store) Delete(ctx context.Context, entityType types.EntityType) error {
	if entityType == "" {
		return types.ErrEmptyEntityType
	}
	res, err := s.queries.ExecContext(ctx, "delete-rule-set", string(entityType))
	if err != nil {
		return fmt.Errorf("failed to delete rule set: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrRuleSetNotFound
	}
	return nil
}

// List returns a summary of every stored rule set.
func (s *Store) List(ctx context.Context) ([]RuleSetInfo, error) {
	var infos []RuleSetInfo
	if err := s.queries.SelectContext(ctx, "list-rule-sets", &infos); err != nil {
		return nil, fmt.Errorf("failed to list rule sets: %w", err)
	}
	return infos, nil
}

// LoadAll returns every stored rule set keyed by entity type, for resolver
// warm-up at startup. Rows whose document fails to decode are skipped; a
// single corrupt row must not block service start.
func (s *Store) LoadAll(ctx context.Context) (map[types.EntityType]*types.RuleSet, error) {
	var rows []ruleSetRow
	if err := s.queries.SelectContext(ctx, "get-all-rule-sets", &rows); err != nil {
		return nil, fmt.Errorf("failed to load rule sets: %w", err)
	}

	out := make(map[types.EntityType]*types.RuleSet, len(rows))
	for _, row := range rows {
		stored, err := row.toStored()
		if err != nil {
			continue
		}
		out[stored.EntityType] = stored.RuleSet
	}
	return out, nil
}

func (r ruleSetRow) toStored() (*StoredRuleSet, error) {
	var rs types.RuleSet
	if err := json.Unmarshal([]byte(r.Document), &rs); err != nil {
		return nil, fmt.Errorf("%w: stored document for %s: %v", types.ErrInvalidDocument, r.EntityType, err)
	}
	return &StoredRuleSet{
		EntityType: types.EntityType(r.EntityType),
		Revision:   types.Revision(r.Revision),
		UpdatedAt:  r.UpdatedAt,
		RuleSet:    &rs,
	}, nil
}
