package types

import "errors"

// Sentinel errors for dynlogic operations.
var (
	// ErrConditionTooDeep indicates a condition tree exceeds MaxConditionDepth.
	ErrConditionTooDeep = errors.New("condition tree exceeds maximum depth")

	// ErrTooManyChildren indicates a combinator exceeds MaxConditionChildren.
	ErrTooManyChildren = errors.New("combinator has too many child conditions")

	// ErrDocumentTooLarge indicates a metadata document exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("metadata document exceeds maximum size")

	// ErrInvalidDocument indicates a metadata document could not be parsed.
	ErrInvalidDocument = errors.New("invalid metadata document")

	// ErrEmptyEntityType indicates an operation was attempted without an entity type.
	ErrEmptyEntityType = errors.New("entity type is empty")

	// ErrRuleSetNotFound indicates no stored rule set exists for the entity type.
	ErrRuleSetNotFound = errors.New("rule set not found")
)
