package types

import (
	"time"

	"github.com/google/uuid"
)

// NewRevision generates a UUIDv7 rule-set revision identifier.
// Time-ordered IDs make revision history sort chronologically as strings.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRevision() Revision {
	return Revision(uuid.Must(uuid.NewV7()).String())
}

// ParseRevision validates and converts a string to Revision.
// Rejects malformed UUIDs to prevent invalid revisions from entering the system.
func ParseRevision(s string) (Revision, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return Revision(s), nil
}

// RevisionTime extracts the timestamp embedded in a UUIDv7 revision.
// Enables "when was this rule set changed" without a database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RevisionTime(rev Revision) time.Time {
	u, err := uuid.Parse(string(rev))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
