package auth

import "errors"

// Authentication failure modes, each distinguishable for correct HTTP
// status mapping.
var (
	ErrMissingKey       = errors.New("missing API key")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown API key")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key revoked")
)
