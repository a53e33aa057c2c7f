package errors

import (
	"strings"
	"unicode"
)

// Profile slot bounds. Every slot has a pre-created nodetree file.
const (
	MinProfile = 0
	MaxProfile = 9
)

// ValidateProfile checks that n addresses one of the persisted profile slots.
func ValidateProfile(n int) error {
	if n < MinProfile || n > MaxProfile {
		return New(ErrCodeInvalidProfile, "profile %d out of range [%d, %d]", n, MinProfile, MaxProfile)
	}
	return nil
}

// ValidateNodeID validates a caller-chosen node identifier.
//
// IDs are opaque to the engine but end up in log lines, DOT output and
// JSON documents, so the rules are conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidNodeID, "node id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node id contains invalid control characters")
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidNodeID, "node id %q has surrounding whitespace", id)
	}

	return nil
}
