package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// UID identifies messages, pointers and stored objects. Identities are
// allocated by the transport client and never reused.
type UID = uuid.UUID

// NilUID is the zero identity. It is never allocated.
var NilUID = uuid.Nil

// NewUID returns a time-ordered UUIDv7.
func NewUID() UID {
	return uuid.Must(uuid.NewV7())
}

// ParseUID parses the hyphenated string form.
func ParseUID(s string) (UID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilUID, fmt.Errorf("parse uid %q: %w", s, err)
	}
	return id, nil
}
