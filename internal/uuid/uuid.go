// Package uuid generates and checks the string identifiers used as primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a time-ordered UUIDv7 string. Falls back to a random UUIDv4 if
// the clock-sequence source fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// IsValid reports whether s is a UUID in canonical 36-character form.
func IsValid(s string) bool {
	if len(s) != 36 {
		return false
	}
	return googleuuid.Validate(s) == nil
}
