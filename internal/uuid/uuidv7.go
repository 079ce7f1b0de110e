// Package uuid generates time-ordered identifiers for database rows.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Version 7 embeds the Unix millisecond
// timestamp in the leading 48 bits, so IDs sort by creation time.
// If the random source fails it falls back to a v4 UUID.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
