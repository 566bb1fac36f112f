package app

import "github.com/google/uuid"

// newID returns a UUIDv7. Identifiers of the same entity sort by creation
// time, which keeps SQLite primary-key inserts append-only.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
