// Package models holds the hub's storage-side records.
package models

import "time"

// Identity is a stored credential. PasswordHash is a bcrypt hash and never
// leaves the hub.
type Identity struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
