package domain

import "time"

// User is the ledger view of an account. Identity attributes are owned by the
// auth layer; the core only reads and mutates Credits.
type User struct {
	ID        string
	Email     string
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}
