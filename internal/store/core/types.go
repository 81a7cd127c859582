package core

import "time"

// User is the primary-store user record. The role field is mutated by
// out-of-scope account-management flows; this subsystem only reads it.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string // empty means "user"
	CreatedAt time.Time
}
