package models

import "time"

// User mirrors the account records synced from the identity provider. The
// API never authenticates users itself; rows exist so teacher ids resolve to
// something displayable on invoices and rosters.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName prefers the synced profile name and falls back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
