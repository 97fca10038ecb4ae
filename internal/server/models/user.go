// Package models defines server-side data models persisted in the database
// and the identity carried by an authenticated request.
package models

import "time"

// User is a registered account. PasswordHash holds a bcrypt hash and never
// leaves the server.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the session view of a user: public fields only.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// IdentityOf returns the session identity of u.
func IdentityOf(u *User) Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// IsAuthenticated reports whether the identity belongs to a logged-in user.
func (i Identity) IsAuthenticated() bool {
	return i.ID != ""
}

// Owns reports whether p belongs to the identity. Anonymous identities own
// nothing.
func (i Identity) Owns(p *Project) bool {
	return p != nil && i.IsAuthenticated() && p.UserID == i.ID
}
