package domain

import "time"

// User is an account registered through the auth service.
// Tag and note ownership refers to User.ID.
type User struct {
	Entity
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// RecordLogin stamps the last login time.
func (u *User) RecordLogin(at time.Time) {
	at = at.UTC()
	u.LastLoginAt = &at
	u.UpdatedAt = at
}
