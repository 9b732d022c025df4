package domain

import "time"

// Account is the authentication record behind a user id.
// It is kept outside the public document tree and never sent to clients.
type Account struct {
	Timestamps
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	LastLoginAt  time.Time `json:"last_login_at"`
}
