package models

import "time"

type User struct {
	ID       int64
	Name     string
	Email    string
	PassHash []byte
	Role     string
}

// PendingUser holds candidate account fields that have not been persisted yet.
// The password is hashed before it ever enters a pending record.
type PendingUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PassHash []byte `json:"pass_hash"`
}

type RefreshToken struct {
	TokenHash []byte
	UserID    int64
	ExpiresAt time.Time
}

type EmailMessage struct {
	Email   string `json:"to"`
	Code    string `json:"code"`
	Subject string `json:"subject"`
}
