package domain

import "time"

// Identity is the caller resolved from a verified credential. Only the email
// is trusted; role and status are always re-read from the store.
type Identity struct {
	Email string
}

// Credential is a signed session token and the instant it stops verifying.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}
