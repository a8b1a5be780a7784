// Package auth provides authentication for the REST API. Write operations
// require a verified identity; everything else is open to guests.
package auth

import "context"

// Identity is what the directory needs to know about a signed-in user.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

// Verifier checks a bearer token and returns the identity it carries.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// SessionResponse defines the session info returned to the frontend
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}
