package auth

import (
	"crypto/subtle"
	"errors"
)

// MaxSecretLength bounds the candidate secrets worth comparing at all.
const MaxSecretLength = 100

var ErrInvalidCredential = errors.New("invalid credential")

// Verifier checks candidates against the configured administrator secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("admin secret is empty")
	}
	if len(secret) > MaxSecretLength {
		return nil, errors.New("admin secret is too long")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify reports whether candidate equals the secret. Length mismatches
// return early; content is always compared in constant time.
func (v *Verifier) Verify(candidate string) bool {
	if candidate == "" || len(candidate) > MaxSecretLength || len(candidate) != len(v.secret) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), v.secret) == 1
}
