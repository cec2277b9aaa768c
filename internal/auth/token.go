package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	TokenValidity = 24 * time.Hour
	MaxClockSkew  = time.Minute

	tokenSeparator = "."
	signingKeySize = 32
)

var ErrInvalidToken = errors.New("invalid token")

var (
	keyDerivationSalt = []byte("pointstracker/admin-token")
	keyDerivationInfo = []byte("hmac-sha256 signing key")
)

// Claims describes a token that passed validation.
type Claims struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenAuthority issues and validates stateless admin tokens of the form
// "<unix millis>.<hex hmac-sha256>". Nothing is stored server side, so a
// token stays valid until it expires; there is no revocation.
type TokenAuthority struct {
	key      []byte
	validity time.Duration
	now      func() time.Time // for testing
}

func NewTokenAuthority(key []byte) *TokenAuthority {
	return &TokenAuthority{
		key:      key,
		validity: TokenValidity,
		now:      time.Now,
	}
}

// DeriveSigningKey derives a signing key from the admin secret with
// HKDF-SHA256. Used when no explicit key is configured.
func DeriveSigningKey(secret string) ([]byte, error) {
	key := make([]byte, signingKeySize)
	r := hkdf.New(sha256.New, []byte(secret), keyDerivationSalt, keyDerivationInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

func (ta *TokenAuthority) Issue() string {
	ts := strconv.FormatInt(ta.now().UnixMilli(), 10)
	return ts + tokenSeparator + ta.sign(ts)
}

// Validate checks the token's signature and age. Every failure unwraps to
// ErrInvalidToken; the wrapped detail is for logs only.
func (ta *TokenAuthority) Validate(token string) (Claims, error) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 {
		return Claims{}, fmt.Errorf("%w: malformed", ErrInvalidToken)
	}
	ts, sig := parts[0], parts[1]

	millis, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || millis <= 0 {
		return Claims{}, fmt.Errorf("%w: bad timestamp", ErrInvalidToken)
	}

	presented, err := hex.DecodeString(sig)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: bad signature encoding", ErrInvalidToken)
	}
	if !hmac.Equal(presented, ta.mac(ts)) {
		return Claims{}, fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	}

	issued := time.UnixMilli(millis)
	age := ta.now().Sub(issued)
	if age > ta.validity {
		return Claims{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if age < -MaxClockSkew {
		return Claims{}, fmt.Errorf("%w: issued in the future", ErrInvalidToken)
	}

	return Claims{IssuedAt: issued, ExpiresAt: issued.Add(ta.validity)}, nil
}

func (ta *TokenAuthority) mac(payload string) []byte {
	h := hmac.New(sha256.New, ta.key)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

func (ta *TokenAuthority) sign(payload string) string {
	return hex.EncodeToString(ta.mac(payload))
}
