package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrRateLimited = errors.New("rate limited")

// LockoutError is returned by Login while a client is locked out.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *LockoutError) Unwrap() error { return ErrRateLimited }

// Config holds everything needed to build a Service.
type Config struct {
	AdminSecret   string
	SigningKey    string // optional; derived from AdminSecret when empty
	MaxAttempts   int
	LockoutWindow time.Duration
}

// Service is the admin gate: login with throttling, and token authorization.
// Construct one at startup and share it between handlers.
type Service struct {
	verifier *Verifier
	limiter  *RateLimiter
	tokens   *TokenAuthority
}

func NewService(cfg Config) (*Service, error) {
	verifier, err := NewVerifier(cfg.AdminSecret)
	if err != nil {
		return nil, err
	}

	var key []byte
	if cfg.SigningKey != "" {
		key = []byte(cfg.SigningKey)
	} else {
		key, err = DeriveSigningKey(cfg.AdminSecret)
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		verifier: verifier,
		limiter:  NewRateLimiter(cfg.MaxAttempts, cfg.LockoutWindow),
		tokens:   NewTokenAuthority(key),
	}, nil
}

// Login reserves an attempt for the client, then checks the secret. The
// reservation already counts as a failure; on success the client's history
// is cleared and a fresh token is returned.
func (s *Service) Login(secret, client string) (string, error) {
	client = normalizeClient(client)

	if ok, retryAfter := s.limiter.Begin(client); !ok {
		return "", &LockoutError{RetryAfter: retryAfter}
	}

	if !s.verifier.Verify(secret) {
		slog.Debug("admin login failed", "client", client, "failures", s.limiter.Failures(client))
		return "", ErrInvalidCredential
	}

	s.limiter.Clear(client)
	return s.tokens.Issue(), nil
}

// Validate returns the token's claims, or an error wrapping ErrInvalidToken.
func (s *Service) Validate(token string) (Claims, error) {
	return s.tokens.Validate(token)
}

func (s *Service) Authorize(token string) bool {
	_, err := s.tokens.Validate(token)
	return err == nil
}

// Limiter exposes the login limiter so the server can sweep it periodically.
func (s *Service) Limiter() *RateLimiter {
	return s.limiter
}
