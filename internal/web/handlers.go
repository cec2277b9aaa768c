package web

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/acgh213/pointstracker/internal/audit"
	"github.com/acgh213/pointstracker/internal/auth"
	"github.com/acgh213/pointstracker/internal/httputil"
	"github.com/acgh213/pointstracker/internal/observability"
)

// Login error codes returned to the client.
const (
	errCodeRateLimited       = "rate_limited"
	errCodeInvalidCredential = "invalid_credential"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Auth handlers

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	client := auth.ClientIdentifier(r)

	var req loginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		// Treated like a wrong password so the response can't be told apart.
		req.Password = ""
	}

	token, err := s.auth.Login(req.Password, client)

	var lockout *auth.LockoutError
	switch {
	case errors.As(err, &lockout):
		observability.RecordLogin(observability.LoginRateLimited)
		s.logAudit(r, audit.Entry{
			Action:     audit.ActionLoginLocked,
			TargetType: audit.TargetAdmin,
			Metadata:   map[string]any{"retry_after_seconds": retryAfterSeconds(lockout)},
		})
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(lockout)))
		httputil.WriteJSON(w, http.StatusTooManyRequests, loginResponse{Error: errCodeRateLimited})

	case err != nil:
		observability.RecordLogin(observability.LoginInvalid)
		s.logAudit(r, audit.Entry{
			Action:     audit.ActionLoginFailed,
			TargetType: audit.TargetAdmin,
			Metadata:   map[string]any{"failures": s.auth.Limiter().Failures(client)},
		})
		httputil.WriteJSON(w, http.StatusUnauthorized, loginResponse{Error: errCodeInvalidCredential})

	default:
		observability.RecordLogin(observability.LoginSuccess)
		s.logAudit(r, audit.Entry{
			Action:     audit.ActionLoginSuccess,
			TargetType: audit.TargetAdmin,
		})
		httputil.WriteJSON(w, http.StatusOK, loginResponse{Success: true, Token: token})
	}
}

// logAudit records an entry for the request's client. Failures are logged
// and never change the response.
func (s *Server) logAudit(r *http.Request, e audit.Entry) {
	if s.audit == nil {
		return
	}
	e.IP = auth.ClientIdentifier(r)
	e.UserAgent = r.UserAgent()
	if _, err := s.audit.Log(r.Context(), e); err != nil {
		slog.Error("failed to write audit log", "error", err, "action", e.Action)
	}
}

func retryAfterSeconds(e *auth.LockoutError) int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
