package auth

import (
	"log/slog"
	"net/http"

	"github.com/acgh213/pointstracker/internal/httputil"
	"github.com/acgh213/pointstracker/internal/observability"
)

// TokenHeader carries the admin token on protected requests.
const TokenHeader = "X-Admin-Token"

type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAdmin rejects requests without a valid admin token. The wrapped
// handler only runs for authorized requests and its response is untouched.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			observability.RecordAuthorization(false)
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := m.service.Validate(token)
		if err != nil {
			slog.Debug("admin token rejected", "error", err, "path", r.URL.Path)
			observability.RecordAuthorization(false)
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		observability.RecordAuthorization(true)
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}
