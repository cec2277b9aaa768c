package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acgh213/pointstracker/internal/audit"
	"github.com/acgh213/pointstracker/internal/auth"
	"github.com/acgh213/pointstracker/internal/httputil"
	"github.com/acgh213/pointstracker/internal/pagination"
	"github.com/acgh213/pointstracker/internal/requests"
)

type resolveRequest struct {
	Status         string `json:"status"`
	ApprovedPoints *int   `json:"approved_points"`
	AdminNote      string `json:"admin_note"`
}

// handleListRequests returns a page of requests as a JSON array. Totals go
// in headers so the body stays a plain list.
func (s *Server) handleListRequests(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r, pagination.DefaultPerPage)

		list, err := s.requests.ListByStatus(r.Context(), status, &page)
		if err != nil {
			slog.Error("failed to list requests", "error", err, "status", status)
			httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Failed to load requests")
			return
		}

		w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
		w.Header().Set("X-Page", strconv.Itoa(page.Number))
		w.Header().Set("X-Per-Page", strconv.Itoa(page.PerPage))
		httputil.WriteJSON(w, http.StatusOK, list)
	}
}

func (s *Server) handleResolveRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var body resolveRequest
	if err := httputil.DecodeJSON(w, r, &body); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in := requests.ResolveInput{
		Status:         body.Status,
		ApprovedPoints: body.ApprovedPoints,
		AdminNote:      body.AdminNote,
	}

	err = s.requests.Resolve(r.Context(), id, in)
	switch {
	case errors.Is(err, requests.ErrInvalidStatus):
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "Invalid status")
		return
	case errors.Is(err, requests.ErrInvalidPoints):
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "Approved points are required")
		return
	case errors.Is(err, requests.ErrNotFound):
		httputil.WriteErrorMessage(w, http.StatusNotFound, "Request not found")
		return
	case err != nil:
		slog.Error("failed to resolve request", "error", err, "request_id", id)
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Failed to update request")
		return
	}

	action := audit.ActionRequestDeny
	if in.Status == requests.StatusApproved {
		action = audit.ActionRequestApprove
	}
	metadata := map[string]any{"approved_points": body.ApprovedPoints}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		metadata["token_issued_at"] = claims.IssuedAt.UTC().Format(time.RFC3339)
	}
	s.logAudit(r, audit.Entry{
		Action:     action,
		TargetType: audit.TargetRequest,
		TargetID:   strconv.FormatInt(id, 10),
		Metadata:   metadata,
	})

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Request updated"})
}
