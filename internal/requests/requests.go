// Package requests is the data access for point requests that the admin
// reviews: listing by status and resolving a pending request.
package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"

	"github.com/acgh213/pointstracker/internal/pagination"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"

	MaxNoteLength = 1000
)

var (
	ErrNotFound      = errors.New("request not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidPoints = errors.New("approved points are required")
)

type Request struct {
	ID              int64      `json:"id"`
	MemberID        int64      `json:"member_id"`
	MemberName      string     `json:"member_name"`
	CategoryID      *int64     `json:"category_id"`
	CategoryName    *string    `json:"category_name"`
	CustomCategory  *string    `json:"custom_category"`
	RequestedPoints int        `json:"requested_points"`
	Explanation     *string    `json:"explanation"`
	Status          string     `json:"status"`
	ApprovedPoints  *int       `json:"approved_points"`
	AdminNote       *string    `json:"admin_note"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`
}

type Repository struct {
	db     *pgxpool.Pool
	policy *bluemonday.Policy
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		db:     db,
		policy: bluemonday.StrictPolicy(),
	}
}

// ListByStatus returns one page of requests with the given status. Pending
// requests are newest first; resolved ones are ordered by resolution time.
func (r *Repository) ListByStatus(ctx context.Context, status string, page *pagination.Page) ([]Request, error) {
	orderBy, err := orderFor(status)
	if err != nil {
		return nil, err
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM requests WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	page.Apply(total)

	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.member_id, m.name, r.category_id, c.name, r.custom_category,
		       r.requested_points, r.explanation, r.status, r.approved_points,
		       r.admin_note, r.created_at, r.resolved_at
		FROM requests r
		JOIN members m ON r.member_id = m.id
		LEFT JOIN categories c ON r.category_id = c.id
		WHERE r.status = $1
		ORDER BY `+orderBy+`, r.id DESC
		LIMIT $2 OFFSET $3
	`, status, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	list := []Request{}
	for rows.Next() {
		var req Request
		if err := rows.Scan(
			&req.ID, &req.MemberID, &req.MemberName, &req.CategoryID, &req.CategoryName, &req.CustomCategory,
			&req.RequestedPoints, &req.Explanation, &req.Status, &req.ApprovedPoints,
			&req.AdminNote, &req.CreatedAt, &req.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return list, nil
}

type ResolveInput struct {
	Status         string
	ApprovedPoints *int
	AdminNote      string
}

// Validate checks the input before it touches the database.
func (in ResolveInput) Validate() error {
	switch in.Status {
	case StatusApproved:
		if in.ApprovedPoints == nil || *in.ApprovedPoints < 0 {
			return ErrInvalidPoints
		}
	case StatusDenied:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// Resolve approves or denies a request. Points are kept only for approvals
// and the admin note is stripped of markup.
func (r *Repository) Resolve(ctx context.Context, id int64, in ResolveInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	var points *int
	if in.Status == StatusApproved {
		points = in.ApprovedPoints
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE requests
		SET status = $1, approved_points = $2, admin_note = $3, resolved_at = NOW()
		WHERE id = $4
	`, in.Status, points, r.sanitizeNote(in.AdminNote), id)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// sanitizeNote truncates the raw note to MaxNoteLength runes before
// sanitizing, so escaped entities are never cut.
func (r *Repository) sanitizeNote(note string) *string {
	if runes := []rune(note); len(runes) > MaxNoteLength {
		note = string(runes[:MaxNoteLength])
	}
	note = strings.TrimSpace(r.policy.Sanitize(note))
	if note == "" {
		return nil
	}
	return &note
}

func orderFor(status string) (string, error) {
	switch status {
	case StatusPending, StatusDenied:
		return "r.created_at DESC", nil
	case StatusApproved:
		return "r.resolved_at DESC NULLS LAST", nil
	default:
		return "", ErrInvalidStatus
	}
}
