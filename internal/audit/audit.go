package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Logger struct {
	db *pgxpool.Pool
}

func NewLogger(db *pgxpool.Pool) *Logger {
	return &Logger{db: db}
}

type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	IP         string
	UserAgent  string
	Metadata   map[string]any
}

// Log records an entry and returns its ID. The admin secret and tokens must
// never be placed in Metadata.
func (l *Logger) Log(ctx context.Context, e Entry) (uuid.UUID, error) {
	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil || e.Metadata == nil {
		metadataJSON = []byte("{}")
	}

	var targetID *string
	if e.TargetID != "" {
		targetID = &e.TargetID
	}

	id := uuid.New()
	_, err = l.db.Exec(ctx, `
		INSERT INTO audit_log (id, action, target_type, target_id, ip, user_agent, metadata_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, e.Action, e.TargetType, targetID, e.IP, e.UserAgent, metadataJSON)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert audit log: %w", err)
	}

	return id, nil
}

const (
	ActionLoginSuccess   = "admin.login.success"
	ActionLoginFailed    = "admin.login.failed"
	ActionLoginLocked    = "admin.login.locked"
	ActionRequestApprove = "request.approve"
	ActionRequestDeny    = "request.deny"
)

const (
	TargetAdmin   = "admin"
	TargetRequest = "request"
)
