package store

import (
	"context"
	"fmt"
	"time"

	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/google/uuid"
)

// AuditEntry is one append-only record of a mutation.
type AuditEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Entity    string    `db:"entity" json:"entity"`
	EntityID  string    `db:"entity_id" json:"entityId"`
	Action    string    `db:"action" json:"action"`
	Payload   meta.Map  `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RecordAudit appends e. ID and CreatedAt are filled in when empty.
func RecordAudit(ctx context.Context, db DBTX, e AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Payload == nil {
		e.Payload = meta.Map{}
	}
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO audits (id, user_id, entity, entity_id, action, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.UserID, e.Entity, e.EntityID, e.Action, e.Payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// ListAudits returns the newest limit audit rows for userID, newest first.
func ListAudits(ctx context.Context, db DBTX, userID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []AuditEntry
	err := db.SelectContext(ctx, &out, db.Rebind(`
		SELECT id, user_id, entity, entity_id, action, payload, created_at
		FROM audits WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	return out, nil
}
