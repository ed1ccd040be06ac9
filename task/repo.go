package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, user_id, title, description, priority, status, due_date, scheduled_start,
	scheduled_end, raw_input, parser_confidence, semantic_metadata, is_deleted, created_at, updated_at`

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Repo persists tasks. Every query is filtered by owner; a row owned by
// someone else is indistinguishable from a missing one.
type Repo struct {
	db store.DBTX
}

// NewRepo builds a Repo on db, which may be a transaction.
func NewRepo(db store.DBTX) *Repo {
	return &Repo{db: db}
}

// Create inserts a task for userID from spec and returns the stored row.
func (r *Repo) Create(ctx context.Context, userID string, spec Spec) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:               uuid.New().String(),
		UserID:           userID,
		Title:            spec.Title,
		Description:      spec.Description,
		Priority:         spec.Priority,
		Status:           spec.Status,
		DueDate:          spec.DueDate,
		ScheduledStart:   spec.ScheduledStart,
		ScheduledEnd:     spec.ScheduledEnd,
		RawInput:         spec.RawInput,
		ParserConfidence: ClampConfidence(spec.ParserConfidence),
		SemanticMetadata: spec.SemanticMetadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusPending
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO task (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.UserID, t.Title, t.Description, string(t.Priority), string(t.Status),
		t.DueDate, t.ScheduledStart, t.ScheduledEnd,
		t.RawInput, t.ParserConfidence, t.SemanticMetadata, t.Deleted,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Get returns the caller's task by id. Soft-deleted tasks are returned too.
func (r *Repo) Get(ctx context.Context, userID, id string) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, r.db.Rebind(`SELECT `+columns+` FROM task WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// Update saves the mutable fields of t, bumping UpdatedAt.
func (r *Repo) Update(ctx context.Context, t *Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE task SET
			title = ?, description = ?, priority = ?, status = ?, due_date = ?,
			scheduled_start = ?, scheduled_end = ?, parser_confidence = ?,
			semantic_metadata = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		t.Title, t.Description, string(t.Priority), string(t.Status), t.DueDate,
		t.ScheduledStart, t.ScheduledEnd, t.ParserConfidence,
		t.SemanticMetadata, t.UpdatedAt,
		t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOne(res)
}

// SoftDelete flags the caller's task as deleted. Repeating it is harmless.
func (r *Repo) SoftDelete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE task SET is_deleted = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		true, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("soft delete task: %w", err)
	}
	return expectOne(res)
}

// List returns the caller's tasks, most urgent first. Soft-deleted tasks are
// skipped unless f.IncludeDeleted is set.
func (r *Repo) List(ctx context.Context, userID string, f Filter) ([]*Task, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + columns + ` FROM task WHERE user_id = ?`)
	args := []any{userID}

	if !f.IncludeDeleted {
		q.WriteString(" AND is_deleted = ?")
		args = append(args, false)
	}
	if f.Status != nil {
		q.WriteString(" AND status = ?")
		args = append(args, string(*f.Status))
	}
	q.WriteString(` ORDER BY CASE priority WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END DESC, created_at ASC, id ASC`)

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	q.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, max(f.Offset, 0))

	var tasks []*Task
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(q.String()), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Titles returns id→title for those of ids owned by userID, in one query.
// Soft-deleted tasks count as owned.
func (r *Repo) Titles(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, title FROM task WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("build ownership query: %w", err)
	}
	var rows []struct {
		ID    string `db:"id"`
		Title string `db:"title"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("check task ownership: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.Title
	}
	return out, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("task")
	}
	return nil
}
