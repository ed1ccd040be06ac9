package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/store"
)

const (
	planColumns  = `id, user_id, title, description, metadata, is_template, created_at, updated_at`
	blockColumns = `b.id, b.plan_id, b.task_id, b.title, b.notes, b.location, b.start_ts, b.end_ts,
		b.completed, b.order_index, b.created_at`
	// blockOrder is the stable read order; order indexes may collide.
	blockOrder = `b.order_index ASC, b.start_ts ASC, b.created_at ASC, b.id ASC`
)

// Repo persists plans and blocks.
type Repo struct {
	db store.DBTX
}

// NewRepo builds a Repo on db, which may be a transaction.
func NewRepo(db store.DBTX) *Repo {
	return &Repo{db: db}
}

// CreatePlan inserts p. The caller fills in every field.
func (r *Repo) CreatePlan(ctx context.Context, p *Plan) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.UserID, p.Title, p.Description, p.Metadata, p.IsTemplate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// GetPlan returns the caller's plan without blocks.
func (r *Repo) GetPlan(ctx context.Context, userID, id string) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+planColumns+` FROM plans WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("plan")
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}

// ListPlans returns the caller's plans, newest first.
func (r *Repo) ListPlans(ctx context.Context, userID string, f Filter) ([]*Plan, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + planColumns + ` FROM plans WHERE user_id = ?`)
	args := []any{userID}
	if f.IsTemplate != nil {
		q.WriteString(" AND is_template = ?")
		args = append(args, *f.IsTemplate)
	}
	q.WriteString(" ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?")
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, min(limit, 200), max(f.Offset, 0))

	var plans []*Plan
	if err := r.db.SelectContext(ctx, &plans, r.db.Rebind(q.String()), args...); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// UpdatePlan saves title, description, metadata and template flag, bumping
// UpdatedAt.
func (r *Repo) UpdatePlan(ctx context.Context, p *Plan) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE plans SET title = ?, description = ?, metadata = ?, is_template = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		p.Title, p.Description, p.Metadata, p.IsTemplate, p.UpdatedAt, p.ID, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return expectOne(res, "plan")
}

// DeletePlan removes the caller's plan; its blocks go with it.
func (r *Repo) DeletePlan(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM plans WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return expectOne(res, "plan")
}

// CreateBlock inserts b. Ownership of b.PlanID is the caller's concern.
func (r *Repo) CreateBlock(ctx context.Context, b *Block) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO plan_blocks (id, plan_id, task_id, title, notes, location, start_ts, end_ts, completed, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.PlanID, b.TaskID, b.Title, b.Notes, b.Location, b.StartTS, b.EndTS, b.Completed, b.OrderIndex, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

// ListBlocks returns the blocks of planID in read order.
func (r *Repo) ListBlocks(ctx context.Context, planID string) ([]*Block, error) {
	var blocks []*Block
	err := r.db.SelectContext(ctx, &blocks, r.db.Rebind(`
		SELECT `+blockColumns+` FROM plan_blocks b WHERE b.plan_id = ? ORDER BY `+blockOrder), planID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

// NextOrderIndex returns one past the highest order index in planID, or 0
// for a plan without blocks.
func (r *Repo) NextOrderIndex(ctx context.Context, planID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COALESCE(MAX(order_index) + 1, 0) FROM plan_blocks WHERE plan_id = ?`), planID)
	if err != nil {
		return 0, fmt.Errorf("next order index: %w", err)
	}
	return n, nil
}

// GetBlock returns a block of planID if that plan belongs to userID.
func (r *Repo) GetBlock(ctx context.Context, userID, planID, blockID string) (*Block, error) {
	var b Block
	err := r.db.GetContext(ctx, &b, r.db.Rebind(`
		SELECT `+blockColumns+`
		FROM plan_blocks b
		JOIN plans p ON p.id = b.plan_id
		WHERE b.id = ? AND b.plan_id = ? AND p.user_id = ?`), blockID, planID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("block")
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	return &b, nil
}

// UpdateBlock saves the mutable fields of b. Ownership is checked by the
// caller through GetBlock in the same transaction.
func (r *Repo) UpdateBlock(ctx context.Context, b *Block) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE plan_blocks SET task_id = ?, title = ?, notes = ?, location = ?, start_ts = ?, end_ts = ?,
			completed = ?, order_index = ?
		WHERE id = ? AND plan_id = ?`),
		b.TaskID, b.Title, b.Notes, b.Location, b.StartTS, b.EndTS, b.Completed, b.OrderIndex, b.ID, b.PlanID,
	)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	return expectOne(res, "block")
}

// DeleteBlock removes a block if its plan belongs to userID.
func (r *Repo) DeleteBlock(ctx context.Context, userID, planID, blockID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM plan_blocks
		WHERE id = ? AND plan_id = ? AND plan_id IN (SELECT id FROM plans WHERE user_id = ?)`),
		blockID, planID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return expectOne(res, "block")
}

func expectOne(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}
