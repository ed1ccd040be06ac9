package plan

import (
	"context"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/GoCodeAlone/dayplan/store"
	"github.com/GoCodeAlone/dayplan/task"
	"github.com/google/uuid"
)

// Composer writes plans together with their blocks and inline tasks. Each
// call is one transaction: either every row lands or none does.
type Composer struct {
	uow store.UnitOfWork
	now func() time.Time
}

// NewComposer builds a Composer on uow.
func NewComposer(uow store.UnitOfWork) *Composer {
	return &Composer{uow: uow, now: time.Now}
}

// Created describes the rows written by a composer call.
type Created struct {
	Plan   *Plan
	Blocks []*Block
	Tasks  []*task.Task
}

// CreatePlan writes a new plan for userID with spec's blocks.
//
// Write order is inline tasks, then the plan, then blocks, then the audit
// row. Referenced task ids are checked in one query before the first write.
func (c *Composer) CreatePlan(ctx context.Context, userID string, spec Spec) (*Created, error) {
	var out *Created
	err := c.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		tasks := task.NewRepo(tx)
		plans := NewRepo(tx)

		titles, err := checkRefs(ctx, tasks, userID, spec.Blocks)
		if err != nil {
			return err
		}
		created, err := createInline(ctx, tasks, userID, spec.Blocks)
		if err != nil {
			return err
		}

		now := c.now().UTC()
		p := &Plan{
			ID:          uuid.New().String(),
			UserID:      userID,
			Title:       spec.Title,
			Description: spec.Description,
			Metadata:    spec.Metadata,
			IsTemplate:  spec.IsTemplate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if p.Metadata == nil {
			p.Metadata = meta.Map{}
		}
		if err := plans.CreatePlan(ctx, p); err != nil {
			return err
		}

		blocks, err := writeBlocks(ctx, plans, p.ID, spec.Blocks, titles, created, 0, now)
		if err != nil {
			return err
		}
		p.Blocks = blocks

		if err := store.RecordAudit(ctx, tx, store.AuditEntry{
			UserID:   userID,
			Entity:   "plan",
			EntityID: p.ID,
			Action:   "create",
			Payload: meta.Map{
				"blocks":       meta.Number(float64(len(blocks))),
				"createdTasks": meta.Number(float64(len(created))),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		out = &Created{Plan: p, Blocks: blocks, Tasks: inlineTasks(created)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddBlocks appends blocks to an existing plan owned by userID. Default
// order indexes continue after the plan's highest index.
func (c *Composer) AddBlocks(ctx context.Context, userID, planID string, specs []BlockSpec) (*Created, error) {
	var out *Created
	err := c.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		tasks := task.NewRepo(tx)
		plans := NewRepo(tx)

		p, err := plans.GetPlan(ctx, userID, planID)
		if err != nil {
			return err
		}
		next, err := plans.NextOrderIndex(ctx, p.ID)
		if err != nil {
			return err
		}
		titles, err := checkRefs(ctx, tasks, userID, specs)
		if err != nil {
			return err
		}
		created, err := createInline(ctx, tasks, userID, specs)
		if err != nil {
			return err
		}

		now := c.now().UTC()
		blocks, err := writeBlocks(ctx, plans, p.ID, specs, titles, created, next, now)
		if err != nil {
			return err
		}
		for _, b := range blocks {
			if err := store.RecordAudit(ctx, tx, store.AuditEntry{
				UserID:    userID,
				Entity:    "block",
				EntityID:  b.ID,
				Action:    "create",
				Payload:   meta.Map{"planId": meta.String(p.ID)},
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		p.Blocks = blocks
		out = &Created{Plan: p, Blocks: blocks, Tasks: inlineTasks(created)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkRefs verifies every ExistingTask id belongs to userID and returns
// their titles. Misses are reported on the entry's taskId field.
func checkRefs(ctx context.Context, tasks *task.Repo, userID string, specs []BlockSpec) (map[string]string, error) {
	var ids []string
	seen := map[string]bool{}
	for _, s := range specs {
		if ref, ok := s.Ref.(ExistingTask); ok && !seen[ref.ID] {
			seen[ref.ID] = true
			ids = append(ids, ref.ID)
		}
	}
	titles, err := tasks.Titles(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	var f apperr.Fields
	for _, s := range specs {
		if ref, ok := s.Ref.(ExistingTask); ok {
			if _, owned := titles[ref.ID]; !owned {
				f.Add(apperr.Path(s.Path, "taskId"), "task not found")
			}
		}
	}
	return titles, f.Err()
}

// createInline inserts the InlineTask of each entry, keyed by entry index.
func createInline(ctx context.Context, tasks *task.Repo, userID string, specs []BlockSpec) (map[int]*task.Task, error) {
	created := map[int]*task.Task{}
	for i, s := range specs {
		ref, ok := s.Ref.(InlineTask)
		if !ok {
			continue
		}
		t, err := tasks.Create(ctx, userID, ref.Spec)
		if err != nil {
			return nil, err
		}
		created[i] = t
	}
	return created, nil
}

func writeBlocks(ctx context.Context, plans *Repo, planID string, specs []BlockSpec,
	titles map[string]string, created map[int]*task.Task, offset int, now time.Time) ([]*Block, error) {
	blocks := make([]*Block, 0, len(specs))
	for i, s := range specs {
		b := &Block{
			ID:         uuid.New().String(),
			PlanID:     planID,
			Title:      s.Title,
			Notes:      s.Notes,
			Location:   s.Location,
			StartTS:    s.Start,
			EndTS:      s.End,
			Completed:  s.Completed,
			OrderIndex: offset + i,
			CreatedAt:  now,
		}
		if s.OrderIndex != nil {
			b.OrderIndex = *s.OrderIndex
		}

		var taskTitle string
		switch ref := s.Ref.(type) {
		case ExistingTask:
			id := ref.ID
			b.TaskID = &id
			taskTitle = titles[id]
		case InlineTask:
			t := created[i]
			b.TaskID = &t.ID
			taskTitle = t.Title
		}
		if b.Title == "" {
			b.Title = taskTitle
		}
		if b.Title == "" {
			b.Title = DefaultBlockTitle
		}

		if err := plans.CreateBlock(ctx, b); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func inlineTasks(created map[int]*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(created))
	for i := 0; len(out) < len(created); i++ {
		if t, ok := created[i]; ok {
			out = append(out, t)
		}
	}
	return out
}
