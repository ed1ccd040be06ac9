package planner

import (
	"context"

	"github.com/GoCodeAlone/dayplan/comms"
	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/store"
	"github.com/GoCodeAlone/dayplan/task"
)

// ListPlansInput filters a plan listing.
type ListPlansInput struct {
	IsTemplate *bool `json:"isTemplate,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	Offset     int   `json:"offset,omitempty"`
}

// CreatePlan writes a plan with its blocks, creating inline tasks on the
// way. Nothing is written unless every block is valid and every referenced
// task belongs to the caller.
func (s *Service) CreatePlan(ctx context.Context, in plan.CreateInput) (*PlanResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	spec, err := in.Validate()
	if err != nil {
		return nil, err
	}
	out, err := s.composer.CreatePlan(ctx, userID, spec)
	if err != nil {
		return nil, err
	}

	events := []*comms.Event{event(userID, "plan", out.Plan.ID, comms.ActionCreate)}
	for _, t := range out.Tasks {
		events = append(events, event(userID, "task", t.ID, comms.ActionCreate))
	}
	s.publish(ctx, events...)

	res := &PlanResult{ID: out.Plan.ID, Title: out.Plan.Title, Blocks: make([]BlockResult, 0, len(out.Blocks))}
	for _, b := range out.Blocks {
		res.Blocks = append(res.Blocks, blockResult(b))
	}
	return res, nil
}

// GetPlan returns one of the caller's plans with its blocks in read order.
func (s *Service) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	repo := plan.NewRepo(s.db)
	p, err := repo.GetPlan(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	blocks, err := repo.ListBlocks(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Blocks = blocks
	if p.Blocks == nil {
		p.Blocks = []*plan.Block{}
	}
	return p, nil
}

// ListPlans lists the caller's plans, newest first.
func (s *Service) ListPlans(ctx context.Context, in ListPlansInput) ([]PlanSummary, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	var bad apperr.Fields
	if in.Limit < 0 {
		bad.Add("limit", "must not be negative")
	}
	if in.Offset < 0 {
		bad.Add("offset", "must not be negative")
	}
	if err := bad.Err(); err != nil {
		return nil, err
	}
	plans, err := plan.NewRepo(s.db).ListPlans(ctx, userID, plan.Filter{IsTemplate: in.IsTemplate, Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return nil, err
	}
	out := make([]PlanSummary, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanSummary{ID: p.ID, Title: p.Title, IsTemplate: p.IsTemplate, CreatedAt: p.CreatedAt})
	}
	return out, nil
}

// UpdatePlan applies a partial update to one of the caller's plans.
func (s *Service) UpdatePlan(ctx context.Context, id string, in plan.UpdateInput) (*PlanRef, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	var p *plan.Plan
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		repo := plan.NewRepo(tx)
		current, err := repo.GetPlan(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := in.Apply(current); err != nil {
			return err
		}
		if err := repo.UpdatePlan(ctx, current); err != nil {
			return err
		}
		p = current
		return audit(ctx, tx, userID, "plan", p.ID, comms.ActionUpdate, meta.Map{"title": meta.String(p.Title)})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event(userID, "plan", p.ID, comms.ActionUpdate))
	return &PlanRef{ID: p.ID, Title: p.Title}, nil
}

// DeletePlan removes one of the caller's plans and its blocks. Linked tasks
// are kept.
func (s *Service) DeletePlan(ctx context.Context, id string) (*DeleteResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		if err := plan.NewRepo(tx).DeletePlan(ctx, userID, id); err != nil {
			return err
		}
		return audit(ctx, tx, userID, "plan", id, comms.ActionDelete, nil)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event(userID, "plan", id, comms.ActionDelete))
	return deleted(id), nil
}

// AddBlock appends a block to one of the caller's plans.
func (s *Service) AddBlock(ctx context.Context, planID string, in plan.BlockInput) (*BlockResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	spec, err := in.Validate()
	if err != nil {
		return nil, err
	}
	out, err := s.composer.AddBlocks(ctx, userID, planID, []plan.BlockSpec{spec})
	if err != nil {
		return nil, err
	}
	b := out.Blocks[0]

	events := []*comms.Event{event(userID, "block", b.ID, comms.ActionCreate)}
	for _, t := range out.Tasks {
		events = append(events, event(userID, "task", t.ID, comms.ActionCreate))
	}
	s.publish(ctx, events...)

	res := blockResult(b)
	return &res, nil
}

// GetBlock returns a block of one of the caller's plans.
func (s *Service) GetBlock(ctx context.Context, planID, blockID string) (*plan.Block, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return plan.NewRepo(s.db).GetBlock(ctx, userID, planID, blockID)
}

// UpdateBlock applies a partial update to a block. A new taskId must name
// one of the caller's tasks.
func (s *Service) UpdateBlock(ctx context.Context, planID, blockID string, in plan.BlockUpdateInput) (*BlockResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	var b *plan.Block
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		repo := plan.NewRepo(tx)
		current, err := repo.GetBlock(ctx, userID, planID, blockID)
		if err != nil {
			return err
		}
		if id, ok := in.LinksTask(); ok {
			titles, err := task.NewRepo(tx).Titles(ctx, userID, []string{id})
			if err != nil {
				return err
			}
			if _, owned := titles[id]; !owned {
				return apperr.Invalid("taskId", "task not found")
			}
		}
		if err := in.Apply(current); err != nil {
			return err
		}
		if err := repo.UpdateBlock(ctx, current); err != nil {
			return err
		}
		b = current
		return audit(ctx, tx, userID, "block", b.ID, comms.ActionUpdate, meta.Map{"planId": meta.String(planID)})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event(userID, "block", b.ID, comms.ActionUpdate))
	res := blockResult(b)
	return &res, nil
}

// DeleteBlock removes a block from one of the caller's plans.
func (s *Service) DeleteBlock(ctx context.Context, planID, blockID string) (*DeleteResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		if err := plan.NewRepo(tx).DeleteBlock(ctx, userID, planID, blockID); err != nil {
			return err
		}
		return audit(ctx, tx, userID, "block", blockID, comms.ActionDelete, meta.Map{"planId": meta.String(planID)})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event(userID, "block", blockID, comms.ActionDelete))
	return deleted(blockID), nil
}
