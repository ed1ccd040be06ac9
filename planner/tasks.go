package planner

import (
	"context"

	"github.com/GoCodeAlone/dayplan/comms"
	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/GoCodeAlone/dayplan/store"
	"github.com/GoCodeAlone/dayplan/task"
)

// ListTasksInput filters a task listing.
type ListTasksInput struct {
	Status         string `json:"status,omitempty"`
	IncludeDeleted bool   `json:"includeDeleted,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
}

func (in ListTasksInput) filter() (task.Filter, error) {
	f := task.Filter{IncludeDeleted: in.IncludeDeleted, Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		st, err := task.ParseStatus(in.Status)
		if err != nil {
			return f, apperr.Invalid("status", err.Error())
		}
		f.Status = &st
	}
	if in.Limit < 0 {
		return f, apperr.Invalid("limit", "must not be negative")
	}
	if in.Offset < 0 {
		return f, apperr.Invalid("offset", "must not be negative")
	}
	return f, nil
}

// CreateTask adds a task for the caller.
func (s *Service) CreateTask(ctx context.Context, in task.CreateInput) (*TaskResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	spec, err := in.Validate()
	if err != nil {
		return nil, err
	}

	var t *task.Task
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		created, err := task.NewRepo(tx).Create(ctx, userID, spec)
		if err != nil {
			return err
		}
		t = created
		return audit(ctx, tx, userID, "task", t.ID, comms.ActionCreate, meta.Map{"title": meta.String(t.Title)})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event(userID, "task", t.ID, comms.ActionCreate))
	return taskResult(t), nil
}

// GetTask returns one of the caller's tasks, soft-deleted or not.
func (s *Service) GetTask(ctx context.Context, id string) (*task.Task, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return task.NewRepo(s.db).Get(ctx, userID, id)
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (s *Service) UpdateTask(ctx context.Context, id string, in task.UpdateInput) (*TaskResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	var t *task.Task
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		repo := task.NewRepo(tx)
		current, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := in.Apply(current); err != nil {
			return err
		}
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		t = current
		return audit(ctx, tx, userID, "task", t.ID, comms.ActionUpdate, meta.Map{"status": meta.String(string(t.Status))})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event(userID, "task", t.ID, comms.ActionUpdate))
	return taskResult(t), nil
}

// DeleteTask soft-deletes one of the caller's tasks. Blocks keep pointing
// at it.
func (s *Service) DeleteTask(ctx context.Context, id string) (*DeleteResult, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		if err := task.NewRepo(tx).SoftDelete(ctx, userID, id); err != nil {
			return err
		}
		return audit(ctx, tx, userID, "task", id, comms.ActionDelete, nil)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event(userID, "task", id, comms.ActionDelete))
	return deleted(id), nil
}

// ListTasks lists the caller's tasks, most urgent first.
func (s *Service) ListTasks(ctx context.Context, in ListTasksInput) ([]TaskSummary, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	f, err := in.filter()
	if err != nil {
		return nil, err
	}
	tasks, err := task.NewRepo(s.db).List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskSummary{
			ID:             t.ID,
			Title:          t.Title,
			Priority:       t.Priority,
			Status:         t.Status,
			DueDate:        t.DueDate,
			ScheduledStart: t.ScheduledStart,
			ScheduledEnd:   t.ScheduledEnd,
			Deleted:        t.Deleted,
		})
	}
	return out, nil
}
