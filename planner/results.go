package planner

import (
	"time"

	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/task"
)

// TaskResult is returned by task mutations.
type TaskResult struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Priority task.Priority `json:"priority"`
	Status   task.Status   `json:"status"`
}

// TaskSummary is one row of a task listing.
type TaskSummary struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Priority       task.Priority `json:"priority"`
	Status         task.Status   `json:"status"`
	DueDate        *time.Time    `json:"dueDate,omitempty"`
	ScheduledStart *time.Time    `json:"scheduledStart,omitempty"`
	ScheduledEnd   *time.Time    `json:"scheduledEnd,omitempty"`
	Deleted        bool          `json:"isDeleted,omitempty"`
}

// BlockResult summarizes a block.
type BlockResult struct {
	ID         string    `json:"id"`
	TaskID     *string   `json:"taskId"`
	Title      string    `json:"title"`
	StartTS    time.Time `json:"startTs"`
	EndTS      time.Time `json:"endTs"`
	OrderIndex int       `json:"orderIndex"`
}

// PlanResult is returned by plan creation.
type PlanResult struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Blocks []BlockResult `json:"blocks"`
}

// PlanRef is returned by plan updates.
type PlanRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PlanSummary is one row of a plan listing.
type PlanSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	IsTemplate bool      `json:"isTemplate"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeleteResult acknowledges a deletion.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func taskResult(t *task.Task) *TaskResult {
	return &TaskResult{ID: t.ID, Title: t.Title, Priority: t.Priority, Status: t.Status}
}

func blockResult(b *plan.Block) BlockResult {
	return BlockResult{
		ID:         b.ID,
		TaskID:     b.TaskID,
		Title:      b.Title,
		StartTS:    b.StartTS,
		EndTS:      b.EndTS,
		OrderIndex: b.OrderIndex,
	}
}

func deleted(id string) *DeleteResult {
	return &DeleteResult{ID: id, Deleted: true}
}
