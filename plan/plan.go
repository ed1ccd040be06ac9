// Package plan holds daily plans, their time blocks and the composer that
// writes a plan, its blocks and any inline tasks as one transaction.
//
// Blocks carry no owner column: a block belongs to whoever owns its plan,
// and every block lookup joins through plans to check that.
package plan

import (
	"time"

	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/GoCodeAlone/dayplan/task"
)

// DefaultBlockTitle is used when neither the block nor its task has a title.
const DefaultBlockTitle = "Untitled block"

// Plan is an ordered set of time blocks owned by one user.
type Plan struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Metadata    meta.Map  `db:"metadata" json:"metadata"`
	IsTemplate  bool      `db:"is_template" json:"isTemplate"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
	Blocks      []*Block  `db:"-" json:"blocks"`
}

// Block is one scheduled slot inside a plan.
type Block struct {
	ID         string    `db:"id" json:"id"`
	PlanID     string    `db:"plan_id" json:"planId"`
	TaskID     *string   `db:"task_id" json:"taskId"`
	Title      string    `db:"title" json:"title"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	Location   *string   `db:"location" json:"location,omitempty"`
	StartTS    time.Time `db:"start_ts" json:"startTs"`
	EndTS      time.Time `db:"end_ts" json:"endTs"`
	Completed  bool      `db:"completed" json:"completed"`
	OrderIndex int       `db:"order_index" json:"orderIndex"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// TaskRef says how a block entry links to a task: ExistingTask, InlineTask,
// or nil for no task.
type TaskRef interface {
	isTaskRef()
}

// ExistingTask references a task the caller already owns.
type ExistingTask struct {
	ID string
}

// InlineTask asks the composer to create a task along with the block.
type InlineTask struct {
	Spec task.Spec
}

func (ExistingTask) isTaskRef() {}
func (InlineTask) isTaskRef()   {}

// Filter controls which plans are returned by ListPlans.
type Filter struct {
	IsTemplate *bool
	Limit      int
	Offset     int
}
