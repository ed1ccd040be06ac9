// Package task defines the task model, its validated inputs and the
// owner-scoped repository over the task table.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/GoCodeAlone/dayplan/meta"
	"golang.org/x/text/cases"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSnoozed   Status = "snoozed"
	StatusCancelled Status = "cancelled"
)

// Priority determines listing order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var (
	priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	statuses   = []Status{StatusPending, StatusCompleted, StatusSnoozed, StatusCancelled}
)

// foldEnum normalizes enum input. A Caser is stateful, so one is built per call.
func foldEnum(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// ParsePriority accepts any letter case, e.g. "HIGH" or "High".
func ParsePriority(s string) (Priority, error) {
	in := foldEnum(s)
	for _, p := range priorities {
		if in == string(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("must be one of low, medium, high, urgent")
}

// ParseStatus accepts any letter case.
func ParseStatus(s string) (Status, error) {
	in := foldEnum(s)
	for _, st := range statuses {
		if in == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("must be one of pending, completed, snoozed, cancelled")
}

// ClampConfidence forces a parser confidence into [0, 100].
func ClampConfidence(n int) int {
	return max(0, min(100, n))
}

// Task is a unit of work owned by one user.
type Task struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"-"`
	Title            string     `db:"title" json:"title"`
	Description      *string    `db:"description" json:"description,omitempty"`
	Priority         Priority   `db:"priority" json:"priority"`
	Status           Status     `db:"status" json:"status"`
	DueDate          *time.Time `db:"due_date" json:"dueDate,omitempty"`
	ScheduledStart   *time.Time `db:"scheduled_start" json:"scheduledStart,omitempty"`
	ScheduledEnd     *time.Time `db:"scheduled_end" json:"scheduledEnd,omitempty"`
	RawInput         string     `db:"raw_input" json:"rawInput,omitempty"`
	ParserConfidence int        `db:"parser_confidence" json:"parserConfidence"`
	SemanticMetadata meta.Map   `db:"semantic_metadata" json:"semanticMetadata"`
	Deleted          bool       `db:"is_deleted" json:"isDeleted"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

// Filter controls which tasks are returned by List.
type Filter struct {
	Status         *Status
	IncludeDeleted bool
	Limit          int
	Offset         int
}
