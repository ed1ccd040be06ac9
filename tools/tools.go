// Package tools adapts planner operations into model-callable tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/planner"
	"github.com/GoCodeAlone/dayplan/plugin"
	"github.com/GoCodeAlone/dayplan/task"
)

// Surface is the set of planner operations the tools call.
type Surface interface {
	CreateTask(ctx context.Context, in task.CreateInput) (*planner.TaskResult, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	UpdateTask(ctx context.Context, id string, in task.UpdateInput) (*planner.TaskResult, error)
	DeleteTask(ctx context.Context, id string) (*planner.DeleteResult, error)
	ListTasks(ctx context.Context, in planner.ListTasksInput) ([]planner.TaskSummary, error)

	CreatePlan(ctx context.Context, in plan.CreateInput) (*planner.PlanResult, error)
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	ListPlans(ctx context.Context, in planner.ListPlansInput) ([]planner.PlanSummary, error)
	UpdatePlan(ctx context.Context, id string, in plan.UpdateInput) (*planner.PlanRef, error)
	DeletePlan(ctx context.Context, id string) (*planner.DeleteResult, error)

	AddBlock(ctx context.Context, planID string, in plan.BlockInput) (*planner.BlockResult, error)
	UpdateBlock(ctx context.Context, planID, blockID string, in plan.BlockUpdateInput) (*planner.BlockResult, error)
	DeleteBlock(ctx context.Context, planID, blockID string) (*planner.DeleteResult, error)
}

var _ Surface = (*planner.Service)(nil)

// All returns one instance of every tool bound to svc.
func All(svc Surface) []plugin.Tool {
	return []plugin.Tool{
		&CreateTaskTool{Svc: svc},
		&GetTaskTool{Svc: svc},
		&UpdateTaskTool{Svc: svc},
		&DeleteTaskTool{Svc: svc},
		&ListTasksTool{Svc: svc},
		&CreatePlanTool{Svc: svc},
		&GetPlanTool{Svc: svc},
		&ListPlansTool{Svc: svc},
		&UpdatePlanTool{Svc: svc},
		&DeletePlanTool{Svc: svc},
		&AddBlockTool{Svc: svc},
		&UpdateBlockTool{Svc: svc},
		&DeleteBlockTool{Svc: svc},
	}
}

// Register adds every tool to reg.
func Register(reg *plugin.Registry, svc Surface) error {
	for _, t := range All(svc) {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// decodeArgs maps the model's loosely typed arguments onto a payload
// struct through a JSON round trip.
func decodeArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return apperr.Invalid("arguments", err.Error())
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Invalid("arguments", strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Invalid(field, "is required")
	}
	return nil
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func timestamp(desc string) map[string]any {
	return map[string]any{"type": "string", "format": "date-time", "description": desc + " (RFC 3339)"}
}

func enum(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values, "description": desc + " (case-insensitive)"}
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func taskProps() map[string]any {
	return map[string]any{
		"title":            str("Short task title"),
		"description":      str("Longer free-text description"),
		"priority":         enum("Priority, default medium", "low", "medium", "high", "urgent"),
		"status":           enum("Status, default pending", "pending", "completed", "snoozed", "cancelled"),
		"dueDate":          timestamp("Due date"),
		"scheduledStart":   timestamp("Scheduled start"),
		"scheduledEnd":     timestamp("Scheduled end, after scheduledStart"),
		"rawInput":         str("The user's original wording"),
		"parserConfidence": map[string]any{"type": "integer", "minimum": 0, "maximum": 100, "description": "How sure you are of the interpretation, 0-100"},
		"semanticMetadata": map[string]any{"type": "object", "description": "Free-form structured details"},
	}
}

func blockProps() map[string]any {
	return map[string]any{
		"title":      str("Block title; defaults to the task title"),
		"notes":      str("Notes"),
		"location":   str("Location"),
		"startTs":    timestamp("Block start"),
		"endTs":      timestamp("Block end, strictly after startTs"),
		"completed":  map[string]any{"type": "boolean"},
		"orderIndex": map[string]any{"type": "integer", "minimum": 0, "description": "Position in the plan; defaults to insertion order"},
		"taskId":     str("Existing task to link; takes precedence over task"),
		"task":       object(taskProps(), "title"),
	}
}

func withID(props map[string]any, ids ...string) map[string]any {
	out := make(map[string]any, len(props)+len(ids))
	for k, v := range props {
		out[k] = v
	}
	for _, id := range ids {
		out[id] = str(fmt.Sprintf("The %s of the target", id))
	}
	return out
}
