package tools

import (
	"context"

	"github.com/GoCodeAlone/dayplan/planner"
	"github.com/GoCodeAlone/dayplan/provider"
	"github.com/GoCodeAlone/dayplan/task"
)

// CreateTaskTool adds a task.
type CreateTaskTool struct {
	Svc Surface
}

func (t *CreateTaskTool) Name() string { return "createTask" }
func (t *CreateTaskTool) Description() string {
	return "Create a task for the user. Check listTasks first to avoid duplicates."
}
func (t *CreateTaskTool) Definition() provider.ToolDef {
	return provider.ToolDef{Name: t.Name(), Description: t.Description(), Parameters: object(taskProps(), "title")}
}
func (t *CreateTaskTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in task.CreateInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return t.Svc.CreateTask(ctx, in)
}

// GetTaskTool fetches one task.
type GetTaskTool struct {
	Svc Surface
}

func (t *GetTaskTool) Name() string        { return "getTask" }
func (t *GetTaskTool) Description() string { return "Fetch a task by id, including deleted ones" }
func (t *GetTaskTool) Definition() provider.ToolDef {
	return provider.ToolDef{Name: t.Name(), Description: t.Description(), Parameters: object(withID(nil, "id"), "id")}
}
func (t *GetTaskTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	return t.Svc.GetTask(ctx, in.ID)
}

// UpdateTaskTool changes fields of a task.
type UpdateTaskTool struct {
	Svc Surface
}

func (t *UpdateTaskTool) Name() string { return "updateTask" }
func (t *UpdateTaskTool) Description() string {
	return "Update fields of a task. Only the given fields change; an empty string clears a date."
}
func (t *UpdateTaskTool) Definition() provider.ToolDef {
	props := taskProps()
	delete(props, "rawInput")
	return provider.ToolDef{Name: t.Name(), Description: t.Description(), Parameters: object(withID(props, "id"), "id")}
}
func (t *UpdateTaskTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		ID string `json:"id"`
		task.UpdateInput
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	return t.Svc.UpdateTask(ctx, in.ID, in.UpdateInput)
}

// DeleteTaskTool soft-deletes a task.
type DeleteTaskTool struct {
	Svc Surface
}

func (t *DeleteTaskTool) Name() string { return "deleteTask" }
func (t *DeleteTaskTool) Description() string {
	return "Delete a task. Ask the user to confirm first."
}
func (t *DeleteTaskTool) Definition() provider.ToolDef {
	return provider.ToolDef{Name: t.Name(), Description: t.Description(), Parameters: object(withID(nil, "id"), "id")}
}
func (t *DeleteTaskTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	return t.Svc.DeleteTask(ctx, in.ID)
}

// ListTasksTool lists tasks.
type ListTasksTool struct {
	Svc Surface
}

func (t *ListTasksTool) Name() string        { return "listTasks" }
func (t *ListTasksTool) Description() string { return "List the user's tasks, most urgent first" }
func (t *ListTasksTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: object(map[string]any{
			"status":         enum("Only tasks with this status", "pending", "completed", "snoozed", "cancelled"),
			"includeDeleted": map[string]any{"type": "boolean", "description": "Include deleted tasks"},
			"limit":          map[string]any{"type": "integer", "minimum": 1, "maximum": 200},
		}),
	}
}
func (t *ListTasksTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in planner.ListTasksInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return t.Svc.ListTasks(ctx, in)
}
