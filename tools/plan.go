package tools

import (
	"context"

	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/planner"
	"github.com/GoCodeAlone/dayplan/provider"
)

// CreatePlanTool writes a plan with its blocks in one step.
type CreatePlanTool struct {
	Svc Surface
}

func (t *CreatePlanTool) Name() string { return "createPlan" }
func (t *CreatePlanTool) Description() string {
	return "Create a plan made of time blocks. Each block may link an existing task by taskId or create one inline with task."
}
func (t *CreatePlanTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: object(map[string]any{
			"title":       str("Plan title"),
			"description": str("Plan description"),
			"isTemplate":  map[string]any{"type": "boolean"},
			"metadata":    map[string]any{"type": "object"},
			"blocks": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    object(blockProps(), "startTs", "endTs"),
			},
		}, "title", "blocks"),
	}
}
func (t *CreatePlanTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in plan.CreateInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return t.Svc.CreatePlan(ctx, in)
}

// GetPlanTool fetches a plan with its blocks.
type GetPlanTool struct {
	Svc Surface
}

func (t *GetPlanTool) Name() string        { return "getPlan" }
func (t *GetPlanTool) Description() string { return "Fetch a plan and its blocks in order" }
func (t *GetPlanTool) Definition() provider.ToolDef {
	return provider.ToolDef{Name: t.Name(), Description: t.Description(), Parameters: object(withID(nil, "id"), "id")}
}
func (t *GetPlanTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	return t.Svc.GetPlan(ctx, in.ID)
}

// ListPlansTool lists plans.
type ListPlansTool struct {
	Svc Surface
}

func (t *ListPlansTool) Name() string        { return "listPlans" }
func (t *ListPlansTool) Description() string { return "List the user's plans, newest first" }
func (t *ListPlansTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: object(map[string]any{
			"isTemplate": map[string]any{"type": "boolean", "description": "Only templates, or only non-templates"},
			"limit":      map[string]any{"type": "integer", "minimum": 1, "maximum": 200},
		}),
	}
}
func (t *ListPlansTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in planner.ListPlansInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return t.Svc.ListPlans(ctx, in)
}

// UpdatePlanTool changes plan fields.
type UpdatePlanTool struct {
	Svc Surface
}

func (t *UpdatePlanTool) Name() string        { return "updatePlan" }
func (t *UpdatePlanTool) Description() string { return "Rename or describe a plan, or mark it as a template" }
func (t *UpdatePlanTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: object(withID(map[string]any{
			"title":       str("Plan title"),
			"description": str("Plan description"),
			"isTemplate":  map[string]any{"type": "boolean"},
			"metadata":    map[string]any{"type": "object"},
		}, "id"), "id"),
	}
}
func (t *UpdatePlanTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		ID string `json:"id"`
		plan.UpdateInput
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	return t.Svc.UpdatePlan(ctx, in.ID, in.UpdateInput)
}

// DeletePlanTool removes a plan and its blocks.
type DeletePlanTool struct {
	Svc Surface
}

func (t *DeletePlanTool) Name() string { return "deletePlan" }
func (t *DeletePlanTool) Description() string {
	return "Delete a plan and all of its blocks. Linked tasks are kept. Ask the user to confirm first."
}
func (t *DeletePlanTool) Definition() provider.ToolDef {
	return provider.ToolDef{Name: t.Name(), Description: t.Description(), Parameters: object(withID(nil, "id"), "id")}
}
func (t *DeletePlanTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	return t.Svc.DeletePlan(ctx, in.ID)
}
