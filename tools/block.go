package tools

import (
	"context"

	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/provider"
)

// AddBlockTool appends a block to a plan.
type AddBlockTool struct {
	Svc Surface
}

func (t *AddBlockTool) Name() string { return "addBlock" }
func (t *AddBlockTool) Description() string {
	return "Add a time block to an existing plan, optionally linking or creating a task"
}
func (t *AddBlockTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  object(withID(blockProps(), "planId"), "planId", "startTs", "endTs"),
	}
}
func (t *AddBlockTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		PlanID string `json:"planId"`
		plan.BlockInput
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("planId", in.PlanID); err != nil {
		return nil, err
	}
	return t.Svc.AddBlock(ctx, in.PlanID, in.BlockInput)
}

// UpdateBlockTool changes fields of a block.
type UpdateBlockTool struct {
	Svc Surface
}

func (t *UpdateBlockTool) Name() string { return "updateBlock" }
func (t *UpdateBlockTool) Description() string {
	return "Update a block. Only the given fields change; taskId \"\" unlinks the task."
}
func (t *UpdateBlockTool) Definition() provider.ToolDef {
	props := blockProps()
	delete(props, "task")
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  object(withID(props, "planId", "blockId"), "planId", "blockId"),
	}
}
func (t *UpdateBlockTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		PlanID  string `json:"planId"`
		BlockID string `json:"blockId"`
		plan.BlockUpdateInput
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("planId", in.PlanID); err != nil {
		return nil, err
	}
	if err := requireID("blockId", in.BlockID); err != nil {
		return nil, err
	}
	return t.Svc.UpdateBlock(ctx, in.PlanID, in.BlockID, in.BlockUpdateInput)
}

// DeleteBlockTool removes a block.
type DeleteBlockTool struct {
	Svc Surface
}

func (t *DeleteBlockTool) Name() string { return "deleteBlock" }
func (t *DeleteBlockTool) Description() string {
	return "Remove a block from a plan. Ask the user to confirm first."
}
func (t *DeleteBlockTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  object(withID(nil, "planId", "blockId"), "planId", "blockId"),
	}
}
func (t *DeleteBlockTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		PlanID  string `json:"planId"`
		BlockID string `json:"blockId"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireID("planId", in.PlanID); err != nil {
		return nil, err
	}
	if err := requireID("blockId", in.BlockID); err != nil {
		return nil, err
	}
	return t.Svc.DeleteBlock(ctx, in.PlanID, in.BlockID)
}
