// Package plugin defines the tool interface the assistant exposes to a
// language model and the registry that dispatches model tool calls.
package plugin

import (
	"context"

	"github.com/GoCodeAlone/dayplan/provider"
)

// Tool is one operation a model may invoke.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Definition returns the tool definition for the AI provider.
	Definition() provider.ToolDef

	// Execute runs the tool with the given arguments. The caller's
	// principal travels in ctx.
	Execute(ctx context.Context, args map[string]any) (any, error)
}
