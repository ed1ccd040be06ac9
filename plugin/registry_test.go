package plugin

import (
	"context"
	"testing"

	"github.com/GoCodeAlone/dayplan/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct{ name string }

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echoes its arguments" }
func (e *echoTool) Definition() provider.ToolDef {
	return provider.ToolDef{Name: e.name, Description: e.Description(), Parameters: map[string]any{"type": "object"}}
}
func (e *echoTool) Execute(_ context.Context, args map[string]any) (any, error) {
	return args, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "zeta"}))
	require.NoError(t, r.Register(&echoTool{name: "alpha"}))
	assert.Error(t, r.Register(&echoTool{name: "alpha"}))

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
	defs := r.AllDefs()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)

	out, err := r.Execute(context.Background(), "zeta", map[string]any{"x": 1.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1.0}, out)

	_, err = r.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, ok := r.Get("alpha")
	assert.True(t, ok)
}
