package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func sse(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "data: %s\n\n", l)
	}
	return b.String()
}

func TestAnthropicChat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"m1","type":"message","content":[
			{"type":"text","text":"Adding it."},
			{"type":"tool_use","id":"tu1","name":"createTask","input":{"title":"Gym"}}
		],"usage":{"input_tokens":12,"output_tokens":7}}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider(AnthropicConfig{APIKey: "key", BaseURL: srv.URL + "/"})
	resp, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "add gym"},
	}, []ToolDef{{Name: "createTask", Description: "Create a task"}})
	require.NoError(t, err)

	assert.Equal(t, "Adding it.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "createTask", resp.ToolCalls[0].Name)
	assert.Equal(t, "Gym", resp.ToolCalls[0].Arguments["title"])
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 7}, resp.Usage)

	assert.Equal(t, "be brief", got["system"])
	assert.Equal(t, defaultAnthropicModel, got["model"])
	tools := got["tools"].([]any)
	schema := tools[0].(map[string]any)["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
}

func TestAnthropicAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewAnthropicProvider(AnthropicConfig{BaseURL: srv.URL}).Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "overloaded_error")
}

func TestAnthropicRequestReplaysToolTurns(t *testing.T) {
	p := NewAnthropicProvider(AnthropicConfig{})
	req := p.buildRequest([]Message{
		{Role: RoleUser, Content: "plan my saturday"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "listTasks"},
			{ID: "b", Name: "listPlans", Arguments: map[string]any{"limit": 5}},
		}},
		{Role: RoleTool, ToolCallID: "a", Content: "[]"},
		{Role: RoleTool, ToolCallID: "b", Content: "Error: boom", IsError: true},
		{Role: RoleAssistant, Content: "Done."},
	}, nil, false)

	require.Len(t, req.Messages, 4)
	assert.Equal(t, "user", req.Messages[0].Role)

	assistant := req.Messages[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Content, 2)
	assert.Equal(t, "tool_use", assistant.Content[0].Type)
	assert.Equal(t, map[string]any{}, assistant.Content[0].Input)

	results := req.Messages[2]
	assert.Equal(t, "user", results.Role)
	require.Len(t, results.Content, 2)
	assert.Equal(t, "a", results.Content[0].ToolUseID)
	assert.True(t, results.Content[1].IsError)

	data, err := json.Marshal(assistant)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input":{}`)
}

func TestAnthropicStream(t *testing.T) {
	body := sse(
		`{"type":"message_start","message":{"usage":{"input_tokens":10,"output_tokens":1}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"On it"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu1","name":"createTask"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"title\":"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"Gym\"}"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_delta","usage":{"output_tokens":20}}`,
		`{"type":"message_stop"}`,
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["stream"])
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: ping\n"+body)
	}))
	defer srv.Close()

	ch, err := NewAnthropicProvider(AnthropicConfig{BaseURL: srv.URL}).Stream(context.Background(), []Message{{Role: RoleUser, Content: "gym"}}, nil)
	require.NoError(t, err)
	events := drain(t, ch)

	require.Len(t, events, 3)
	assert.Equal(t, StreamEvent{Type: EventText, Text: "On it"}, events[0])
	assert.Equal(t, EventToolCall, events[1].Type)
	assert.Equal(t, "tu1", events[1].Tool.ID)
	assert.Equal(t, "Gym", events[1].Tool.Arguments["title"])
	assert.Equal(t, EventDone, events[2].Type)
	assert.Equal(t, &Usage{InputTokens: 10, OutputTokens: 20}, events[2].Usage)
}

func TestAnthropicStreamTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, sse(`{"type":"content_block_delta","delta":{"type":"text_delta","text":"hal"}}`))
	}))
	defer srv.Close()

	ch, err := NewAnthropicProvider(AnthropicConfig{BaseURL: srv.URL}).Stream(context.Background(), nil, nil)
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[1].Type)
	assert.Contains(t, events[1].Error, "unexpected EOF")
}
