package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"c1","choices":[{"message":{"role":"assistant","content":null,
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"getPlan","arguments":"{\"id\":\"p1\"}"}}]},
			"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":5,"completion_tokens":3}}`)
	}))
	defer srv.Close()

	resp, err := NewOpenAIProvider(OpenAIConfig{APIKey: "key", BaseURL: srv.URL}).Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "call_1", Name: "getPlan", Arguments: map[string]any{"id": "p1"}}, resp.ToolCalls[0])
	assert.Equal(t, Usage{InputTokens: 5, OutputTokens: 3}, resp.Usage)
}

func TestOpenAIRequestReplaysToolCalls(t *testing.T) {
	req := NewOpenAIProvider(OpenAIConfig{}).buildRequest([]Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "listTasks"}}},
		{Role: RoleTool, ToolCallID: "c1", Content: "[]"},
	}, []ToolDef{{Name: "listTasks"}}, true)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	var got struct {
		Stream   bool `json:"stream"`
		Messages []struct {
			Role       string  `json:"role"`
			Content    *string `json:"content"`
			ToolCallID string  `json:"tool_call_id"`
			ToolCalls  []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.True(t, got.Stream)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assistant := got.Messages[1]
	assert.Nil(t, assistant.Content)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "function", assistant.ToolCalls[0].Type)
	assert.Equal(t, "{}", assistant.ToolCalls[0].Function.Arguments)
	assert.Equal(t, "c1", got.Messages[2].ToolCallID)
}

func TestOpenAIStreamOrdersToolCalls(t *testing.T) {
	body := sse(
		`{"choices":[{"delta":{"content":"Sure"}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"c2","function":{"name":"listPlans","arguments":""}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c1","function":{"name":"createTask","arguments":"{\"title\""}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":":\"Gym\"}"}}]}}]}`,
		`{"choices":[],"usage":{"prompt_tokens":9,"completion_tokens":4}}`,
		`[DONE]`,
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	ch, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL}).Stream(context.Background(), nil, nil)
	require.NoError(t, err)
	events := drain(t, ch)

	require.Len(t, events, 4)
	assert.Equal(t, "Sure", events[0].Text)
	assert.Equal(t, "c1", events[1].Tool.ID)
	assert.Equal(t, "Gym", events[1].Tool.Arguments["title"])
	assert.Equal(t, "c2", events[2].Tool.ID)
	assert.Nil(t, events[2].Tool.Arguments)
	assert.Equal(t, EventDone, events[3].Type)
	assert.Equal(t, &Usage{InputTokens: 9, OutputTokens: 4}, events[3].Usage)
}

func TestOpenAIStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, sse(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	ch, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL}).Stream(context.Background(), nil, nil)
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 1)
	assert.Equal(t, StreamEvent{Type: EventError, Error: "openai: quota"}, events[0])
}
