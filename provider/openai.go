package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com"
	defaultOpenAIModel     = "gpt-4o"
	defaultOpenAIMaxTokens = 4096
)

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// OpenAIProvider implements Provider using the Chat Completions API. Any
// compatible endpoint works through BaseURL.
type OpenAIProvider struct {
	config OpenAIConfig
}

// NewOpenAIProvider creates a new OpenAI provider with the given config.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultOpenAIMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &OpenAIProvider{config: cfg}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	Tools     []openaiTool    `json:"tools,omitempty"`
	Stream    bool            `json:"stream,omitempty"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
}

type openaiToolCall struct {
	Index    int                `json:"index,omitempty"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function openaiToolCallFunc `json:"function"`
}

type openaiToolCallFunc struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"` // JSON string
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function openaiToolFunc `json:"function"`
}

type openaiToolFunc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openaiResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      openaiMessage `json:"message"`
		Delta        openaiMessage `json:"delta"`
		FinishReason *string       `json:"finish_reason"`
	} `json:"choices"`
	Usage *openaiUsage `json:"usage"`
	Error *openaiError `json:"error,omitempty"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openaiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, tools []ToolDef) (*Response, error) {
	resp, err := postJSON(ctx, p.config.HTTPClient, "openai", p.config.BaseURL+"/v1/chat/completions", p.headers(), p.buildRequest(messages, tools, false))
	if err != nil {
		return nil, err
	}
	var apiResp openaiResponse
	if err := decodeBody("openai", resp, &apiResp); err != nil {
		return nil, err
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("openai: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	out := &Response{}
	if apiResp.Usage != nil {
		out.Usage = Usage{InputTokens: apiResp.Usage.PromptTokens, OutputTokens: apiResp.Usage.CompletionTokens}
	}
	if len(apiResp.Choices) == 0 {
		return out, nil
	}
	msg := apiResp.Choices[0].Message
	if msg.Content != nil {
		out.Content = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		args, err := decodeArguments(tc.Function.Name, tc.Function.Arguments)
		if err != nil {
			return nil, err
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, tools []ToolDef) (<-chan StreamEvent, error) {
	req := p.buildRequest(messages, tools, true)
	resp, err := postJSON(ctx, p.config.HTTPClient, "openai", p.config.BaseURL+"/v1/chat/completions", p.headers(), req)
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamEvent, 16)
	go p.readSSE(ctx, resp.Body, ch)
	return ch, nil
}

// buildRequest keeps system messages inline. Assistant turns replay their
// tool calls so the following tool results have something to answer.
func (p *OpenAIProvider) buildRequest(messages []Message, tools []ToolDef, stream bool) *openaiRequest {
	req := &openaiRequest{
		Model:     p.config.Model,
		MaxTokens: p.config.MaxTokens,
		Stream:    stream,
	}
	for _, msg := range messages {
		content := msg.Content
		m := openaiMessage{Role: string(msg.Role), Content: &content}
		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
		case RoleAssistant:
			if content == "" && len(msg.ToolCalls) > 0 {
				m.Content = nil
			}
			for _, tc := range msg.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				if tc.Arguments == nil {
					args = []byte("{}")
				}
				m.ToolCalls = append(m.ToolCalls, openaiToolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: openaiToolCallFunc{Name: tc.Name, Arguments: string(args)},
				})
			}
		}
		req.Messages = append(req.Messages, m)
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openaiTool{
			Type:     "function",
			Function: openaiToolFunc{Name: t.Name, Description: t.Description, Parameters: toolSchema(t)},
		})
	}
	return req
}

func (p *OpenAIProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.config.APIKey}
}

func decodeArguments(name, raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("openai: tool %q arguments: %w", name, err)
	}
	return args, nil
}

// readSSE turns chat completion chunks into StreamEvents. Tool call
// fragments are keyed by index and emitted in index order at [DONE].
func (p *OpenAIProvider) readSSE(ctx context.Context, body io.ReadCloser, ch chan<- StreamEvent) {
	defer func() { _ = body.Close() }()
	defer close(ch)

	type pendingCall struct {
		id, name string
		args     strings.Builder
	}
	pending := map[int]*pendingCall{}
	var usage *Usage
	finished := false

	err := scanSSE(body, func(data string) bool {
		if data == "[DONE]" {
			finished = true
			indexes := make([]int, 0, len(pending))
			for i := range pending {
				indexes = append(indexes, i)
			}
			sort.Ints(indexes)
			for _, i := range indexes {
				pc := pending[i]
				args, err := decodeArguments(pc.name, pc.args.String())
				if err != nil {
					emit(ctx, ch, StreamEvent{Type: EventError, Error: err.Error()})
					return false
				}
				if !emit(ctx, ch, StreamEvent{Type: EventToolCall, Tool: &ToolCall{ID: pc.id, Name: pc.name, Arguments: args}}) {
					return false
				}
			}
			emit(ctx, ch, StreamEvent{Type: EventDone, Usage: usage})
			return false
		}

		var chunk openaiResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return true
		}
		if chunk.Error != nil {
			finished = true
			emit(ctx, ch, StreamEvent{Type: EventError, Error: "openai: " + chunk.Error.Message})
			return false
		}
		if chunk.Usage != nil {
			usage = &Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}
		}
		if len(chunk.Choices) == 0 {
			return true
		}
		delta := chunk.Choices[0].Delta
		for _, tc := range delta.ToolCalls {
			pc, ok := pending[tc.Index]
			if !ok {
				pc = &pendingCall{}
				pending[tc.Index] = pc
			}
			if tc.ID != "" {
				pc.id = tc.ID
			}
			if tc.Function.Name != "" {
				pc.name = tc.Function.Name
			}
			pc.args.WriteString(tc.Function.Arguments)
		}
		if delta.Content != nil && *delta.Content != "" {
			return emit(ctx, ch, StreamEvent{Type: EventText, Text: *delta.Content})
		}
		return true
	})
	if finished || ctx.Err() != nil {
		return
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	emit(ctx, ch, StreamEvent{Type: EventError, Error: "openai: stream: " + err.Error()})
}
