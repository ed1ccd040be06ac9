package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 4096
	anthropicAPIVersion       = "2023-06-01"
)

// AnthropicConfig holds configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	config AnthropicConfig
}

// NewAnthropicProvider creates a new Anthropic provider with the given config.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultAnthropicMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &AnthropicProvider{config: cfg}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Stream    bool               `json:"stream,omitempty"`
}

// anthropicMessage content is always sent as blocks.
type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"` // tool_use needs {} even with no arguments
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Content []anthropicContent `json:"content"`
	Usage   anthropicUsage     `json:"usage"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, tools []ToolDef) (*Response, error) {
	resp, err := postJSON(ctx, p.config.HTTPClient, "anthropic", p.config.BaseURL+"/v1/messages", p.headers(), p.buildRequest(messages, tools, false))
	if err != nil {
		return nil, err
	}
	var apiResp anthropicResponse
	if err := decodeBody("anthropic", resp, &apiResp); err != nil {
		return nil, err
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("anthropic: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	out := &Response{Usage: Usage{InputTokens: apiResp.Usage.InputTokens, OutputTokens: apiResp.Usage.OutputTokens}}
	var text strings.Builder
	for _, item := range apiResp.Content {
		switch item.Type {
		case "text":
			text.WriteString(item.Text)
		case "tool_use":
			args, _ := item.Input.(map[string]any)
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: item.ID, Name: item.Name, Arguments: args})
		}
	}
	out.Content = text.String()
	return out, nil
}

func (p *AnthropicProvider) Stream(ctx context.Context, messages []Message, tools []ToolDef) (<-chan StreamEvent, error) {
	resp, err := postJSON(ctx, p.config.HTTPClient, "anthropic", p.config.BaseURL+"/v1/messages", p.headers(), p.buildRequest(messages, tools, true))
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamEvent, 16)
	go p.readSSE(ctx, resp.Body, ch)
	return ch, nil
}

// buildRequest maps the conversation onto Messages API turns. System text
// moves to the top-level field; consecutive tool results share one user
// turn, as the API requires.
func (p *AnthropicProvider) buildRequest(messages []Message, tools []ToolDef, stream bool) *anthropicRequest {
	req := &anthropicRequest{
		Model:     p.config.Model,
		MaxTokens: p.config.MaxTokens,
		Stream:    stream,
	}

	var system []string
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleTool:
			block := anthropicContent{Type: "tool_result", ToolUseID: msg.ToolCallID, Content: msg.Content, IsError: msg.IsError}
			if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == "user" && req.Messages[n-1].Content[0].Type == "tool_result" {
				req.Messages[n-1].Content = append(req.Messages[n-1].Content, block)
				continue
			}
			req.Messages = append(req.Messages, anthropicMessage{Role: "user", Content: []anthropicContent{block}})
		case RoleAssistant:
			var blocks []anthropicContent
			if msg.Content != "" {
				blocks = append(blocks, anthropicContent{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				input := tc.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropicContent{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			if len(blocks) > 0 {
				req.Messages = append(req.Messages, anthropicMessage{Role: "assistant", Content: blocks})
			}
		default:
			req.Messages = append(req.Messages, anthropicMessage{
				Role:    "user",
				Content: []anthropicContent{{Type: "text", Text: msg.Content}},
			})
		}
	}
	req.System = strings.Join(system, "\n\n")

	for _, t := range tools {
		req.Tools = append(req.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: toolSchema(t)})
	}
	return req
}

func (p *AnthropicProvider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.config.APIKey,
		"anthropic-version": anthropicAPIVersion,
	}
}

type anthropicStreamEvent struct {
	Type         string            `json:"type"`
	ContentBlock *anthropicContent `json:"content_block"`
	Delta        *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
	Message *struct {
		Usage anthropicUsage `json:"usage"`
	} `json:"message"`
	Usage *anthropicUsage `json:"usage"`
	Error *anthropicError `json:"error"`
}

// readSSE turns the Messages API event stream into StreamEvents. Tool
// input arrives as JSON fragments and is emitted once its block stops.
func (p *AnthropicProvider) readSSE(ctx context.Context, body io.ReadCloser, ch chan<- StreamEvent) {
	defer func() { _ = body.Close() }()
	defer close(ch)

	var (
		tool     *ToolCall
		toolJSON bytes.Buffer
		usage    Usage
		finished bool
	)
	err := scanSSE(body, func(data string) bool {
		var ev anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return true
		}
		switch ev.Type {
		case "message_start":
			if ev.Message != nil {
				usage.InputTokens = ev.Message.Usage.InputTokens
				usage.OutputTokens = ev.Message.Usage.OutputTokens
			}
		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				tool = &ToolCall{ID: ev.ContentBlock.ID, Name: ev.ContentBlock.Name}
				toolJSON.Reset()
			}
		case "content_block_delta":
			if ev.Delta == nil {
				return true
			}
			switch ev.Delta.Type {
			case "text_delta":
				return emit(ctx, ch, StreamEvent{Type: EventText, Text: ev.Delta.Text})
			case "input_json_delta":
				toolJSON.WriteString(ev.Delta.PartialJSON)
			}
		case "content_block_stop":
			if tool == nil {
				return true
			}
			if toolJSON.Len() > 0 {
				if err := json.Unmarshal(toolJSON.Bytes(), &tool.Arguments); err != nil {
					finished = true
					emit(ctx, ch, StreamEvent{Type: EventError, Error: fmt.Sprintf("anthropic: tool %q arguments: %v", tool.Name, err)})
					return false
				}
			}
			call := tool
			tool = nil
			return emit(ctx, ch, StreamEvent{Type: EventToolCall, Tool: call})
		case "message_delta":
			if ev.Usage != nil {
				usage.OutputTokens = ev.Usage.OutputTokens
			}
		case "message_stop":
			finished = true
			emit(ctx, ch, StreamEvent{Type: EventDone, Usage: &usage})
			return false
		case "error":
			finished = true
			msg := data
			if ev.Error != nil {
				msg = ev.Error.Type + ": " + ev.Error.Message
			}
			emit(ctx, ch, StreamEvent{Type: EventError, Error: "anthropic: " + msg})
			return false
		}
		return true
	})
	if finished || ctx.Err() != nil {
		return
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	emit(ctx, ch, StreamEvent{Type: EventError, Error: "anthropic: stream: " + err.Error()})
}
