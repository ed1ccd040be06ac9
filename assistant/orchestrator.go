package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoCodeAlone/dayplan/auth"
	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/plugin"
	"github.com/GoCodeAlone/dayplan/provider"
)

const (
	DefaultMaxSteps = 5
	DefaultTimeout  = 30 * time.Second
)

// Event types streamed to the client.
const (
	EventText       = "text"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventDone       = "done"
	EventError      = "error"
)

// Event is one item of the assistant's response stream.
type Event struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	CallID    string         `json:"callId,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    any            `json:"result,omitempty"`
	IsError   bool           `json:"isError,omitempty"`
	Error     string         `json:"error,omitempty"`
	Steps     int            `json:"steps,omitempty"`
	// Truncated is set on done when the step limit or the loop guard cut
	// the run short. Reason says which.
	Truncated bool   `json:"truncated,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ChatMessage is a conversation turn as the client sends it.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes an Orchestrator. Zero values take the defaults.
type Options struct {
	MaxSteps int
	Timeout  time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Orchestrator drives one model conversation per call to Run.
type Orchestrator struct {
	provider provider.Provider
	registry *plugin.Registry
	maxSteps int
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New builds an Orchestrator that offers every tool in reg to p.
func New(p provider.Provider, reg *plugin.Registry, opts Options) *Orchestrator {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		provider: p,
		registry: reg,
		maxSteps: opts.MaxSteps,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// ProviderName reports which model backend is in use.
func (o *Orchestrator) ProviderName() string { return o.provider.Name() }

// Conversation validates client turns and converts them for the provider.
// Only user and assistant turns are accepted and the last one must come
// from the user.
func Conversation(in []ChatMessage) ([]provider.Message, error) {
	var fields apperr.Fields
	if len(in) == 0 {
		fields.Add("messages", "is required")
		return nil, fields.Err()
	}
	out := make([]provider.Message, 0, len(in))
	for i, m := range in {
		prefix := fmt.Sprintf("messages[%d]", i)
		role := provider.Role(strings.ToLower(strings.TrimSpace(m.Role)))
		if role != provider.RoleUser && role != provider.RoleAssistant {
			fields.Add(apperr.Path(prefix, "role"), "must be user or assistant")
		}
		if strings.TrimSpace(m.Content) == "" {
			fields.Add(apperr.Path(prefix, "content"), "is required")
		}
		out = append(out, provider.Message{Role: role, Content: m.Content})
	}
	if last := out[len(out)-1]; last.Role != provider.RoleUser {
		fields.Add(fmt.Sprintf("messages[%d].role", len(out)-1), "last message must be from the user")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Run answers conversation, calling emit for every event. The principal in
// ctx is the user the tools act for. Run ends after a done event, or
// returns an error without emitting one; the caller reports it.
func (o *Orchestrator) Run(ctx context.Context, conversation []provider.Message, emit func(Event) error) error {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]provider.Message, 0, len(conversation)+1)
	messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: Instructions(o.now())})
	messages = append(messages, conversation...)
	defs := o.registry.AllDefs()
	var guard loopGuard

	for step := 1; step <= o.maxSteps; step++ {
		text, calls, err := o.turn(ctx, messages, defs, emit)
		if err != nil {
			return err
		}
		if len(calls) == 0 {
			return emit(Event{Type: EventDone, Steps: step})
		}

		messages = append(messages, provider.Message{Role: provider.RoleAssistant, Content: text, ToolCalls: calls})
		for _, tc := range calls {
			result, content, isError := o.execute(ctx, p, tc)
			messages = append(messages, provider.Message{
				Role:       provider.RoleTool,
				Content:    content,
				ToolCallID: tc.ID,
				IsError:    isError,
			})
			ev := Event{Type: EventToolResult, CallID: tc.ID, Tool: tc.Name, Result: result, IsError: isError}
			if isError {
				ev.Error = content
			}
			if err := emit(ev); err != nil {
				return err
			}
			guard.record(tc.Name, tc.Arguments, content, isError)
		}
		if reason := guard.check(); reason != "" {
			o.logger.Warn("assistant loop stopped", slog.String("user", p.UserID), slog.String("reason", reason))
			return emit(Event{Type: EventDone, Steps: step, Truncated: true, Reason: reason})
		}
	}

	o.logger.Warn("assistant step limit reached", slog.String("user", p.UserID), slog.Int("max_steps", o.maxSteps))
	return emit(Event{Type: EventDone, Steps: o.maxSteps, Truncated: true, Reason: "step limit reached"})
}

// turn streams one model reply, forwarding text and tool calls as they
// arrive.
func (o *Orchestrator) turn(ctx context.Context, messages []provider.Message, defs []provider.ToolDef, emit func(Event) error) (string, []provider.ToolCall, error) {
	streamCtx, stop := context.WithCancel(ctx)
	defer stop()
	ch, err := o.provider.Stream(streamCtx, messages, defs)
	if err != nil {
		return "", nil, o.abort(ctx, err)
	}

	var (
		text  strings.Builder
		calls []provider.ToolCall
		done  bool
		fail  error
	)
	for ev := range ch {
		if fail != nil || done {
			continue
		}
		switch ev.Type {
		case provider.EventText:
			text.WriteString(ev.Text)
			fail = emit(Event{Type: EventText, Text: ev.Text})
		case provider.EventToolCall:
			if ev.Tool == nil {
				continue
			}
			calls = append(calls, *ev.Tool)
			fail = emit(Event{Type: EventToolCall, CallID: ev.Tool.ID, Tool: ev.Tool.Name, Arguments: ev.Tool.Arguments})
		case provider.EventDone:
			done = true
		case provider.EventError:
			fail = fmt.Errorf("%s: %s", o.provider.Name(), ev.Error)
		}
		if fail != nil {
			stop()
		}
	}
	if fail != nil {
		return "", nil, o.abort(ctx, fail)
	}
	if !done {
		return "", nil, o.abort(ctx, fmt.Errorf("%s: stream ended early", o.provider.Name()))
	}
	return text.String(), calls, nil
}

// abort prefers the context's error so a timeout reads as one.
func (o *Orchestrator) abort(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("assistant: %w", ctxErr)
	}
	return fmt.Errorf("assistant: %w", err)
}

// execute runs one tool call for p. Failures become an error result the
// model can read; internal failures are logged and hidden.
func (o *Orchestrator) execute(ctx context.Context, p auth.Principal, tc provider.ToolCall) (any, string, bool) {
	result, err := o.registry.Execute(auth.WithPrincipal(ctx, p), tc.Name, tc.Arguments)
	if err != nil {
		return nil, "Error: " + o.toolError(tc, err), true
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, "Error: " + o.toolError(tc, err), true
	}
	return result, string(data), false
}

func (o *Orchestrator) toolError(tc provider.ToolCall, err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrUnauthorized),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, plugin.ErrUnknownTool):
		return err.Error()
	}
	if _, ok := apperr.AsValidation(err); ok {
		return err.Error()
	}
	o.logger.Error("tool failed", slog.String("tool", tc.Name), slog.Any("err", err))
	return "internal error"
}
