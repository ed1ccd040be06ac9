// Package mock provides a scripted provider for tests and offline runs.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoCodeAlone/dayplan/provider"
)

const defaultResponse = "Okay."

// Turn is one scripted model reply.
type Turn struct {
	Text      string
	ToolCalls []provider.ToolCall
	// Err fails the request instead of replying.
	Err error
}

// maxRecorded caps the request history kept for Requests and Tools.
const maxRecorded = 100

// Provider replays Turns in order. Once the script runs out it answers
// with a fixed text reply. It is safe for concurrent use.
type Provider struct {
	mu       sync.Mutex
	turns    []Turn
	idx      int
	requests [][]provider.Message
	tools    [][]provider.ToolDef
}

// New creates a Provider that plays the given turns.
func New(turns ...Turn) *Provider {
	return &Provider{turns: turns}
}

// Text is shorthand for a script of plain text replies.
func Text(replies ...string) *Provider {
	turns := make([]Turn, len(replies))
	for i, r := range replies {
		turns[i] = Turn{Text: r}
	}
	return New(turns...)
}

func (m *Provider) Name() string { return "mock" }

// Requests returns a copy of the conversations the provider was sent, up
// to the most recent maxRecorded.
func (m *Provider) Requests() [][]provider.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]provider.Message, len(m.requests))
	copy(out, m.requests)
	return out
}

// Tools returns the tool lists sent with each request.
func (m *Provider) Tools() [][]provider.ToolDef {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]provider.ToolDef, len(m.tools))
	copy(out, m.tools)
	return out
}

func (m *Provider) next(messages []provider.Message, tools []provider.ToolDef) Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, append([]provider.Message(nil), messages...))
	m.tools = append(m.tools, tools)
	if len(m.requests) > maxRecorded {
		m.requests = m.requests[1:]
		m.tools = m.tools[1:]
	}
	if m.idx >= len(m.turns) {
		return Turn{Text: defaultResponse}
	}
	t := m.turns[m.idx]
	m.idx++
	return t
}

func (m *Provider) Chat(ctx context.Context, messages []provider.Message, tools []provider.ToolDef) (*provider.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := m.next(messages, tools)
	if t.Err != nil {
		return nil, t.Err
	}
	return &provider.Response{
		Content:   t.Text,
		ToolCalls: t.ToolCalls,
		Usage:     provider.Usage{OutputTokens: len(t.Text)},
	}, nil
}

// Stream emits the turn's text, then each tool call, then done.
func (m *Provider) Stream(ctx context.Context, messages []provider.Message, tools []provider.ToolDef) (<-chan provider.StreamEvent, error) {
	resp, err := m.Chat(ctx, messages, tools)
	if err != nil {
		return nil, fmt.Errorf("mock stream: %w", err)
	}

	ch := make(chan provider.StreamEvent, len(resp.ToolCalls)+2)
	go func() {
		defer close(ch)
		if resp.Content != "" {
			ch <- provider.StreamEvent{Type: provider.EventText, Text: resp.Content}
		}
		for i := range resp.ToolCalls {
			call := resp.ToolCalls[i]
			ch <- provider.StreamEvent{Type: provider.EventToolCall, Tool: &call}
		}
		ch <- provider.StreamEvent{Type: provider.EventDone, Usage: &resp.Usage}
	}()
	return ch, nil
}
