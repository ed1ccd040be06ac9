package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to a daypland server.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// apiError is a non-2xx response.
type apiError struct {
	Status int
	Msg    string
	Fields []fieldError
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.Status, e.Msg)
	for _, f := range e.Fields {
		msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Reason)
	}
	return msg
}

// do sends body as JSON and decodes the response into v. Either may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the request and turns error statuses into *apiError. The
// caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer resp.Body.Close() //nolint:errcheck
	apiErr := &apiError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(resp.Body)
	var eb struct {
		Error  string       `json:"error"`
		Fields []fieldError `json:"fields"`
	}
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		apiErr.Msg, apiErr.Fields = eb.Error, eb.Fields
	} else {
		apiErr.Msg = strings.TrimSpace(string(raw))
	}
	return nil, apiErr
}

// streamEvent is one assistant event from /api/chat.
type streamEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Tool    string `json:"tool"`
	IsError bool   `json:"isError"`
	Error   string `json:"error"`
}

var errStreamEnded = errors.New("stream ended before done")

// chat posts one user message and calls fn for every event until done.
func (c *Client) chat(ctx context.Context, message string, fn func(streamEvent)) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": message}},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		switch ev.Type {
		case "error":
			return errors.New(ev.Error)
		case "done":
			fn(ev)
			return nil
		}
		fn(ev)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return errStreamEnded
}
