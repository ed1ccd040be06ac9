package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/GoCodeAlone/dayplan/assistant"
	"github.com/GoCodeAlone/dayplan/auth"
	"github.com/GoCodeAlone/dayplan/comms"
	"github.com/GoCodeAlone/dayplan/server/sse"
)

const defaultHeartbeat = 25 * time.Second

type chatRequest struct {
	Messages []assistant.ChatMessage `json:"messages"`
}

// chat streams the assistant's answer to the conversation as SSE events.
func (h *Handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}
	conv, err := assistant.Conversation(req.Messages)
	if err != nil {
		h.fail(w, err)
		return
	}
	if h.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	stream, err := sse.Start(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	err = h.Assistant.Run(r.Context(), conv, func(ev assistant.Event) error {
		return stream.Send(ev)
	})
	if err == nil || r.Context().Err() != nil {
		return
	}

	msg := "assistant failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "assistant timed out"
	}
	h.Logger.Error("chat failed", slog.Any("err", err))
	_ = stream.Send(assistant.Event{Type: assistant.EventError, Error: msg})
}

type changeEvent struct {
	Type string `json:"type"`
	*comms.Event
}

// events streams the caller's change events. ?replay=N first sends the N
// most recent events from history.
func (h *Handlers) events(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	replay := 0
	if raw := r.URL.Query().Get("replay"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "replay must be a non-negative integer")
			return
		}
		replay = n
	}

	ch := make(chan *comms.Event, 64)
	unsubscribe := h.Bus.Subscribe(p.UserID, func(_ context.Context, ev *comms.Event) error {
		select {
		case ch <- ev:
		default:
			h.Logger.Warn("dropping event for slow client", slog.String("user", p.UserID))
		}
		return nil
	})
	defer unsubscribe()

	stream, err := sse.Start(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := stream.Send(map[string]string{"type": "connected"}); err != nil {
		return
	}
	if replay > 0 {
		past, err := h.Bus.History(p.UserID, replay)
		if err != nil {
			h.Logger.Error("event history", slog.Any("err", err))
		}
		for _, ev := range past {
			if err := stream.Send(changeEvent{Type: "change", Event: ev}); err != nil {
				return
			}
		}
	}

	interval := h.Heartbeat
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			if err := stream.Send(changeEvent{Type: "change", Event: ev}); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.Ping(); err != nil {
				return
			}
		}
	}
}
