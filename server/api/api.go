// Package api implements the REST and streaming handlers of the dayplan
// HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoCodeAlone/dayplan/assistant"
	"github.com/GoCodeAlone/dayplan/auth"
	"github.com/GoCodeAlone/dayplan/comms"
	"github.com/GoCodeAlone/dayplan/internal/version"
	"github.com/GoCodeAlone/dayplan/planner"
)

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Planner   *planner.Service
	Auth      *auth.Service
	Assistant *assistant.Orchestrator
	Bus       comms.Bus
	Logger    *slog.Logger
	StartedAt time.Time
	// RequestTimeout bounds non-streaming handlers; zero means no limit.
	RequestTimeout time.Duration
	// Heartbeat is the idle ping interval of /api/events.
	Heartbeat time.Duration
}

// RegisterPublic registers the routes that need no session.
func (h *Handlers) RegisterPublic(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/version", h.version)
}

// RegisterRoutes registers the routes that require a principal in the
// request context.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("GET /api/auth/me", h.me)

	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)

	mux.HandleFunc("GET /api/plans", h.listPlans)
	mux.HandleFunc("POST /api/plans", h.createPlan)
	mux.HandleFunc("GET /api/plans/{id}", h.getPlan)
	mux.HandleFunc("PATCH /api/plans/{id}", h.updatePlan)
	mux.HandleFunc("DELETE /api/plans/{id}", h.deletePlan)

	mux.HandleFunc("POST /api/plans/{id}/blocks", h.addBlock)
	mux.HandleFunc("GET /api/plans/{id}/blocks/{blockId}", h.getBlock)
	mux.HandleFunc("PATCH /api/plans/{id}/blocks/{blockId}", h.updateBlock)
	mux.HandleFunc("DELETE /api/plans/{id}/blocks/{blockId}", h.deleteBlock)

	mux.HandleFunc("GET /api/activity", h.activity)
	mux.HandleFunc("POST /api/chat", h.chat)
	mux.HandleFunc("GET /api/events", h.events)
}

// reqCtx applies RequestTimeout to a non-streaming request.
func (h *Handlers) reqCtx(r *http.Request) (context.Context, context.CancelFunc) {
	if h.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.RequestTimeout)
}

// --- Status / version ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": version.Version,
	}
	if !h.StartedAt.IsZero() {
		body["uptime"] = time.Since(h.StartedAt).Round(time.Second).String()
	}
	if h.Assistant != nil {
		body["provider"] = h.Assistant.ProviderName()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.BuildDate,
	})
}
