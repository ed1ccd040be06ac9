package api

import (
	"net/http"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/planner"
	"github.com/GoCodeAlone/dayplan/task"
)

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	var f apperr.Fields
	in := planner.ListTasksInput{Status: r.URL.Query().Get("status")}
	if b := queryBool(&f, r, "includeDeleted"); b != nil {
		in.IncludeDeleted = *b
	}
	queryInt(&f, r, "limit", &in.Limit)
	queryInt(&f, r, "offset", &in.Offset)
	if err := f.Err(); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := h.reqCtx(r)
	defer cancel()
	tasks, err := h.Planner.ListTasks(ctx, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	if tasks == nil {
		tasks = []planner.TaskSummary{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var in task.CreateInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.CreateTask(ctx, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	t, err := h.Planner.GetTask(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	var in task.UpdateInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.UpdateTask(ctx, r.PathValue("id"), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.DeleteTask(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) activity(w http.ResponseWriter, r *http.Request) {
	var f apperr.Fields
	limit := 50
	queryInt(&f, r, "limit", &limit)
	if err := f.Err(); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	entries, err := h.Planner.Activity(ctx, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
