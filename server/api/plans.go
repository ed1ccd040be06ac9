package api

import (
	"net/http"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/planner"
)

func (h *Handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	var f apperr.Fields
	in := planner.ListPlansInput{IsTemplate: queryBool(&f, r, "isTemplate")}
	queryInt(&f, r, "limit", &in.Limit)
	queryInt(&f, r, "offset", &in.Offset)
	if err := f.Err(); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := h.reqCtx(r)
	defer cancel()
	plans, err := h.Planner.ListPlans(ctx, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	if plans == nil {
		plans = []planner.PlanSummary{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *Handlers) createPlan(w http.ResponseWriter, r *http.Request) {
	var in plan.CreateInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.CreatePlan(ctx, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) getPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	p, err := h.Planner.GetPlan(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) updatePlan(w http.ResponseWriter, r *http.Request) {
	var in plan.UpdateInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.UpdatePlan(ctx, r.PathValue("id"), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) deletePlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.DeletePlan(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Blocks ---

func (h *Handlers) addBlock(w http.ResponseWriter, r *http.Request) {
	var in plan.BlockInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.AddBlock(ctx, r.PathValue("id"), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) getBlock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	b, err := h.Planner.GetBlock(ctx, r.PathValue("id"), r.PathValue("blockId"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) updateBlock(w http.ResponseWriter, r *http.Request) {
	var in plan.BlockUpdateInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.UpdateBlock(ctx, r.PathValue("id"), r.PathValue("blockId"), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) deleteBlock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Planner.DeleteBlock(ctx, r.PathValue("id"), r.PathValue("blockId"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
