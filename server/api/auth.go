package api

import (
	"net"
	"net/http"

	"github.com/GoCodeAlone/dayplan/auth"
)

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	u, err := h.Auth.Register(ctx, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, err)
		return
	}
	in.UserAgent = r.UserAgent()
	in.IPAddress = clientIP(r)

	ctx, cancel := h.reqCtx(r)
	defer cancel()
	res, err := h.Auth.Login(ctx, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	if err := h.Auth.Logout(ctx); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.reqCtx(r)
	defer cancel()
	u, err := h.Auth.Me(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
