package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string              `json:"error"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// WriteErr maps err onto a status code. Errors outside the apperr set are
// logged and reported as a bare 500.
func WriteErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: ve.Fields})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	WriteErr(w, h.Logger, err)
}

// decode reads a JSON body into v. Malformed input is a validation error
// on the "body" field.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperr.Invalid("body", "is required")
	case errors.As(err, &tooLarge):
		return apperr.Invalid("body", "is too large")
	default:
		return apperr.Invalid("body", "invalid json")
	}
}

// queryInt parses an optional integer query parameter into dst.
func queryInt(f *apperr.Fields, r *http.Request, name string, dst *int) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		f.Add(name, "must be a non-negative integer")
		return
	}
	*dst = n
}

// queryBool parses an optional boolean query parameter.
func queryBool(f *apperr.Fields, r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		f.Add(name, "must be true or false")
		return nil
	}
	return &b
}
