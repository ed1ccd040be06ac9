package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErr(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Invalid("title", "is required"), http.StatusBadRequest, "validation failed"},
		{"unauthorized", fmt.Errorf("bad token: %w", apperr.ErrUnauthorized), http.StatusUnauthorized, "bad token: unauthorized"},
		{"not found", apperr.NotFound("task"), http.StatusNotFound, "task not found"},
		{"conflict", fmt.Errorf("email taken: %w", apperr.ErrConflict), http.StatusConflict, "email taken: already exists"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			rec := httptest.NewRecorder()
			WriteErr(rec, slog.New(slog.NewTextHandler(&logs, nil)), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body.Error)
			assert.NotContains(t, rec.Body.String(), "disk on fire")
			assert.Equal(t, tc.status == http.StatusInternalServerError, strings.Contains(logs.String(), "disk on fire"))
		})
	}
}

func TestWriteErrIncludesFields(t *testing.T) {
	var f apperr.Fields
	f.Add("blocks[0].endTs", "must be after startTs")
	f.Add("title", "is required")

	rec := httptest.NewRecorder()
	WriteErr(rec, nil, f.Err())

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Fields, 2)
	assert.Equal(t, "blocks[0].endTs", body.Fields[0].Field)
}

func TestDecode(t *testing.T) {
	var v map[string]any
	decodeBody := func(body string) error {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return decode(httptest.NewRecorder(), r, &v)
	}

	require.NoError(t, decodeBody(`{"a":1}`))
	cases := []struct{ body, reason string }{
		{"", "is required"},
		{"{", "invalid json"},
		{`{"a":"` + strings.Repeat("x", maxBodyBytes) + `"}`, "is too large"},
	}
	for _, tc := range cases {
		ve, ok := apperr.AsValidation(decodeBody(tc.body))
		require.True(t, ok)
		assert.Equal(t, []apperr.FieldError{{Field: "body", Reason: tc.reason}}, ve.Fields)
	}
}

func TestQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&offset=x&flag=true&bad=yes", nil)
	var f apperr.Fields
	limit, offset := 0, 0
	queryInt(&f, r, "limit", &limit)
	queryInt(&f, r, "offset", &offset)
	flag := queryBool(&f, r, "flag")
	assert.Nil(t, queryBool(&f, r, "bad"))
	assert.Nil(t, queryBool(&f, r, "missing"))

	assert.Equal(t, 5, limit)
	require.NotNil(t, flag)
	assert.True(t, *flag)
	ve, ok := apperr.AsValidation(f.Err())
	require.True(t, ok)
	assert.Len(t, ve.Fields, 2)
}
