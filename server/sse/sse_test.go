package sse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noFlush struct{ http.ResponseWriter }

func TestStream(t *testing.T) {
	rec := httptest.NewRecorder()
	s, err := Start(rec)
	require.NoError(t, err)

	require.NoError(t, s.Send(map[string]string{"type": "connected"}))
	require.NoError(t, s.SendRaw([]byte("a\nb")))
	require.NoError(t, s.Ping())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "data: {\"type\":\"connected\"}\n\ndata: a\ndata: b\n\n: ping\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestStartRequiresFlusher(t *testing.T) {
	_, err := Start(noFlush{httptest.NewRecorder()})
	assert.ErrorIs(t, err, ErrUnsupported)
}
