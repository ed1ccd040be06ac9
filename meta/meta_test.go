package meta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapJSONShapes(t *testing.T) {
	var m Map
	require.NoError(t, json.Unmarshal([]byte(`{"tags":["gym","health"],"effort":3,"outdoor":false,"place":{"city":"Lisbon"},"note":null}`), &m))

	tags, ok := m["tags"].AsArray()
	require.True(t, ok)
	require.Len(t, tags, 2)
	s, _ := tags[0].AsString()
	assert.Equal(t, "gym", s)

	n, ok := m["effort"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, 3.0, n)

	b, ok := m["outdoor"].AsBool()
	require.True(t, ok)
	assert.False(t, b)

	place, ok := m["place"].AsObject()
	require.True(t, ok)
	city, _ := place["city"].AsString()
	assert.Equal(t, "Lisbon", city)

	assert.True(t, m["note"].IsNull())
	assert.Equal(t, []string{"effort", "note", "outdoor", "place", "tags"}, m.Keys())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags":["gym","health"],"effort":3,"outdoor":false,"place":{"city":"Lisbon"},"note":null}`, string(out))
}

func TestMapScanAndValue(t *testing.T) {
	var m Map
	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.Empty(t, m)

	require.NoError(t, m.Scan([]byte(`{"source":"chat"}`)))
	src, _ := m["source"].AsString()
	assert.Equal(t, "chat", src)

	v, err := Map(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	v, err = Map{"done": Bool(true)}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"done":true}`, v.(string))

	assert.Error(t, m.Scan(42))
}

func TestFromAny(t *testing.T) {
	m, err := MapFromAny(map[string]any{"count": 2, "labels": []any{"a", 1.5}})
	require.NoError(t, err)
	assert.Equal(t, KindNumber, m["count"].Kind())
	assert.Equal(t, map[string]any{"count": 2.0, "labels": []any{"a", 1.5}}, m.Any())

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}
