package header_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/parley/header"
)

func TestMap_Lookup(t *testing.T) {
	t.Parallel()

	m := header.New(
		header.Pair{Key: "Content-Type", Value: "application/json"},
		header.Pair{Key: "X-Tag", Value: "a"},
		header.Pair{Key: "x-tag", Value: "b"},
	)

	tests := []struct {
		name      string
		key       string
		expValue  string
		expValues []string
		expFound  bool
	}{
		{name: "ok/exact", key: "Content-Type", expValue: "application/json",
			expValues: []string{"application/json"}, expFound: true},
		{name: "ok/lower", key: "content-type", expValue: "application/json",
			expValues: []string{"application/json"}, expFound: true},
		{name: "ok/multi", key: "X-TAG", expValue: "a", expValues: []string{"a", "b"}, expFound: true},
		{name: "ok/missing", key: "Content-Length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, ok := m.Lookup(tt.key)
			assert.Equal(t, tt.expFound, ok)
			assert.Equal(t, tt.expValue, v)
			assert.Equal(t, tt.expValues, m.Values(tt.key))
		})
	}
}

func TestMap_Order(t *testing.T) {
	t.Parallel()

	m := header.New(
		header.Pair{Key: "B", Value: "1"},
		header.Pair{Key: "a", Value: "2"},
		header.Pair{Key: "b", Value: "3"},
		header.Pair{Key: "C", Value: "4"},
	)

	assert.Equal(t, []string{"B", "a", "C"}, m.Keys())
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []header.Pair{
		{Key: "B", Value: "1"}, {Key: "B", Value: "3"},
		{Key: "a", Value: "2"}, {Key: "C", Value: "4"},
	}, m.Pairs())
}

func TestMap_ToSingleValueMap(t *testing.T) {
	t.Parallel()

	m := header.FromValues(map[string][]string{
		"Accept": {"text/plain", "application/json"},
		"Empty":  {},
	})

	assert.Equal(t, map[string]string{
		"Accept": "text/plain",
		"Empty":  "",
	}, m.ToSingleValueMap())
	assert.True(t, m.Has("empty"))
	_, ok := m.Lookup("Empty")
	assert.False(t, ok)
}

func TestMap_Immutable(t *testing.T) {
	t.Parallel()

	orig := header.New(header.Pair{Key: "A", Value: "1"})
	changed := orig.With("a", "2", "3").With("B", "4")

	assert.Equal(t, []string{"1"}, orig.Values("A"))
	assert.Equal(t, []string{"2", "3"}, changed.Values("A"))
	assert.Equal(t, []string{"A", "B"}, changed.Keys())

	vals := changed.Values("A")
	vals[0] = "mutated"
	assert.Equal(t, "2", changed.Get("A"))

	removed := changed.Without("A")
	assert.False(t, removed.Has("a"))
	assert.True(t, changed.Has("a"))
}

func TestMap_HTTP(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Add("Content-Length", "27")
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	m := header.FromHTTP(h)
	assert.Equal(t, []string{"Content-Length", "Set-Cookie"}, m.Keys())
	assert.Equal(t, "27", m.Get("content-length"))

	back := m.HTTP()
	require.Len(t, back["Set-Cookie"], 2)
	assert.Equal(t, h, back)
}

func TestMap_Nil(t *testing.T) {
	t.Parallel()

	var m *header.Map
	assert.Equal(t, "", m.Get("A"))
	assert.False(t, m.Has("A"))
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.ToSingleValueMap())
	assert.Equal(t, []string{"1"}, m.With("A", "1").Values("a"))
}

func TestMediaType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/json", header.MediaType("application/json; charset=utf-8"))
	assert.Equal(t, "text/plain", header.MediaType(" text/plain "))
	assert.Equal(t, "", header.MediaType(""))
	assert.Equal(t, "application/json",
		header.New(header.Pair{Key: "content-type", Value: "application/json;charset=UTF-8"}).MediaType())
}
