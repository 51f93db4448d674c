// Package header implements an ordered, multi-valued string map used for HTTP
// headers and form parameters.
//
// Keys are matched case-insensitively. The spelling of a key the first time it
// is seen is the one kept for iteration and output. A Map is immutable after
// construction; methods that change it return a new Map.
package header

import (
	"net/http"
	"slices"
	"strings"
)

// Common header names.
const (
	ContentType   = "Content-Type"
	ContentLength = "Content-Length"
	Accept        = "Accept"
	RequestID     = "X-Request-Id"
)

// Pair is a single key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Map is an ordered mapping of keys to one or more values.
type Map struct {
	entries []entry
	index   map[string]int
}

type entry struct {
	key    string
	values []string
}

// New creates a Map from a sequence of pairs. Repeated keys accumulate
// values in the order given.
func New(pairs ...Pair) *Map {
	m := &Map{index: make(map[string]int, len(pairs))}
	for _, p := range pairs {
		m.add(p.Key, p.Value)
	}
	return m
}

// FromValues creates a Map from a prebuilt mapping. Keys are inserted in
// sorted order, so the result is deterministic.
func FromValues(values map[string][]string) *Map {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	m := &Map{index: make(map[string]int, len(values))}
	for _, k := range keys {
		for _, v := range values[k] {
			m.add(k, v)
		}
		if len(values[k]) == 0 {
			m.ensure(k)
		}
	}
	return m
}

// FromHTTP creates a Map from an http.Header.
func FromHTTP(h http.Header) *Map {
	return FromValues(h)
}

func (m *Map) ensure(key string) int {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	lk := strings.ToLower(key)
	if i, ok := m.index[lk]; ok {
		return i
	}
	m.entries = append(m.entries, entry{key: key})
	m.index[lk] = len(m.entries) - 1
	return len(m.entries) - 1
}

func (m *Map) add(key, value string) {
	i := m.ensure(key)
	m.entries[i].values = append(m.entries[i].values, value)
}

// Get returns the first value associated with key, or an empty string.
func (m *Map) Get(key string) string {
	v, _ := m.Lookup(key)
	return v
}

// Lookup returns the first value associated with key, and whether the key was
// present with at least one value.
func (m *Map) Lookup(key string) (string, bool) {
	vals := m.Values(key)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Values returns a copy of all values associated with key.
func (m *Map) Values(key string) []string {
	if m == nil {
		return nil
	}
	i, ok := m.index[strings.ToLower(key)]
	if !ok {
		return nil
	}
	return slices.Clone(m.entries[i].values)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[strings.ToLower(key)]
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Len returns the number of distinct keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// ToSingleValueMap collapses the Map to one value per key. The first value
// wins.
func (m *Map) ToSingleValueMap() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for _, e := range m.entries {
		if len(e.values) > 0 {
			out[e.key] = e.values[0]
		} else {
			out[e.key] = ""
		}
	}
	return out
}

// Pairs returns all entries flattened in order.
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	var pairs []Pair
	for _, e := range m.entries {
		for _, v := range e.values {
			pairs = append(pairs, Pair{Key: e.key, Value: v})
		}
	}
	return pairs
}

// With returns a copy of the Map where key is set to the given values,
// replacing any existing values. A new key is appended at the end.
func (m *Map) With(key string, values ...string) *Map {
	c := m.Clone()
	i := c.ensure(key)
	c.entries[i].values = slices.Clone(values)
	return c
}

// Without returns a copy of the Map with key removed.
func (m *Map) Without(key string) *Map {
	c := New()
	if m == nil {
		return c
	}
	lk := strings.ToLower(key)
	for _, e := range m.entries {
		if strings.ToLower(e.key) == lk {
			continue
		}
		i := c.ensure(e.key)
		c.entries[i].values = slices.Clone(e.values)
	}
	return c
}

// Clone returns a deep copy of the Map.
func (m *Map) Clone() *Map {
	c := &Map{index: make(map[string]int, m.Len())}
	if m == nil {
		return c
	}
	for _, e := range m.entries {
		i := c.ensure(e.key)
		c.entries[i].values = slices.Clone(e.values)
	}
	return c
}

// HTTP converts the Map into an http.Header. Keys are canonicalized.
func (m *Map) HTTP() http.Header {
	h := make(http.Header, m.Len())
	if m == nil {
		return h
	}
	for _, e := range m.entries {
		for _, v := range e.values {
			h.Add(e.key, v)
		}
	}
	return h
}

// MediaType returns the Content-Type value stripped of any parameters and
// surrounding whitespace.
func (m *Map) MediaType() string {
	return MediaType(m.Get(ContentType))
}

// MediaType strips parameters such as charset from a Content-Type value.
func MediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}
