package route

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, exp string
	}{
		{"", "/"},
		{"/", "/"},
		{"///", "/"},
		{"api", "/api"},
		{"/api/", "/api"},
		{"//api//users//", "/api/users"},
		{"/api/users/{id}", "/api/users/{id}"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("ok/%q", tt.in), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, NormalizePath(tt.in))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		root    string
		handler Handler
		expDesc Descriptor
		expErr  error
	}{
		{
			name:    "ok/trailing_fragment",
			root:    "/api",
			handler: On("users", GET, "/users/", ""),
			expDesc: Descriptor{Name: "users", URI: "/api/users", Verb: GET},
		},
		{
			name:    "ok/trailing_root",
			root:    "/api/",
			handler: On("users", GET, "users", ""),
			expDesc: Descriptor{Name: "users", URI: "/api/users", Verb: GET},
		},
		{
			name:    "ok/empty_fragment",
			root:    "/api",
			handler: On("index", POST, "", "text/plain"),
			expDesc: Descriptor{Name: "index", URI: "/api", Verb: POST, ResponseType: "text/plain"},
		},
		{
			name:    "ok/root_only",
			root:    "",
			handler: On("root", DELETE, "/", ""),
			expDesc: Descriptor{Name: "root", URI: "/", Verb: DELETE},
		},
		{
			name:    "err/no_verb",
			root:    "/api",
			handler: Handler{Name: "bare"},
			expErr:  ErrNoVerb,
		},
		{
			name: "err/ambiguous",
			root: "/api",
			handler: Handler{Name: "both", Markers: []Marker{
				{Verb: GET, URI: "/a"}, {Verb: PUT, URI: "/a"},
			}},
			expErr: ErrAmbiguousVerb,
		},
		{
			name:    "err/unknown_verb",
			root:    "/api",
			handler: On("trace", Verb("TRACE"), "/t", ""),
			expErr:  ErrUnknownVerb,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := Resolve(tt.root, tt.handler)
			if tt.expErr != nil {
				require.ErrorIs(t, err, tt.expErr)
				assert.Equal(t, Descriptor{}, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expDesc, d)

			again, err := Resolve(tt.root, tt.handler)
			require.NoError(t, err)
			assert.Equal(t, d, again)
		})
	}
}

func TestDescriptorContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/json", Descriptor{}.ContentType())
	assert.Equal(t, "text/plain", Descriptor{ResponseType: "text/plain"}.ContentType())
	assert.Equal(t, "GET /x", Descriptor{Verb: GET, URI: "/x"}.String())
}

func TestParseVerb(t *testing.T) {
	t.Parallel()

	v, err := ParseVerb(" patch ")
	require.NoError(t, err)
	assert.Equal(t, PATCH, v)

	_, err = ParseVerb("HEAD")
	require.ErrorIs(t, err, ErrUnknownVerb)
	assert.EqualError(t, err, `unknown verb "HEAD"`)

	assert.Len(t, Verbs(), 5)
}

func TestTable(t *testing.T) {
	t.Parallel()

	newTable := func() *Table {
		return NewTable("/api/", slog.New(slog.DiscardHandler))
	}

	t.Run("ok/order_and_cache", func(t *testing.T) {
		t.Parallel()
		tbl := newTable()
		assert.Equal(t, "/api", tbl.Root())

		d1, err := tbl.Register(On("list", GET, "users", ""))
		require.NoError(t, err)
		d2, err := tbl.Register(On("create", POST, "users", ""))
		require.NoError(t, err)

		// Registered names are never resolved again.
		cached, err := tbl.Register(On("list", PUT, "other", ""))
		require.NoError(t, err)
		assert.Equal(t, d1, cached)

		assert.Equal(t, []Descriptor{d1, d2}, tbl.Descriptors())
		assert.Equal(t, 2, tbl.Len())

		got, ok := tbl.Lookup("create")
		require.True(t, ok)
		assert.Equal(t, d2, got)
		_, ok = tbl.Lookup("missing")
		assert.False(t, ok)
	})

	t.Run("err/duplicate_route", func(t *testing.T) {
		t.Parallel()
		tbl := newTable()
		_, err := tbl.Register(On("a", GET, "/users/", ""))
		require.NoError(t, err)

		_, err = tbl.Register(On("b", GET, "users", ""))
		require.ErrorIs(t, err, ErrDuplicateRoute)
		assert.EqualError(t, err, `duplicate route GET /api/users: already bound to "a"`)
		assert.Equal(t, 1, tbl.Len())
	})

	t.Run("err/resolve", func(t *testing.T) {
		t.Parallel()
		tbl := newTable()
		_, err := tbl.Register(Handler{Name: "bare"})
		require.ErrorIs(t, err, ErrNoVerb)
		assert.Zero(t, tbl.Len())
	})

	t.Run("ok/descriptors_copy", func(t *testing.T) {
		t.Parallel()
		tbl := newTable()
		_, err := tbl.Register(On("a", GET, "a", ""))
		require.NoError(t, err)

		ds := tbl.Descriptors()
		ds[0].URI = "/changed"
		assert.Equal(t, "/api/a", tbl.Descriptors()[0].URI)
	})

	t.Run("ok/concurrent", func(t *testing.T) {
		t.Parallel()
		tbl := newTable()
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := tbl.Register(On(fmt.Sprintf("h%d", i), GET, fmt.Sprintf("/r/%d", i), ""))
				assert.NoError(t, err)
				_ = tbl.Descriptors()
			}()
		}
		wg.Wait()
		assert.Equal(t, 20, tbl.Len())
	})
}
