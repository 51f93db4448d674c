package route

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Table holds the descriptors of all registered handlers, in registration
// order. Each handler is resolved once, when it's registered.
type Table struct {
	root   string
	logger *slog.Logger

	mx      sync.RWMutex
	entries []Descriptor
	byName  map[string]int
	byRoute map[string]int
}

// NewTable returns an empty Table that mounts handlers under root.
func NewTable(root string, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		root:    NormalizePath(root),
		logger:  logger.With("component", "route-table"),
		byName:  make(map[string]int),
		byRoute: make(map[string]int),
	}
}

// Root returns the root URI handlers are mounted under.
func (t *Table) Root() string {
	return t.root
}

// Register resolves h and stores its descriptor. Registering a handler whose
// name was already registered returns the cached descriptor without
// resolving it again. Two handlers can't be bound to the same verb and URI.
func (t *Table) Register(h Handler) (Descriptor, error) {
	t.mx.Lock()
	defer t.mx.Unlock()

	if h.Name != "" {
		if i, ok := t.byName[h.Name]; ok {
			return t.entries[i], nil
		}
	}

	d, err := Resolve(t.root, h)
	if err != nil {
		return Descriptor{}, err
	}

	key := d.String()
	if i, ok := t.byRoute[key]; ok {
		return Descriptor{}, fmt.Errorf("%w %s: already bound to %q",
			ErrDuplicateRoute, key, t.entries[i].Name)
	}

	t.entries = append(t.entries, d)
	idx := len(t.entries) - 1
	t.byRoute[key] = idx
	if h.Name != "" {
		t.byName[h.Name] = idx
	}

	t.logger.Debug("registered route", "name", d.Name, "verb", d.Verb,
		"uri", d.URI, "response_type", d.ContentType())

	return d, nil
}

// Lookup returns the descriptor of the handler registered with name.
func (t *Table) Lookup(name string) (Descriptor, bool) {
	t.mx.RLock()
	defer t.mx.RUnlock()
	i, ok := t.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return t.entries[i], true
}

// Descriptors returns a copy of all descriptors, in registration order.
func (t *Table) Descriptors() []Descriptor {
	t.mx.RLock()
	defer t.mx.RUnlock()
	return slices.Clone(t.entries)
}

// Len returns the number of registered handlers.
func (t *Table) Len() int {
	t.mx.RLock()
	defer t.mx.RUnlock()
	return len(t.entries)
}
