// Package route resolves handler declarations into canonical route
// descriptors: a normalized path, an HTTP verb and the media type of the
// response. Resolution is done once per handler, when it's registered in a
// Table, and the result is reused for the lifetime of the handler.
package route

import (
	"errors"
	"fmt"
	"strings"

	"go.hackfix.me/parley/codec"
)

// Verb is an HTTP method a handler can be bound to.
type Verb string

// Supported verbs.
const (
	GET    Verb = "GET"
	POST   Verb = "POST"
	PUT    Verb = "PUT"
	DELETE Verb = "DELETE"
	PATCH  Verb = "PATCH"
)

// Verbs returns all supported verbs.
func Verbs() []Verb {
	return []Verb{GET, POST, PUT, DELETE, PATCH}
}

// ParseVerb returns the Verb named by s, ignoring case.
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToUpper(strings.TrimSpace(s)))
	if !v.valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownVerb, s)
	}
	return v, nil
}

func (v Verb) valid() bool {
	switch v {
	case GET, POST, PUT, DELETE, PATCH:
		return true
	}
	return false
}

// Resolution errors.
var (
	ErrNoVerb         = errors.New("handler declares no verb")
	ErrAmbiguousVerb  = errors.New("handler declares more than one verb")
	ErrUnknownVerb    = errors.New("unknown verb")
	ErrDuplicateRoute = errors.New("duplicate route")
)

// Marker binds a handler to a verb. URI is the path fragment appended to the
// root URI, and ResponseType the media type of the handler response. Both are
// optional.
type Marker struct {
	Verb         Verb
	URI          string
	ResponseType string
}

// Handler is the declaration of an endpoint handler. A valid declaration has
// exactly one Marker.
type Handler struct {
	Name    string
	Markers []Marker
}

// On returns a Handler declaration with a single marker.
func On(name string, verb Verb, uri, responseType string) Handler {
	return Handler{Name: name, Markers: []Marker{{Verb: verb, URI: uri, ResponseType: responseType}}}
}

// Descriptor identifies a resolved handler.
type Descriptor struct {
	Name         string
	URI          string
	Verb         Verb
	ResponseType string
}

// ContentType returns the response media type, defaulting to JSON.
func (d Descriptor) ContentType() string {
	if d.ResponseType == "" {
		return codec.ApplicationJSON
	}
	return d.ResponseType
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s", d.Verb, d.URI)
}

// Resolve returns the descriptor of handler h mounted under root.
func Resolve(root string, h Handler) (Descriptor, error) {
	switch len(h.Markers) {
	case 0:
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNoVerb, h.Name)
	case 1:
	default:
		verbs := make([]string, 0, len(h.Markers))
		for _, m := range h.Markers {
			verbs = append(verbs, string(m.Verb))
		}
		return Descriptor{}, fmt.Errorf("%w: %s (%s)", ErrAmbiguousVerb, h.Name, strings.Join(verbs, ", "))
	}

	m := h.Markers[0]
	if !m.Verb.valid() {
		return Descriptor{}, fmt.Errorf("%w %q: %s", ErrUnknownVerb, m.Verb, h.Name)
	}

	return Descriptor{
		Name:         h.Name,
		URI:          NormalizePath(root + "/" + m.URI),
		Verb:         m.Verb,
		ResponseType: strings.TrimSpace(m.ResponseType),
	}, nil
}

// NormalizePath collapses repeated slashes, ensures a single leading slash,
// and removes the trailing slash unless the path is the root.
func NormalizePath(p string) string {
	var sb strings.Builder
	sb.Grow(len(p) + 1)
	sb.WriteByte('/')
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		if sb.Len() > 1 {
			sb.WriteByte('/')
		}
		sb.WriteString(seg)
	}
	return sb.String()
}
