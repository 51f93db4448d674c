package client

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
	"time"

	"go.hackfix.me/parley/header"
)

// DecodePolicy selects how a response body is decoded when the request
// declares no expected type for the response status code.
type DecodePolicy int

const (
	// Permissive decodes the body as text, then tries to decode that text
	// into a map[string]any, keeping the text if that fails.
	Permissive DecodePolicy = iota
	// Typed decodes only into declared types, and returns the body text
	// otherwise.
	Typed
)

func (p DecodePolicy) valid() bool {
	return p == Permissive || p == Typed
}

func (p DecodePolicy) String() string {
	switch p {
	case Permissive:
		return "permissive"
	case Typed:
		return "typed"
	default:
		return fmt.Sprintf("DecodePolicy(%d)", int(p))
	}
}

// ParseDecodePolicy parses the name of a decode policy.
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch strings.ToLower(s) {
	case "", "permissive":
		return Permissive, nil
	case "typed":
		return Typed, nil
	default:
		return 0, fmt.Errorf("unknown decode policy %q", s)
	}
}

// Type describes the Go type a response body is decoded into.
type Type struct {
	rt reflect.Type
}

// TypeOf returns the Type descriptor for T.
func TypeOf[T any]() Type {
	return Type{rt: reflect.TypeFor[T]()}
}

// IsZero reports whether t describes no type.
func (t Type) IsZero() bool {
	return t.rt == nil
}

func (t Type) String() string {
	if t.rt == nil {
		return "<infer>"
	}
	return t.rt.String()
}

// newTarget returns a pointer to a new zero value of the type.
func (t Type) newTarget() any {
	return reflect.New(t.rt).Interface()
}

// RequestEntity holds the optional headers and body of a request.
type RequestEntity struct {
	Header *header.Map
	Body   any
}

// Request describes a single outbound transaction. Request values are
// immutable: every With method returns a modified copy.
type Request struct {
	Method string
	URL    string
	Entity *RequestEntity
	// ResponseTypes maps expected status codes to the type their body is
	// decoded into.
	ResponseTypes map[int]Type
	// ConnectTimeout and ReadTimeout override the client defaults when > 0.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	policy *DecodePolicy
}

// NewRequest returns a new Request for the given method and absolute URL.
func NewRequest(method, url string) Request {
	return Request{Method: strings.ToUpper(method), URL: url}
}

func (r Request) clone() Request {
	c := r
	c.ResponseTypes = maps.Clone(r.ResponseTypes)
	if r.Entity != nil {
		e := *r.Entity
		c.Entity = &e
	}
	return c
}

func (r Request) entity() RequestEntity {
	if r.Entity == nil {
		return RequestEntity{}
	}
	return *r.Entity
}

// WithEntity sets the request headers and body.
func (r Request) WithEntity(e RequestEntity) Request {
	c := r.clone()
	c.Entity = &e
	return c
}

// WithHeader sets a request header, replacing existing values.
func (r Request) WithHeader(key, value string) Request {
	e := r.entity()
	e.Header = e.Header.With(key, value)
	return r.WithEntity(e)
}

// WithBody sets the request body.
func (r Request) WithBody(body any) Request {
	e := r.entity()
	e.Body = body
	return r.WithEntity(e)
}

// Expect declares the type the body of a response with status code is
// decoded into.
func (r Request) Expect(code int, t Type) Request {
	c := r.clone()
	if c.ResponseTypes == nil {
		c.ResponseTypes = make(map[int]Type)
	}
	c.ResponseTypes[code] = t
	return c
}

// WithConnectTimeout overrides the client connect timeout.
func (r Request) WithConnectTimeout(d time.Duration) Request {
	c := r.clone()
	c.ConnectTimeout = d
	return c
}

// WithReadTimeout overrides the client read timeout.
func (r Request) WithReadTimeout(d time.Duration) Request {
	c := r.clone()
	c.ReadTimeout = d
	return c
}

// WithDecodePolicy overrides the client decode policy.
func (r Request) WithDecodePolicy(p DecodePolicy) Request {
	c := r.clone()
	c.policy = &p
	return c
}

// ResponseEntity is the result of a completed exchange.
type ResponseEntity struct {
	StatusCode int
	Header     *header.Map
	// Body is the decoded body, or nil if the response had no content.
	Body any
}
