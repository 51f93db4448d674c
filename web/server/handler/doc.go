// Package handler contains helpers to assemble HTTP handler implementations
// from typed endpoint functions. The request body is decoded and the response
// body encoded with the converters of a codec.Registry, negotiated from the
// request Content-Type and the response type of the route, so endpoint
// functions only implement logic that is unique to each route.
//
// It is similar in principle to HTTP middlewares, but using a more structured
// approach with separate components and more useful types.
package handler
