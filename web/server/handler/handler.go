package handler

import (
	"context"
	"errors"
	"net/http"
	"reflect"

	"go.hackfix.me/parley/route"
)

// Func is an endpoint function. req is the decoded request body, or the zero
// value of Req if the request has no body.
type Func[Req, Resp any] func(ctx context.Context, r *http.Request, req Req) (Resp, error)

// Handle creates an HTTP handler function for the route d that processes
// requests through a configurable pipeline. The request body is decoded into
// a new Req, validated, and passed to fn. The value fn returns is encoded in
// the response type of d.
//
//nolint:gocognit // The complexity is a bit high, but refactoring this would hurt legibility.
func Handle[Req, Resp any](d route.Descriptor, fn Func[Req, Resp], p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ctx = withRoute(r.Context(), d)
			req Req
			res = &Result{Header: http.Header{}}
			err error
		)

		handleErr := errorHandler(res, p)

		// Response handling is deferred, since it should happen in both success and
		// error scenarios.
		defer func() {
			// 5. Response serialization
			if ctx, err = p.serializer.Serialize(ctx, d.ContentType(), res); handleErr(err) {
				ctx = setResponseData(ctx, nil)
			}

			// 6. Response processing
			for _, process := range p.responseProcessors {
				ctx, err = process(ctx, res)
				if handleErr(err) {
					break
				}
			}

			// 7. Write the response
			if err = writeResponse(ctx, w, res); err != nil {
				p.logger.Error("failed writing response", "route", d.String(), "error", err.Error())
			}
		}()

		// 1. Request processing
		for _, process := range p.requestProcessors {
			if ctx, err = process(ctx, r); handleErr(err) {
				return
			}
		}

		// 2. Request deserialization
		if ctx, err = p.serializer.Deserialize(ctx, r, &req); handleErr(err) {
			return
		}

		// 3. Request validation
		if err = p.validateRequest(req); handleErr(err) {
			return
		}

		// 4. Run the handler
		resp, handlerErr := fn(ctx, r.WithContext(ctx), req)
		if handleErr(handlerErr) {
			return
		}
		setResult(res, resp)
	}
}

func (p *Pipeline) validateRequest(req any) error {
	if reqV, ok := req.(interface{ Validate() error }); ok {
		if err := reqV.Validate(); err != nil {
			return NewError(http.StatusBadRequest, err.Error())
		}
	}

	if p.validate == nil || !isStruct(req) {
		return nil
	}
	if err := p.validate.Struct(req); err != nil {
		return NewError(http.StatusBadRequest, err.Error())
	}

	return nil
}

func setResult(res *Result, resp any) {
	switch v := resp.(type) {
	case *Result:
		if v == nil {
			return
		}
		res.StatusCode = v.StatusCode
		res.Body = v.Body
		for k, vals := range v.Header {
			res.Header[k] = vals
		}
	case Result:
		setResult(res, &v)
	default:
		res.StatusCode = http.StatusOK
		res.Body = resp
	}
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func errorHandler(res *Result, p *Pipeline) func(error) bool {
	return func(err error) bool {
		if err == nil {
			return false
		}

		// Ensure that response handlers have a valid HTTP error and status code.
		var herr *Error
		switch {
		case !errors.As(err, &herr) || herr == nil:
			herr = NewError(http.StatusInternalServerError, err.Error())
		case herr.StatusCode == 0:
			herr = NewError(http.StatusInternalServerError, herr.Message)
		}

		if herr.StatusCode >= http.StatusInternalServerError {
			p.logger.Error("request failed", "status_code", herr.StatusCode, "error", err.Error())
		}

		res.StatusCode = herr.StatusCode
		res.Err = sanitizeError(herr, p.errorLevel)
		return true
	}
}
