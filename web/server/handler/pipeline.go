package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// RequestProcessor processes incoming requests before the request body is
// decoded, and can modify the context.
type RequestProcessor func(ctx context.Context, r *http.Request) (context.Context, error)

// Pipeline defines the processing stages for HTTP requests and responses.
// It provides a fluent interface for configuring serialization, validation
// and processors.
type Pipeline struct {
	serializer         Serializer
	validate           *validator.Validate
	errorLevel         ErrorLevel
	logger             *slog.Logger
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// NewPipeline creates a new pipeline that decodes and encodes bodies with s.
func NewPipeline(s Serializer) *Pipeline {
	return &Pipeline{
		serializer: s,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		errorLevel: ErrorLevelFull,
		logger:     slog.Default(),
	}
}

// Validator replaces the validator of decoded request bodies. A nil validator
// disables struct tag validation.
func (p *Pipeline) Validator(v *validator.Validate) *Pipeline {
	p.validate = v
	return p
}

// ErrorLevel sets the detail level of error messages returned to clients.
func (p *Pipeline) ErrorLevel(lvl ErrorLevel) *Pipeline {
	p.errorLevel = lvl
	return p
}

// Logger sets the logger used to report failed requests.
func (p *Pipeline) Logger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// ProcessRequest adds one or more request processors to the pipeline.
func (p *Pipeline) ProcessRequest(processor ...RequestProcessor) *Pipeline {
	p.requestProcessors = append(p.requestProcessors, processor...)
	return p
}

// ProcessResponse adds one or more response processors to the pipeline.
func (p *Pipeline) ProcessResponse(processor ...ResponseProcessor) *Pipeline {
	p.responseProcessors = append(p.responseProcessors, processor...)
	return p
}
