package core

import (
	"context"
	"strings"

	"github.com/eskrenkovic/mediator-go"
)

type Validator interface {
	Validate() error
}

type ValidationError struct {
	ValidationErrors []error
}

func (e ValidationError) Error() string {
	var b strings.Builder
	for i, err := range e.ValidationErrors {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("'")
		b.WriteString(err.Error())
		b.WriteString("'")
	}
	return b.String()
}

// Validate runs every check and collects the failures into a ValidationError.
func Validate(checks ...error) error {
	var failed []error
	for _, err := range checks {
		if err != nil {
			failed = append(failed, err)
		}
	}

	if len(failed) == 0 {
		return nil
	}

	return ValidationError{ValidationErrors: failed}
}

var _ mediator.PipelineBehavior = (*RequestValidationBehavior)(nil)

type RequestValidationBehavior struct{}

func (b *RequestValidationBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	if request, ok := request.(Validator); ok {
		if err := request.Validate(); err != nil {
			return nil, NewCommandError(
				CodeValidationFailed,
				"request validation failed: "+err.Error(),
				WithCause(err),
			)
		}
	}

	return next(ctx, request)
}
