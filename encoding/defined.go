package encoding

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// TypedOutputParser parses output from an LLM into Go structs.
// The format instructions describe T to the model,
// struct tags `json`, `yaml` and `jsonschema:"description=..."` are honored.
type TypedOutputParser[T any] struct {
	enc      SchemaEncoder
	name     string
	validate bool
}

// NewTypedOutputParser creates an output parser for the type and the reply mode.
func NewTypedOutputParser[T any](sourceType T, mode Mode) (*TypedOutputParser[T], error) {
	enc, err := PredefinedSchemaEncoder(mode, sourceType)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create encoder")
	}

	return &TypedOutputParser[T]{
		enc:  enc,
		name: fmt.Sprintf("%T parser", sourceType),
	}, nil
}

// WithValidation enables validation of the decoded value
func (p *TypedOutputParser[T]) WithValidation(validate bool) *TypedOutputParser[T] {
	p.validate = validate
	return p
}

// Parse parses the output of an LLM call.
func (p *TypedOutputParser[T]) Parse(text string) (*T, error) {
	var target T
	if err := p.enc.Unmarshal([]byte(text), &target); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to decode"), ErrFailedUnmarshalOutput)
	}
	if validator, ok := p.enc.(Validator); ok && p.validate {
		if err := validator.Validate(target); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to validate"), ErrFailedUnmarshalOutput)
		}
	}
	return &target, nil
}

// GetFormatInstructions returns a string describing the format of the output.
func (p *TypedOutputParser[T]) GetFormatInstructions() string {
	return p.enc.GetFormatInstructions()
}

// Type returns the string type key uniquely identifying this class of parser
func (p *TypedOutputParser[T]) Type() string {
	return p.name
}
