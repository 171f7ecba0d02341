// Package encoding decodes structured model replies.
package encoding

import (
	"github.com/cockroachdb/errors"
	jsonenc "github.com/effective-security/bedrocktools/encoding/json"
	yamlenc "github.com/effective-security/bedrocktools/encoding/yaml"
)

// ErrFailedUnmarshalOutput is returned when the model reply can not be decoded
var ErrFailedUnmarshalOutput = errors.New("failed to unmarshal output")

// SchemaEncoder describes the reply format to the model and decodes the reply
type SchemaEncoder interface {
	Marshal(req any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the wrapped message with message schema for the prompt
	GetFormatInstructions() string
}

// Validator validates the decoded value
type Validator interface {
	Validate(any) error
}

// Mode is the reply format
type Mode = string

const (
	ModeJSON Mode = "json"
	ModeYAML Mode = "yaml"
)

// ModeDefault is the default mode for the encoder.
var ModeDefault = ModeJSON

// PredefinedSchemaEncoder returns the encoder for the mode
func PredefinedSchemaEncoder(mode Mode, req any) (SchemaEncoder, error) {
	switch mode {
	case ModeJSON, "":
		return jsonenc.NewEncoder(req)
	case ModeYAML:
		return yamlenc.NewEncoder(req).WithComments(true), nil
	}
	return nil, errors.Newf("no predefined encoder: %q", mode)
}

var (
	_ SchemaEncoder = (*jsonenc.Encoder)(nil)
	_ SchemaEncoder = (*yamlenc.Encoder)(nil)
	_ Validator     = (*jsonenc.Encoder)(nil)
	_ Validator     = (*yamlenc.Encoder)(nil)
)
