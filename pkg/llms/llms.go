package llms

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrEmptyResponse is returned when the model produced no choices
var ErrEmptyResponse = errors.New("no response from model")

// ProviderType is the type of provider.
type ProviderType string

const (
	// ProviderAnthropic is Anthropic Messages API.
	ProviderAnthropic ProviderType = "ANTHROPIC"
	// ProviderBedrock is AWS Bedrock runtime.
	ProviderBedrock ProviderType = "BEDROCK"
	// ProviderGoogleAI is Gemini API.
	ProviderGoogleAI ProviderType = "GOOGLEAI"
	// ProviderOpenAI is OpenAI Responses API.
	ProviderOpenAI ProviderType = "OPENAI"
)

// ParseProviderType returns the provider type, case insensitive
func ParseProviderType(s string) (ProviderType, error) {
	pt := ProviderType(strings.ToUpper(strings.TrimSpace(s)))
	switch pt {
	case ProviderAnthropic, ProviderBedrock, ProviderGoogleAI, ProviderOpenAI:
		return pt, nil
	}
	return "", errors.Newf("unsupported provider: %q", s)
}

// Model is an interface text models implement.
type Model interface {
	// GetName returns the model name.
	GetName() string
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GenerateContent asks the model to generate content from a sequence of
	// messages.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}
