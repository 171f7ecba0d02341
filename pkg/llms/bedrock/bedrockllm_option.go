package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Models supported by the Anthropic messages API on Bedrock
const (
	ModelAnthropicClaude35SonnetV1 = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	ModelAnthropicClaude35SonnetV2 = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	ModelAnthropicClaude35HaikuV1  = "anthropic.claude-3-5-haiku-20241022-v1:0"
	ModelAnthropicClaude3HaikuV1   = "anthropic.claude-3-haiku-20240307-v1:0"
)

// DefaultRegion is used when the region is not configured
const DefaultRegion = "us-east-1"

// InvokeModelAPI is the part of bedrockruntime.Client used by the LLM
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Option is an option for the Bedrock LLM.
type Option func(*options)

type options struct {
	modelID      string
	region       string
	profile      string
	accessKey    string
	secretKey    string
	sessionToken string
	maxAttempts  int
	client       InvokeModelAPI
}

// WithModel allows setting a custom modelId.
//
// If not set, the default model is used
// i.e. "anthropic.claude-3-5-sonnet-20240620-v1:0".
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithClient allows setting a custom bedrockruntime.Client.
//
// You may use this to pass a custom bedrockruntime.Client
// with custom configuration options
// such as setting custom credentials, region, endpoint, etc.
//
// By default, a new client will be created using the default credentials chain.
func WithClient(client InvokeModelAPI) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithRegion sets the AWS region of the default client
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithProfile sets the shared config profile of the default client
func WithProfile(profile string) Option {
	return func(o *options) {
		o.profile = profile
	}
}

// WithCredentials sets static credentials of the default client
func WithCredentials(accessKey, secretKey, sessionToken string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
		o.sessionToken = sessionToken
	}
}

// WithMaxAttempts sets the retry attempts of the default client
func WithMaxAttempts(attempts int) Option {
	return func(o *options) {
		o.maxAttempts = attempts
	}
}
