package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/llms/bedrock/internal/bedrockclient"
	"github.com/effective-security/x/values"
)

// DefaultModel is used when the model is not specified
const DefaultModel = ModelAnthropicClaude35SonnetV1

// LLM is a Bedrock LLM implementation.
type LLM struct {
	modelID string
	client  *bedrockclient.Client
}

// New creates a new Bedrock LLM implementation.
func New(opts ...Option) (*LLM, error) {
	o, c, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client:  c,
		modelID: o.modelID,
	}, nil
}

func newClient(opts ...Option) (*options, *bedrockclient.Client, error) {
	options := &options{
		modelID: DefaultModel,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.client == nil {
		cfg, err := config.LoadDefaultConfig(context.Background(), loadOptions(options)...)
		if err != nil {
			return options, nil, errors.Wrap(err, "bedrock: failed to load AWS config")
		}
		options.client = bedrockruntime.NewFromConfig(cfg)
	}

	return options, bedrockclient.NewClient(options.client), nil
}

func loadOptions(o *options) []func(*config.LoadOptions) error {
	list := []func(*config.LoadOptions) error{
		config.WithRegion(values.StringsCoalesce(o.region, DefaultRegion)),
	}
	if o.profile != "" {
		list = append(list, config.WithSharedConfigProfile(o.profile))
	}
	if o.accessKey != "" && o.secretKey != "" {
		list = append(list, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.accessKey, o.secretKey, o.sessionToken)))
	}
	if o.maxAttempts > 0 {
		list = append(list, config.WithRetryMaxAttempts(o.maxAttempts))
	}
	return list
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(l.modelID, options...)

	res, err := l.client.CreateCompletion(ctx, opts.Model, processMessages(messages), opts)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func processMessages(messages []llms.Message) []bedrockclient.Message {
	bedrockMsgs := make([]bedrockclient.Message, 0, len(messages))
	for _, m := range messages {
		for _, part := range m.Parts {
			bedrockMsgs = append(bedrockMsgs, bedrockclient.Message{
				Role:    m.Role,
				Content: part.Text,
			})
		}
	}
	return bedrockMsgs
}

var _ llms.Model = (*LLM)(nil)
