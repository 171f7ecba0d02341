package anthropic

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/x/values"
)

var (
	ErrMissingToken           = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
	ErrUnsupportedMessageType = errors.New("anthropic: unsupported message type")
)

const (
	DefaultMaxTokens = 4096
	DefaultTimeout   = 5 * time.Minute
)

type LLM struct {
	Client  *anthropic.Client
	Options *Options
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Anthropic LLM client using the official Anthropic SDK.
//
// If no token is provided via options, it will attempt to read the API key
// from the ANTHROPIC_API_KEY environment variable.
func New(opts ...Option) (*LLM, error) {
	options := &Options{
		Token:      os.Getenv(TokenEnvVarName),
		BaseURL:    "https://api.anthropic.com",
		HttpClient: http.DefaultClient,
		MaxRetries: 2,
		Timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	if options.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	return &LLM{
		Client:  newClient(options),
		Options: options,
	}, nil
}

func newClient(options *Options) *anthropic.Client {
	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
		option.WithMaxRetries(options.MaxRetries),
		option.WithRequestTimeout(options.Timeout),
	}
	if options.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(options.BaseURL))
	}
	if options.HttpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(options.HttpClient))
	}

	client := anthropic.NewClient(sdkOpts...)
	return &client
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(o.Options.Model, options...)

	sdkMessages, systemPrompt, err := ProcessMessages(messages)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		Messages:  sdkMessages,
		MaxTokens: values.NumbersCoalesce(int64(opts.MaxTokens), DefaultMaxTokens),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if opts.TopK > 0 {
		params.TopK = anthropic.Int(int64(opts.TopK))
	}
	if len(opts.StopWords) > 0 {
		params.StopSequences = opts.StopWords
	}

	result, err := o.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to create message")
	}

	var text string
	for _, block := range result.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	if len(result.Content) == 0 {
		return nil, llms.ErrEmptyResponse
	}

	info := llms.NewGenerationInfo(result.Usage.InputTokens, result.Usage.OutputTokens)
	info["ID"] = result.ID

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        text,
				StopReason:     string(result.StopReason),
				GenerationInfo: info,
			},
		},
	}, nil
}

// ProcessMessages converts messages to Anthropic SDK message parameters,
// and returns the system prompt separately.
func ProcessMessages(messages []llms.Message) ([]anthropic.MessageParam, string, error) {
	systemPrompt, rest := llms.SplitSystem(messages)

	chatMessages := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		}

		switch msg.Role {
		case llms.RoleHuman:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(blocks...))
		case llms.RoleAI:
			chatMessages = append(chatMessages, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, "", errors.WithMessagef(ErrUnsupportedMessageType, "role %q", msg.Role)
		}
	}
	return chatMessages, systemPrompt, nil
}
