package openai

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/llms/openai/internal/openaiclient"
	"github.com/effective-security/x/values"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
)

var (
	ErrEmptyResponse = openaiclient.ErrEmptyResponse
	ErrMissingToken  = errors.New("missing the OpenAI API key, set it in the OPENAI_API_KEY environment variable")
)

type LLM struct {
	client *openaiclient.Client
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	c, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client: c,
	}, nil
}

func newClient(opts ...Option) (*openaiclient.Client, error) {
	options := &options{
		token:        os.Getenv(tokenEnvVarName),
		model:        os.Getenv(modelEnvVarName),
		baseURL:      os.Getenv(baseURLEnvVarName),
		organization: os.Getenv(organizationEnvVarName),
		provider:     ProviderOpenAI,
	}
	for _, opt := range opts {
		opt(options)
	}

	if len(options.token) == 0 {
		return nil, ErrMissingToken
	}
	if openaiclient.IsAzure(options.provider) {
		if options.model == "" {
			return nil, errors.New("openai: model is required for Azure")
		}
		options.apiVersion = values.StringsCoalesce(options.apiVersion, DefaultAPIVersion)
	}

	return openaiclient.New(options.provider, options.model, options.token, options.baseURL,
		options.organization, options.apiVersion, options.httpClient), nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return values.StringsCoalesce(o.client.Model, openaiclient.DefaultChatModel)
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(o.client.Model, options...)

	system, rest := llms.SplitSystem(messages)
	input := make(responses.ResponseInputParam, 0, len(rest))
	for _, m := range rest {
		var role responses.EasyInputMessageRole
		switch m.Role {
		case llms.RoleHuman:
			role = responses.EasyInputMessageRoleUser
		case llms.RoleAI:
			role = responses.EasyInputMessageRoleAssistant
		default:
			return nil, errors.Errorf("role %v not supported", m.Role)
		}
		input = append(input, responses.ResponseInputItemParamOfMessage(m.GetContent(), role))
	}

	req := &responses.ResponseNewParams{
		Model: opts.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
	}
	if system != "" {
		req.Instructions = param.NewOpt(system)
	}
	if opts.MaxTokens > 0 {
		req.MaxOutputTokens = param.NewOpt(int64(opts.MaxTokens))
	}
	if opts.Temperature != nil {
		req.Temperature = param.NewOpt(*opts.Temperature)
	}
	if opts.TopP > 0 {
		req.TopP = param.NewOpt(opts.TopP)
	}

	result, err := o.client.CreateResponse(ctx, req)
	if err != nil {
		return nil, errors.WithMessage(err, "openai")
	}

	info := llms.NewGenerationInfo(result.Usage.InputTokens, result.Usage.OutputTokens)
	info["ID"] = result.ID
	info["ReasoningTokens"] = result.Usage.OutputTokensDetails.ReasoningTokens

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        result.OutputText(),
				StopReason:     string(result.Status),
				GenerationInfo: info,
			},
		},
	}, nil
}
