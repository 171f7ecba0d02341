package bedrockclient

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/pkg/llms"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html

// anthropicTextGenerationInputContent is a single content block in the input.
type anthropicTextGenerationInputContent struct {
	// The type of the content. Required.
	// Only "text" is used
	Type string `json:"type"`
	// The text content. Required if type is "text"
	Text string `json:"text"`
}

type anthropicTextGenerationInputMessage struct {
	// The role of the message. Required
	// One of: ["user", "assistant"]
	// For system prompt, use the system field in the input
	Role string `json:"role"`
	// The content of the message. Required
	Content []anthropicTextGenerationInputContent `json:"content"`
}

// anthropicTextGenerationInput is the input to the model.
type anthropicTextGenerationInput struct {
	// The version of the model to use. Required
	AnthropicVersion string `json:"anthropic_version"`
	// The maximum number of tokens to generate per result. Required
	MaxTokens int `json:"max_tokens"`
	// The system prompt to use. Optional
	System string `json:"system,omitempty"`
	// The messages to use. Required
	Messages []*anthropicTextGenerationInputMessage `json:"messages"`
	// The amount of randomness injected into the response. Optional, default = 1
	// Zero is a valid value and must be sent.
	Temperature *float64 `json:"temperature,omitempty"`
	// The probability mass from which tokens are sampled. Optional, default = 1
	TopP float64 `json:"top_p,omitempty"`
	// Only sample from the top K options for each subsequent token.
	// Optional, default = 250
	TopK int `json:"top_k,omitempty"`
	// Sequences that will cause the model to stop generating tokens. Optional
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// anthropicTextGenerationOutputContent represents a content block in the output
type anthropicTextGenerationOutputContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// anthropicTextGenerationOutput is the generated output.
type anthropicTextGenerationOutput struct {
	// Type of the content.
	// For messages, it is "message"
	Type string `json:"type"`
	// Conversational role of the generated message.
	// This will always be "assistant".
	Role string `json:"role"`
	// This is an array of content blocks, each of which has a type that determines its shape.
	Content []anthropicTextGenerationOutputContent `json:"content"`
	// The reason for the completion of the generation.
	// One of: ["end_turn", "max_tokens", "stop_sequence", "tool_use"]
	StopReason string `json:"stop_reason"`
	// Which custom stop sequence was matched, if any.
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

// Finish reason for the completion of the generation.
const (
	AnthropicCompletionReasonEndTurn      = "end_turn"
	AnthropicCompletionReasonMaxTokens    = "max_tokens"
	AnthropicCompletionReasonStopSequence = "stop_sequence"
)

// The latest version of the model.
const (
	AnthropicLatestVersion = "bedrock-2023-05-31"
)

// Role attribute for the anthropic message.
const (
	AnthropicRoleUser      = "user"
	AnthropicRoleAssistant = "assistant"
)

// AnthropicMessageTypeText is the type of text content
const AnthropicMessageTypeText = "text"

// DefaultMaxTokens is used when max tokens is not specified
const DefaultMaxTokens = 2048

func createAnthropicCompletion(ctx context.Context,
	client InvokeModelAPI,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	inputContents, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	input := anthropicTextGenerationInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        getMaxTokens(options.MaxTokens, DefaultMaxTokens),
		System:           systemPrompt,
		Messages:         inputContents,
		Temperature:      options.Temperature,
		TopP:             options.TopP,
		TopK:             options.TopK,
		StopSequences:    options.StopWords,
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	modelInput := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
		Body:        body,
	}
	resp, err := client.InvokeModel(ctx, modelInput)
	if err != nil {
		return nil, errors.Wrapf(err, "bedrock: failed to invoke model %s", modelID)
	}

	var output anthropicTextGenerationOutput
	err = json.Unmarshal(resp.Body, &output)
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to decode response")
	}

	if len(output.Content) == 0 {
		return nil, llms.ErrEmptyResponse
	}

	var text string
	for _, c := range output.Content {
		if c.Type == AnthropicMessageTypeText {
			text += c.Text
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        text,
				StopReason:     output.StopReason,
				GenerationInfo: llms.NewGenerationInfo(output.Usage.InputTokens, output.Usage.OutputTokens),
			},
		},
	}, nil
}

// processInputMessagesAnthropic returns the messages and the system prompt.
// Consecutive messages of the same role are merged into one message.
func processInputMessagesAnthropic(messages []Message) ([]*anthropicTextGenerationInputMessage, string, error) {
	var system string
	list := make([]*anthropicTextGenerationInputMessage, 0, len(messages))
	var last *anthropicTextGenerationInputMessage

	for _, m := range messages {
		var role string
		switch m.Role {
		case llms.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += m.Content
			continue
		case llms.RoleHuman:
			role = AnthropicRoleUser
		case llms.RoleAI:
			role = AnthropicRoleAssistant
		default:
			return nil, "", errors.Wrapf(llms.ErrUnexpectedRole, "role %q", m.Role)
		}

		content := anthropicTextGenerationInputContent{
			Type: AnthropicMessageTypeText,
			Text: m.Content,
		}
		if last != nil && last.Role == role {
			last.Content = append(last.Content, content)
			continue
		}
		last = &anthropicTextGenerationInputMessage{
			Role:    role,
			Content: []anthropicTextGenerationInputContent{content},
		}
		list = append(list, last)
	}

	if len(list) == 0 {
		return nil, "", errors.New("bedrock: no messages to send")
	}
	if list[0].Role != AnthropicRoleUser {
		return nil, "", errors.New("bedrock: the first message must be from the user")
	}
	return list, system, nil
}
