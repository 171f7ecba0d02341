package googleai

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"google.golang.org/genai"
)

var (
	ErrNoContentInResponse = errors.New("no content in generation response")
)

const (
	RoleModel = "model"
	RoleUser  = "user"
)

// GetName implements the Model interface.
func (g *GoogleAI) GetName() string {
	return g.opts.DefaultModel
}

// GetProviderType implements the Model interface.
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent implements the [llms.Model] interface.
func (g *GoogleAI) GenerateContent(
	ctx context.Context,
	messages []llms.Message,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	temperature := g.opts.DefaultTemperature
	opts := llms.CallOptions{
		Model:       g.opts.DefaultModel,
		MaxTokens:   g.opts.DefaultMaxTokens,
		Temperature: &temperature,
		TopP:        g.opts.DefaultTopP,
		TopK:        g.opts.DefaultTopK,
	}
	for _, opt := range options {
		opt(&opts)
	}

	callCfg := &genai.GenerateContentConfig{
		StopSequences:   opts.StopWords,
		CandidateCount:  1,
		MaxOutputTokens: int32(opts.MaxTokens),
		TopP:            genai.Ptr(float32(opts.TopP)),
		TopK:            genai.Ptr(float32(opts.TopK)),
	}
	if opts.Temperature != nil {
		callCfg.Temperature = genai.Ptr(float32(*opts.Temperature))
	}
	for _, category := range []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	} {
		callCfg.SafetySettings = append(callCfg.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: g.opts.HarmThreshold,
		})
	}

	system, rest := llms.SplitSystem(messages)
	if system != "" {
		callCfg.SystemInstruction = genai.NewContentFromText(system, RoleUser)
	}

	history := make([]*genai.Content, 0, len(rest))
	for _, mc := range rest {
		content, err := convertContent(mc)
		if err != nil {
			return nil, err
		}
		history = append(history, content)
	}

	resp, err := g.client.Models.GenerateContent(ctx, opts.Model, history, callCfg)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to generate content")
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrNoContentInResponse
	}
	return convertCandidates(resp.Candidates, resp.UsageMetadata), nil
}

// convertCandidates converts a sequence of genai.Candidate to a response.
func convertCandidates(candidates []*genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata) *llms.ContentResponse {
	var contentResponse llms.ContentResponse

	for _, candidate := range candidates {
		buf := strings.Builder{}
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" && !part.Thought {
					buf.WriteString(part.Text)
				}
			}
		}

		metadata := map[string]any{}
		if usage != nil {
			metadata = llms.NewGenerationInfo(
				int64(usage.PromptTokenCount),
				int64(usage.CandidatesTokenCount+usage.ThoughtsTokenCount),
			)
			metadata["TotalTokens"] = int64(usage.TotalTokenCount)
		}

		contentResponse.Choices = append(contentResponse.Choices,
			&llms.ContentChoice{
				Content:        buf.String(),
				StopReason:     string(candidate.FinishReason),
				GenerationInfo: metadata,
			})
	}
	return &contentResponse
}

// convertContent converts between a Message and genai content.
func convertContent(content llms.Message) (*genai.Content, error) {
	c := &genai.Content{
		Parts: make([]*genai.Part, 0, len(content.Parts)),
	}
	for _, p := range content.Parts {
		c.Parts = append(c.Parts, genai.NewPartFromText(p.Text))
	}

	switch content.Role {
	case llms.RoleAI:
		c.Role = RoleModel
	case llms.RoleHuman:
		c.Role = RoleUser
	default:
		return nil, errors.Errorf("role %v not supported", content.Role)
	}
	return c, nil
}
