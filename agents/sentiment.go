package agents

import (
	"context"
	"strings"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/xlog"
)

const (
	// SentimentToolName is the name of the sentiment tool
	SentimentToolName = "analyze_sentiment"
	// SentimentPrompt is the default prompt, it receives `text`
	SentimentPrompt = "Analyze the sentiment of the following text. Respond with only one word: POSITIVE, NEGATIVE, or NEUTRAL.\n\n<text>{{.text}}</text>"
)

// Sentiment labels
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// SentimentAgent classifies the sentiment of text
type SentimentAgent struct {
	textAgent
}

var _ Agent = (*SentimentAgent)(nil)

// NewSentimentAgent returns the sentiment agent
func NewSentimentAgent(llm llms.Model, opts ...Option) *SentimentAgent {
	return &SentimentAgent{
		textAgent: newTextAgent(llm,
			SentimentToolName,
			"Determine the sentiment (POSITIVE, NEGATIVE, or NEUTRAL) of text",
			"Use this tool to determine the sentiment (POSITIVE, NEGATIVE, or NEUTRAL) of a piece of text. The input is the text to analyze.",
			SentimentPrompt,
			[]Option{WithMaxTokens(50), WithTemperature(0.1)},
			opts,
		),
	}
}

// Execute returns one of POSITIVE, NEGATIVE or NEUTRAL.
// Any other reply of the model, and any error, is NEUTRAL.
func (a *SentimentAgent) Execute(ctx context.Context, text string) string {
	res, _ := a.TryExecute(ctx, text)
	return res
}

// TryExecute returns the same label as Execute,
// and the error when NEUTRAL stands for a failed call.
func (a *SentimentAgent) TryExecute(ctx context.Context, text string) (string, error) {
	res, err := a.run(ctx, a, text)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"agent", a.Name(),
			"err", err.Error(),
		)
		return SentimentNeutral, err
	}
	return ParseSentiment(res), nil
}

// ParseSentiment returns the sentiment label of the model reply
func ParseSentiment(reply string) string {
	label := strings.ToUpper(strings.TrimSpace(reply))
	switch label {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return label
	}
	return SentimentNeutral
}
