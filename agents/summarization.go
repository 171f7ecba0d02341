package agents

import (
	"context"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/xlog"
)

const (
	// SummarizationToolName is the name of the summarization tool
	SummarizationToolName = "summarize_text"
	// SummarizationPrompt is the default prompt, it receives `text`
	SummarizationPrompt = "Please provide a concise, high-level summary of the following text.\n\n<text>{{.text}}</text>"
)

// SummarizationAgent creates a concise summary of a long piece of text
type SummarizationAgent struct {
	textAgent
}

var _ Agent = (*SummarizationAgent)(nil)

// NewSummarizationAgent returns the summarization agent
func NewSummarizationAgent(llm llms.Model, opts ...Option) *SummarizationAgent {
	return &SummarizationAgent{
		textAgent: newTextAgent(llm,
			SummarizationToolName,
			"Create a concise summary of a long piece of text",
			"Use this tool to create a concise summary of a long piece of text. The input is the text to summarize.",
			SummarizationPrompt,
			[]Option{WithMaxTokens(1024), WithTemperature(0)},
			opts,
		),
	}
}

// Execute returns the summary of the text,
// or the error text prefixed with `Error: `
func (a *SummarizationAgent) Execute(ctx context.Context, text string) string {
	res, _ := a.TryExecute(ctx, text)
	return res
}

// TryExecute returns the same text as Execute, and the error replaced by it
func (a *SummarizationAgent) TryExecute(ctx context.Context, text string) (string, error) {
	res, err := a.run(ctx, a, text)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"agent", a.Name(),
			"err", err.Error(),
		)
		return "Error: " + err.Error(), err
	}
	return res, nil
}
