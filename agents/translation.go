package agents

import (
	"context"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/xlog"
)

const (
	// TranslationToolName is the name of the translation tool
	TranslationToolName = "translate_to_french"
	// TranslationPrompt is the default prompt, it receives `text`
	TranslationPrompt = "Translate the following English text into French. Provide only the French translation.\n\n<english_text>{{.text}}</english_text>"
)

// TranslationAgent translates English text into French
type TranslationAgent struct {
	textAgent
}

var _ Agent = (*TranslationAgent)(nil)

// NewTranslationAgent returns the translation agent
func NewTranslationAgent(llm llms.Model, opts ...Option) *TranslationAgent {
	return &TranslationAgent{
		textAgent: newTextAgent(llm,
			TranslationToolName,
			"Translate English text into French",
			"Use this tool to translate English text into the French language. The input is the English text to translate.",
			TranslationPrompt,
			[]Option{WithMaxTokens(2048), WithTemperature(0.3)},
			opts,
		),
	}
}

// Execute returns the French translation,
// or the error text prefixed with `Translation error: `
func (a *TranslationAgent) Execute(ctx context.Context, text string) string {
	res, _ := a.TryExecute(ctx, text)
	return res
}

// TryExecute returns the same text as Execute, and the error replaced by it
func (a *TranslationAgent) TryExecute(ctx context.Context, text string) (string, error) {
	res, err := a.run(ctx, a, text)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"agent", a.Name(),
			"err", err.Error(),
		)
		return "Translation error: " + err.Error(), err
	}
	return res, nil
}
