package agents

import (
	"context"

	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/prompts"
)

// textAgent runs one prompt with `text` input variable
type textAgent struct {
	name              string
	description       string
	routerDescription string
	runner            *Runner
}

func newTextAgent(llm llms.Model, name, description, routerDescription, defaultPrompt string, defaults []Option, opts []Option) textAgent {
	cfg := NewConfig(append(defaults, opts...)...)

	tmpl, format := defaultPrompt, prompts.TemplateFormatGoTemplate
	if cfg.PromptTemplate != "" {
		tmpl, format = cfg.PromptTemplate, cfg.TemplateFormat
	}
	prompt := prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewHumanMessagePromptTemplate(tmpl, []string{"text"}).WithFormat(format),
	})

	return textAgent{
		name:              name,
		description:       description,
		routerDescription: routerDescription,
		runner: &Runner{
			LLM:    llm,
			prompt: prompt,
			cfg:    cfg,
		},
	}
}

// Name returns the name of the agent
func (a *textAgent) Name() string {
	return a.name
}

// Description returns the description of the agent
func (a *textAgent) Description() string {
	return a.description
}

// RouterDescription returns the description for the tool selection prompt
func (a *textAgent) RouterDescription() string {
	return a.routerDescription
}

// Runner returns the LLM runner of the agent
func (a *textAgent) Runner() *Runner {
	return a.runner
}

func (a *textAgent) run(ctx context.Context, self Agent, text string) (string, error) {
	ctx = chatmodel.EnsureChatContext(ctx, "")
	return a.runner.Run(ctx, self, text, map[string]any{"text": text})
}
