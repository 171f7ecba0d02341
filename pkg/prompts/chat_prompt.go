package prompts

import (
	"strings"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/llmutils"
)

// ChatPromptValue is a prompt value that is a list of chat messages.
type ChatPromptValue []llms.Message

// String returns the chat message slice as a buffer string.
func (v ChatPromptValue) String() string {
	var buf strings.Builder
	llmutils.PrintMessages(&buf, v)
	return buf.String()
}

// Messages returns the ChatMessage slice.
func (v ChatPromptValue) Messages() []llms.Message {
	return v
}

// MessageFormatter is an interface for formatting a map of values into a list of messages.
type MessageFormatter interface {
	FormatMessages(values map[string]any) ([]llms.Message, error)
	GetInputVariables() []string
}

// MessagePromptTemplate renders one message of the role.
type MessagePromptTemplate struct {
	Role   llms.Role
	Prompt PromptTemplate
}

// NewSystemMessagePromptTemplate creates a new system message prompt template.
func NewSystemMessagePromptTemplate(template string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleSystem, Prompt: NewPromptTemplate(template, inputVariables)}
}

// NewHumanMessagePromptTemplate creates a new human message prompt template.
func NewHumanMessagePromptTemplate(template string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleHuman, Prompt: NewPromptTemplate(template, inputVariables)}
}

// NewAIMessagePromptTemplate creates a new AI message prompt template.
func NewAIMessagePromptTemplate(template string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleAI, Prompt: NewPromptTemplate(template, inputVariables)}
}

// WithFormat returns a copy of the template rendered in the format
func (p MessagePromptTemplate) WithFormat(format TemplateFormat) MessagePromptTemplate {
	p.Prompt.TemplateFormat = format
	return p
}

// FormatMessages formats the message with the values.
func (p MessagePromptTemplate) FormatMessages(values map[string]any) ([]llms.Message, error) {
	text, err := p.Prompt.Format(values)
	if err != nil {
		return nil, err
	}
	return []llms.Message{llms.MessageFromTextParts(p.Role, text)}, nil
}

// GetInputVariables returns the input variables the prompt expects.
func (p MessagePromptTemplate) GetInputVariables() []string {
	return p.Prompt.InputVariables
}

// ChatPromptTemplate is a prompt template for chat messages.
type ChatPromptTemplate struct {
	// Messages is the list of the messages in the prompt template.
	Messages []MessageFormatter
}

// NewChatPromptTemplate creates a new chat prompt template from a list of message formatters.
func NewChatPromptTemplate(messages []MessageFormatter) ChatPromptTemplate {
	return ChatPromptTemplate{
		Messages: messages,
	}
}

// FormatPrompt formats the messages into a chat prompt value.
func (p ChatPromptTemplate) FormatPrompt(values map[string]any) (ChatPromptValue, error) {
	messages, err := p.FormatMessages(values)
	if err != nil {
		return nil, err
	}
	return ChatPromptValue(messages), nil
}

// FormatMessages formats the messages with the values and returns the formatted messages.
func (p ChatPromptTemplate) FormatMessages(values map[string]any) ([]llms.Message, error) {
	var formatted []llms.Message
	for _, m := range p.Messages {
		curFormatted, err := m.FormatMessages(values)
		if err != nil {
			return nil, err
		}
		formatted = append(formatted, curFormatted...)
	}
	return formatted, nil
}

// GetInputVariables returns the union of the input variables of all messages.
func (p ChatPromptTemplate) GetInputVariables() []string {
	seen := map[string]bool{}
	var vars []string
	for _, m := range p.Messages {
		for _, v := range m.GetInputVariables() {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	return vars
}
