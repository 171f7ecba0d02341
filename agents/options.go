package agents

import (
	"github.com/effective-security/bedrocktools/encoding"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/prompts"
)

const (
	// DefaultMaxContentSize is the limit of bytes sent to LLM in one call
	DefaultMaxContentSize = 256 * 1024
	// DefaultMaxRetries is the number of attempts when LLM returns empty response
	DefaultMaxRetries = 3
)

// Option is a function that can be used to modify the behavior of the Agent Config.
type Option func(*Config)

// Config is the configuration of an agent
type Config struct {
	// Model overrides the default model of the LLM.
	Model string
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
	// Temperature is the temperature for sampling, nil for the model default.
	Temperature *float64
	// TopP is the cumulative probability for top-p sampling.
	TopP float64
	// StopWords is a list of words to stop on.
	StopWords []string

	// CallbackHandler receives the events of the runs
	CallbackHandler Callback

	// MaxLength is the limit of the content size sent to LLM
	MaxLength int
	// MaxRetries is the number of attempts on empty response
	MaxRetries int

	// PromptTemplate replaces the default prompt of the agent
	PromptTemplate string
	// TemplateFormat is the format of PromptTemplate
	TemplateFormat prompts.TemplateFormat

	// Mode is the format of the structured replies
	Mode encoding.Mode
}

// NewConfig returns config with the options applied
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		TemplateFormat: prompts.TemplateFormatGoTemplate,
		Mode:           encoding.ModeDefault,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the options applied
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// GetCallOptions returns the LLM call options
func (c *Config) GetCallOptions() []llms.CallOption {
	var opts []llms.CallOption
	if c.Model != "" {
		opts = append(opts, llms.WithModel(c.Model))
	}
	if c.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*c.Temperature))
	}
	if c.TopP > 0 {
		opts = append(opts, llms.WithTopP(c.TopP))
	}
	if len(c.StopWords) > 0 {
		opts = append(opts, llms.WithStopWords(c.StopWords))
	}
	return opts
}

// WithModel is an option that overrides the model of the LLM.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
	}
}

// WithMaxTokens specifies the max number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature specifies the model temperature, a hyperparameter that
// regulates the randomness, or creativity, of the AI's responses.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = &temperature
	}
}

// WithTopP will add an option to use top-p sampling.
func WithTopP(topP float64) Option {
	return func(o *Config) {
		o.TopP = topP
	}
}

// WithStopWords specifies a list of words to stop generation on.
func WithStopWords(stopWords []string) Option {
	return func(o *Config) {
		o.StopWords = stopWords
	}
}

// WithCallback sets the callback handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithMaxLength limits the content size sent to LLM.
func WithMaxLength(maxLength int) Option {
	return func(o *Config) {
		o.MaxLength = maxLength
	}
}

// WithMaxRetries sets the number of attempts on empty LLM response.
func WithMaxRetries(maxRetries int) Option {
	return func(o *Config) {
		o.MaxRetries = maxRetries
	}
}

// WithPromptTemplate replaces the default prompt of the agent.
// The template receives `text` variable.
func WithPromptTemplate(template string, format prompts.TemplateFormat) Option {
	return func(o *Config) {
		o.PromptTemplate = template
		if format != "" {
			o.TemplateFormat = format
		}
	}
}

// WithMode sets the format of the structured replies.
func WithMode(mode encoding.Mode) Option {
	return func(o *Config) {
		o.Mode = mode
	}
}
