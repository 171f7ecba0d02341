// Package config provides the configuration of bedrock-tools server.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/agents"
	"github.com/effective-security/bedrocktools/encoding"
	"github.com/effective-security/bedrocktools/pkg/prompts"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
)

// Defaults
const (
	DefaultAddr           = ":8080"
	DefaultEndpoint       = "/mcp"
	DefaultRequestTimeout = 2 * time.Minute
	DefaultCacheTTL       = time.Hour
	DefaultCachePrefix    = "bedrock-tools"
	DefaultLogLevel       = "INFO"
)

// Config of the server
type Config struct {
	Server       Server       `json:"server" yaml:"server"`
	LLM          LLM          `json:"llm" yaml:"llm"`
	Cache        Cache        `json:"cache" yaml:"cache"`
	Prompts      Prompts      `json:"prompts" yaml:"prompts"`
	Orchestrator Orchestrator `json:"orchestrator" yaml:"orchestrator"`
	Log          Log          `json:"log" yaml:"log"`
}

// Server specifies the HTTP transport
type Server struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Stateless disables sessions, every request is served independently
	Stateless *bool `json:"stateless,omitempty" yaml:"stateless,omitempty"`
	// RequestTimeout is a duration string, like `2m`
	RequestTimeout string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	// CallTimeout limits a single tool call, disabled when empty
	CallTimeout string `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"`
}

// IsStateless returns the stateless flag, true by default
func (s *Server) IsStateless() bool {
	return s.Stateless == nil || *s.Stateless
}

// GetRequestTimeout returns the parsed request timeout
func (s *Server) GetRequestTimeout() time.Duration {
	d, _ := parseDuration(s.RequestTimeout)
	return values.NumbersCoalesce(d, DefaultRequestTimeout)
}

// GetCallTimeout returns the parsed call timeout
func (s *Server) GetCallTimeout() time.Duration {
	d, _ := parseDuration(s.CallTimeout)
	return d
}

// LLM specifies the model to use
type LLM struct {
	// Config is the path to the providers file of llmfactory,
	// when empty Bedrock provider is used.
	Config string `json:"config,omitempty" yaml:"config,omitempty"`
	// Provider is the name of the provider in the providers file
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	// Model overrides the default model of the provider
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// Region is the AWS region of Bedrock
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// Cache specifies the tool results cache
type Cache struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// TTL is a duration string, like `1h`
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// RedisURL selects the redis cache, the memory cache is used when empty
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// MaxEntries limits the size of the memory cache
	MaxEntries int `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
}

// GetTTL returns the parsed TTL
func (c *Cache) GetTTL() time.Duration {
	d, _ := parseDuration(c.TTL)
	return values.NumbersCoalesce(d, DefaultCacheTTL)
}

// Prompts overrides the prompts of the agents.
// Each template receives `text` variable.
type Prompts struct {
	// Format is the template format: go-template or jinja2
	Format        string `json:"format,omitempty" yaml:"format,omitempty"`
	Summarization string `json:"summarize_text,omitempty" yaml:"summarize_text,omitempty"`
	Sentiment     string `json:"analyze_sentiment,omitempty" yaml:"analyze_sentiment,omitempty"`
	Translation   string `json:"translate_to_french,omitempty" yaml:"translate_to_french,omitempty"`
}

// GetFormat returns the template format
func (p *Prompts) GetFormat() prompts.TemplateFormat {
	return prompts.TemplateFormat(values.StringsCoalesce(p.Format, string(prompts.TemplateFormatGoTemplate)))
}

// Templates returns the configured templates by tool name
func (p *Prompts) Templates() map[string]string {
	m := map[string]string{}
	if p.Summarization != "" {
		m[agents.SummarizationToolName] = p.Summarization
	}
	if p.Sentiment != "" {
		m[agents.SentimentToolName] = p.Sentiment
	}
	if p.Translation != "" {
		m[agents.TranslationToolName] = p.Translation
	}
	return m
}

// AgentOptions returns the options of the agent with the tool name
func (p *Prompts) AgentOptions(name string) []agents.Option {
	if tmpl, ok := p.Templates()[name]; ok {
		return []agents.Option{agents.WithPromptTemplate(tmpl, p.GetFormat())}
	}
	return nil
}

// Orchestrator specifies the assistant prompt
type Orchestrator struct {
	// Mode is the format of the tool selection reply: json or yaml
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// Log specifies logging
type Log struct {
	// Level is one of TRACE, DEBUG, INFO, NOTICE, WARNING, ERROR, CRITICAL
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// Load returns the configuration from file,
// or the default configuration when file is empty.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file != "" {
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return nil, errors.WithMessagef(err, "failed to load config %q", file)
		}
		// the providers file is relative to the config
		if cfg.LLM.Config != "" && !filepath.IsAbs(cfg.LLM.Config) {
			cfg.LLM.Config = filepath.Join(filepath.Dir(file), cfg.LLM.Config)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Server.Addr = values.StringsCoalesce(c.Server.Addr, DefaultAddr)
	c.Server.Endpoint = values.StringsCoalesce(c.Server.Endpoint, DefaultEndpoint)
	c.Cache.Prefix = values.StringsCoalesce(c.Cache.Prefix, DefaultCachePrefix)
	c.Orchestrator.Mode = strings.ToLower(values.StringsCoalesce(c.Orchestrator.Mode, encoding.ModeDefault))
	c.Log.Level = strings.ToUpper(values.StringsCoalesce(c.Log.Level, DefaultLogLevel))
}

// Validate returns error if the configuration is invalid
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Server.Endpoint, "/") {
		return errors.Newf("invalid server.endpoint: %q must start with /", c.Server.Endpoint)
	}
	if _, err := parseDuration(c.Server.RequestTimeout); err != nil {
		return errors.WithMessage(err, "invalid server.request_timeout")
	}
	if _, err := parseDuration(c.Server.CallTimeout); err != nil {
		return errors.WithMessage(err, "invalid server.call_timeout")
	}
	if _, err := parseDuration(c.Cache.TTL); err != nil {
		return errors.WithMessage(err, "invalid cache.ttl")
	}
	switch c.Orchestrator.Mode {
	case encoding.ModeJSON, encoding.ModeYAML:
	default:
		return errors.Newf("invalid orchestrator.mode: %q", c.Orchestrator.Mode)
	}

	format := c.Prompts.GetFormat()
	for name, tmpl := range c.Prompts.Templates() {
		if err := prompts.CheckValidTemplate(tmpl, format, []string{"text"}); err != nil {
			return errors.WithMessagef(err, "invalid prompts.%s", name)
		}
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse duration %q", s)
	}
	if d < 0 {
		return 0, errors.Newf("negative duration %q", s)
	}
	return d, nil
}
