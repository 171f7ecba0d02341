package main

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/agents"
	"github.com/effective-security/bedrocktools/callbacks"
	"github.com/effective-security/bedrocktools/config"
	"github.com/effective-security/bedrocktools/mcp"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/bedrocktools/pkg/llmfactory"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/llms/bedrock"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

const instructions = "Tools to summarize text, analyze sentiment and translate English text to French. " +
	"Use the `assistant` prompt to ask in plain English."

// loadConfig returns the configuration with the command line overrides
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	cfg.LLM.Region = values.StringsCoalesce(g.Region, cfg.LLM.Region)
	cfg.LLM.Model = values.StringsCoalesce(g.Model, cfg.LLM.Model)
	cfg.Log.Level = values.StringsCoalesce(g.LogLevel, cfg.Log.Level)

	level, err := xlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Log.Level)
	}
	xlog.SetGlobalLogLevel(level)
	return cfg, nil
}

// newFactory returns the LLM factory of the providers file,
// or Bedrock only factory when the file is not configured.
func newFactory(cfg *config.Config) (llmfactory.Factory, error) {
	if cfg.LLM.Config != "" {
		return llmfactory.Load(cfg.LLM.Config)
	}

	model := values.StringsCoalesce(cfg.LLM.Model, bedrock.DefaultModel)
	return llmfactory.New(&llmfactory.Config{
		DefaultProvider: string(llms.ProviderBedrock),
		Providers: []*llmfactory.ProviderConfig{
			{
				Name:            string(llms.ProviderBedrock),
				DefaultModel:    model,
				AvailableModels: []string{model},
				Region:          cfg.LLM.Region,
				OpenAI: llmfactory.OpenAIConfig{
					APIType: string(llms.ProviderBedrock),
				},
			},
		},
	}), nil
}

func agentModel(f llmfactory.Factory, cfg *config.Config, agent string) (llms.Model, error) {
	if cfg.LLM.Provider != "" {
		return f.ModelByType(cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "" {
		return f.AgentModel(agent, cfg.LLM.Model)
	}
	return f.AgentModel(agent)
}

// newAgents returns the tool agents and the orchestrator
func newAgents(cfg *config.Config, callback agents.Callback) ([]agents.Agent, *agents.Orchestrator, error) {
	f, err := newFactory(cfg)
	if err != nil {
		return nil, nil, err
	}

	constructors := []struct {
		name   string
		create func(llms.Model, ...agents.Option) agents.Agent
	}{
		{agents.SummarizationToolName, func(m llms.Model, o ...agents.Option) agents.Agent { return agents.NewSummarizationAgent(m, o...) }},
		{agents.SentimentToolName, func(m llms.Model, o ...agents.Option) agents.Agent { return agents.NewSentimentAgent(m, o...) }},
		{agents.TranslationToolName, func(m llms.Model, o ...agents.Option) agents.Agent { return agents.NewTranslationAgent(m, o...) }},
	}

	list := make([]agents.Agent, 0, len(constructors))
	for _, c := range constructors {
		model, err := agentModel(f, cfg, c.name)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "failed to create model for %s", c.name)
		}
		opts := append([]agents.Option{agents.WithCallback(callback)}, cfg.Prompts.AgentOptions(c.name)...)
		list = append(list, c.create(model, opts...))
	}

	model, err := agentModel(f, cfg, agents.OrchestratorName)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "failed to create model for %s", agents.OrchestratorName)
	}
	o, err := agents.NewOrchestrator(model, list,
		agents.WithCallback(callback),
		agents.WithMode(cfg.Orchestrator.Mode),
	)
	if err != nil {
		return nil, nil, err
	}
	return list, o, nil
}

// newServer returns MCP server on the transport with the tools and the assistant prompt
func newServer(tr transport.Transport, cfg *config.Config, callback agents.Callback, opts ...mcp.Option) (*mcp.Server, error) {
	if callback == nil {
		callback = callbacks.NewPackageLogger(logger)
	}
	list, o, err := newAgents(cfg, callback)
	if err != nil {
		return nil, err
	}

	server := mcp.NewServer(tr, append([]mcp.Option{
		mcp.WithVersion(Version),
		mcp.WithInstructions(instructions),
		mcp.WithCallTimeout(cfg.Server.GetCallTimeout()),
	}, opts...)...)

	if err = agents.RegisterTools(server, list...); err != nil {
		return nil, err
	}
	if err = agents.RegisterPrompt(server, o); err != nil {
		return nil, err
	}
	return server, nil
}
