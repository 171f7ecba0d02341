package llmfactory_test

import (
	"context"
	"testing"

	"github.com/effective-security/bedrocktools/pkg/llmfactory"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	provider string
	model    string
}

func (f *fakeLLM) GetName() string {
	return f.model
}

func (f *fakeLLM) GetProviderType() llms.ProviderType {
	return llms.ProviderType(f.provider)
}

func (f *fakeLLM) GenerateContent(_ context.Context, _ []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.model}}}, nil
}

func Test_Factory(t *testing.T) {
	cfg, err := llmfactory.LoadConfig("testdata/llm.yaml")
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 4)

	llmfactory.NewLLM = func(cfg *llmfactory.ProviderConfig, preferredModels ...string) (llms.Model, error) {
		return &fakeLLM{provider: cfg.Name, model: cfg.FindModel(preferredModels...)}, nil
	}
	defer func() {
		llmfactory.NewLLM = llmfactory.CreateLLM
	}()

	check := func(model llms.Model, err error, expModel, expProvider string) {
		t.Helper()
		require.NoError(t, err)
		require.NotNil(t, model)
		fm := model.(*fakeLLM)
		assert.Equal(t, expModel, fm.model)
		assert.Equal(t, expProvider, fm.provider)
	}

	f := llmfactory.New(cfg)
	m1, err := f.DefaultModel()
	check(m1, err, "anthropic.claude-3-5-sonnet-20240620-v1:0", "BEDROCK")
	m2, err := f.DefaultModel()
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	model, err := f.ModelByName("claude-3-5-haiku-20241022")
	check(model, err, "claude-3-5-haiku-20241022", "ANTHROPIC")

	// first known model wins
	model, err = f.ModelByName("gpt-unknown", "gpt-4.1-mini")
	check(model, err, "gpt-4.1-mini", "OPENAI")

	// falls back to default
	model, err = f.ModelByName("non-existent-model")
	check(model, err, "anthropic.claude-3-5-sonnet-20240620-v1:0", "BEDROCK")

	model, err = f.ModelByType("ANTHROPIC")
	check(model, err, "claude-sonnet-4-20250514", "ANTHROPIC")
	model, err = f.ModelByType("googleai")
	check(model, err, "gemini-2.5-flash", "GOOGLEAI")

	_, err = f.ModelByType("UNSUPPORTED")
	assert.EqualError(t, err, "provider not found for type: UNSUPPORTED")

	model, err = f.AgentModel("analyze_sentiment")
	check(model, err, "anthropic.claude-3-haiku-20240307-v1:0", "BEDROCK")
	model, err = f.AgentModel("orchestrator")
	check(model, err, "claude-3-5-haiku-20241022", "ANTHROPIC")
	model, err = f.AgentModel("summarize_text", "gpt-5-mini")
	check(model, err, "gpt-5-mini", "OPENAI")
	model, err = f.AgentModel("translate_to_french")
	check(model, err, "anthropic.claude-3-5-sonnet-20240620-v1:0", "BEDROCK")

	// default agent mapping
	withDefault := llmfactory.New(&llmfactory.Config{
		Providers:   cfg.Providers,
		AgentModels: map[string][]string{"default": {"gemini-2.5-flash"}},
	})
	model, err = withDefault.AgentModel("summarize_text", "gpt-5-mini")
	check(model, err, "gemini-2.5-flash", "GOOGLEAI")

	_, err = llmfactory.New(&llmfactory.Config{}).DefaultModel()
	assert.EqualError(t, err, "no providers configured")

	invalid := llmfactory.New(&llmfactory.Config{
		DefaultProvider: "non-existent",
		Providers:       cfg.Providers,
	})
	model, err = invalid.DefaultModel()
	check(model, err, "anthropic.claude-3-5-sonnet-20240620-v1:0", "BEDROCK")
}

func Test_Load(t *testing.T) {
	f, err := llmfactory.Load("testdata/llm.yaml")
	require.NoError(t, err)
	require.NotNil(t, f)

	_, err = llmfactory.Load("testdata/non-existent.yaml")
	require.Error(t, err)

	_, err = llmfactory.LoadConfig("testdata/invalid.yaml")
	require.Error(t, err)

	cfg, err := llmfactory.LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
}

func Test_CreateLLM(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "fakekey")
	t.Setenv("ANTHROPIC_API_KEY", "fakekey")

	tcases := []struct {
		apiType  string
		provider llms.ProviderType
		model    string
	}{
		{apiType: "BEDROCK", provider: llms.ProviderBedrock, model: "anthropic.claude-3-5-sonnet-20240620-v1:0"},
		{apiType: "ANTHROPIC", provider: llms.ProviderAnthropic, model: "claude-sonnet-4-20250514"},
		{apiType: "OPENAI", provider: llms.ProviderOpenAI, model: "gpt-5-mini"},
		{apiType: "AZURE", provider: llms.ProviderOpenAI, model: "gpt-5-mini"},
		{apiType: "GOOGLEAI", provider: llms.ProviderGoogleAI, model: "gemini-2.5-flash"},
	}
	for _, tc := range tcases {
		t.Run(tc.apiType, func(t *testing.T) {
			cfg := &llmfactory.ProviderConfig{
				Name:         tc.apiType,
				Token:        "fakekey",
				DefaultModel: tc.model,
				Region:       "us-west-2",
				OpenAI: llmfactory.OpenAIConfig{
					APIType:    tc.apiType,
					APIVersion: "2025-03-01-preview",
				},
			}
			model, err := llmfactory.CreateLLM(cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.provider, model.GetProviderType())
			assert.Equal(t, tc.model, model.GetName())
		})
	}

	_, err := llmfactory.CreateLLM(&llmfactory.ProviderConfig{OpenAI: llmfactory.OpenAIConfig{APIType: "ollama"}})
	assert.EqualError(t, err, "unsupported provider type: OLLAMA")
}
