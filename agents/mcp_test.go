package agents_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/agents"
	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/mcp"
	"github.com/effective-security/bedrocktools/mcp/transport/localtransport"
	"github.com/effective-security/bedrocktools/mocks/mockagents"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRegisterTools(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	llm := newMockModel(ctrl)

	list := []agents.Agent{
		agents.NewSummarizationAgent(llm),
		agents.NewSentimentAgent(llm),
		agents.NewTranslationAgent(llm),
	}
	o, err := agents.NewOrchestrator(llm, list)
	require.NoError(t, err)

	tr := localtransport.New()
	server := mcp.NewServer(tr)
	require.NoError(t, agents.RegisterTools(server, list...))
	require.NoError(t, agents.RegisterPrompt(server, o))
	require.NoError(t, server.Serve(ctx))
	t.Cleanup(func() {
		_ = server.Close()
	})

	client := localtransport.NewClient(tr)

	tools, err := client.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, "analyze_sentiment", tools[0].Name)
	assert.Equal(t, "summarize_text", tools[1].Name)
	assert.Equal(t, "translate_to_french", tools[2].Name)
	assert.Equal(t, "Translate English text into French", tools[2].Description)

	var runIDs []string
	llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, messages []llms.Message, opts ...llms.CallOption) (*llms.ContentResponse, error) {
			_, runID, err := chatmodel.GetChatAndRunID(ctx)
			assert.NoError(t, err)
			runIDs = append(runIDs, runID)
			return textResponse("NEGATIVE"), nil
		}).Times(2)

	res, err := client.CallTool(ctx, agents.SentimentToolName, map[string]string{"text": "I hate Mondays"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "NEGATIVE", res.Text())

	_, err = client.CallTool(ctx, agents.SentimentToolName, map[string]string{"text": "Mondays again"})
	require.NoError(t, err)
	require.Len(t, runIDs, 2)
	assert.NotEqual(t, runIDs[0], runIDs[1])

	// missing text is rejected before the agent runs
	_, err = client.CallTool(ctx, agents.TranslationToolName, map[string]string{})
	var rpcErr *localtransport.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32602, rpcErr.Code)

	// the LLM failure is reported as tool text
	llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("throttled")).Times(1)
	res, err = client.CallTool(ctx, agents.TranslationToolName, map[string]string{"text": "hello"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Translation error: failed to generate content from LLM: throttled", res.Text())

	// assistant prompt
	gomock.InOrder(
		llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, messages []llms.Message, opts ...llms.CallOption) (*llms.ContentResponse, error) {
				assert.Equal(t, "chat42", chatmodel.GetChatID(ctx))
				return textResponse(`{"tool_name": "translate_to_french", "tool_input": {"text": "Good morning"}}`), nil
			}),
		llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).Return(textResponse("Bonjour"), nil),
		llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).Return(textResponse(`In French: "Bonjour"`), nil),
	)
	pr, err := client.GetPrompt(ctx, agents.OrchestratorName, map[string]string{
		"request": "Translate to French: Good morning",
		"chat_id": "chat42",
	})
	require.NoError(t, err)
	require.Len(t, pr.Messages, 1)
	assert.Equal(t, "assistant", pr.Messages[0].Role)
	assert.Equal(t, `In French: "Bonjour"`, pr.Text())
	assert.Equal(t, o.Description(), pr.Description)
}

func TestRegisterTools_Errors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	llm := newMockModel(ctrl)
	reg := mockagents.NewMockMcpServerRegistrator(ctrl)

	reg.EXPECT().RegisterTool(agents.SummarizationToolName, gomock.Any(), gomock.Any()).Return(errors.New("tool already registered"))
	err := agents.RegisterTools(reg, agents.NewSummarizationAgent(llm))
	assert.EqualError(t, err, "failed to register tool summarize_text: tool already registered")

	o, err := agents.NewOrchestrator(llm, nil)
	require.NoError(t, err)
	reg.EXPECT().RegisterPrompt(agents.OrchestratorName, gomock.Any(), gomock.Any()).Return(errors.New("prompt already registered"))
	err = agents.RegisterPrompt(reg, o)
	assert.EqualError(t, err, "failed to register prompt assistant: prompt already registered")
}

func TestRegisterTools_FallbackNotCached(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		name     string
		newAgent func(llms.Model) agents.Agent
		reply    string
		fallback string
		exp      string
	}{
		{
			name:     agents.SummarizationToolName,
			newAgent: func(m llms.Model) agents.Agent { return agents.NewSummarizationAgent(m) },
			reply:    "Short summary.",
			fallback: "Error: failed to generate content from LLM: throttled",
			exp:      "Short summary.",
		},
		{
			name:     agents.TranslationToolName,
			newAgent: func(m llms.Model) agents.Agent { return agents.NewTranslationAgent(m) },
			reply:    "Bonjour",
			fallback: "Translation error: failed to generate content from LLM: throttled",
			exp:      "Bonjour",
		},
		{
			name:     agents.SentimentToolName,
			newAgent: func(m llms.Model) agents.Agent { return agents.NewSentimentAgent(m) },
			reply:    "positive",
			fallback: "NEUTRAL",
			exp:      "POSITIVE",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			ctrl := gomock.NewController(t)
			llm := newMockModel(ctrl)

			tr := localtransport.New()
			server := mcp.NewServer(tr, mcp.WithToolCache(store.NewMemoryCache(), time.Minute))
			require.NoError(t, agents.RegisterTools(server, tc.newAgent(llm)))
			require.NoError(t, server.Serve(ctx))
			t.Cleanup(func() {
				_ = server.Close()
			})
			client := localtransport.NewClient(tr)

			// the LLM fails once, then recovers; the third call is served from the cache
			gomock.InOrder(
				llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("throttled")),
				llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(textResponse(tc.reply), nil),
			)
			args := map[string]string{"text": "I love sunny days"}

			res, err := client.CallTool(ctx, tc.name, args)
			require.NoError(t, err)
			assert.False(t, res.IsError)
			assert.Equal(t, tc.fallback, res.Text())

			res, err = client.CallTool(ctx, tc.name, args)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, res.Text())

			res, err = client.CallTool(ctx, tc.name, args)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, res.Text())
		})
	}
}

func TestFallbackReporter(t *testing.T) {
	t.Parallel()

	ctx := chatmodel.NewRun(context.Background())
	ctrl := gomock.NewController(t)
	llm := newMockModel(ctrl)

	var _ agents.FallbackReporter = agents.NewSummarizationAgent(llm)
	var _ agents.FallbackReporter = agents.NewTranslationAgent(llm)

	llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("throttled"))
	res, err := agents.NewSentimentAgent(llm).TryExecute(ctx, "meh")
	assert.EqualError(t, err, "failed to generate content from LLM: throttled")
	assert.Equal(t, agents.SentimentNeutral, res)

	llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(textResponse("NEGATIVE"), nil)
	res, err = agents.NewSentimentAgent(llm).TryExecute(ctx, "awful")
	require.NoError(t, err)
	assert.Equal(t, "NEGATIVE", res)
}
