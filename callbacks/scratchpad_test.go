package callbacks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/mocks/mockagents"
	"github.com/effective-security/bedrocktools/mocks/mockllms"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestChatContext() (context.Context, chatmodel.ChatContext) {
	chatCtx := chatmodel.NewChatContext("chatid", nil)
	ctx := chatmodel.WithChatContext(context.Background(), chatCtx)
	return ctx, chatCtx
}

func TestScratchpad_StartRun_EndRun(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeVerbose)
	ctx, cctx := newTestChatContext()
	ctx = sp.StartRun(ctx)
	assert.Equal(t, cctx.GetChatID(), chatmodel.GetChatID(ctx))

	r := sp.runs[cctx.GetChatID()]
	require.NotNil(t, r)
	r.stats.AgentCalls = 2
	r.stats.AgentCallsFailed = 1
	r.stats.ToolsCalls = 3
	r.stats.ToolNotFound = 1
	r.stats.AgentLLMCalls = 1
	r.stats.TotalMessages = 4
	r.stats.LLMBytesOut = 10
	r.stats.LLMBytesIn = 11

	stats, buf := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, "chatid", stats.ChatID)
	assert.Equal(t, cctx.RunID(), stats.RunID)
	assert.Contains(t, string(buf), "Run Started")
	assert.Contains(t, string(buf), "Run Ended")
	assert.Contains(t, string(buf), "Agent calls: 2, Failed: 1")
	assert.Contains(t, string(buf), "Tool calls: 3, Not Found: 1")
	assert.Contains(t, string(buf), "LLM calls: 1, Messages: 4, Bytes Out: 10, Bytes In: 11")

	_, ok := sp.runs[cctx.GetChatID()]
	assert.False(t, ok)

	s2, _ := sp.EndRun(ctx)
	assert.Nil(t, s2)
}

func TestScratchpad_StartRun_NoChat(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeDefault)
	ctx := sp.StartRun(context.Background())
	chatID := chatmodel.GetChatID(ctx)
	require.NotEmpty(t, chatID)
	assert.NotNil(t, sp.getRun(ctx))

	stats, _ := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, chatID, stats.ChatID)
}

func TestScratchpad_getRun_nil(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeDefault)
	assert.Nil(t, sp.getRun(context.Background()))
	ctx, _ := newTestChatContext()
	assert.Nil(t, sp.getRun(ctx))
}

func TestScratchpad_OnCallbacks(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	agent := mockagents.NewMockAgent(ctrl)
	agent.EXPECT().Name().Return("A1").AnyTimes()
	llm := mockllms.NewMockModel(ctrl)
	llm.EXPECT().GetName().Return("claude").AnyTimes()

	sp := NewScratchpad(ModeVerbose)
	ctx, _ := newTestChatContext()
	ctx = sp.StartRun(ctx)

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:        "Answer 1",
			GenerationInfo: llms.NewGenerationInfo(7, 3),
		}},
	}
	payload := []llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "foo")}

	sp.OnAgentStart(ctx, agent, "input")
	sp.OnAgentLLMCallStart(ctx, agent, llm, payload)
	sp.OnAgentLLMCallEnd(ctx, agent, llm, resp)
	sp.OnAgentEnd(ctx, agent, "input", "Answer 1")
	sp.OnAgentLLMParseError(ctx, agent, "input", "output", errors.New("parseerr"))
	sp.OnAgentError(ctx, agent, "input", errors.New("fail"))
	sp.OnToolStart(ctx, agent, "T1", "tinput")
	sp.OnToolEnd(ctx, agent, "T1", "tinput", "toutput")
	sp.OnToolNotFound(ctx, agent, "T2")

	stats, output := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, uint32(1), stats.AgentCalls)
	assert.Equal(t, uint32(1), stats.AgentCallsSucceeded)
	assert.Equal(t, uint32(1), stats.AgentCallsFailed)
	assert.Equal(t, uint32(1), stats.AgentLLMCalls)
	assert.Equal(t, uint32(1), stats.TotalMessages)
	assert.Equal(t, uint64(7), stats.LLMInputTokens)
	assert.Equal(t, uint64(3), stats.LLMOutputTokens)
	assert.Equal(t, uint64(10), stats.LLMTotalTokens)
	assert.Equal(t, uint64(len("Answer 1")), stats.LLMBytesIn)
	assert.NotZero(t, stats.LLMBytesOut)
	assert.Equal(t, uint32(1), stats.ToolsCalls)
	assert.Equal(t, uint32(1), stats.ToolsCallsSucceeded)
	assert.Equal(t, uint32(1), stats.ToolNotFound)

	outStr := string(output)
	assert.Contains(t, outStr, "A1 *** Agent Start ***")
	assert.Contains(t, outStr, "A1 Output: Answer 1")
	assert.Contains(t, outStr, "A1 *** Agent End ***")
	assert.Contains(t, outStr, "A1 *** LLM Call *** claude model, 1 messages")
	assert.Contains(t, outStr, "HUMAN: foo")
	assert.Contains(t, outStr, "A1 *** LLM Call End *** claude model, 7 input tokens, 3 output tokens, 10 total tokens")
	assert.Contains(t, outStr, "A1 *** LLM Parse Error *** parseerr")
	assert.Contains(t, outStr, "A1 *** Error *** fail")
	assert.Contains(t, outStr, "A1 T1 *** Tool Start ***")
	assert.Contains(t, outStr, "A1 T1 Output: toutput")
	assert.Contains(t, outStr, "A1 T1 *** Tool End ***")
	assert.Contains(t, outStr, "A1 *** Tool Not Found *** T2")

	// no run: events are ignored
	sp.OnAgentStart(ctx, agent, "input")
	sp.OnAgentEnd(ctx, agent, "input", "out")
	sp.OnAgentLLMCallStart(ctx, agent, llm, nil)
	sp.OnAgentLLMCallEnd(ctx, agent, llm, resp)
	sp.OnAgentLLMParseError(ctx, agent, "input", "output", errors.New("parse2"))
	sp.OnAgentError(ctx, agent, "input", errors.New("fail2"))
	sp.OnToolStart(ctx, agent, "T1", "tinput")
	sp.OnToolEnd(ctx, agent, "T1", "tinput", "toutput")
	sp.OnToolNotFound(ctx, agent, "T3")
	assert.Empty(t, sp.runs)
}

func Test_run_print_format(t *testing.T) {
	_, chatCtx := newTestChatContext()
	r := &run{chatCtx: chatCtx}
	oldTimeFn := TimeNowFn
	TimeNowFn = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { TimeNowFn = oldTimeFn }()

	r.print("hello", "again")
	lines := strings.Split(r.w.String(), "\n")
	require.NotEmpty(t, lines[0])
	assert.Equal(t, "2024-01-01 12:00:00 "+chatCtx.GetChatID()+"."+chatCtx.RunID()+" hello again", lines[0])
}
