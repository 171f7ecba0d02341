package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/bedrocktools/agents"
	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/llmutils"
)

// ensure Scratchpad implements agents.Callback
var _ agents.Callback = (*Scratchpad)(nil)

var TimeNowFn = time.Now

type RunStats struct {
	ChatID string
	RunID  string

	Duration            time.Duration
	TotalMessages       uint32
	LLMBytesOut         uint64
	LLMBytesIn          uint64
	LLMInputTokens      uint64
	LLMOutputTokens     uint64
	LLMTotalTokens      uint64
	AgentCalls          uint32
	AgentCallsSucceeded uint32
	AgentCallsFailed    uint32
	AgentLLMCalls       uint32
	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolNotFound        uint32
}

// Scratchpad collects the events and stats of the runs by chat ID.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

// StartRun starts collecting the events of the chat in ctx.
// The returned context carries the chat context of the run.
func (l *Scratchpad) StartRun(ctx context.Context) context.Context {
	ctx = chatmodel.EnsureChatContext(ctx, "")
	chatCtx := chatmodel.GetChatContext(ctx)

	r := &run{
		stats: RunStats{
			ChatID: chatCtx.GetChatID(),
			RunID:  chatCtx.RunID(),
		},
		chatCtx: chatCtx,
		started: time.Now(),
	}

	l.lock.Lock()
	l.runs[chatCtx.GetChatID()] = r
	l.lock.Unlock()

	r.print("*** Run Started ***")
	return ctx
}

// EndRun returns the stats and the output of the run
func (l *Scratchpad) EndRun(ctx context.Context) (*RunStats, []byte) {
	run := l.getRun(ctx)
	if run == nil {
		return nil, nil
	}

	stats := run.stats
	stats.Duration = time.Since(run.started)

	run.print(fmt.Sprintf("Agent calls: %d, Failed: %d",
		stats.AgentCalls,
		stats.AgentCallsFailed,
	))
	run.print(fmt.Sprintf("Tool calls: %d, Not Found: %d",
		stats.ToolsCalls,
		stats.ToolNotFound,
	))
	run.print(fmt.Sprintf("LLM calls: %d, Messages: %d, Bytes Out: %d, Bytes In: %d, Input Tokens: %d, Output Tokens: %d, Total Tokens: %d",
		stats.AgentLLMCalls,
		stats.TotalMessages,
		stats.LLMBytesOut,
		stats.LLMBytesIn,
		stats.LLMInputTokens,
		stats.LLMOutputTokens,
		stats.LLMTotalTokens,
	))

	run.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, run.chatCtx.GetChatID())
	l.lock.Unlock()

	return &stats, run.w.Bytes()
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return nil
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[chatCtx.GetChatID()]
}

func (l *Scratchpad) OnAgentStart(ctx context.Context, agent agents.Agent, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AgentCalls, 1)
	run.print(agent.Name(), "*** Agent Start ***")
	run.print(agent.Name(), "Input:", input)
}

func (l *Scratchpad) OnAgentEnd(ctx context.Context, agent agents.Agent, input string, output string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AgentCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		run.print(agent.Name(), "Output:", output)
	}
	run.print(agent.Name(), "*** Agent End ***")
}

func (l *Scratchpad) OnAgentError(ctx context.Context, agent agents.Agent, input string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AgentCallsFailed, 1)
	run.print(agent.Name(), "*** Error ***", err.Error())
}

func (l *Scratchpad) OnAgentLLMCallStart(ctx context.Context, agent agents.Agent, llm llms.Model, payload []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}

	atomic.AddUint64(&run.stats.LLMBytesOut, llmutils.CountMessagesContentSize(payload))
	atomic.AddUint32(&run.stats.AgentLLMCalls, 1)
	count := uint32(len(payload))
	atomic.AddUint32(&run.stats.TotalMessages, count)

	run.print(agent.Name(), "*** LLM Call ***", fmt.Sprintf("%s model, %d messages", llm.GetName(), count))
	if l.mode == ModeVerbose {
		var buf bytes.Buffer
		llmutils.PrintMessages(&buf, payload)
		run.print(agent.Name(), "Messages:\n"+buf.String())
	}
}

func (l *Scratchpad) OnAgentLLMCallEnd(ctx context.Context, agent agents.Agent, llm llms.Model, resp *llms.ContentResponse) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}

	usage := resp.Usage()
	atomic.AddUint64(&run.stats.LLMBytesIn, llmutils.CountResponseContentSize(resp))
	atomic.AddUint64(&run.stats.LLMInputTokens, uint64(usage.InputTokens))
	atomic.AddUint64(&run.stats.LLMOutputTokens, uint64(usage.OutputTokens))
	atomic.AddUint64(&run.stats.LLMTotalTokens, uint64(usage.TotalTokens))

	run.print(agent.Name(), "*** LLM Call End ***",
		fmt.Sprintf("%s model, %d input tokens, %d output tokens, %d total tokens",
			llm.GetName(), usage.InputTokens, usage.OutputTokens, usage.TotalTokens))
}

func (l *Scratchpad) OnAgentLLMParseError(ctx context.Context, agent agents.Agent, input string, response string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	run.print(agent.Name(), "*** LLM Parse Error ***", err.Error())
	run.print("Response:", response)
}

func (l *Scratchpad) OnToolStart(ctx context.Context, agent agents.Agent, tool string, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCalls, 1)
	run.print(agent.Name(), tool, "*** Tool Start ***")
	run.print(agent.Name(), tool, "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, agent agents.Agent, tool string, input string, output string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		run.print(agent.Name(), tool, "Output:", output)
	}
	run.print(agent.Name(), tool, "*** Tool End ***")
}

func (l *Scratchpad) OnToolNotFound(ctx context.Context, agent agents.Agent, tool string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolNotFound, 1)
	run.print(agent.Name(), "*** Tool Not Found ***", tool)
}

type run struct {
	chatCtx chatmodel.ChatContext
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// timestamp chatID.runID entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	ts := TimeNowFn().Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.chatCtx.GetChatID())
	_, _ = r.w.WriteString(".")
	_, _ = r.w.WriteString(r.chatCtx.RunID())
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
