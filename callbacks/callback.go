package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/bedrocktools/agents"
	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ agents.Callback = (*Noop)(nil)
	_ agents.Callback = (*Printer)(nil)
	_ agents.Callback = (*PackageLogger)(nil)
	_ agents.Callback = (*Fanout)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []agents.Callback
}

func NewFanout(callbacks ...agents.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback agents.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnAgentStart(ctx context.Context, agent agents.Agent, input string) {
	for _, callback := range l.callbacks {
		callback.OnAgentStart(ctx, agent, input)
	}
}

func (l *Fanout) OnAgentEnd(ctx context.Context, agent agents.Agent, input string, output string) {
	for _, callback := range l.callbacks {
		callback.OnAgentEnd(ctx, agent, input, output)
	}
}

func (l *Fanout) OnAgentError(ctx context.Context, agent agents.Agent, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnAgentError(ctx, agent, input, err)
	}
}

func (l *Fanout) OnAgentLLMCallStart(ctx context.Context, agent agents.Agent, llm llms.Model, payload []llms.Message) {
	for _, callback := range l.callbacks {
		callback.OnAgentLLMCallStart(ctx, agent, llm, payload)
	}
}

func (l *Fanout) OnAgentLLMCallEnd(ctx context.Context, agent agents.Agent, llm llms.Model, resp *llms.ContentResponse) {
	for _, callback := range l.callbacks {
		callback.OnAgentLLMCallEnd(ctx, agent, llm, resp)
	}
}

func (l *Fanout) OnAgentLLMParseError(ctx context.Context, agent agents.Agent, input string, response string, err error) {
	for _, callback := range l.callbacks {
		callback.OnAgentLLMParseError(ctx, agent, input, response, err)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, agent agents.Agent, tool string, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, agent, tool, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, agent agents.Agent, tool string, input string, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, agent, tool, input, output)
	}
}

func (l *Fanout) OnToolNotFound(ctx context.Context, agent agents.Agent, tool string) {
	for _, callback := range l.callbacks {
		callback.OnToolNotFound(ctx, agent, tool)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnAgentStart(ctx context.Context, agent agents.Agent, input string)                {}
func (l *Noop) OnAgentEnd(ctx context.Context, agent agents.Agent, input string, output string)   {}
func (l *Noop) OnAgentError(ctx context.Context, agent agents.Agent, input string, err error)      {}
func (l *Noop) OnToolNotFound(ctx context.Context, agent agents.Agent, tool string)               {}
func (l *Noop) OnToolStart(ctx context.Context, agent agents.Agent, tool string, input string)    {}
func (l *Noop) OnToolEnd(ctx context.Context, agent agents.Agent, tool, input, output string)     {}
func (l *Noop) OnAgentLLMCallStart(ctx context.Context, agent agents.Agent, llm llms.Model, payload []llms.Message) {
}
func (l *Noop) OnAgentLLMCallEnd(ctx context.Context, agent agents.Agent, llm llms.Model, resp *llms.ContentResponse) {
}
func (l *Noop) OnAgentLLMParseError(ctx context.Context, agent agents.Agent, input string, response string, err error) {
}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnAgentStart(ctx context.Context, agent agents.Agent, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent Start: %s\n", agent.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnAgentEnd(ctx context.Context, agent agents.Agent, input string, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent End: %s\n", agent.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnAgentError(ctx context.Context, agent agents.Agent, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent Error: %s: %s\n", agent.Name(), err.Error())
}

func (l *Printer) OnAgentLLMParseError(ctx context.Context, agent agents.Agent, input string, response string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent LLM Parse Error: %s: %s\n", agent.Name(), err.Error())
	fmt.Fprintf(l.Out, "Response: %s\n", response)
}

func (l *Printer) OnToolStart(ctx context.Context, agent agents.Agent, tool string, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s (%s)\n", tool, agent.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnToolEnd(ctx context.Context, agent agents.Agent, tool string, input string, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s (%s)\n", tool, agent.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnToolNotFound(ctx context.Context, agent agents.Agent, tool string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Not Found: %s\n", tool)
}

func (l *Printer) OnAgentLLMCallStart(ctx context.Context, agent agents.Agent, llm llms.Model, payload []llms.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent LLM Call: %s: %s model, %d messages\n", agent.Name(), llm.GetName(), len(payload))
}

func (l *Printer) OnAgentLLMCallEnd(ctx context.Context, agent agents.Agent, llm llms.Model, resp *llms.ContentResponse) {
	l.lock.Lock()
	defer l.lock.Unlock()
	usage := resp.Usage()
	fmt.Fprintf(l.Out, "Agent LLM Call End: %s: %s model, %d input tokens, %d output tokens\n",
		agent.Name(), llm.GetName(), usage.InputTokens, usage.OutputTokens)
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnAgentStart(ctx context.Context, agent agents.Agent, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_start",
		"chat_id", chatmodel.GetChatID(ctx),
		"agent", agent.Name(),
		"input", slices.StringUpto(input, 64),
	)
}

func (l *PackageLogger) OnAgentEnd(ctx context.Context, agent agents.Agent, input string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_end",
		"chat_id", chatmodel.GetChatID(ctx),
		"agent", agent.Name(),
		"result", slices.StringUpto(output, 64),
	)
}

func (l *PackageLogger) OnAgentError(ctx context.Context, agent agents.Agent, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "agent_error",
		"chat_id", chatmodel.GetChatID(ctx),
		"agent", agent.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnAgentLLMParseError(ctx context.Context, agent agents.Agent, input string, response string, err error) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_llm_parse_error",
		"chat_id", chatmodel.GetChatID(ctx),
		"agent", agent.Name(),
		"err", err.Error(),
		"response", response,
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, agent agents.Agent, tool string, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"chat_id", chatmodel.GetChatID(ctx),
		"agent", agent.Name(),
		"tool", tool,
		"input", slices.StringUpto(input, 64),
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, agent agents.Agent, tool string, input string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"chat_id", chatmodel.GetChatID(ctx),
		"agent", agent.Name(),
		"tool", tool,
		"output", slices.StringUpto(output, 64),
	)
}

func (l *PackageLogger) OnToolNotFound(ctx context.Context, agent agents.Agent, tool string) {
	l.logger.ContextKV(ctx, xlog.WARNING,
		"event", "tool_not_found",
		"chat_id", chatmodel.GetChatID(ctx),
		"agent", agent.Name(),
		"tool", tool,
	)
}

func (l *PackageLogger) OnAgentLLMCallStart(ctx context.Context, agent agents.Agent, llm llms.Model, payload []llms.Message) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_llm_call_start",
		"agent", agent.Name(),
		"model", llm.GetName(),
		"messages", len(payload),
	)
}

func (l *PackageLogger) OnAgentLLMCallEnd(ctx context.Context, agent agents.Agent, llm llms.Model, resp *llms.ContentResponse) {
	usage := resp.Usage()
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_llm_call_end",
		"agent", agent.Name(),
		"model", llm.GetName(),
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	)
}
