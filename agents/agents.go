package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/bedrocktools", "agents")

//go:generate mockgen -destination=../mocks/mockllms/llm_mock.gen.go -package mockllms github.com/effective-security/bedrocktools/pkg/llms Model
//go:generate mockgen -source=agents.go -destination=../mocks/mockagents/agents_mock.gen.go -package mockagents

// Agent is a language model backed worker for one kind of text task.
// Execute never fails: errors are reported as text of the result.
type Agent interface {
	// Name returns the name of the Agent, it is also the name of the MCP tool.
	Name() string
	// Description returns the description of the Agent, to be used by MCP clients.
	Description() string
	// Execute runs the task on the text and returns the result
	Execute(ctx context.Context, text string) string
}

// FallbackReporter is implemented by agents whose Execute
// replaces a failed run with a fallback text.
// TryExecute returns the same text as Execute, and the error of the run.
type FallbackReporter interface {
	TryExecute(ctx context.Context, text string) (string, error)
}

// RouterDescriber is implemented by agents that provide
// a description for the tool selection prompt of the Orchestrator.
type RouterDescriber interface {
	RouterDescription() string
}

// McpServerRegistrator registers tools and prompts on MCP server
type McpServerRegistrator interface {
	RegisterTool(name string, description string, handler any) error
	RegisterPrompt(name string, description string, handler any) error
}

// Callback receives the events of agent runs
type Callback interface {
	OnAgentStart(ctx context.Context, agent Agent, input string)
	OnAgentEnd(ctx context.Context, agent Agent, input string, output string)
	OnAgentError(ctx context.Context, agent Agent, input string, err error)
	OnAgentLLMCallStart(ctx context.Context, agent Agent, llm llms.Model, payload []llms.Message)
	OnAgentLLMCallEnd(ctx context.Context, agent Agent, llm llms.Model, resp *llms.ContentResponse)
	OnAgentLLMParseError(ctx context.Context, agent Agent, input string, response string, err error)
	OnToolStart(ctx context.Context, agent Agent, tool string, input string)
	OnToolEnd(ctx context.Context, agent Agent, tool string, input string, output string)
	OnToolNotFound(ctx context.Context, agent Agent, tool string)
}

// GetDescriptions returns the markdown list of the agents
func GetDescriptions(list ...Agent) string {
	var ts strings.Builder
	for _, item := range list {
		ts.WriteString(fmt.Sprintf("- `%s`: %s\n", item.Name(), item.Description()))
	}
	return ts.String()
}

// MapAgents returns the agents by name
func MapAgents(list ...Agent) map[string]Agent {
	if len(list) == 0 {
		return nil
	}
	m := make(map[string]Agent, len(list))
	for _, a := range list {
		m[a.Name()] = a
	}
	return m
}

func routerDescription(a Agent) string {
	if d, ok := a.(RouterDescriber); ok {
		return d.RouterDescription()
	}
	return a.Description()
}
