package agents

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/mcp"
)

// TextInput is the arguments of the agent tools
type TextInput struct {
	Text string `json:"text" jsonschema:"description=The text to process"`
}

// RequestInput is the arguments of the assistant prompt
type RequestInput struct {
	Request string `json:"request" validate:"required" jsonschema:"description=Request in plain English, including the text to process"`
	ChatID  string `json:"chat_id,omitempty" jsonschema:"description=Conversation ID to correlate the requests"`
}

// RegisterTools publishes the agents as MCP tools taking `text` argument
func RegisterTools(registrator McpServerRegistrator, list ...Agent) error {
	for _, agent := range list {
		err := registrator.RegisterTool(agent.Name(), agent.Description(), func(ctx context.Context, in TextInput) (*mcp.ToolResponse, error) {
			ctx = chatmodel.NewRun(ctx)
			return execute(ctx, agent, in.Text), nil
		})
		if err != nil {
			return errors.WithMessagef(err, "failed to register tool %s", agent.Name())
		}
	}
	return nil
}

// execute returns the agent result as text content,
// a fallback text of a failed run is not cached.
func execute(ctx context.Context, agent Agent, text string) *mcp.ToolResponse {
	fr, ok := agent.(FallbackReporter)
	if !ok {
		return mcp.NewToolResponse(mcp.NewTextContent(agent.Execute(ctx, text)))
	}
	res, err := fr.TryExecute(ctx, text)
	resp := mcp.NewToolResponse(mcp.NewTextContent(res))
	resp.NoCache = err != nil
	return resp
}

// RegisterPrompt publishes the orchestrator as MCP prompt
func RegisterPrompt(registrator McpServerRegistrator, o *Orchestrator) error {
	err := registrator.RegisterPrompt(o.Name(), o.Description(), func(ctx context.Context, in RequestInput) (*mcp.PromptResponse, error) {
		ctx = chatmodel.NewRun(chatmodel.EnsureChatContext(ctx, in.ChatID))
		answer := o.Process(ctx, in.Request)
		return mcp.NewPromptResponse(o.Description(),
			mcp.NewPromptMessage(mcp.NewTextContent(answer), mcp.RoleAssistant),
		), nil
	})
	if err != nil {
		return errors.WithMessagef(err, "failed to register prompt %s", o.Name())
	}
	return nil
}
