package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/encoding"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/metricskey"
	"github.com/effective-security/bedrocktools/pkg/prompts"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

const (
	// OrchestratorName is the name of the orchestrator, also the MCP prompt name
	OrchestratorName = "assistant"
	// NoToolFound is the tool name the router selects when no tool fits
	NoToolFound = "no_tool_found"
)

// Replies of the orchestrator when the request can not be served
const (
	MessageNotUnderstood = "I'm sorry, I had trouble understanding which tool to use. Could you please rephrase your request?"
	MessageNoText        = "I understood which tool to use, but I couldn't find the text to process in your request."
	MessageNoTool        = "I'm sorry, I don't have a tool that can help with that. I can summarize, analyze sentiment, or translate text to French."
	messageInvalidTool   = "I'm sorry, I selected an invalid tool ('%s'). Please try rephrasing your request."
)

// RouterPrompt is the tool selection prompt in jinja2 format
const RouterPrompt = `You are an intelligent router that selects the best tool to respond to a user's request.
Based on the user's request and the available tools, choose the most appropriate tool and provide the necessary input for it.
Respond ONLY with a single valid {{ format }} object containing "tool_name" and "tool_input".

<tools>
{% for tool in tools %}<tool>
    <name>{{ tool.name }}</name>
    <description>{{ tool.description }}</description>
    <input_schema>{{ tool.input_schema }}</input_schema>
</tool>
{% endfor %}</tools>

<user_request>
{{ user_request }}
</user_request>
{{ format_instructions }}`

// FinalAnswerPrompt asks the model to present the tool result
const FinalAnswerPrompt = `A user asked the following question: "{{.user_request}}"
We used a tool and got this result: "{{.tool_result}}"
Please present this result to the user in a clear and friendly final answer.`

// ToolSelection is the reply of the router
type ToolSelection struct {
	ToolName  string         `json:"tool_name" yaml:"tool_name" validate:"required" jsonschema:"description=Name of the selected tool"`
	ToolInput map[string]any `json:"tool_input,omitempty" yaml:"tool_input,omitempty" jsonschema:"description=Input of the selected tool"`
}

// Fake returns an example of the selection
func (ToolSelection) Fake() any {
	return &ToolSelection{
		ToolName:  SummarizationToolName,
		ToolInput: map[string]any{"text": "The text to summarize"},
	}
}

// Text returns tool_input.text
func (s *ToolSelection) Text() string {
	text, _ := s.ToolInput["text"].(string)
	return text
}

// Orchestrator selects the agent for a free form request,
// executes it and presents the result.
type Orchestrator struct {
	agents map[string]Agent
	list   []Agent
	parser *encoding.TypedOutputParser[ToolSelection]
	format string

	router *Runner
	answer *Runner
}

var _ Agent = (*Orchestrator)(nil)

// NewOrchestrator returns the orchestrator of the agents
func NewOrchestrator(llm llms.Model, list []Agent, opts ...Option) (*Orchestrator, error) {
	cfg := NewConfig(opts...)
	parser, err := encoding.NewTypedOutputParser(ToolSelection{}, cfg.Mode)
	if err != nil {
		return nil, err
	}
	parser.WithValidation(true)

	routerPrompt := prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewHumanMessagePromptTemplate(RouterPrompt,
			[]string{"tools", "user_request", "format", "format_instructions"}).
			WithFormat(prompts.TemplateFormatJinja2),
	})
	answerPrompt := prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewHumanMessagePromptTemplate(FinalAnswerPrompt, []string{"user_request", "tool_result"}),
	})

	o := &Orchestrator{
		agents: MapAgents(list...),
		list:   list,
		parser: parser,
		format: strings.ToUpper(cfg.Mode),
		router: NewRunner(llm, routerPrompt, append([]Option{WithMaxTokens(512), WithTemperature(0)}, opts...)...),
		answer: NewRunner(llm, answerPrompt, append([]Option{WithMaxTokens(2048), WithTemperature(0.7)}, opts...)...),
	}
	return o, nil
}

// Name returns the name of the orchestrator
func (o *Orchestrator) Name() string {
	return OrchestratorName
}

// Description returns the description of the orchestrator
func (o *Orchestrator) Description() string {
	return "Understands a request in plain English, selects the tool to serve it and presents the result. Available tools:\n" +
		GetDescriptions(o.list...)
}

// Execute processes the request
func (o *Orchestrator) Execute(ctx context.Context, request string) string {
	return o.Process(ctx, request)
}

// SelectTool asks the model to select the tool for the request
func (o *Orchestrator) SelectTool(ctx context.Context, request string) (*ToolSelection, error) {
	tools := make([]map[string]any, 0, len(o.list)+1)
	for _, a := range o.list {
		tools = append(tools, map[string]any{
			"name":         a.Name(),
			"description":  routerDescription(a),
			"input_schema": `{"text": "string"}`,
		})
	}
	tools = append(tools, map[string]any{
		"name":         NoToolFound,
		"description":  "Use this tool if none of the other tools are suitable for the user's request. The input should be a reason why no tool was chosen.",
		"input_schema": `{"reason": "string"}`,
	})

	reply, err := o.router.Run(ctx, o, request, map[string]any{
		"tools":               tools,
		"user_request":        request,
		"format":              o.format,
		"format_instructions": o.parser.GetFormatInstructions(),
	})
	if err != nil {
		return nil, err
	}

	sel, err := o.parser.Parse(reply)
	if err != nil {
		metricskey.StatsAgentLLMParseErrors.IncrCounter(1, o.Name())
		if cb := o.router.cfg.CallbackHandler; cb != nil {
			cb.OnAgentLLMParseError(ctx, o, request, reply, err)
		}
		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", o.Name(),
			"status", "failed_to_parse_llm_response",
			"output_parser", o.parser.Type(),
			"err", err.Error(),
			"reply", reply,
		)
		return nil, err
	}
	return sel, nil
}

// Process selects the tool, executes it and returns the final answer.
func (o *Orchestrator) Process(ctx context.Context, request string) string {
	ctx = chatmodel.EnsureChatContext(ctx, "")

	sel, err := o.SelectTool(ctx, request)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"agent", o.Name(),
			"status", "tool_selection_failed",
			"err", err.Error(),
		)
		return MessageNotUnderstood
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"agent", o.Name(),
		"status", "tool_selected",
		"tool", sel.ToolName,
		"input", sel.ToolInput,
	)

	cb := o.router.cfg.CallbackHandler

	agent, ok := o.agents[sel.ToolName]
	if !ok {
		if sel.ToolName == NoToolFound {
			return MessageNoTool
		}
		metricskey.StatsToolCallsNotFound.IncrCounter(1, sel.ToolName)
		if cb != nil {
			cb.OnToolNotFound(ctx, o, sel.ToolName)
		}
		return fmt.Sprintf(messageInvalidTool, sel.ToolName)
	}

	text := sel.Text()
	if strings.TrimSpace(text) == "" {
		return MessageNoText
	}

	if cb != nil {
		cb.OnToolStart(ctx, o, agent.Name(), text)
	}
	result := agent.Execute(ctx, text)
	if cb != nil {
		cb.OnToolEnd(ctx, o, agent.Name(), text, result)
	}

	answer, err := o.answer.Run(ctx, o, request, map[string]any{
		"user_request": request,
		"tool_result":  result,
	})
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"agent", o.Name(),
			"status", "final_answer_failed",
			"tool", agent.Name(),
			"result", slices.StringUpto(result, 64),
			"err", err.Error(),
		)
		return result
	}
	return answer
}
