package agents

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/llmutils"
	"github.com/effective-security/bedrocktools/pkg/metricskey"
	"github.com/effective-security/bedrocktools/pkg/prompts"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// Runner renders a prompt and makes a single LLM call on behalf of an agent.
type Runner struct {
	LLM    llms.Model
	prompt prompts.ChatPromptTemplate
	cfg    *Config
}

// NewRunner returns a runner of the prompt
func NewRunner(llm llms.Model, prompt prompts.ChatPromptTemplate, opts ...Option) *Runner {
	return &Runner{
		LLM:    llm,
		prompt: prompt,
		cfg:    NewConfig(opts...),
	}
}

// Config returns the config of the runner
func (r *Runner) Config() *Config {
	return r.cfg
}

// Run renders the prompt with the inputs and returns the text of the LLM reply.
// Empty replies are retried up to MaxRetries times.
func (r *Runner) Run(ctx context.Context, agent Agent, input string, inputs map[string]any, opts ...Option) (string, error) {
	started := time.Now()
	defer metricskey.PerfAgentCall.MeasureSince(started, agent.Name())

	cfg := r.cfg.Apply(opts...)

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAgentStart(ctx, agent, input)
	}

	result, err := r.run(ctx, cfg, agent, inputs)
	if err != nil {
		metricskey.StatsAgentCallsFailed.IncrCounter(1, agent.Name())
		if callback != nil {
			callback.OnAgentError(ctx, agent, input, err)
		}
		return "", err
	}
	metricskey.StatsAgentCallsSucceeded.IncrCounter(1, agent.Name())
	if callback != nil {
		callback.OnAgentEnd(ctx, agent, input, result)
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, cfg *Config, agent Agent, inputs map[string]any) (string, error) {
	agentName := agent.Name()

	messages, err := r.prompt.FormatMessages(inputs)
	if err != nil {
		return "", errors.WithMessage(err, "failed to format prompt")
	}

	bytesSent := llmutils.CountMessagesContentSize(messages)
	bytesLimit := uint64(values.NumbersCoalesce(cfg.MaxLength, DefaultMaxContentSize))
	if bytesSent > bytesLimit {
		return "", errors.Newf("agent %s: the content size exceeded limit", agentName)
	}

	maxRetries := values.NumbersCoalesce(cfg.MaxRetries, DefaultMaxRetries)
	modelName := values.StringsCoalesce(cfg.Model, r.LLM.GetName())
	callOpts := cfg.GetCallOptions()

	for retryCount := 1; ; retryCount++ {
		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAgentLLMCallStart(ctx, agent, r.LLM, messages)
		}
		metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), agentName, modelName)

		callStarted := time.Now()
		resp, err := r.LLM.GenerateContent(ctx, messages, callOpts...)
		metricskey.PerfLLMCall.MeasureSince(callStarted, agentName, modelName)
		if err != nil && !errors.Is(err, llms.ErrEmptyResponse) {
			return "", errors.WithMessage(err, "failed to generate content from LLM")
		}

		if resp != nil {
			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnAgentLLMCallEnd(ctx, agent, r.LLM, resp)
			}

			metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), agentName, modelName)
			usage := resp.Usage()
			metricskey.StatsLLMInputTokens.IncrCounter(float64(usage.InputTokens), agentName, modelName)
			metricskey.StatsLLMOutputTokens.IncrCounter(float64(usage.OutputTokens), agentName, modelName)
			metricskey.StatsLLMTotalTokens.IncrCounter(float64(usage.TotalTokens), agentName, modelName)

			if result := resp.Text(); strings.TrimSpace(result) != "" {
				logger.ContextKV(ctx, xlog.DEBUG,
					"agent", agentName,
					"model", modelName,
					"stop_reason", resp.Choices[0].StopReason,
					"tokens", usage.TotalTokens,
					"result", slices.StringUpto(result, 64),
				)
				return result, nil
			}
		}

		if retryCount >= maxRetries {
			logger.ContextKV(ctx, xlog.ERROR,
				"agent", agentName,
				"status", "max_retries_exceeded",
				"retry_count", retryCount,
			)
			return "", errors.Newf("agent %s: LLM returned empty response after %d retries", agentName, retryCount)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", agentName,
			"status", "retrying_empty_response",
			"retry_count", retryCount,
		)
	}
}
