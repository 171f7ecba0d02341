// Package llmfactory provides factories and configuration for LLM model instantiation, supporting multiple providers (Bedrock, Anthropic, OpenAI, Google AI) and per-agent model selection.
package llmfactory
