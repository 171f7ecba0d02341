// Package llms provides unified support for calling Language Models (LLMs) from various providers.
//
// Each subpackage includes provider-specific LLM implementation:
// bedrock, anthropic, openai and googleai.
//
// The `llms.go` file contains the types and interfaces for interacting with different LLMs.
//
// The `options.go` file provides various options and functions to configure the LLM calls.
package llms
