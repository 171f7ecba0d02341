// Package llmutils has helpers to clean up and measure model replies.
package llmutils

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"gopkg.in/yaml.v3"
)

// CleanJSON returns the JSON object or array in the reply,
// dropping the prose and code fences around it, for example
// `Here you go: {json}`
func CleanJSON(bs []byte) []byte {
	start := bytes.IndexAny(bs, "{[")
	if start == -1 {
		return bs
	}
	bs = bs[start:]

	end := max(bytes.LastIndexByte(bs, '}'), bytes.LastIndexByte(bs, ']'))
	if end == -1 {
		return bs
	}
	return bs[:end+1]
}

// TrimBackticks removes ```json or ``` fences
func TrimBackticks(text string) string {
	return string(BytesTrimBackticks([]byte(text)))
}

var fence = []byte("```")

// BytesTrimBackticks removes ```json, ```yaml or ``` fences
func BytesTrimBackticks(bs []byte) []byte {
	_, body, found := bytes.Cut(bs, fence)
	if !found {
		return bs
	}

	// skip the language tag, unless the content starts on the fence line
	if i := bytes.IndexAny(body, "\n{["); i != -1 && body[i] == '\n' {
		body = body[i+1:]
	}

	if end := bytes.LastIndex(body, fence); end != -1 {
		body = body[:end]
	}
	return bytes.TrimSpace(body)
}

// ToYAML returns YAML of the value, or empty string
func ToYAML(val any) string {
	bs, _ := yaml.Marshal(val)
	return string(bs)
}

// PrintMessages is a debugging helper for messages.
func PrintMessages(w io.Writer, msgs []llms.Message) {
	for _, mc := range msgs {
		fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(string(mc.Role)), mc.GetContent())
	}
}

// CountMessagesContentSize counts the size of the roles and text parts
func CountMessagesContentSize(msgs []llms.Message) uint64 {
	var size int
	for _, mc := range msgs {
		size += len(mc.Role)
		for _, p := range mc.Parts {
			size += len(p.Text)
		}
	}
	return uint64(size)
}

// CountResponseContentSize counts the size of the content of all choices
func CountResponseContentSize(resp *llms.ContentResponse) uint64 {
	var size int
	if resp != nil {
		for _, choice := range resp.Choices {
			if choice != nil {
				size += len(choice.Content)
			}
		}
	}
	return uint64(size)
}
