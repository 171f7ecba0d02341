package llms

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
)

// ErrUnexpectedRole is returned when a message role is of an unexpected type.
var ErrUnexpectedRole = errors.New("unexpected role")

// Role is the type of chat message.
type Role string

const (
	// RoleAI is a message sent by an AI.
	RoleAI Role = "ai"
	// RoleHuman is a message sent by a human.
	RoleHuman Role = "human"
	// RoleSystem is a message sent by the system.
	RoleSystem Role = "system"
)

// Message is the message sent to a LLM. It has a role and a
// sequence of parts.
type Message struct {
	Role  Role          `json:"role"`
	Parts []TextContent `json:"parts"`
}

// TextContent is content with some text.
type TextContent struct {
	Text string `json:"text"`
}

func (tc TextContent) String() string {
	return tc.Text
}

// TextPart creates TextContent from a given string.
func TextPart(s string) TextContent {
	return TextContent{Text: s}
}

// MessageFromTextParts is a helper function to create a Message with a role and a
// list of text parts.
func MessageFromTextParts(role Role, parts ...string) Message {
	result := Message{
		Role:  role,
		Parts: make([]TextContent, 0, len(parts)),
	}
	for _, part := range parts {
		result.Parts = append(result.Parts, TextPart(part))
	}
	return result
}

// GetContent returns the text parts joined by new line
func (m Message) GetContent() string {
	var buf strings.Builder
	for i, p := range m.Parts {
		if i > 0 && !strings.HasSuffix(m.Parts[i-1].Text, "\n") {
			buf.WriteString("\n")
		}
		buf.WriteString(p.Text)
	}
	return buf.String()
}

// SplitSystem returns the joined system prompt and the rest of messages
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if c := m.GetContent(); c != "" {
				system = append(system, c)
			}
			continue
		}
		if len(m.Parts) == 0 {
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n"), rest
}

// ContentResponse is the response returned by a GenerateContent call.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is one of the response choices returned by GenerateContent
// calls.
type ContentChoice struct {
	// Content is the textual content of a response
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	// InputTokens, OutputTokens and TotalTokens are reported by all providers.
	GenerationInfo map[string]any `json:"generation_info"`
}

// Usage is the token usage reported by the model
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// NewGenerationInfo returns GenerationInfo with token usage
func NewGenerationInfo(input, output int64) map[string]any {
	return map[string]any{
		"InputTokens":  input,
		"OutputTokens": output,
		"TotalTokens":  input + output,
	}
}

// Text returns the content of the first choice
func (r *ContentResponse) Text() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0] == nil {
		return ""
	}
	return r.Choices[0].Content
}

// Usage returns the total token usage of all choices
func (r *ContentResponse) Usage() Usage {
	var u Usage
	if r == nil {
		return u
	}
	for _, c := range r.Choices {
		if c == nil || c.GenerationInfo == nil {
			continue
		}
		info := values.MapAny(c.GenerationInfo)
		u.InputTokens += info.Int64("InputTokens")
		u.OutputTokens += info.Int64("OutputTokens")
		u.TotalTokens += values.NumbersCoalesce(info.Int64("TotalTokens"), info.Int64("InputTokens")+info.Int64("OutputTokens"))
	}
	return u
}
