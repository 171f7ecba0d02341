package mcp

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ContentType is the type of the content
type ContentType string

const (
	// ContentTypeText is a text content
	ContentTypeText ContentType = "text"
)

// Role is the sender or recipient of messages and data in a conversation.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// TextContent is a text provided to or from an LLM.
type TextContent struct {
	// The text content of the message.
	Text string `json:"text"`
}

// Content is a part of a tool or prompt result.
type Content struct {
	Type        ContentType
	TextContent *TextContent
}

// MarshalJSON flattens the content into the wire shape
func (c *Content) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ContentTypeText:
		if c.TextContent == nil {
			return nil, errors.New("text content is missing")
		}
		return json.Marshal(map[string]any{
			"type": c.Type,
			"text": c.TextContent.Text,
		})
	}
	return nil, errors.Newf("unsupported content type: %q", c.Type)
}

// UnmarshalJSON reads the wire shape
func (c *Content) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type ContentType `json:"type"`
		Text *string     `json:"text"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ContentTypeText:
		if raw.Text == nil {
			return errors.New("text content is missing")
		}
		c.Type = raw.Type
		c.TextContent = &TextContent{Text: *raw.Text}
		return nil
	}
	return errors.Newf("unsupported content type: %q", raw.Type)
}

// NewTextContent returns a text content
func NewTextContent(text string) *Content {
	return &Content{
		Type:        ContentTypeText,
		TextContent: &TextContent{Text: text},
	}
}

// ToolResponse is the result of a tool call
type ToolResponse struct {
	Content []*Content `json:"content"`
	IsError bool       `json:"isError,omitempty"`
	// NoCache marks a result that must not be served from the tool cache,
	// such as a fallback text reported in place of a failed run.
	NoCache bool `json:"-"`
}

// NewToolResponse returns a tool response with the content
func NewToolResponse(content ...*Content) *ToolResponse {
	if content == nil {
		content = []*Content{}
	}
	return &ToolResponse{
		Content: content,
	}
}

// NewToolErrorResponse returns a tool response that reports the error to the caller
func NewToolErrorResponse(err error) *ToolResponse {
	return &ToolResponse{
		Content: []*Content{NewTextContent(err.Error())},
		IsError: true,
	}
}

// Text returns the concatenated text content of the response
func (r *ToolResponse) Text() string {
	var text string
	for _, c := range r.Content {
		if c.TextContent != nil {
			text += c.TextContent.Text
		}
	}
	return text
}

// PromptMessage describes a message returned as part of a prompt.
type PromptMessage struct {
	Content *Content `json:"content"`
	Role    Role     `json:"role"`
}

// NewPromptMessage returns a prompt message
func NewPromptMessage(content *Content, role Role) *PromptMessage {
	return &PromptMessage{
		Content: content,
		Role:    role,
	}
}

// PromptResponse is the result of prompts/get
type PromptResponse struct {
	Description *string          `json:"description,omitempty"`
	Messages    []*PromptMessage `json:"messages"`
}

// NewPromptResponse returns a prompt response
func NewPromptResponse(description string, messages ...*PromptMessage) *PromptResponse {
	if messages == nil {
		messages = []*PromptMessage{}
	}
	res := &PromptResponse{
		Messages: messages,
	}
	if description != "" {
		res.Description = &description
	}
	return res
}
