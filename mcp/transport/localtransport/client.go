package localtransport

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/xdb/pkg/flake"
)

// Handler processes raw JSON-RPC messages
type Handler interface {
	HandleMessage(ctx context.Context, body []byte) (*transport.BaseJsonRpcMessage, error)
}

// RPCError is returned by Client when the server responds with error
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return e.Message
}

// Tool is a tool description returned by the server
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ContentItem is a part of the tool result
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolResult is the result of tools/call
type ToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Text returns the concatenated text content
func (r *ToolResult) Text() string {
	var text string
	for _, c := range r.Content {
		text += c.Text
	}
	return text
}

// ServerInfo is the result of initialize
type ServerInfo struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
	Instructions string `json:"instructions,omitempty"`
}

// Client is a minimal MCP client over a Handler
type Client struct {
	handler Handler
}

// NewClient returns a client for the handler
func NewClient(handler Handler) *Client {
	return &Client{handler: handler}
}

// Call sends request and decodes the result into result, if not nil
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	req := &transport.BaseJSONRPCRequest{
		Jsonrpc: transport.JSONRPCVersion,
		Method:  method,
		Id:      transport.RequestId(flake.DefaultIDGenerator.NextID() & 0x7fffffffffffffff),
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return errors.Wrap(err, "failed to marshal params")
		}
		req.Params = raw
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	resp, err := c.handler.HandleMessage(ctx, body)
	if err != nil {
		return err
	}
	if resp == nil {
		return errors.Errorf("no response for %s", method)
	}

	switch resp.Type {
	case transport.BaseMessageTypeJSONRPCErrorType:
		return &RPCError{
			Code:    resp.JsonRpcError.Error.Code,
			Message: resp.JsonRpcError.Error.Message,
		}
	case transport.BaseMessageTypeJSONRPCResponseType:
		if resp.JsonRpcResponse.Id != req.Id {
			return errors.Errorf("unexpected response id: %d", resp.JsonRpcResponse.Id)
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(resp.JsonRpcResponse.Result, result); err != nil {
			return errors.Wrap(err, "failed to unmarshal result")
		}
		return nil
	}
	return errors.Errorf("unexpected response type: %s", resp.Type)
}

// Notify sends notification
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	n := &transport.BaseJSONRPCNotification{
		Jsonrpc: transport.JSONRPCVersion,
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return errors.Wrap(err, "failed to marshal params")
		}
		n.Params = raw
	}
	body, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "failed to marshal notification")
	}
	_, err = c.handler.HandleMessage(ctx, body)
	return err
}

// Initialize performs the initialize handshake
func (c *Client) Initialize(ctx context.Context, name, version string) (*ServerInfo, error) {
	params := map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]string{
			"name":    name,
			"version": version,
		},
	}
	res := new(ServerInfo)
	if err := c.Call(ctx, "initialize", params, res); err != nil {
		return nil, err
	}
	if err := c.Notify(ctx, "notifications/initialized", nil); err != nil {
		return nil, err
	}
	return res, nil
}

// Ping checks the server is alive
func (c *Client) Ping(ctx context.Context) error {
	return c.Call(ctx, "ping", nil, nil)
}

// ListTools returns all tools, following the pagination cursor
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var list []Tool
	var cursor *string
	for {
		var params any
		if cursor != nil {
			params = map[string]string{"cursor": *cursor}
		}
		var res struct {
			Tools      []Tool  `json:"tools"`
			NextCursor *string `json:"nextCursor"`
		}
		if err := c.Call(ctx, "tools/list", params, &res); err != nil {
			return nil, err
		}
		list = append(list, res.Tools...)
		if res.NextCursor == nil || *res.NextCursor == "" {
			return list, nil
		}
		cursor = res.NextCursor
	}
}

// CallTool calls the tool with arguments
func (c *Client) CallTool(ctx context.Context, name string, args any) (*ToolResult, error) {
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}
	res := new(ToolResult)
	if err := c.Call(ctx, "tools/call", params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// PromptResult is the result of prompts/get
type PromptResult struct {
	Description string `json:"description,omitempty"`
	Messages    []struct {
		Role    string      `json:"role"`
		Content ContentItem `json:"content"`
	} `json:"messages"`
}

// Text returns the text of the messages, separated by new line
func (r *PromptResult) Text() string {
	var text string
	for i, m := range r.Messages {
		if i > 0 {
			text += "\n"
		}
		text += m.Content.Text
	}
	return text
}

// GetPrompt renders the prompt with arguments
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*PromptResult, error) {
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}
	res := new(PromptResult)
	if err := c.Call(ctx, "prompts/get", params, res); err != nil {
		return nil, err
	}
	return res, nil
}
