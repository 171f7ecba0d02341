package localtransport_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/bedrocktools/mcp/transport/localtransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Text string `json:"text" jsonschema:"description=Text to echo" validate:"required"`
}

func newServer(t *testing.T) *localtransport.Client {
	tr := localtransport.New()
	server := mcp.NewServer(tr, mcp.WithPaginationLimit(1))

	require.NoError(t, server.RegisterTool("echo", "Echo the text", func(args echoArgs) (*mcp.ToolResponse, error) {
		return mcp.NewToolResponse(mcp.NewTextContent(args.Text)), nil
	}))
	require.NoError(t, server.RegisterTool("fail", "Always fails", func(ctx context.Context, args echoArgs) (*mcp.ToolResponse, error) {
		return nil, errors.New("tool failed")
	}))
	require.NoError(t, server.RegisterPrompt("greet", "Greets the user", func(args echoArgs) (*mcp.PromptResponse, error) {
		return mcp.NewPromptResponse("greeting",
			mcp.NewPromptMessage(mcp.NewTextContent("Bonjour "+args.Text), mcp.RoleAssistant),
			mcp.NewPromptMessage(mcp.NewTextContent("Au revoir"), mcp.RoleAssistant),
		), nil
	}))
	require.NoError(t, server.Serve(context.Background()))
	t.Cleanup(func() {
		_ = server.Close()
	})

	return localtransport.NewClient(tr)
}

func TestClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newServer(t)

	info, err := client.Initialize(ctx, "test", "1.0")
	require.NoError(t, err)
	assert.Equal(t, mcp.DefaultServerName, info.ServerInfo.Name)
	assert.Equal(t, "2025-06-18", info.ProtocolVersion)

	require.NoError(t, client.Ping(ctx))

	tools, err := client.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "echo", tools[0].Name)
	assert.Equal(t, "fail", tools[1].Name)
	assert.Equal(t, "Echo the text", tools[0].Description)

	var sc map[string]any
	require.NoError(t, json.Unmarshal(tools[0].InputSchema, &sc))
	assert.Equal(t, "object", sc["type"])
	assert.Equal(t, []any{"text"}, sc["required"])

	res, err := client.CallTool(ctx, "echo", map[string]string{"text": "hello"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "hello", res.Text())

	res, err = client.CallTool(ctx, "fail", map[string]string{"text": "hello"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "tool failed", res.Text())

	_, err = client.CallTool(ctx, "missing", map[string]string{"text": "hello"})
	var rpcErr *localtransport.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, transport.InvalidParams, rpcErr.Code)
	assert.Equal(t, "unknown tool: missing", rpcErr.Message)

	_, err = client.CallTool(ctx, "echo", map[string]string{})
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, transport.InvalidParams, rpcErr.Code)
	assert.Contains(t, rpcErr.Message, "invalid arguments")

	prompt, err := client.GetPrompt(ctx, "greet", map[string]string{"text": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "greeting", prompt.Description)
	require.Len(t, prompt.Messages, 2)
	assert.Equal(t, "assistant", prompt.Messages[0].Role)
	assert.Equal(t, "Bonjour Alice\nAu revoir", prompt.Text())

	_, err = client.GetPrompt(ctx, "missing", nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "unknown prompt: missing", rpcErr.Message)

	err = client.Call(ctx, "resources/list", nil, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, transport.MethodNotFound, rpcErr.Code)
	assert.Equal(t, "Method not found: resources/list", rpcErr.Message)
}
