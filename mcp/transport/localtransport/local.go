// Package localtransport provides in-process MCP transport and client,
// used by the CLI and tests to talk to a server without a network.
package localtransport

import (
	"context"

	"github.com/effective-security/bedrocktools/mcp/transport"
)

// Transport is a stateless in-process server transport
type Transport struct {
	*transport.Base
}

// New returns a new local transport
func New() *Transport {
	return &Transport{
		Base: transport.NewBase(),
	}
}

// Start implements Transport.Start
func (s *Transport) Start(ctx context.Context) error {
	// Does nothing in the stateless local transport
	return nil
}

// HandleMessage processes the raw message and returns a response.
// Returns nil response for notifications, and error response
// if the body is not a valid JSON-RPC message.
func (s *Transport) HandleMessage(ctx context.Context, body []byte) (*transport.BaseJsonRpcMessage, error) {
	msg, err := transport.Parse(body)
	if err != nil {
		return transport.NewErrorMessage(nil, transport.ParseFailureCode(body), err.Error()), nil
	}
	return s.Base.HandleMessage(ctx, msg)
}
