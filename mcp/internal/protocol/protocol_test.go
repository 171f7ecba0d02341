package protocol

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTransport struct {
	*transport.Base
	sent    []*transport.BaseJsonRpcMessage
	started bool
}

func (t *testTransport) Start(ctx context.Context) error {
	t.started = true
	return nil
}

func (t *testTransport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	if message.Type == transport.BaseMessageTypeJSONRPCNotificationType {
		t.sent = append(t.sent, message)
		return nil
	}
	return t.Base.Send(ctx, message)
}

func newConnected(t *testing.T) (*Protocol, *testTransport) {
	tr := &testTransport{Base: transport.NewBase()}
	p := NewProtocol()
	require.NoError(t, p.Connect(context.Background(), tr))
	assert.True(t, tr.started)
	return p, tr
}

func call(t *testing.T, tr *testTransport, body string) *transport.BaseJsonRpcMessage {
	msg, err := transport.Parse([]byte(body))
	require.NoError(t, err)
	resp, err := tr.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	return resp
}

func TestProtocol_Request(t *testing.T) {
	p, tr := newConnected(t)

	p.SetRequestHandler("echo", func(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
		var params map[string]any
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, transport.NewError(transport.InvalidParams, "invalid params")
		}
		return params, nil
	})
	p.SetRequestHandler("fail", func(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
		return nil, errors.New("handler failed")
	})
	p.SetRequestHandler("bad_result", func(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
		return func() {}, nil
	})

	resp := call(t, tr, `{"jsonrpc":"2.0","id":11,"method":"echo","params":{"a":1}}`)
	require.Equal(t, transport.BaseMessageTypeJSONRPCResponseType, resp.Type)
	assert.EqualValues(t, 11, resp.JsonRpcResponse.Id)
	assert.JSONEq(t, `{"a":1}`, string(resp.JsonRpcResponse.Result))

	resp = call(t, tr, `{"jsonrpc":"2.0","id":12,"method":"echo","params":[1]}`)
	require.Equal(t, transport.BaseMessageTypeJSONRPCErrorType, resp.Type)
	assert.EqualValues(t, 12, *resp.JsonRpcError.Id)
	assert.Equal(t, transport.InvalidParams, resp.JsonRpcError.Error.Code)

	resp = call(t, tr, `{"jsonrpc":"2.0","id":13,"method":"fail"}`)
	require.Equal(t, transport.BaseMessageTypeJSONRPCErrorType, resp.Type)
	assert.Equal(t, transport.ServerError, resp.JsonRpcError.Error.Code)
	assert.Equal(t, "handler failed", resp.JsonRpcError.Error.Message)

	resp = call(t, tr, `{"jsonrpc":"2.0","id":14,"method":"unknown"}`)
	require.Equal(t, transport.BaseMessageTypeJSONRPCErrorType, resp.Type)
	assert.Equal(t, transport.MethodNotFound, resp.JsonRpcError.Error.Code)
	assert.Equal(t, "Method not found: unknown", resp.JsonRpcError.Error.Message)

	resp = call(t, tr, `{"jsonrpc":"2.0","id":15,"method":"bad_result"}`)
	require.Equal(t, transport.BaseMessageTypeJSONRPCErrorType, resp.Type)
	assert.Contains(t, resp.JsonRpcError.Error.Message, "failed to marshal result")

	p.RemoveRequestHandler("echo")
	resp = call(t, tr, `{"jsonrpc":"2.0","id":16,"method":"echo","params":{}}`)
	assert.Equal(t, transport.MethodNotFound, resp.JsonRpcError.Error.Code)

	assert.Equal(t, 0, p.InFlight())
}

func TestProtocol_Cancel(t *testing.T) {
	p, tr := newConnected(t)

	started := make(chan transport.RequestId, 1)
	p.SetRequestHandler("slow", func(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
		started <- req.Id
		<-ctx.Done()
		return nil, ctx.Err()
	})

	done := make(chan *transport.BaseJsonRpcMessage, 1)
	go func() {
		msg, _ := transport.Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"slow"}`))
		resp, _ := tr.HandleMessage(context.Background(), msg)
		done <- resp
	}()

	var key transport.RequestId
	select {
	case key = <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
	assert.Equal(t, 1, p.InFlight())

	params, _ := json.Marshal(map[string]any{"requestId": key, "reason": "test"})
	cancelMsg, err := transport.Parse([]byte(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":` + string(params) + `}`))
	require.NoError(t, err)
	_, err = tr.HandleMessage(context.Background(), cancelMsg)
	require.NoError(t, err)

	select {
	case resp := <-done:
		require.NotNil(t, resp)
		assert.Equal(t, transport.BaseMessageTypeJSONRPCErrorType, resp.Type)
		assert.Equal(t, "context canceled", resp.JsonRpcError.Error.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("request was not cancelled")
	}
}

func TestProtocol_Notifications(t *testing.T) {
	p, tr := newConnected(t)

	var count int32
	p.SetNotificationHandler("custom", func(ctx context.Context, n *transport.BaseJSONRPCNotification) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	var reported error
	p.OnError = func(err error) { reported = err }

	assert.Nil(t, call(t, tr, `{"jsonrpc":"2.0","method":"custom"}`))
	assert.Nil(t, call(t, tr, `{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, call(t, tr, `{"jsonrpc":"2.0","method":"unknown/notification"}`))
	assert.EqualValues(t, 1, atomic.LoadInt32(&count))

	p.RemoveNotificationHandler("custom")
	assert.Nil(t, call(t, tr, `{"jsonrpc":"2.0","method":"custom"}`))
	assert.EqualValues(t, 1, atomic.LoadInt32(&count))

	// bad cancel params are reported
	assert.Nil(t, call(t, tr, `{"jsonrpc":"2.0","method":"notifications/cancelled","params":[]}`))
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "failed to unmarshal cancelled params")

	require.NoError(t, p.Notification(context.Background(), "notifications/tools/list_changed", map[string]any{}))
	require.Len(t, tr.sent, 1)
	assert.Equal(t, "notifications/tools/list_changed", tr.sent[0].JsonRpcNotification.Method)
}

func TestProtocol_Close(t *testing.T) {
	p := NewProtocol()
	assert.NoError(t, p.Close())
	assert.Equal(t, ErrNotConnected, p.Notification(context.Background(), "x", nil))

	p, _ = newConnected(t)
	closed := false
	p.OnClose = func() { closed = true }
	require.NoError(t, p.Close())
	assert.True(t, closed)
}
