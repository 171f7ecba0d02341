package transport_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler replies to every request with its method name
func echoHandler(b *transport.Base) func(ctx context.Context, message *transport.BaseJsonRpcMessage) {
	return func(ctx context.Context, message *transport.BaseJsonRpcMessage) {
		if message.Type != transport.BaseMessageTypeJSONRPCRequestType {
			return
		}
		req := message.JsonRpcRequest
		go func() {
			res, _ := json.Marshal(map[string]any{"method": req.Method, "key": req.Id})
			_ = b.Send(ctx, transport.NewBaseMessageResponse(&transport.BaseJSONRPCResponse{
				Jsonrpc: transport.JSONRPCVersion,
				Id:      req.Id,
				Result:  res,
			}))
		}()
	}
}

func TestBase_HandleMessage(t *testing.T) {
	t.Parallel()

	b := transport.NewBase()
	b.SetMessageHandler(echoHandler(b))

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// all callers use the same ID
			msg, err := transport.Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
			if !assert.NoError(t, err) {
				return
			}

			resp, err := b.HandleMessage(ctx, msg)
			if !assert.NoError(t, err) || !assert.NotNil(t, resp) {
				return
			}
			assert.Equal(t, transport.BaseMessageTypeJSONRPCResponseType, resp.Type)
			assert.EqualValues(t, 1, resp.JsonRpcResponse.Id)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.Pending())
}

func TestBase_Notification(t *testing.T) {
	t.Parallel()

	b := transport.NewBase()
	var got string
	b.SetMessageHandler(func(ctx context.Context, message *transport.BaseJsonRpcMessage) {
		got = message.JsonRpcNotification.Method
	})

	msg, err := transport.Parse([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	resp, err := b.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, "notifications/initialized", got)
}

func TestBase_Errors(t *testing.T) {
	t.Parallel()

	b := transport.NewBase()
	msg, err := transport.Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)

	_, err = b.HandleMessage(context.Background(), msg)
	assert.EqualError(t, err, "message handler is not set")

	err = b.Send(context.Background(), transport.NewBaseMessageResponse(&transport.BaseJSONRPCResponse{Id: 99}))
	assert.True(t, errors.Is(err, transport.ErrNoResponseChannel))

	err = b.Send(context.Background(), transport.NewBaseMessageNotification(&transport.BaseJSONRPCNotification{Method: "x"}))
	assert.True(t, errors.Is(err, transport.ErrNoResponseChannel))

	// handler never replies
	b.SetMessageHandler(func(ctx context.Context, message *transport.BaseJsonRpcMessage) {})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = b.HandleMessage(ctx, msg)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, b.Pending())
}

func TestBase_Handlers(t *testing.T) {
	t.Parallel()

	b := transport.NewBase()
	closed := 0
	b.SetCloseHandler(func() { closed++ })
	var reported error
	b.SetErrorHandler(func(err error) { reported = err })

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 2, closed)

	b.ReportError(errors.New("boom"))
	assert.EqualError(t, reported, "boom")
}

func TestBase_Cancelled(t *testing.T) {
	t.Parallel()

	b := transport.NewBase()
	started := make(chan transport.RequestId, 1)
	cancelled := make(chan json.RawMessage, 2)
	b.SetMessageHandler(func(ctx context.Context, message *transport.BaseJsonRpcMessage) {
		switch message.Type {
		case transport.BaseMessageTypeJSONRPCRequestType:
			started <- message.JsonRpcRequest.Id
		case transport.BaseMessageTypeJSONRPCNotificationType:
			cancelled <- message.JsonRpcNotification.Params
		}
	})

	ctx := context.Background()
	parse := func(body string) *transport.BaseJsonRpcMessage {
		msg, err := transport.Parse([]byte(body))
		require.NoError(t, err)
		return msg
	}

	type result struct {
		resp *transport.BaseJsonRpcMessage
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := b.HandleMessage(ctx, parse(`{"jsonrpc":"2.0","id":100,"method":"tools/call"}`))
		done <- result{resp, err}
	}()
	key := <-started

	// not an ID of any caller
	resp, err := b.HandleMessage(ctx, parse(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":`+
		strconv.FormatInt(int64(key), 10)+`}}`))
	require.NoError(t, err)
	assert.Nil(t, resp)
	_, err = b.HandleMessage(ctx, parse(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":"abc"}}`))
	require.NoError(t, err)
	assert.Empty(t, cancelled)

	_, err = b.HandleMessage(ctx, parse(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":100,"reason":"user"}}`))
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	params := <-cancelled
	assert.JSONEq(t, `{"requestId":`+strconv.FormatInt(int64(key), 10)+`,"reason":"user"}`, string(params))

	require.NoError(t, b.Send(ctx, transport.NewBaseMessageResponse(&transport.BaseJSONRPCResponse{
		Jsonrpc: transport.JSONRPCVersion,
		Id:      key,
		Result:  json.RawMessage(`{}`),
	})))
	res := <-done
	require.NoError(t, res.err)
	assert.EqualValues(t, 100, res.resp.JsonRpcResponse.Id)

	// finished requests can not be cancelled
	_, err = b.HandleMessage(ctx, parse(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":100}}`))
	require.NoError(t, err)
	assert.Empty(t, cancelled)
	assert.Equal(t, 0, b.Pending())
}
