package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MethodCancelled is the notification that cancels an in-flight request
const MethodCancelled = "notifications/cancelled"

// ErrNoResponseChannel is returned by Send when nobody waits for the response.
var ErrNoResponseChannel = errors.New("no response channel")

// Base implements the request correlation shared by the
// request/response style transports.
//
// Incoming request IDs are replaced by an internal key, so concurrent
// stateless callers that reuse IDs never collide; the original ID is
// restored on the response. Cancellation notifications are translated
// to the internal keys of the caller's in-flight requests.
type Base struct {
	messageHandler func(ctx context.Context, message *BaseJsonRpcMessage)
	errorHandler   func(error)
	closeHandler   func()
	mu             sync.RWMutex
	responseMap    map[int64]chan *BaseJsonRpcMessage
	inflight       map[RequestId][]int64
	atomicCounter  int64
}

// NewBase returns a new Base
func NewBase() *Base {
	return &Base{
		responseMap: make(map[int64]chan *BaseJsonRpcMessage),
		inflight:    make(map[RequestId][]int64),
	}
}

// Send implements Transport.Send
func (t *Base) Send(ctx context.Context, message *BaseJsonRpcMessage) error {
	key, ok := message.MessageID()
	if !ok {
		return errors.WithMessagef(ErrNoResponseChannel, "message type %s", message.Type)
	}

	t.mu.RLock()
	ch := t.responseMap[int64(key)]
	t.mu.RUnlock()

	if ch == nil {
		return errors.WithMessagef(ErrNoResponseChannel, "key: %d", key)
	}
	// the channel is buffered and receives exactly one message
	select {
	case ch <- message:
		return nil
	default:
		return errors.Errorf("response already sent for key: %d", key)
	}
}

// Close implements Transport.Close
func (t *Base) Close() error {
	t.mu.RLock()
	handler := t.closeHandler
	t.mu.RUnlock()

	if handler != nil {
		handler()
	}
	return nil
}

// SetCloseHandler implements Transport.SetCloseHandler
func (t *Base) SetCloseHandler(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeHandler = handler
}

// SetErrorHandler implements Transport.SetErrorHandler
func (t *Base) SetErrorHandler(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorHandler = handler
}

// SetMessageHandler implements Transport.SetMessageHandler
func (t *Base) SetMessageHandler(handler func(ctx context.Context, message *BaseJsonRpcMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

// ReportError forwards err to the error handler, if any
func (t *Base) ReportError(err error) {
	t.mu.RLock()
	handler := t.errorHandler
	t.mu.RUnlock()

	if handler != nil {
		handler(err)
	}
}

// HandleMessage dispatches the message to the message handler.
// For requests it blocks until the response is sent, or ctx is done;
// for other message types it returns nil response immediately.
func (t *Base) HandleMessage(ctx context.Context, message *BaseJsonRpcMessage) (*BaseJsonRpcMessage, error) {
	t.mu.RLock()
	handler := t.messageHandler
	t.mu.RUnlock()

	if handler == nil {
		return nil, errors.New("message handler is not set")
	}

	if message.Type == BaseMessageTypeJSONRPCNotificationType &&
		message.JsonRpcNotification.Method == MethodCancelled {
		for _, n := range t.cancellations(message.JsonRpcNotification) {
			handler(ctx, NewBaseMessageNotification(n))
		}
		return nil, nil
	}

	if message.Type != BaseMessageTypeJSONRPCRequestType {
		handler(ctx, message)
		return nil, nil
	}

	prevID := message.JsonRpcRequest.Id
	key := atomic.AddInt64(&t.atomicCounter, 1)
	ch := make(chan *BaseJsonRpcMessage, 1)

	t.mu.Lock()
	t.responseMap[key] = ch
	t.inflight[prevID] = append(t.inflight[prevID], key)
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.responseMap, key)
		t.removeInflight(prevID, key)
		t.mu.Unlock()
	}()

	message.JsonRpcRequest.Id = RequestId(key)

	handler(ctx, message)

	select {
	case resp := <-ch:
		resp.SetMessageID(prevID)
		return resp, nil
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	}
}

// cancellations returns the notification rewritten for every in-flight
// request with the cancelled ID. Unknown IDs are dropped.
func (t *Base) cancellations(n *BaseJSONRPCNotification) []*BaseJSONRPCNotification {
	id := gjson.GetBytes(n.Params, "requestId")
	if id.Type != gjson.Number {
		return nil
	}

	t.mu.RLock()
	keys := append([]int64(nil), t.inflight[RequestId(id.Int())]...)
	t.mu.RUnlock()

	list := make([]*BaseJSONRPCNotification, 0, len(keys))
	for _, key := range keys {
		params, err := sjson.SetBytes(n.Params, "requestId", key)
		if err != nil {
			t.ReportError(errors.Wrap(err, "failed to rewrite cancelled notification"))
			continue
		}
		list = append(list, &BaseJSONRPCNotification{
			Jsonrpc: n.Jsonrpc,
			Method:  n.Method,
			Params:  params,
		})
	}
	return list
}

// removeInflight must be called with the lock held
func (t *Base) removeInflight(id RequestId, key int64) {
	keys := t.inflight[id]
	for i, k := range keys {
		if k == key {
			keys = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(keys) == 0 {
		delete(t.inflight, id)
	} else {
		t.inflight[id] = keys
	}
}

// Pending returns the number of requests waiting for a response
func (t *Base) Pending() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.responseMap)
}
