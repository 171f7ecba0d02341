// Package protocol implements the server side of JSON-RPC framing for MCP
// on top of a pluggable transport.
//
// Every request is dispatched to the handler registered for its method in
// its own goroutine with a cancellable context. The handler result is
// marshalled into a response; handler errors become JSON-RPC errors, with
// the code taken from *transport.Error when present.
//
// Thread Safety:
//   - All public methods are thread-safe
//   - Uses sync.RWMutex for state protection
//
// Usage:
//
//	p := protocol.NewProtocol()
//	p.SetRequestHandler("ping", func(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
//		return map[string]any{}, nil
//	})
//	err := p.Connect(tr)
//	defer p.Close()
package protocol

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/bedrocktools/mcp/internal", "protocol")

// Standard notifications
const (
	NotificationCancelled   = transport.MethodCancelled
	NotificationInitialized = "notifications/initialized"
	NotificationProgress    = "$/progress"
)

// ErrNotConnected is returned when the protocol has no transport.
var ErrNotConnected = errors.New("not connected")

// RequestHandler handles a request and returns the result to be sent to the caller.
type RequestHandler func(ctx context.Context, request *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error)

// NotificationHandler handles a notification
type NotificationHandler func(ctx context.Context, notification *transport.BaseJSONRPCNotification) error

// Protocol implements MCP protocol framing on top of a pluggable transport
type Protocol struct {
	transport transport.Transport
	mu        sync.RWMutex

	// Maps method name to request handler
	requestHandlers map[string]RequestHandler
	// Maps request ID to cancellation function
	requestCancellers map[transport.RequestId]context.CancelFunc
	// Maps method name to notification handler
	notificationHandlers map[string]NotificationHandler

	// OnClose is called when the connection is closed for any reason
	OnClose func()
	// OnError is called when an error occurs
	OnError func(error)
}

// NewProtocol creates a new Protocol instance
func NewProtocol() *Protocol {
	p := &Protocol{
		requestHandlers:      make(map[string]RequestHandler),
		requestCancellers:    make(map[transport.RequestId]context.CancelFunc),
		notificationHandlers: make(map[string]NotificationHandler),
	}

	p.SetNotificationHandler(NotificationCancelled, p.handleCancelledNotification)
	p.SetNotificationHandler(NotificationInitialized, p.handleIgnoredNotification)
	p.SetNotificationHandler(NotificationProgress, p.handleIgnoredNotification)

	return p
}

// Connect attaches to the given transport, starts it, and starts listening for messages
func (p *Protocol) Connect(ctx context.Context, tr transport.Transport) error {
	p.mu.Lock()
	p.transport = tr
	p.mu.Unlock()

	tr.SetCloseHandler(p.handleClose)
	tr.SetErrorHandler(p.handleError)
	tr.SetMessageHandler(func(ctx context.Context, message *transport.BaseJsonRpcMessage) {
		switch message.Type {
		case transport.BaseMessageTypeJSONRPCRequestType:
			p.handleRequest(ctx, message.JsonRpcRequest)
		case transport.BaseMessageTypeJSONRPCNotificationType:
			p.handleNotification(ctx, message.JsonRpcNotification)
		default:
			// the server does not issue requests, so responses are unexpected
			id, _ := message.MessageID()
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "ignored",
				"type", message.Type,
				"id", id,
			)
		}
	})

	return tr.Start(ctx)
}

func (p *Protocol) handleClose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, cancel := range p.requestCancellers {
		cancel()
		delete(p.requestCancellers, id)
	}

	if p.OnClose != nil {
		p.OnClose()
	}
}

func (p *Protocol) handleError(err error) {
	logger.KV(xlog.ERROR, "err", err.Error())
	if p.OnError != nil {
		p.OnError(err)
	}
}

func (p *Protocol) handleNotification(ctx context.Context, notification *transport.BaseJSONRPCNotification) {
	logger.ContextKV(ctx, xlog.DEBUG, "method", notification.Method)

	p.mu.RLock()
	handler := p.notificationHandlers[notification.Method]
	p.mu.RUnlock()

	if handler == nil {
		return
	}

	if err := handler(ctx, notification); err != nil {
		p.handleError(errors.Wrap(err, "notification handler error"))
	}
}

func (p *Protocol) handleRequest(ctx context.Context, request *transport.BaseJSONRPCRequest) {
	logger.ContextKV(ctx, xlog.DEBUG,
		"method", request.Method,
		"id", request.Id,
	)

	p.mu.RLock()
	handler := p.requestHandlers[request.Method]
	tr := p.transport
	p.mu.RUnlock()

	if handler == nil {
		handler = func(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
			return nil, transport.NewError(transport.MethodNotFound, "Method not found: %s", req.Method)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.requestCancellers[request.Id] = cancel
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.requestCancellers, request.Id)
			p.mu.Unlock()
			cancel()
		}()

		result, err := handler(ctx, request)
		if err != nil {
			logger.ContextKV(ctx, xlog.DEBUG, "method", request.Method, "id", request.Id, "err", err.Error())
			p.sendErrorResponse(ctx, tr, request.Id, err)
			return
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			p.sendErrorResponse(ctx, tr, request.Id, errors.Wrap(err, "failed to marshal result"))
			return
		}
		response := &transport.BaseJSONRPCResponse{
			Jsonrpc: transport.JSONRPCVersion,
			Id:      request.Id,
			Result:  jsonResult,
		}

		if err := tr.Send(ctx, transport.NewBaseMessageResponse(response)); err != nil {
			p.handleError(errors.Wrap(err, "failed to send response"))
		}
	}()
}

func (p *Protocol) handleIgnoredNotification(ctx context.Context, notification *transport.BaseJSONRPCNotification) error {
	return nil
}

func (p *Protocol) handleCancelledNotification(ctx context.Context, notification *transport.BaseJSONRPCNotification) error {
	var params struct {
		RequestId transport.RequestId `json:"requestId"`
		Reason    string              `json:"reason"`
	}

	if err := json.Unmarshal(notification.Params, &params); err != nil {
		return errors.Wrap(err, "failed to unmarshal cancelled params")
	}

	p.mu.RLock()
	cancel := p.requestCancellers[params.RequestId]
	p.mu.RUnlock()

	if cancel != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "cancelled",
			"id", params.RequestId,
			"reason", params.Reason,
		)
		cancel()
	}

	return nil
}

func (p *Protocol) sendErrorResponse(ctx context.Context, tr transport.Transport, requestID transport.RequestId, err error) {
	id := requestID
	response := &transport.BaseJSONRPCError{
		Jsonrpc: transport.JSONRPCVersion,
		Id:      &id,
		Error: transport.BaseJSONRPCErrorInner{
			Code:    transport.ErrorCode(err),
			Message: err.Error(),
		},
	}

	if err := tr.Send(ctx, transport.NewBaseMessageError(response)); err != nil {
		p.handleError(errors.Wrap(err, "failed to send error response"))
	}
}

// Close closes the connection
func (p *Protocol) Close() error {
	p.mu.RLock()
	tr := p.transport
	p.mu.RUnlock()

	if tr != nil {
		return tr.Close()
	}
	return nil
}

// Notification emits a notification, which is a one-way message that does not expect a response
func (p *Protocol) Notification(ctx context.Context, method string, params any) error {
	p.mu.RLock()
	tr := p.transport
	p.mu.RUnlock()

	if tr == nil {
		return ErrNotConnected
	}

	marshalled, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "failed to marshal notification params")
	}

	notification := &transport.BaseJSONRPCNotification{
		Jsonrpc: transport.JSONRPCVersion,
		Method:  method,
		Params:  marshalled,
	}
	return tr.Send(ctx, transport.NewBaseMessageNotification(notification))
}

// SetRequestHandler registers a handler to invoke when this protocol object receives a request with the given method
func (p *Protocol) SetRequestHandler(method string, handler RequestHandler) {
	p.mu.Lock()
	p.requestHandlers[method] = handler
	p.mu.Unlock()
}

// RemoveRequestHandler removes the request handler for the given method
func (p *Protocol) RemoveRequestHandler(method string) {
	p.mu.Lock()
	delete(p.requestHandlers, method)
	p.mu.Unlock()
}

// SetNotificationHandler registers a handler to invoke when this protocol object receives a notification with the given method
func (p *Protocol) SetNotificationHandler(method string, handler NotificationHandler) {
	p.mu.Lock()
	p.notificationHandlers[method] = handler
	p.mu.Unlock()
}

// RemoveNotificationHandler removes the notification handler for the given method
func (p *Protocol) RemoveNotificationHandler(method string) {
	p.mu.Lock()
	delete(p.notificationHandlers, method)
	p.mu.Unlock()
}

// InFlight returns the number of requests being handled
func (p *Protocol) InFlight() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.requestCancellers)
}
