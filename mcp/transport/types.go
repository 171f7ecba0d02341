package transport

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// JSONRPCVersion is the only supported version of the JSON-RPC protocol.
const JSONRPCVersion = "2.0"

// Standard JSON-RPC error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
	// ServerError is the generic implementation-defined error code.
	ServerError = -32000
)

// ErrInvalidMessage is returned when a message is not a valid JSON-RPC 2.0 message.
var ErrInvalidMessage = errors.New("invalid JSON-RPC message")

// RequestId is the ID of a JSON-RPC request.
type RequestId int64

// JsonRpcBody is the result of a request handler.
type JsonRpcBody = any

// BaseJSONRPCRequest is a request that expects a response.
type BaseJSONRPCRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Id      RequestId       `json:"id"`
}

// BaseJSONRPCNotification is a notification which does not expect a response.
type BaseJSONRPCNotification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// BaseJSONRPCResponse is a successful (non-error) response to a request.
type BaseJSONRPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      RequestId       `json:"id"`
	Result  json.RawMessage `json:"result"`
}

// BaseJSONRPCErrorInner is the error object of a JSON-RPC error response.
type BaseJSONRPCErrorInner struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// BaseJSONRPCError is a response to a request that indicates an error occurred.
type BaseJSONRPCError struct {
	Jsonrpc string                `json:"jsonrpc"`
	Id      *RequestId            `json:"id"`
	Error   BaseJSONRPCErrorInner `json:"error"`
}

// BaseMessageType is the discriminator of BaseJsonRpcMessage
type BaseMessageType string

const (
	BaseMessageTypeJSONRPCRequestType      BaseMessageType = "request"
	BaseMessageTypeJSONRPCNotificationType BaseMessageType = "notification"
	BaseMessageTypeJSONRPCResponseType     BaseMessageType = "response"
	BaseMessageTypeJSONRPCErrorType        BaseMessageType = "error"
)

// BaseJsonRpcMessage holds exactly one of the JSON-RPC message kinds.
type BaseJsonRpcMessage struct {
	Type                BaseMessageType
	JsonRpcRequest      *BaseJSONRPCRequest
	JsonRpcNotification *BaseJSONRPCNotification
	JsonRpcResponse     *BaseJSONRPCResponse
	JsonRpcError        *BaseJSONRPCError
}

func NewBaseMessageRequest(request *BaseJSONRPCRequest) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:           BaseMessageTypeJSONRPCRequestType,
		JsonRpcRequest: request,
	}
}

func NewBaseMessageNotification(notification *BaseJSONRPCNotification) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:                BaseMessageTypeJSONRPCNotificationType,
		JsonRpcNotification: notification,
	}
}

func NewBaseMessageResponse(response *BaseJSONRPCResponse) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:            BaseMessageTypeJSONRPCResponseType,
		JsonRpcResponse: response,
	}
}

func NewBaseMessageError(e *BaseJSONRPCError) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:         BaseMessageTypeJSONRPCErrorType,
		JsonRpcError: e,
	}
}

// NewErrorMessage returns an error message for the request id,
// id can be nil when the request could not be parsed.
func NewErrorMessage(id *RequestId, code int, message string) *BaseJsonRpcMessage {
	return NewBaseMessageError(&BaseJSONRPCError{
		Jsonrpc: JSONRPCVersion,
		Id:      id,
		Error: BaseJSONRPCErrorInner{
			Code:    code,
			Message: message,
		},
	})
}

// MessageID returns the ID of a request, response or error,
// and false for notifications or errors without ID.
func (m *BaseJsonRpcMessage) MessageID() (RequestId, bool) {
	switch m.Type {
	case BaseMessageTypeJSONRPCRequestType:
		return m.JsonRpcRequest.Id, true
	case BaseMessageTypeJSONRPCResponseType:
		return m.JsonRpcResponse.Id, true
	case BaseMessageTypeJSONRPCErrorType:
		if m.JsonRpcError.Id != nil {
			return *m.JsonRpcError.Id, true
		}
	}
	return 0, false
}

// SetMessageID replaces the ID of a request, response or error.
func (m *BaseJsonRpcMessage) SetMessageID(id RequestId) {
	switch m.Type {
	case BaseMessageTypeJSONRPCRequestType:
		m.JsonRpcRequest.Id = id
	case BaseMessageTypeJSONRPCResponseType:
		m.JsonRpcResponse.Id = id
	case BaseMessageTypeJSONRPCErrorType:
		m.JsonRpcError.Id = &id
	}
}

// MarshalJSON emits the active variant
func (m *BaseJsonRpcMessage) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case BaseMessageTypeJSONRPCRequestType:
		return json.Marshal(m.JsonRpcRequest)
	case BaseMessageTypeJSONRPCNotificationType:
		return json.Marshal(m.JsonRpcNotification)
	case BaseMessageTypeJSONRPCResponseType:
		return json.Marshal(m.JsonRpcResponse)
	case BaseMessageTypeJSONRPCErrorType:
		return json.Marshal(m.JsonRpcError)
	}
	return nil, errors.Newf("unknown message type: %q", m.Type)
}

// envelope is used to classify a raw message
type envelope struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Id      json.RawMessage `json:"id"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// Parse classifies and decodes a raw JSON-RPC message.
func Parse(body []byte) (*BaseJsonRpcMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, errors.WithMessage(ErrInvalidMessage, "expected JSON object")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.WithMessage(ErrInvalidMessage, err.Error())
	}
	if env.Jsonrpc != JSONRPCVersion {
		return nil, errors.WithMessagef(ErrInvalidMessage, "unsupported jsonrpc version: %q", env.Jsonrpc)
	}

	hasID := len(env.Id) > 0 && !bytes.Equal(env.Id, []byte("null"))
	var id RequestId
	if hasID {
		if err := json.Unmarshal(env.Id, &id); err != nil {
			return nil, errors.WithMessagef(ErrInvalidMessage, "invalid id: %s", string(env.Id))
		}
	}

	switch {
	case env.Method != "" && hasID:
		return NewBaseMessageRequest(&BaseJSONRPCRequest{
			Jsonrpc: env.Jsonrpc,
			Method:  env.Method,
			Params:  env.Params,
			Id:      id,
		}), nil
	case env.Method != "":
		return NewBaseMessageNotification(&BaseJSONRPCNotification{
			Jsonrpc: env.Jsonrpc,
			Method:  env.Method,
			Params:  env.Params,
		}), nil
	case len(env.Error) > 0:
		var e BaseJSONRPCError
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, errors.WithMessage(ErrInvalidMessage, err.Error())
		}
		return NewBaseMessageError(&e), nil
	case len(env.Result) > 0 && hasID:
		return NewBaseMessageResponse(&BaseJSONRPCResponse{
			Jsonrpc: env.Jsonrpc,
			Id:      id,
			Result:  env.Result,
		}), nil
	}
	return nil, errors.WithMessage(ErrInvalidMessage, "missing method, result or error")
}

// ParseFailureCode returns ParseError for malformed JSON,
// and InvalidRequest for valid JSON that is not a JSON-RPC message.
func ParseFailureCode(body []byte) int {
	if json.Valid(body) {
		return InvalidRequest
	}
	return ParseError
}
