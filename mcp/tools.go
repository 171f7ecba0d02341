package mcp

import (
	"context"
	"encoding/json"
	"reflect"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/bedrocktools/pkg/metricskey"
	"github.com/effective-security/bedrocktools/pkg/schema"
	"github.com/effective-security/bedrocktools/store"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

var (
	toolNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	validate      = validator.New()

	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	responseType = reflect.TypeOf((*ToolResponse)(nil))
)

// ToolRetType describes a tool in tools/list
type ToolRetType struct {
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ToolsResponse is the result of tools/list
type ToolsResponse struct {
	Tools      []ToolRetType `json:"tools"`
	NextCursor *string       `json:"nextCursor,omitempty"`
}

// ToolCallRequest is the params of tools/call
type ToolCallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type tool struct {
	Name        string
	Description string
	Schema      *schema.Schema
	argType     reflect.Type
	handler     func(ctx context.Context, args reflect.Value) (*ToolResponse, error)
}

// toolResponseSent wraps the tool result, or the error reported by the tool
type toolResponseSent struct {
	Response *ToolResponse
	Error    error
}

// MarshalJSON reports tool errors as a result with isError set
func (c toolResponseSent) MarshalJSON() ([]byte, error) {
	if c.Error != nil {
		return json.Marshal(NewToolErrorResponse(c.Error))
	}
	if c.Response == nil {
		return json.Marshal(NewToolResponse())
	}
	return json.Marshal(c.Response)
}

// RegisterTool registers a tool.
// The handler must be a function with one of the signatures:
//
//	func(args T) (*ToolResponse, error)
//	func(ctx context.Context, args T) (*ToolResponse, error)
//
// where T is a struct describing the arguments.
func (s *Server) RegisterTool(name string, description string, handler any) error {
	if !toolNameRegex.MatchString(name) {
		return errors.Newf("invalid tool name: %q", name)
	}

	t, err := createTool(name, description, handler)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.tools[name]; ok {
		return errors.Newf("tool already registered: %s", name)
	}
	s.tools[name] = t
	return nil
}

// DeregisterTool removes the tool
func (s *Server) DeregisterTool(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.tools[name]; !ok {
		return errors.Newf("tool not found: %s", name)
	}
	delete(s.tools, name)
	return nil
}

// ToolNames returns the names of registered tools
func (s *Server) ToolNames() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	return names
}

func createTool(name, description string, handler any) (*tool, error) {
	fn := reflect.ValueOf(handler)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return nil, errors.Newf("tool %s: handler must be a function", name)
	}
	if ft.NumOut() != 2 || ft.Out(0) != responseType || !ft.Out(1).Implements(errorType) {
		return nil, errors.Newf("tool %s: handler must return (*ToolResponse, error)", name)
	}

	withCtx := false
	switch ft.NumIn() {
	case 1:
	case 2:
		if !ft.In(0).Implements(contextType) {
			return nil, errors.Newf("tool %s: first argument must be context.Context", name)
		}
		withCtx = true
	default:
		return nil, errors.Newf("tool %s: handler must accept arguments struct", name)
	}

	argType := ft.In(ft.NumIn() - 1)
	sc, err := schema.New(argType)
	if err != nil {
		return nil, errors.WithMessagef(err, "tool %s", name)
	}

	return &tool{
		Name:        name,
		Description: description,
		Schema:      sc,
		argType:     argType,
		handler: func(ctx context.Context, args reflect.Value) (*ToolResponse, error) {
			in := []reflect.Value{args}
			if withCtx {
				in = []reflect.Value{reflect.ValueOf(ctx), args}
			}
			out := fn.Call(in)
			var err error
			if e := out[1].Interface(); e != nil {
				err = e.(error)
			}
			res, _ := out[0].Interface().(*ToolResponse)
			return res, err
		},
	}, nil
}

// decodeArgs returns a value of the argument type, decoded and validated
func (t *tool) decodeArgs(raw json.RawMessage) (reflect.Value, error) {
	ptr := t.argType.Kind() == reflect.Ptr
	base := t.argType
	if ptr {
		base = base.Elem()
	}
	v := reflect.New(base)

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, v.Interface()); err != nil {
			return reflect.Value{}, transport.NewError(transport.InvalidParams, "failed to unmarshal arguments: %s", err.Error())
		}
	}
	if err := validate.Struct(v.Interface()); err != nil {
		return reflect.Value{}, transport.NewError(transport.InvalidParams, "invalid arguments: %s", err.Error())
	}
	if err := t.checkRequired(raw); err != nil {
		return reflect.Value{}, err
	}

	if ptr {
		return v, nil
	}
	return v.Elem(), nil
}

// checkRequired returns an error when a property required by the schema
// is absent, an empty value is accepted.
func (t *tool) checkRequired(raw json.RawMessage) error {
	if t.Schema == nil || t.Schema.Parameters == nil {
		return nil
	}
	present := map[string]bool{}
	gjson.ParseBytes(raw).ForEach(func(key, _ gjson.Result) bool {
		present[key.String()] = true
		return true
	})
	for _, name := range t.Schema.Parameters.Required {
		if !present[name] {
			return transport.NewError(transport.InvalidParams, "missing required argument: %s", name)
		}
	}
	return nil
}

func (s *Server) handleListTools(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
	params, err := parseListRequest(req)
	if err != nil {
		return nil, err
	}

	s.lock.RLock()
	list := make([]*tool, 0, len(s.tools))
	for _, t := range s.tools {
		list = append(list, t)
	}
	s.lock.RUnlock()

	page, next, err := paginate(list, func(t *tool) string { return t.Name }, params.Cursor, s.paginationLimit)
	if err != nil {
		return nil, err
	}

	res := ToolsResponse{
		Tools:      make([]ToolRetType, 0, len(page)),
		NextCursor: next,
	}
	for _, t := range page {
		desc := t.Description
		res.Tools = append(res.Tools, ToolRetType{
			Name:        t.Name,
			Description: &desc,
			InputSchema: t.Schema.Parameters,
		})
	}
	return res, nil
}

func (s *Server) handleToolCalls(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
	params := &ToolCallRequest{}
	if err := json.Unmarshal(req.Params, params); err != nil {
		return nil, transport.NewError(transport.InvalidParams, "failed to unmarshal arguments: %s", err.Error())
	}

	s.lock.RLock()
	t := s.tools[params.Name]
	s.lock.RUnlock()

	if t == nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, params.Name)
		return nil, transport.NewError(transport.InvalidParams, "unknown tool: %s", params.Name)
	}

	args, err := t.decodeArgs(params.Arguments)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.Name)
		return nil, err
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.toolCacheKey(ctx, t, args)
		if cacheKey != "" {
			if text, ok := s.cachedText(ctx, cacheKey); ok {
				metricskey.StatsToolCacheHits.IncrCounter(1, t.Name)
				return &toolResponseSent{Response: NewToolResponse(NewTextContent(text))}, nil
			}
			metricskey.StatsToolCacheMisses.IncrCounter(1, t.Name)
		}
	}

	res := s.callTool(ctx, t, args)
	if res.Error != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.Name)
		return res, nil
	}
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, t.Name)

	if cacheKey != "" && res.Response != nil && !res.Response.IsError && !res.Response.NoCache {
		if err := s.cache.Put(ctx, cacheKey, res.Response.Text(), s.cacheTTL); err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"reason", "cache_put",
				"tool", t.Name,
				"err", err.Error(),
			)
		}
	}
	return res, nil
}

// toolCacheKey returns the key of the canonical form of decoded arguments,
// or empty string when the arguments can not be encoded.
func (s *Server) toolCacheKey(ctx context.Context, t *tool, args reflect.Value) string {
	canonical, err := json.Marshal(args.Interface())
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "cache_key",
			"tool", t.Name,
			"err", err.Error(),
		)
		return ""
	}
	return store.Key(t.Name, string(canonical))
}

func (s *Server) cachedText(ctx context.Context, key string) (string, bool) {
	text, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "cache_get",
			"key", key,
			"err", err.Error(),
		)
		return "", false
	}
	return text, ok
}

func (s *Server) callTool(ctx context.Context, t *tool, args reflect.Value) (res *toolResponseSent) {
	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, t.Name)

	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"reason", "panic",
				"tool", t.Name,
				"panic", r,
			)
			res = &toolResponseSent{Error: recoverError(r)}
		}
	}()

	resp, err := t.handler(ctx, args)
	logger.ContextKV(ctx, xlog.DEBUG,
		"tool", t.Name,
		"elapsed", time.Since(started).String(),
		"err", errorMessage(err),
		"result", slices.StringUpto(textOf(resp), 64),
	)
	return &toolResponseSent{Response: resp, Error: err}
}

func textOf(resp *ToolResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}
