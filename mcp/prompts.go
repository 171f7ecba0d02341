package mcp

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/bedrocktools/pkg/schema"
	"github.com/effective-security/xlog"
)

var promptResponseType = reflect.TypeOf((*PromptResponse)(nil))

// PromptArgument describes an argument of the prompt
type PromptArgument struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Required    *bool   `json:"required,omitempty"`
}

// PromptSchema describes a prompt in prompts/list
type PromptSchema struct {
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ListPromptsResponse is the result of prompts/list
type ListPromptsResponse struct {
	Prompts    []*PromptSchema `json:"prompts"`
	NextCursor *string         `json:"nextCursor,omitempty"`
}

// PromptRequest is the params of prompts/get
type PromptRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type prompt struct {
	Name        string
	Description string
	Schema      *schema.Schema
	argType     reflect.Type
	handler     func(ctx context.Context, args reflect.Value) (*PromptResponse, error)
}

// RegisterPrompt registers a prompt.
// The handler must be a function with one of the signatures:
//
//	func(args T) (*PromptResponse, error)
//	func(ctx context.Context, args T) (*PromptResponse, error)
//
// where T is a struct with string fields.
func (s *Server) RegisterPrompt(name string, description string, handler any) error {
	if !toolNameRegex.MatchString(name) {
		return errors.Newf("invalid prompt name: %q", name)
	}

	fn := reflect.ValueOf(handler)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return errors.Newf("prompt %s: handler must be a function", name)
	}
	if ft.NumOut() != 2 || ft.Out(0) != promptResponseType || !ft.Out(1).Implements(errorType) {
		return errors.Newf("prompt %s: handler must return (*PromptResponse, error)", name)
	}
	withCtx := ft.NumIn() == 2 && ft.In(0).Implements(contextType)
	if ft.NumIn() != 1 && !withCtx {
		return errors.Newf("prompt %s: handler must accept arguments struct", name)
	}

	argType := ft.In(ft.NumIn() - 1)
	sc, err := schema.New(argType)
	if err != nil {
		return errors.WithMessagef(err, "prompt %s", name)
	}
	for _, p := range sc.Properties() {
		prop, _ := sc.Parameters.Properties.Get(p.Name)
		if prop.Type != "string" {
			return errors.Newf("prompt %s: argument %s must be a string", name, p.Name)
		}
	}

	p := &prompt{
		Name:        name,
		Description: description,
		Schema:      sc,
		argType:     argType,
		handler: func(ctx context.Context, args reflect.Value) (*PromptResponse, error) {
			in := []reflect.Value{args}
			if withCtx {
				in = []reflect.Value{reflect.ValueOf(ctx), args}
			}
			out := fn.Call(in)
			var err error
			if e := out[1].Interface(); e != nil {
				err = e.(error)
			}
			res, _ := out[0].Interface().(*PromptResponse)
			return res, err
		},
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.prompts[name]; ok {
		return errors.Newf("prompt already registered: %s", name)
	}
	s.prompts[name] = p
	return nil
}

// DeregisterPrompt removes the prompt
func (s *Server) DeregisterPrompt(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.prompts[name]; !ok {
		return errors.Newf("prompt not found: %s", name)
	}
	delete(s.prompts, name)
	return nil
}

func (s *Server) handleListPrompts(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
	params, err := parseListRequest(req)
	if err != nil {
		return nil, err
	}

	s.lock.RLock()
	list := make([]*prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		list = append(list, p)
	}
	s.lock.RUnlock()

	page, next, err := paginate(list, func(p *prompt) string { return p.Name }, params.Cursor, s.paginationLimit)
	if err != nil {
		return nil, err
	}

	res := ListPromptsResponse{
		Prompts:    make([]*PromptSchema, 0, len(page)),
		NextCursor: next,
	}
	for _, p := range page {
		res.Prompts = append(res.Prompts, p.describe())
	}
	return res, nil
}

func (p *prompt) describe() *PromptSchema {
	desc := p.Description
	ps := &PromptSchema{
		Name:        p.Name,
		Description: &desc,
	}
	for _, prop := range p.Schema.Properties() {
		arg := PromptArgument{Name: prop.Name}
		if prop.Description != "" {
			d := prop.Description
			arg.Description = &d
		}
		required := prop.Required
		arg.Required = &required
		ps.Arguments = append(ps.Arguments, arg)
	}
	return ps
}

func (s *Server) handlePromptCalls(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
	params := &PromptRequest{}
	if err := json.Unmarshal(req.Params, params); err != nil {
		return nil, transport.NewError(transport.InvalidParams, "failed to unmarshal arguments: %s", err.Error())
	}

	s.lock.RLock()
	p := s.prompts[params.Name]
	s.lock.RUnlock()

	if p == nil {
		return nil, transport.NewError(transport.InvalidParams, "unknown prompt: %s", params.Name)
	}

	raw, _ := json.Marshal(params.Arguments)
	t := &tool{argType: p.argType}
	args, err := t.decodeArgs(raw)
	if err != nil {
		return nil, err
	}

	res, err := s.callPrompt(ctx, p, args)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"prompt", p.Name,
			"err", err.Error(),
		)
		return nil, transport.NewError(transport.InternalError, "prompt %s failed: %s", p.Name, err.Error())
	}
	if res == nil {
		res = NewPromptResponse("")
	}
	return res, nil
}

func (s *Server) callPrompt(ctx context.Context, p *prompt, args reflect.Value) (res *PromptResponse, err error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = recoverError(r)
		}
	}()
	return p.handler(ctx, args)
}
