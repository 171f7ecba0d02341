// Package chatmodel carries the conversation identity through the context,
// so that agent logs and traces of one conversation can be correlated.
package chatmodel

import (
	"context"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
)

// ErrInvalidChatContext is returned when the context has no ChatContext
var ErrInvalidChatContext = errors.New("invalid chat context")

// ChatContext is the context of one conversation.
// Each request within the conversation is a run with its own ID.
type ChatContext interface {
	GetChatID() string
	RunID() string
	// AppData returns immutable app data
	AppData() any
	// GetMetadata retrieves metadata by key
	GetMetadata(key string) (value any, ok bool)
	// SetMetadata sets metadata by key
	SetMetadata(key string, value any)
}

type chatContext struct {
	chatID   string
	runID    string
	metadata *sync.Map
	appData  any
}

func (c *chatContext) GetChatID() string {
	return c.chatID
}

func (c *chatContext) RunID() string {
	return c.runID
}

func (c *chatContext) AppData() any {
	return c.appData
}

func (c *chatContext) GetMetadata(key string) (value any, ok bool) {
	return c.metadata.Load(key)
}

func (c *chatContext) SetMetadata(key string, value any) {
	c.metadata.Store(key, value)
}

// NewChatContext returns a new ChatContext,
// a new chat ID is generated if chatID is empty.
func NewChatContext(chatID string, appData any) ChatContext {
	return &chatContext{
		chatID:   values.StringsCoalesce(chatID, NewChatID()),
		runID:    NewChatID(),
		appData:  appData,
		metadata: &sync.Map{},
	}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithChatContext returns a new context with ChatContext value
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, keyContext, chatCtx)
}

// GetChatContext retrieves the ChatContext from the context
func GetChatContext(ctx context.Context) ChatContext {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v
	}
	return nil
}

// GetChatID retrieves the chat ID from the provided context.
// If the context does not contain a ChatContext, it returns an empty string.
func GetChatID(ctx context.Context) string {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v.GetChatID()
	}
	return ""
}

// GetChatAndRunID returns the chat and run IDs from the context
func GetChatAndRunID(ctx context.Context) (string, string, error) {
	v := GetChatContext(ctx)
	if v == nil {
		return "", "", errors.WithStack(ErrInvalidChatContext)
	}
	return v.GetChatID(), v.RunID(), nil
}

// NewRun returns a context of a new run in the same conversation,
// a new conversation is started if ctx has none.
// Metadata is shared between the runs.
func NewRun(ctx context.Context) context.Context {
	c, ok := GetChatContext(ctx).(*chatContext)
	if !ok {
		return WithChatContext(ctx, NewChatContext("", nil))
	}
	return WithChatContext(ctx, &chatContext{
		chatID:   c.chatID,
		runID:    NewChatID(),
		appData:  c.appData,
		metadata: c.metadata,
	})
}

// EnsureChatContext returns ctx if it has ChatContext,
// otherwise a context with a new ChatContext with chatID.
func EnsureChatContext(ctx context.Context, chatID string) context.Context {
	if GetChatContext(ctx) != nil {
		return ctx
	}
	return WithChatContext(ctx, NewChatContext(chatID, nil))
}

// NewChatID generates a new chat ID using the flake ID generator.
func NewChatID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
