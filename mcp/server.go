package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/internal/protocol"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/bedrocktools/store"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/bedrocktools", "mcp")

const (
	// DefaultServerName is reported in serverInfo
	DefaultServerName = "bedrock-tools"
	// DefaultServerVersion is reported in serverInfo
	DefaultServerVersion = "0.1.0"
	// LatestProtocolVersion is the most recent supported protocol revision
	LatestProtocolVersion = "2025-06-18"
	// DefaultCacheTTL is used when the cache is enabled without TTL
	DefaultCacheTTL = time.Hour
)

// SupportedProtocolVersions lists the protocol revisions the server can speak, newest first.
var SupportedProtocolVersions = []string{
	LatestProtocolVersion,
	"2025-03-26",
	"2024-11-05",
}

// Option configures the Server
type Option func(*options)

type options struct {
	name            string
	version         string
	instructions    string
	paginationLimit *int
	cache           store.Cache
	cacheTTL        time.Duration
	callTimeout     time.Duration
}

// WithName sets the server name reported on initialize
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithVersion sets the server version reported on initialize
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithInstructions sets the instructions reported on initialize
func WithInstructions(instructions string) Option {
	return func(o *options) {
		o.instructions = instructions
	}
}

// WithPaginationLimit sets the page size of list methods
func WithPaginationLimit(limit int) Option {
	return func(o *options) {
		o.paginationLimit = &limit
	}
}

// WithToolCache enables caching of successful tool results
func WithToolCache(cache store.Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = cache
		o.cacheTTL = ttl
	}
}

// WithCallTimeout limits the duration of a single tool call
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.callTimeout = timeout
	}
}

// Server is a MCP server that exposes tools and prompts over a transport
type Server struct {
	transport       transport.Transport
	protocol        *protocol.Protocol
	name            string
	version         string
	instructions    string
	paginationLimit *int
	cache           store.Cache
	cacheTTL        time.Duration
	callTimeout     time.Duration

	lock    sync.RWMutex
	tools   map[string]*tool
	prompts map[string]*prompt
}

// NewServer returns a new server for the transport
func NewServer(tr transport.Transport, opts ...Option) *Server {
	o := &options{
		name:    DefaultServerName,
		version: DefaultServerVersion,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.cache != nil && o.cacheTTL <= 0 {
		o.cacheTTL = DefaultCacheTTL
	}

	s := &Server{
		transport:       tr,
		protocol:        protocol.NewProtocol(),
		name:            o.name,
		version:         o.version,
		instructions:    o.instructions,
		paginationLimit: o.paginationLimit,
		cache:           o.cache,
		cacheTTL:        o.cacheTTL,
		callTimeout:     o.callTimeout,
		tools:           make(map[string]*tool),
		prompts:         make(map[string]*prompt),
	}

	s.protocol.SetRequestHandler("initialize", s.handleInitialize)
	s.protocol.SetRequestHandler("ping", s.handlePing)
	s.protocol.SetRequestHandler("tools/list", s.handleListTools)
	s.protocol.SetRequestHandler("tools/call", s.handleToolCalls)
	s.protocol.SetRequestHandler("prompts/list", s.handleListPrompts)
	s.protocol.SetRequestHandler("prompts/get", s.handlePromptCalls)

	return s
}

// Name returns the server name
func (s *Server) Name() string {
	return s.name
}

// Serve connects the server to the transport and starts it.
// It blocks as long as the transport's Start blocks.
func (s *Server) Serve(ctx context.Context) error {
	logger.KV(xlog.INFO,
		"status", "serving",
		"name", s.name,
		"version", s.version,
		"tools", s.ToolNames(),
	)
	return s.protocol.Connect(ctx, s.transport)
}

// Close closes the transport
func (s *Server) Close() error {
	return s.protocol.Close()
}

// InitializeRequest is the params of initialize
type InitializeRequest struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ClientInfo      Implementation `json:"clientInfo"`
}

// Implementation describes the name and version of an MCP implementation.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ListCapability describes list support of a server feature
type ListCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerCapabilities describes the server features
type ServerCapabilities struct {
	Tools   *ListCapability `json:"tools,omitempty"`
	Prompts *ListCapability `json:"prompts,omitempty"`
}

// InitializeResponse is the result of initialize
type InitializeResponse struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

func (s *Server) handleInitialize(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
	var params InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, transport.NewError(transport.InvalidParams, "failed to unmarshal initialize params: %s", err.Error())
		}
	}

	version := LatestProtocolVersion
	if slices.Contains(SupportedProtocolVersions, params.ProtocolVersion) {
		version = params.ProtocolVersion
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "initialize",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol", version,
	)

	return InitializeResponse{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools:   &ListCapability{},
			Prompts: &ListCapability{},
		},
		ServerInfo: Implementation{
			Name:    s.name,
			Version: s.version,
		},
		Instructions: s.instructions,
	}, nil
}

func (s *Server) handlePing(ctx context.Context, req *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error) {
	return map[string]any{}, nil
}

type listRequest struct {
	Cursor *string `json:"cursor"`
}

func parseListRequest(req *transport.BaseJSONRPCRequest) (*listRequest, error) {
	params := &listRequest{}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, params); err != nil {
			return nil, transport.NewError(transport.InvalidParams, "failed to unmarshal arguments: %s", err.Error())
		}
	}
	return params, nil
}

// paginate returns the page of items, sorted by name, after the cursor.
func paginate[T any](items []T, name func(T) string, cursor *string, limit *int) ([]T, *string, error) {
	sort.Slice(items, func(i, j int) bool {
		return name(items[i]) < name(items[j])
	})

	start := 0
	if cursor != nil {
		c, err := base64.StdEncoding.DecodeString(*cursor)
		if err != nil {
			return nil, nil, transport.NewError(transport.InvalidParams, "invalid cursor: %s", err.Error())
		}
		last := string(c)
		start = sort.Search(len(items), func(i int) bool {
			return name(items[i]) > last
		})
	}

	end := len(items)
	if limit != nil && *limit > 0 && start+*limit < end {
		end = start + *limit
	}

	page := items[start:end]
	var next *string
	if end < len(items) && len(page) > 0 {
		c := base64.StdEncoding.EncodeToString([]byte(name(page[len(page)-1])))
		next = &c
	}
	return page, next, nil
}

// errorMessage returns err message or empty string
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// recoverError converts a panic into an error
func recoverError(r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "internal error")
	}
	return errors.Newf("internal error: %v", r)
}
