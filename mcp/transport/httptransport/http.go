// Package httptransport provides the streamable HTTP server transport for MCP.
package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/bedrocktools/pkg/metricskey"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/bedrocktools/mcp/transport", "httptransport")

const (
	// DefaultEndpoint is the path of the MCP endpoint
	DefaultEndpoint = "/mcp"
	// DefaultAddr is the listen address
	DefaultAddr = ":8080"
	// HealthEndpoint is the path of the liveness probe
	HealthEndpoint = "/healthz"
	// SessionHeader carries the session id in stateful mode
	SessionHeader = "Mcp-Session-Id"

	maxBodySize = 4 << 20

	contentTypeJSON = "application/json"
	contentTypeSSE  = "text/event-stream"
)

// Option configures HTTPTransport
type Option func(*HTTPTransport)

// WithAddr sets the address to listen on
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) {
		t.addr = addr
	}
}

// WithStateless disables sessions when true, which is the default
func WithStateless(stateless bool) Option {
	return func(t *HTTPTransport) {
		t.stateless = stateless
	}
}

// WithRequestTimeout limits the time to wait for a response
func WithRequestTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		t.requestTimeout = timeout
	}
}

// HTTPTransport implements the streamable HTTP transport for MCP.
// Each POST carries one message, the response to a request
// is returned in the body of the same HTTP response.
type HTTPTransport struct {
	*transport.Base

	endpoint       string
	addr           string
	stateless      bool
	requestTimeout time.Duration

	lock     sync.RWMutex
	server   *http.Server
	sessions map[string]time.Time
}

// New creates a new HTTP transport that serves the endpoint
func New(endpoint string, opts ...Option) *HTTPTransport {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	t := &HTTPTransport{
		Base:      transport.NewBase(),
		endpoint:  endpoint,
		addr:      DefaultAddr,
		stateless: true,
		sessions:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Addr returns the listen address
func (t *HTTPTransport) Addr() string {
	return t.addr
}

// Handler returns the HTTP handler of the transport
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(t.endpoint, t.handleRequest)
	mux.HandleFunc(HealthEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start implements Transport.Start, it blocks until the server is closed
// or ctx is cancelled.
func (t *HTTPTransport) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	t.lock.Lock()
	t.server = server
	t.lock.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				t.ReportError(errors.Wrap(err, "failed to shutdown server"))
			}
		case <-stop:
		}
	}()

	logger.KV(xlog.INFO,
		"status", "listening",
		"addr", t.addr,
		"endpoint", t.endpoint,
		"stateless", t.stateless,
	)

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.WithStack(err)
}

// Close implements Transport.Close
func (t *HTTPTransport) Close() error {
	t.lock.RLock()
	server := t.server
	t.lock.RUnlock()

	if server != nil {
		if err := server.Close(); err != nil {
			return errors.WithStack(err)
		}
	}
	return t.Base.Close()
}

func (t *HTTPTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		metricskey.StatsHTTPRequests.IncrCounter(1, r.Method, strconv.Itoa(rw.status))
	}()

	switch r.Method {
	case http.MethodPost:
		t.handlePost(rw, r)
	case http.MethodDelete:
		if t.stateless {
			t.methodNotAllowed(rw)
			return
		}
		t.handleDelete(rw, r)
	default:
		t.methodNotAllowed(rw)
	}
}

func (t *HTTPTransport) methodNotAllowed(w http.ResponseWriter) {
	allow := http.MethodPost
	if !t.stateless {
		allow += ", " + http.MethodDelete
	}
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func (t *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	t.lock.Lock()
	_, ok := t.sessions[id]
	delete(t.sessions, id)
	t.lock.Unlock()

	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	logger.ContextKV(r.Context(), xlog.DEBUG, "status", "session_deleted", "session", id)
	w.WriteHeader(http.StatusOK)
}

func (t *HTTPTransport) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acceptsJSON, acceptsSSE := negotiate(r.Header.Get("Accept"))
	if !acceptsJSON && !acceptsSSE {
		http.Error(w, "client must accept application/json or text/event-stream", http.StatusNotAcceptable)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != contentTypeJSON {
			http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		t.ReportError(errors.Wrap(err, "failed to read request body"))
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	msg, err := transport.Parse(body)
	if err != nil {
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "parse", "err", err.Error())
		t.writeMessage(w, http.StatusBadRequest, acceptsJSON,
			transport.NewErrorMessage(nil, transport.ParseFailureCode(body), err.Error()))
		return
	}

	initialize := msg.Type == transport.BaseMessageTypeJSONRPCRequestType &&
		msg.JsonRpcRequest.Method == "initialize"

	if !t.stateless && !initialize {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}
		if !t.hasSession(id) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
	}

	reqID, hasID := msg.MessageID()
	if t.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.requestTimeout)
		defer cancel()
	}

	resp, err := t.HandleMessage(ctx, msg)
	if err != nil {
		if r.Context().Err() != nil {
			// the client is gone
			return
		}
		logger.ContextKV(ctx, xlog.ERROR,
			"type", msg.Type,
			"err", err.Error(),
		)
		var id *transport.RequestId
		if hasID {
			id = &reqID
		}
		t.writeMessage(w, http.StatusOK, acceptsJSON,
			transport.NewErrorMessage(id, transport.InternalError, "request failed: "+err.Error()))
		return
	}

	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if !t.stateless && initialize && resp.Type == transport.BaseMessageTypeJSONRPCResponseType {
		id := uuid.NewString()
		t.lock.Lock()
		t.sessions[id] = time.Now()
		t.lock.Unlock()
		w.Header().Set(SessionHeader, id)
		logger.ContextKV(ctx, xlog.DEBUG, "status", "session_created", "session", id)
	}

	t.writeMessage(w, http.StatusOK, acceptsJSON, resp)
}

func (t *HTTPTransport) hasSession(id string) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	_, ok := t.sessions[id]
	return ok
}

// writeMessage writes the message as JSON,
// or as a single SSE event when JSON is not acceptable
func (t *HTTPTransport) writeMessage(w http.ResponseWriter, status int, asJSON bool, msg *transport.BaseJsonRpcMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		t.ReportError(errors.Wrap(err, "failed to marshal response"))
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	if asJSON {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(status)
		_, _ = w.Write(data)
		return
	}

	w.Header().Set("Content-Type", contentTypeSSE)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, "event: message\ndata: ")
	_, _ = w.Write(data)
	_, _ = io.WriteString(w, "\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// negotiate returns which response formats the Accept header allows
func negotiate(accept string) (acceptsJSON, acceptsSSE bool) {
	if strings.TrimSpace(accept) == "" {
		return true, false
	}
	for _, part := range strings.Split(accept, ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch strings.ToLower(mt) {
		case contentTypeJSON, "application/*", "*/*":
			acceptsJSON = true
		case contentTypeSSE, "text/*":
			acceptsSSE = true
		}
	}
	return
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
