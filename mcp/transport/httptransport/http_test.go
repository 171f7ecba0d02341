package httptransport_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/effective-security/bedrocktools/mcp/transport"
	"github.com/effective-security/bedrocktools/mcp/transport/httptransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

// echo replies to requests with their params,
// initialize returns a fixed result
func echo(tr *httptransport.HTTPTransport) {
	tr.SetMessageHandler(func(ctx context.Context, msg *transport.BaseJsonRpcMessage) {
		if msg.Type != transport.BaseMessageTypeJSONRPCRequestType {
			return
		}
		req := msg.JsonRpcRequest
		go func() {
			if req.Method == "slow" {
				<-ctx.Done()
				return
			}
			result := req.Params
			if len(result) == 0 {
				result = json.RawMessage(`{}`)
			}
			_ = tr.Send(ctx, transport.NewBaseMessageResponse(&transport.BaseJSONRPCResponse{
				Jsonrpc: transport.JSONRPCVersion,
				Id:      req.Id,
				Result:  result,
			}))
		}()
	})
}

func request(id int, method, text string) string {
	body := `{"jsonrpc":"2.0"}`
	body, _ = sjson.Set(body, "id", id)
	body, _ = sjson.Set(body, "method", method)
	if text != "" {
		body, _ = sjson.Set(body, "params.name", "summarize_text")
		body, _ = sjson.Set(body, "params.arguments.text", text)
	}
	return body
}

func post(t *testing.T, url, body string, headers map[string]string) *http.Response {
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
		} else {
			req.Header.Set(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestStateless(t *testing.T) {
	t.Parallel()

	tr := httptransport.New("", httptransport.WithRequestTimeout(200*time.Millisecond))
	echo(tr)
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	url := srv.URL + httptransport.DefaultEndpoint

	t.Run("request", func(t *testing.T) {
		resp := post(t, url, request(42, "tools/call", "Long text"), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Empty(t, resp.Header.Get(httptransport.SessionHeader))
		assert.JSONEq(t,
			`{"jsonrpc":"2.0","id":42,"result":{"name":"summarize_text","arguments":{"text":"Long text"}}}`,
			readBody(t, resp))
	})

	t.Run("sse", func(t *testing.T) {
		resp := post(t, url, request(3, "ping", ""), map[string]string{"Accept": "text/event-stream"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		scanner := bufio.NewScanner(resp.Body)
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		require.GreaterOrEqual(t, len(lines), 2)
		assert.Equal(t, "event: message", lines[0])
		require.True(t, strings.HasPrefix(lines[1], "data: "))
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{}}`, strings.TrimPrefix(lines[1], "data: "))
	})

	t.Run("notification", func(t *testing.T) {
		resp := post(t, url, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, nil)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Empty(t, readBody(t, resp))
	})

	t.Run("parse error", func(t *testing.T) {
		resp := post(t, url, `{"jsonrpc":"2.0",`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := readBody(t, resp)
		var res struct {
			ID    *int `json:"id"`
			Error struct {
				Code int `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		assert.Nil(t, res.ID)
		assert.Equal(t, transport.ParseError, res.Error.Code)
		assert.Contains(t, body, `"id":null`)
	})

	t.Run("invalid request", func(t *testing.T) {
		resp := post(t, url, `{"jsonrpc":"1.0","id":1,"method":"ping"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `"code":-32600`)
	})

	t.Run("timeout", func(t *testing.T) {
		resp := post(t, url, request(9, "slow", ""), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, `"id":9`)
		assert.Contains(t, body, `"code":-32603`)
	})

	t.Run("not acceptable", func(t *testing.T) {
		resp := post(t, url, request(1, "ping", ""), map[string]string{"Accept": "text/html"})
		assert.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		resp := post(t, url, request(1, "ping", ""), map[string]string{"Content-Type": "text/plain"})
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodDelete, http.MethodPut} {
			req, err := http.NewRequest(method, url, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, method)
			assert.Equal(t, "POST", resp.Header.Get("Allow"))
		}
	})

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(srv.URL + httptransport.HealthEndpoint)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", readBody(t, resp))
	})

	assert.Equal(t, 0, tr.Pending())
}

func TestStateful(t *testing.T) {
	t.Parallel()

	tr := httptransport.New("/rpc", httptransport.WithStateless(false))
	echo(tr)
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	url := srv.URL + "/rpc"

	resp := post(t, url, request(1, "ping", ""), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, url, request(1, "ping", ""), map[string]string{httptransport.SessionHeader: "unknown"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, url, request(1, "initialize", ""), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := resp.Header.Get(httptransport.SessionHeader)
	require.NotEmpty(t, session)

	resp = post(t, url, request(2, "ping", ""), map[string]string{httptransport.SessionHeader: session})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":2,"result":{}}`, readBody(t, resp))

	del := func(id string) int {
		req, err := http.NewRequest(http.MethodDelete, url, nil)
		require.NoError(t, err)
		if id != "" {
			req.Header.Set(httptransport.SessionHeader, id)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusBadRequest, del(""))
	assert.Equal(t, http.StatusOK, del(session))
	assert.Equal(t, http.StatusNotFound, del(session))

	resp = post(t, url, request(3, "ping", ""), map[string]string{httptransport.SessionHeader: session})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "POST, DELETE", resp.Header.Get("Allow"))
}

func TestStartClose(t *testing.T) {
	t.Parallel()

	tr := httptransport.New("", httptransport.WithAddr("127.0.0.1:0"))
	assert.Equal(t, "127.0.0.1:0", tr.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tr.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	closed := false
	tr.SetCloseHandler(func() { closed = true })
	assert.NoError(t, tr.Close())
	assert.True(t, closed)
}
