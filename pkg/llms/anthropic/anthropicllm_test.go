package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/effective-security/bedrocktools/pkg/llms/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Setenv(anthropic.TokenEnvVarName, "")

	tests := []struct {
		name        string
		opts        []anthropic.Option
		errContains string
	}{
		{
			name:        "missing token",
			opts:        []anthropic.Option{anthropic.WithModel("claude-3-5-sonnet-20241022")},
			errContains: "missing API key",
		},
		{
			name:        "missing model",
			opts:        []anthropic.Option{anthropic.WithToken("fake-token")},
			errContains: "model is required",
		},
		{
			name: "valid configuration",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
				anthropic.WithBaseURL("https://custom.anthropic.com"),
				anthropic.WithHTTPClient(&http.Client{}),
				anthropic.WithMaxRetries(0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allm, err := anthropic.New(tt.opts...)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, allm)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, allm.Client)
			assert.Equal(t, "claude-3-5-sonnet-20241022", allm.GetName())
			assert.Equal(t, llms.ProviderAnthropic, allm.GetProviderType())
		})
	}

	t.Run("env token", func(t *testing.T) {
		t.Setenv(anthropic.TokenEnvVarName, "env-token")
		llm, err := anthropic.New(anthropic.WithModel("claude-3-5-sonnet-20241022"))
		require.NoError(t, err)
		assert.Equal(t, "env-token", llm.Options.Token)
	})
}

func TestProcessMessages(t *testing.T) {
	t.Parallel()

	msgs, system, err := anthropic.ProcessMessages([]llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "You are a helpful assistant."),
		llms.MessageFromTextParts(llms.RoleHuman, "Hello"),
		llms.MessageFromTextParts(llms.RoleAI, "Hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful assistant.", system)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))

	_, _, err = anthropic.ProcessMessages([]llms.Message{
		llms.MessageFromTextParts("tool", "result"),
	})
	assert.EqualError(t, err, `role "tool": anthropic: unsupported message type`)
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "fake-token", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-20241022",
			"content":[{"type":"text","text":"A short summary."}],
			"stop_reason":"end_turn","usage":{"input_tokens":20,"output_tokens":4}
		}`))
	}))
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithModel("claude-3-5-sonnet-20241022"),
		anthropic.WithBaseURL(srv.URL),
		anthropic.WithMaxRetries(0),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "be brief"),
		llms.MessageFromTextParts(llms.RoleHuman, "Summarize"),
	}, llms.WithMaxTokens(1024), llms.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", resp.Text())
	assert.Equal(t, llms.Usage{InputTokens: 20, OutputTokens: 4, TotalTokens: 24}, resp.Usage())
	assert.Equal(t, "end_turn", resp.Choices[0].StopReason)

	assert.Equal(t, float64(1024), got["max_tokens"])
	assert.Equal(t, float64(0), got["temperature"])
	assert.Equal(t, "claude-3-5-sonnet-20241022", got["model"])
}

func TestGenerateContentError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithModel("claude-unknown"),
		anthropic.WithBaseURL(srv.URL),
		anthropic.WithMaxRetries(0),
	)
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: failed to create message")
}
