package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	input *bedrockruntime.InvokeModelInput
}

func (f *fakeClient) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	return &bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"content":[{"type":"text","text":"Bonjour"}],"stop_reason":"end_turn","usage":{"input_tokens":4,"output_tokens":2}}`),
	}, nil
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	f := &fakeClient{}
	llm, err := New(WithClient(f))
	require.NoError(t, err)
	assert.Equal(t, ModelAnthropicClaude35SonnetV1, llm.GetName())
	assert.Equal(t, llms.ProviderBedrock, llm.GetProviderType())

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "Hello"),
	}, llms.WithModel(ModelAnthropicClaude3HaikuV1), llms.WithTemperature(0.3))
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", resp.Text())
	assert.Equal(t, int64(6), resp.Usage().TotalTokens)
	assert.Equal(t, ModelAnthropicClaude3HaikuV1, aws.ToString(f.input.ModelId))
	assert.Contains(t, string(f.input.Body), `"temperature":0.3`)
}

func TestLoadOptions(t *testing.T) {
	t.Parallel()

	o := &options{}
	for _, opt := range []Option{
		WithRegion("us-west-2"),
		WithProfile("dev"),
		WithCredentials("AKID", "SECRET", "TOKEN"),
		WithMaxAttempts(5),
	} {
		opt(o)
	}

	lo := &config.LoadOptions{}
	for _, fn := range loadOptions(o) {
		require.NoError(t, fn(lo))
	}
	assert.Equal(t, "us-west-2", lo.Region)
	assert.Equal(t, "dev", lo.SharedConfigProfile)
	assert.Equal(t, 5, lo.RetryMaxAttempts)
	require.NotNil(t, lo.Credentials)
	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "TOKEN", creds.SessionToken)

	lo = &config.LoadOptions{}
	for _, fn := range loadOptions(&options{}) {
		require.NoError(t, fn(lo))
	}
	assert.Equal(t, DefaultRegion, lo.Region)
	assert.Nil(t, lo.Credentials)
}
