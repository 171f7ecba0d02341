package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolInput struct {
	Text string `json:"text" jsonschema:"description=Text to process"`
}

type decision struct {
	ToolName  string     `json:"tool_name" validate:"required" jsonschema:"description=Name of the selected tool"`
	ToolInput *toolInput `json:"tool_input,omitempty" jsonschema:"description=Arguments of the tool"`
}

func TestFormatInstructions(t *testing.T) {
	t.Parallel()

	enc, err := NewEncoder(decision{})
	require.NoError(t, err)

	instr := enc.GetFormatInstructions()
	assert.Contains(t, instr, "\nRespond with JSON in the following JSON schema:\n```json\n{\n")
	assert.Contains(t, instr, `"description": "Name of the selected tool"`)
	assert.Contains(t, instr, `"description": "Text to process"`)
	assert.Contains(t, instr, "\n```\nMake sure to return an instance of the JSON, not the schema itself.\n")
	assert.NotContains(t, instr, "$ref")
	assert.Equal(t, []string{"tool_name"}, enc.Schema().Parameters.Required)
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	enc, err := NewEncoder(decision{})
	require.NoError(t, err)

	tcases := []struct {
		name  string
		reply string
		exp   decision
	}{
		{
			name:  "plain",
			reply: `{"tool_name": "summarize_text", "tool_input": {"text": "long text"}}`,
			exp:   decision{ToolName: "summarize_text", ToolInput: &toolInput{Text: "long text"}},
		},
		{
			name:  "fenced",
			reply: "Sure, here is the tool:\n```json\n{\"tool_name\": \"analyze_sentiment\", \"tool_input\": {\"text\": \"I love it\"}}\n```\n",
			exp:   decision{ToolName: "analyze_sentiment", ToolInput: &toolInput{Text: "I love it"}},
		},
		{
			name:  "postfix",
			reply: "{\"tool_name\": \"no_tool_found\"}\nNone of the tools can help.",
			exp:   decision{ToolName: "no_tool_found"},
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got decision
			require.NoError(t, enc.Unmarshal([]byte(tc.reply), &got))
			assert.Equal(t, tc.exp, got)
			assert.NoError(t, enc.Validate(got))
		})
	}

	assert.Error(t, enc.Validate(decision{}))

	bs, err := enc.Marshal(decision{ToolName: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"tool_name":"x"}`, string(bs))
}
