package llms_test

import (
	"testing"

	"github.com/effective-security/bedrocktools/pkg/llms"
	"github.com/stretchr/testify/assert"
)

func TestTextParts(t *testing.T) {
	t.Parallel()
	mc := llms.MessageFromTextParts(llms.RoleHuman, "a", "b", "c")
	assert.Equal(t, llms.RoleHuman, mc.Role)
	assert.Equal(t, []llms.TextContent{{Text: "a"}, {Text: "b"}, {Text: "c"}}, mc.Parts)
	assert.Equal(t, "a\nb\nc", mc.GetContent())

	mc = llms.MessageFromTextParts(llms.RoleAI, "line\n", "next")
	assert.Equal(t, "line\nnext", mc.GetContent())
	assert.Equal(t, "next", mc.Parts[1].String())
}

func TestSplitSystem(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		msgs   []llms.Message
		system string
		rest   int
	}{
		{name: "empty"},
		{
			name: "no_system",
			msgs: []llms.Message{
				llms.MessageFromTextParts(llms.RoleHuman, "hi"),
			},
			rest: 1,
		},
		{
			name: "system_and_empty",
			msgs: []llms.Message{
				llms.MessageFromTextParts(llms.RoleSystem, "be brief"),
				llms.MessageFromTextParts(llms.RoleSystem, "be kind"),
				llms.MessageFromTextParts(llms.RoleHuman),
				llms.MessageFromTextParts(llms.RoleHuman, "hi"),
				llms.MessageFromTextParts(llms.RoleAI, "hello"),
			},
			system: "be brief\nbe kind",
			rest:   2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			system, rest := llms.SplitSystem(tt.msgs)
			assert.Equal(t, tt.system, system)
			assert.Len(t, rest, tt.rest)
		})
	}
}

func TestContentResponse(t *testing.T) {
	t.Parallel()

	var empty *llms.ContentResponse
	assert.Empty(t, empty.Text())
	assert.Equal(t, llms.Usage{}, empty.Usage())
	assert.Empty(t, (&llms.ContentResponse{}).Text())

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: "first", GenerationInfo: llms.NewGenerationInfo(10, 5)},
			{Content: "second", GenerationInfo: map[string]any{"InputTokens": int64(1), "OutputTokens": int64(2)}},
			nil,
		},
	}
	assert.Equal(t, "first", resp.Text())
	assert.Equal(t, llms.Usage{InputTokens: 11, OutputTokens: 7, TotalTokens: 18}, resp.Usage())
}
