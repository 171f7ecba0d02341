package chatmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatContext_Basics(t *testing.T) {
	t.Parallel()
	c := NewChatContext("cid", 123)
	require.NotNil(t, c)
	assert.Equal(t, "cid", c.GetChatID())
	assert.Equal(t, 123, c.AppData())
	assert.NotEmpty(t, c.RunID())

	val, ok := c.GetMetadata("not-found")
	assert.Nil(t, val)
	assert.False(t, ok)
	c.SetMetadata("foo", 1)
	v, ok := c.GetMetadata("foo")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestNewChatContext_DefaultIDs(t *testing.T) {
	t.Parallel()
	c := NewChatContext("", nil)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.GetChatID())
	assert.NotEmpty(t, c.RunID())
	assert.NotEqual(t, c.GetChatID(), c.RunID())
}

func TestContextPlumbing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Nil(t, GetChatContext(ctx))
	assert.Empty(t, GetChatID(ctx))
	_, _, err := GetChatAndRunID(ctx)
	assert.ErrorIs(t, err, ErrInvalidChatContext)

	c := NewChatContext("y", nil)
	ctx = WithChatContext(ctx, c)
	assert.Equal(t, c, GetChatContext(ctx))
	assert.Equal(t, "y", GetChatID(ctx))

	chatID, runID, err := GetChatAndRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y", chatID)
	assert.Equal(t, c.RunID(), runID)

	// same conversation, new run, shared metadata
	c.SetMetadata("lang", "fr")
	run := NewRun(ctx)
	rc := GetChatContext(run)
	assert.Equal(t, "y", rc.GetChatID())
	assert.NotEqual(t, c.RunID(), rc.RunID())
	lang, ok := rc.GetMetadata("lang")
	assert.True(t, ok)
	assert.Equal(t, "fr", lang)

	// EnsureChatContext keeps the existing one
	assert.Equal(t, ctx, EnsureChatContext(ctx, "other"))
	assert.Equal(t, "other", GetChatID(EnsureChatContext(context.Background(), "other")))
	assert.NotEmpty(t, GetChatID(NewRun(context.Background())))
}

func TestNewChatID_Unique(t *testing.T) {
	t.Parallel()
	id1 := NewChatID()
	id2 := NewChatID()
	assert.NotEqual(t, id1, id2)
}
