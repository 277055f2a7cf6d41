package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpool/core"
)

func TestConversationLazyThread(t *testing.T) {
	conv := NewConversation(NewMemoryStore())

	assert.Empty(t, conv.CurrentThreadID())

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, conv.AddUserMessage(context.Background(), "hello"))
	assert.NotEmpty(t, conv.CurrentThreadID())

	msgs, err = conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.NotEmpty(t, msgs[0].ID)
	assert.Equal(t, conv.CurrentThreadID(), msgs[0].ThreadID)
}

func TestConversationAppendHelpers(t *testing.T) {
	conv := NewConversation(NewMemoryStore())

	require.NoError(t, conv.AddUserMessage(context.Background(), "What is 5 doubled?"))
	require.NoError(t, conv.AddToolMessage(context.Background(), core.ToolCallRecord{
		Name: "double", Args: map[string]any{"x": float64(5)}, Output: "10",
	}, "calc"))
	require.NoError(t, conv.AddAssistantMessage(context.Background(), "The result is 10", "calc"))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, core.RoleUser, msgs[0].Role)

	assert.Equal(t, core.RoleTool, msgs[1].Role)
	assert.Equal(t, "calc", msgs[1].Agent)
	require.NotNil(t, msgs[1].ToolCall)
	assert.Equal(t, "double", msgs[1].ToolCall.Name)

	assert.Equal(t, core.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "The result is 10", msgs[2].Content)
}

func TestConversationResumeThread(t *testing.T) {
	store := NewMemoryStore()

	first := NewConversation(store)
	id, err := first.CreateThread(context.Background(), map[string]string{"topic": "math"})
	require.NoError(t, err)
	require.NoError(t, first.AddUserMessage(context.Background(), "hello"))

	second := NewConversation(store)
	second.SetThread(id)

	msgs, err := second.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)

	th, err := store.GetThread(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "math", th.Metadata["topic"])
}

func TestConversationEnsureThreadIdempotent(t *testing.T) {
	conv := NewConversation(NewMemoryStore())

	require.NoError(t, conv.EnsureThread(context.Background(), nil))
	id := conv.CurrentThreadID()
	require.NoError(t, conv.EnsureThread(context.Background(), nil))
	assert.Equal(t, id, conv.CurrentThreadID())
}
