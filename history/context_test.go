package history

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/model"
)

// fillConversation appends n alternating user/assistant messages numbered
// msg-0 .. msg-(n-1).
func fillConversation(t *testing.T, conv *Conversation, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("msg-%d", i)
		if i%2 == 0 {
			require.NoError(t, conv.AddUserMessage(context.Background(), content))
		} else {
			require.NoError(t, conv.AddAssistantMessage(context.Background(), content, "helper"))
		}
	}
}

func contents(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Content
	}
	return out
}

func TestManageContextUnderLimitNoop(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 10)

	require.NoError(t, conv.ManageContext(context.Background(), nil, 20, StrategyTrimLast))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	assert.Len(t, msgs, 10)
}

func TestManageContextNoThreadNoop(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	require.NoError(t, conv.ManageContext(context.Background(), nil, 5, StrategyTrimLast))
}

func TestManageContextTrimLast(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 30)

	require.NoError(t, conv.ManageContext(context.Background(), nil, 20, StrategyTrimLast))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 20)
	assert.Equal(t, "msg-10", msgs[0].Content)
	assert.Equal(t, "msg-29", msgs[19].Content)
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprintf("msg-%d", 10+i), msg.Content)
	}
}

func TestManageContextTrimFirst(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 30)

	require.NoError(t, conv.ManageContext(context.Background(), nil, 20, StrategyTrimFirst))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 20)
	assert.Equal(t, "msg-0", msgs[0].Content)
	assert.Equal(t, "msg-19", msgs[19].Content)
}

func TestManageContextSummarize(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 10)

	m := model.NewMockModel("summarizer-model")
	m.Queue("the user and helper exchanged greetings")

	require.NoError(t, conv.ManageContext(context.Background(), m, 6, StrategySummarize))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 6)

	assert.Equal(t, core.RoleAssistant, msgs[0].Role)
	assert.Equal(t, SummaryAgent, msgs[0].Agent)
	assert.Equal(t, "[Summary of earlier conversation] the user and helper exchanged greetings", msgs[0].Content)

	assert.Equal(t, []string{"msg-5", "msg-6", "msg-7", "msg-8", "msg-9"}, contents(msgs[1:]))

	// The summarization prompt carries the condensed messages.
	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "msg-0")
	assert.Contains(t, prompts[0], "msg-4")
	assert.NotContains(t, prompts[0], "msg-5")
}

func TestManageContextSummarizeKeepRecentOption(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 10)

	m := model.NewMockModel("summarizer-model")
	m.Queue("summary")

	require.NoError(t, conv.ManageContext(context.Background(), m, 6, StrategySummarize, func(o *ManageOptions) {
		o.KeepRecent = 2
	}))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"msg-8", "msg-9"}, contents(msgs[1:]))
}

func TestManageContextSummarizeRequiresModel(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 10)

	err := conv.ManageContext(context.Background(), nil, 6, StrategySummarize)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a model")
}

func TestManageContextSmartSmallOverflowTrims(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 22)

	m := model.NewMockModel("summarizer-model")
	require.NoError(t, conv.ManageContext(context.Background(), m, 20, StrategySmart))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 20)
	assert.Equal(t, "msg-2", msgs[0].Content)
	assert.Zero(t, m.Calls())
}

func TestManageContextSmartLargeOverflowSummarizes(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 30)

	m := model.NewMockModel("summarizer-model")
	m.Queue("long summary")

	require.NoError(t, conv.ManageContext(context.Background(), m, 20, StrategySmart))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 20)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "[Summary of earlier conversation] "))
	assert.Equal(t, 1, m.Calls())
}

func TestManageContextSmartToolOverflowSummarizes(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	require.NoError(t, conv.AddToolMessage(context.Background(), core.ToolCallRecord{
		Name: "double", Args: map[string]any{"x": float64(5)}, Output: "10",
	}, "calc"))
	fillConversation(t, conv, 21)

	m := model.NewMockModel("summarizer-model")
	m.Queue("tool results preserved")

	// Overflow is 2 (within SmallOverflow) but a tool result sits in the
	// discard range, so the information is summarized instead of dropped.
	require.NoError(t, conv.ManageContext(context.Background(), m, 20, StrategySmart))

	msgs, err := conv.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 20)
	assert.Equal(t, SummaryAgent, msgs[0].Agent)
	assert.Equal(t, 1, m.Calls())

	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Tool 'double': 10")
}

func TestManageContextUnknownStrategy(t *testing.T) {
	conv := NewConversation(NewMemoryStore())
	fillConversation(t, conv, 10)

	err := conv.ManageContext(context.Background(), nil, 5, Strategy("bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown context strategy")
}

func TestTruncateToTokensFallback(t *testing.T) {
	text := strings.Repeat("hello world ", 50)
	// Whatever counting backend is available, a generous budget must keep
	// the text intact and a tiny one must shorten it.
	assert.Equal(t, text, truncateToTokens(text, 1000, "cl100k_base"))
	assert.Less(t, len(truncateToTokens(text, 5, "cl100k_base")), len(text))
}
