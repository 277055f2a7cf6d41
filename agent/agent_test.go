package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/history"
	"github.com/hupe1980/agentpool/logging"
	"github.com/hupe1980/agentpool/model"
	"github.com/hupe1980/agentpool/stop"
	"github.com/hupe1980/agentpool/tool"
	"github.com/hupe1980/agentpool/tracing"
)

func doubleTool(t *testing.T) *tool.Tool {
	t.Helper()
	return tool.New("double", "Doubles a number", map[string]tool.ParamType{"x": tool.Int},
		func(_ context.Context, args map[string]any) (any, error) {
			return int(args["x"].(float64)) * 2, nil
		})
}

func TestRunWithoutTools(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue("Hello")

	a := New("greeter", "Greets people", "You are a friendly greeter.", func(o *Options) {
		o.Model = m
		o.Stop = stop.LimitSteps(1)
		o.Logger = logging.NoOpLogger{}
	})

	out, err := a.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	memory := a.Memory()
	require.Len(t, memory, 2)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "hi"}, memory[0])
	assert.Equal(t, core.Message{Role: core.RoleAssistant, Content: "Hello"}, memory[1])

	// Agents without tools get the explicit no-JSON instruction.
	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "You are a friendly greeter.")
	assert.Contains(t, prompts[0], "do not respond with tool-call JSON")
	assert.Contains(t, prompts[0], "User: hi")
}

func TestRunWithToolRoundTrip(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue(`{"tool": "double", "args": {"x": 5}}`, "The result is 10")

	a := New("calc", "Does math", "You are a calculator.", func(o *Options) {
		o.Model = m
		o.Tools = []*tool.Tool{doubleTool(t)}
		o.Logger = logging.NoOpLogger{}
	})

	out, err := a.Run(context.Background(), "double 5")
	require.NoError(t, err)
	assert.Equal(t, "The result is 10", out)

	memory := a.Memory()
	require.Len(t, memory, 4)
	assert.Equal(t, core.RoleUser, memory[0].Role)
	assert.Equal(t, core.RoleAssistant, memory[1].Role)
	assert.Equal(t, core.RoleTool, memory[2].Role)
	require.NotNil(t, memory[2].ToolCall)
	assert.Equal(t, "double", memory[2].ToolCall.Name)
	assert.Equal(t, "10", memory[2].ToolCall.Output)
	assert.Equal(t, core.RoleAssistant, memory[3].Role)

	assert.Equal(t, []string{"double"}, a.ToolsUsed())

	// The follow-up prompt exposes the tool output to the model.
	prompts := m.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Available tools:")
	assert.Contains(t, prompts[0], "double: Doubles a number (parameters: x: int)")
	assert.Contains(t, prompts[1], "Tool 'double' called with args {x=5}")
	assert.Contains(t, prompts[1], "Output: 10")
}

func TestRunStopAfterToolReturnsToolResult(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue(`{"tool": "double", "args": {"x": 5}}`)

	stopOnTool := stop.Func(func(_ int, memory []core.Message) bool {
		for _, msg := range memory {
			if msg.Role == core.RoleTool {
				return true
			}
		}
		return false
	})

	a := New("calc", "Does math", "You are a calculator.", func(o *Options) {
		o.Model = m
		o.Tools = []*tool.Tool{doubleTool(t)}
		o.Stop = stopOnTool
		o.Logger = logging.NoOpLogger{}
	})

	out, err := a.Run(context.Background(), "double 5")
	require.NoError(t, err)
	assert.Equal(t, "Tool result: 10", out)
	assert.Equal(t, 1, m.Calls())
}

func TestRunStopWithEarlierToolReturnsAnalysis(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue(`{"tool": "double", "args": {"x": 5}}`, "thinking out loud")

	a := New("calc", "Does math", "You are a calculator.", func(o *Options) {
		o.Model = m
		o.Tools = []*tool.Tool{doubleTool(t)}
		o.Stop = stop.Func(func(step int, _ []core.Message) bool { return step >= 2 })
		o.Logger = logging.NoOpLogger{}
	})

	out, err := a.Run(context.Background(), "double 5")
	require.NoError(t, err)
	assert.Equal(t, "Based on the analysis: 10", out)
}

func TestRunStopWithoutToolReturnsGenericMessage(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue("Hello")

	a := New("greeter", "Greets people", "You are a greeter.", func(o *Options) {
		o.Model = m
		o.Stop = stop.Func(func(int, []core.Message) bool { return true })
		o.Logger = logging.NoOpLogger{}
	})

	out, err := a.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Task completed with available information.", out)
}

func TestRunUnknownToolIsFatal(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue(`{"tool": "missing", "args": {}}`)

	a := New("calc", "Does math", "You are a calculator.", func(o *Options) {
		o.Model = m
		o.Tools = []*tool.Tool{doubleTool(t)}
		o.Logger = logging.NoOpLogger{}
	})

	_, err := a.Run(context.Background(), "do something")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "missing")
}

func TestRunToolErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := tool.New("fail", "Always fails", map[string]tool.ParamType{},
		func(context.Context, map[string]any) (any, error) {
			return nil, boom
		})

	m := model.NewMockModel("mock")
	m.Queue(`{"tool": "fail", "args": {}}`)

	a := New("calc", "Does math", "You are a calculator.", func(o *Options) {
		o.Model = m
		o.Tools = []*tool.Tool{failing}
		o.Logger = logging.NoOpLogger{}
	})

	_, err := a.Run(context.Background(), "go")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRunModelErrorPropagatesUnwrapped(t *testing.T) {
	provider := errors.New("rate limited")
	m := model.NewMockModel("mock")
	m.QueueError(provider)

	a := New("greeter", "Greets people", "You are a greeter.", func(o *Options) {
		o.Model = m
		o.Logger = logging.NoOpLogger{}
	})

	_, err := a.Run(context.Background(), "hi")
	assert.Equal(t, provider, err)
}

func TestRunWithoutModel(t *testing.T) {
	a := New("empty", "No model", "Persona.")

	_, err := a.Run(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestMemoryIsolationAcrossRuns(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue("first", "second")

	a := New("greeter", "Greets people", "You are a greeter.", func(o *Options) {
		o.Model = m
		o.Stop = stop.LimitSteps(1)
		o.Logger = logging.NoOpLogger{}
	})

	out, err := a.Run(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "first", out)
	assert.Len(t, a.Memory(), 2)

	// The second run starts from a clean working set, not the first run's.
	out, err = a.Run(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "second", out)

	memory := a.Memory()
	require.Len(t, memory, 2)
	assert.Equal(t, "two", memory[0].Content)
}

func TestHistoryReloadAndSyncOnce(t *testing.T) {
	store := history.NewMemoryStore()
	m := model.NewMockModel("mock")
	m.Queue("Hello", "Welcome back")

	a := New("greeter", "Greets people", "You are a greeter.", func(o *Options) {
		o.Model = m
		o.Stop = stop.LimitSteps(1)
		o.History = &history.Config{Store: store}
		o.Logger = logging.NoOpLogger{}
	})

	_, err := a.Run(context.Background(), "hi")
	require.NoError(t, err)

	threadID := a.Conversation().CurrentThreadID()
	require.NotEmpty(t, threadID)

	msgs, err := store.GetMessages(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.Equal(t, "greeter", msgs[1].Agent)

	// A second run reloads the thread and persists only the new entries.
	_, err = a.Run(context.Background(), "back again")
	require.NoError(t, err)

	memory := a.Memory()
	require.Len(t, memory, 4)
	assert.Equal(t, "hi", memory[0].Content)
	assert.Equal(t, "Hello", memory[1].Content)
	assert.Equal(t, "back again", memory[2].Content)

	msgs, err = store.GetMessages(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "back again", msgs[2].Content)
	assert.Equal(t, "Welcome back", msgs[3].Content)
}

func TestHistoryRoundTripAcrossAgents(t *testing.T) {
	store := history.NewMemoryStore()

	first := model.NewMockModel("mock")
	first.Queue("Hello")
	a := New("greeter", "Greets people", "You are a greeter.", func(o *Options) {
		o.Model = first
		o.Stop = stop.LimitSteps(1)
		o.History = &history.Config{Store: store}
		o.Logger = logging.NoOpLogger{}
	})
	_, err := a.Run(context.Background(), "hi")
	require.NoError(t, err)
	threadID := a.Conversation().CurrentThreadID()

	// A fresh agent resuming the same thread sees the exact sequence.
	second := model.NewMockModel("mock")
	second.Queue("again")
	b := New("greeter", "Greets people", "You are a greeter.", func(o *Options) {
		o.Model = second
		o.Stop = stop.LimitSteps(1)
		o.History = &history.Config{Store: store}
		o.Logger = logging.NoOpLogger{}
	})
	b.Conversation().SetThread(threadID)

	_, err = b.Run(context.Background(), "back")
	require.NoError(t, err)

	memory := b.Memory()
	require.Len(t, memory, 4)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "hi"}, memory[0])
	assert.Equal(t, core.Message{Role: core.RoleAssistant, Content: "Hello"}, memory[1])
}

func TestRunAutoManageFailureDoesNotAbort(t *testing.T) {
	store := history.NewMemoryStore()
	m := model.NewMockModel("mock")
	m.Queue("Hello")

	a := New("greeter", "Greets people", "You are a greeter.", func(o *Options) {
		o.Model = m
		o.Stop = stop.LimitSteps(1)
		o.History = &history.Config{
			Store:       store,
			AutoManage:  true,
			MaxMessages: 1,
			Strategy:    history.Strategy("bogus"),
		}
		o.Logger = logging.NoOpLogger{}
	})

	// Seed the thread over its budget so management actually runs; the
	// unknown strategy makes it fail, which must be swallowed.
	require.NoError(t, a.Conversation().AddUserMessage(context.Background(), "earlier"))
	require.NoError(t, a.Conversation().AddAssistantMessage(context.Background(), "noted", "greeter"))

	out, err := a.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	memory := a.Memory()
	require.Len(t, memory, 4)
	assert.Equal(t, "earlier", memory[0].Content)
}

func TestRunTracerHookOrdering(t *testing.T) {
	rec := tracing.NewRecorder()
	m := model.NewMockModel("mock")
	m.Queue(`{"tool": "double", "args": {"x": 5}}`, "The result is 10")

	a := New("calc", "Does math", "You are a calculator.", func(o *Options) {
		o.Model = m
		o.Tools = []*tool.Tool{doubleTool(t)}
		o.Tracer = rec
		o.Logger = logging.NoOpLogger{}
	})

	_, err := a.Run(context.Background(), "double 5")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"agent.start calc",
		"model.start calc mock",
		"model.end calc mock",
		"tool.start calc double",
		"tool.end calc double",
		"model.start calc mock",
		"model.end calc mock",
		"agent.end calc",
	}, rec.Events())
}
