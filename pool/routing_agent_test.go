package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/model"
)

func routingState() *core.State {
	state := core.NewState()
	state.SetAgents(map[string]core.AgentInfo{
		"researcher": {Name: "researcher", Description: "Finds information", Tools: []string{"search"}},
		"writer":     {Name: "writer", Description: "Writes summaries"},
	})
	state.AddMessage(core.RoleUser, "summarize the latest Go release", "")
	return state
}

func TestRoutingAgentSelectsByName(t *testing.T) {
	m := model.NewMockModel("router-model")
	m.Queue("researcher")

	r := NewRoutingAgent(m)

	name, ok, err := r.Next(context.Background(), routingState(), 0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "researcher", name)
}

func TestRoutingAgentRosterPrompt(t *testing.T) {
	m := model.NewMockModel("router-model")
	m.Queue("writer")

	r := NewRoutingAgent(m)

	last := &core.LastResult{Agent: "researcher", Output: "found three articles", ToolsUsed: []string{"search"}}
	_, _, err := r.Next(context.Background(), routingState(), 1, last)
	require.NoError(t, err)

	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "- researcher: Finds information (tools: search)")
	assert.Contains(t, prompts[0], "- writer: Writes summaries")
	assert.Contains(t, prompts[0], "user: summarize the latest Go release")
	assert.Contains(t, prompts[0], "Previous agent: researcher")
	assert.Contains(t, prompts[0], "tools used: search")
	assert.Contains(t, prompts[0], "Previous output: found three articles")
	assert.Contains(t, prompts[0], "or NONE to stop")
}

func TestRoutingAgentNoneStops(t *testing.T) {
	m := model.NewMockModel("router-model")
	m.Queue("NONE")

	r := NewRoutingAgent(m)

	_, ok, err := r.Next(context.Background(), routingState(), 0, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoutingAgentCaseInsensitiveMatch(t *testing.T) {
	m := model.NewMockModel("router-model")
	m.Queue("  Researcher \n")

	r := NewRoutingAgent(m)

	name, ok, err := r.Next(context.Background(), routingState(), 0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "researcher", name)
}

func TestRoutingAgentUnrecognizedAnswerStops(t *testing.T) {
	m := model.NewMockModel("router-model")
	m.Queue("the researcher seems best")

	r := NewRoutingAgent(m)

	_, ok, err := r.Next(context.Background(), routingState(), 0, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoutingAgentModelErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	m := model.NewMockModel("router-model")
	m.QueueError(boom)

	r := NewRoutingAgent(m)

	_, _, err := r.Next(context.Background(), routingState(), 0, nil)
	assert.Equal(t, boom, err)
}

func TestRoutingAgentCustomPersona(t *testing.T) {
	m := model.NewMockModel("router-model")
	m.Queue("NONE")

	r := NewRoutingAgent(m, func(o *RoutingAgentOptions) {
		o.Persona = "Route everything to the writer."
	})

	_, _, err := r.Next(context.Background(), routingState(), 0, nil)
	require.NoError(t, err)

	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Route everything to the writer.")
}
