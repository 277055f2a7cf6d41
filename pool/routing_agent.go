package pool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/model"
)

const defaultRoutingPersona = `You are an orchestrator deciding which agent should act next to satisfy the user's request. Avoid routing to the same agent twice in a row without new information, and stop once the goal is satisfied.`

const stopAnswer = "NONE"

// RoutingAgentOptions configure a RoutingAgent.
type RoutingAgentOptions struct {
	// Persona describes the orchestration goals to the routing model.
	Persona string
}

// RoutingAgent is a model-backed router: it renders a roster of the pool's
// agents (names, descriptions, tool names) together with the last result and
// asks its model which agent should run next. The model answers with an
// agent name or NONE to stop; answers are matched case-insensitively against
// the roster and unrecognized answers stop the pool.
type RoutingAgent struct {
	model   model.Model
	persona string
}

// NewRoutingAgent creates a model-backed router.
func NewRoutingAgent(m model.Model, optFns ...func(o *RoutingAgentOptions)) *RoutingAgent {
	opts := RoutingAgentOptions{Persona: defaultRoutingPersona}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RoutingAgent{model: m, persona: opts.Persona}
}

// Next implements core.Router.
func (r *RoutingAgent) Next(ctx context.Context, state *core.State, callCount int, last *core.LastResult) (string, bool, error) {
	response, err := r.model.Generate(ctx, r.prompt(state, callCount, last))
	if err != nil {
		return "", false, err
	}

	answer := strings.TrimSpace(response)
	if answer == "" || strings.EqualFold(answer, stopAnswer) {
		return "", false, nil
	}

	agents := state.Agents()
	if _, ok := agents[answer]; ok {
		return answer, true, nil
	}
	for name := range agents {
		if strings.EqualFold(name, answer) {
			return name, true, nil
		}
	}

	return "", false, nil
}

// prompt renders the decision request: persona, roster, conversation so far
// and the previous result.
func (r *RoutingAgent) prompt(state *core.State, callCount int, last *core.LastResult) string {
	agents := state.Agents()
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(r.persona)
	sb.WriteString("\n\nAvailable agents:")
	for _, name := range names {
		info := agents[name]
		sb.WriteString(fmt.Sprintf("\n- %s: %s", info.Name, info.Description))
		if len(info.Tools) > 0 {
			tools := make([]string, len(info.Tools))
			copy(tools, info.Tools)
			sort.Strings(tools)
			sb.WriteString(fmt.Sprintf(" (tools: %s)", strings.Join(tools, ", ")))
		}
	}

	sb.WriteString("\n\nConversation so far:")
	for _, msg := range state.History() {
		if msg.Agent != "" {
			sb.WriteString(fmt.Sprintf("\n%s (%s): %s", msg.Role, msg.Agent, msg.Content))
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s: %s", msg.Role, msg.Content))
	}

	if last != nil {
		sb.WriteString(fmt.Sprintf("\n\nPrevious agent: %s", last.Agent))
		if len(last.ToolsUsed) > 0 {
			sb.WriteString(fmt.Sprintf(" (tools used: %s)", strings.Join(last.ToolsUsed, ", ")))
		}
		sb.WriteString("\nPrevious output: " + last.Output)
	}

	sb.WriteString(fmt.Sprintf("\n\nAgents run so far: %d.", callCount))
	sb.WriteString(fmt.Sprintf("\nRespond with exactly one agent name from the list, or %s to stop.", stopAnswer))
	return sb.String()
}
