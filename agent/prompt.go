package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/tool"
)

const toolUsageInstructions = `You have access to the following tools. To use a tool, respond with a single JSON object of the form {"tool": "<tool name>", "args": {<arguments>}} and nothing else. If no tool is needed, respond with plain text.`

const noToolsInstructions = `You have no tools available. Respond directly in plain text and do not respond with tool-call JSON.`

const followUpInstructions = `Use the tool output above to continue. Call another tool if needed, otherwise respond with the final answer in plain text.`

// initialPrompt renders persona, tool instructions and the full memory
// transcript for the first model call of a run.
func (a *Agent) initialPrompt() string {
	instructions := noToolsInstructions
	if len(a.tools) > 0 {
		instructions = a.toolsPrompt()
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\nAssistant:", a.persona, instructions, renderTranscript(a.memory))
}

// followUpPrompt re-renders the conversation after a tool execution so the
// model sees the tool output before deciding its next move.
func (a *Agent) followUpPrompt() string {
	var sb strings.Builder
	sb.WriteString(a.persona)
	sb.WriteString("\n\n")
	if len(a.tools) > 0 {
		sb.WriteString(a.toolsPrompt())
		sb.WriteString("\n\n")
	}
	sb.WriteString(renderTranscript(a.memory))
	sb.WriteString("\n\n")
	sb.WriteString(followUpInstructions)
	sb.WriteString("\n\nAssistant:")
	return sb.String()
}

// toolsPrompt lists the agent's tools with their parameter schemas in a
// stable order.
func (a *Agent) toolsPrompt() string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(toolUsageInstructions)
	sb.WriteString("\n\nAvailable tools:")
	for _, name := range names {
		t := a.tools[name]
		sb.WriteString(fmt.Sprintf("\n- %s: %s (parameters: %s)", t.Name(), t.Description(), renderParameters(t)))
	}
	return sb.String()
}

func renderParameters(t *tool.Tool) string {
	params := t.Parameters()
	if len(params) == 0 {
		return "none"
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, params[k]))
	}
	return strings.Join(parts, ", ")
}

// renderTranscript turns memory into role-labeled lines. Tool entries carry
// the call details so follow-up prompts expose the output to the model.
func renderTranscript(memory []core.Message) string {
	lines := make([]string, 0, len(memory))
	for _, m := range memory {
		switch m.Role {
		case core.RoleTool:
			if m.ToolCall != nil {
				lines = append(lines, fmt.Sprintf("Tool '%s' called with args %s\nOutput: %s",
					m.ToolCall.Name, renderArgs(m.ToolCall.Args), m.ToolCall.Output))
			}
		case core.RoleAssistant:
			lines = append(lines, "Assistant: "+m.Content)
		default:
			lines = append(lines, "User: "+m.Content)
		}
	}
	return strings.Join(lines, "\n")
}

func renderArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
