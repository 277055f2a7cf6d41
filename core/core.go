package core

// Role identifies the author of a conversation entry.
type Role string

const (
	// RoleUser marks input supplied by the caller (or a previous agent's
	// chained output when running inside a pool).
	RoleUser Role = "user"
	// RoleAssistant marks raw model responses.
	RoleAssistant Role = "assistant"
	// RoleTool marks structured tool execution results.
	RoleTool Role = "tool"
)

// ToolCallRecord captures one executed tool invocation: which tool ran, the
// arguments parsed from the model response and the stringified output.
type ToolCallRecord struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
	Output string         `json:"output"`
}

// Message is a single entry of an agent's temporary memory. Entries with
// RoleTool carry the structured ToolCall payload instead of plain content.
type Message struct {
	Role     Role            `json:"role"`
	Content  string          `json:"content,omitempty"`
	ToolCall *ToolCallRecord `json:"tool_call,omitempty"`
}

// ToolCall is a tool invocation request parsed out of a model response.
type ToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}
