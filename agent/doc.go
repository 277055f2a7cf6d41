// Package agent implements the ReAct-style execution loop: it renders a
// prompt from the agent's persona, tool schemas and accumulated memory, calls
// the model, detects and executes tool calls parsed from the response, and
// consults a stop condition until a final answer is produced.
//
// An Agent is configured once and reused across runs. Its temporary memory is
// reset at the start of every Run call; persistent conversation history is
// opt-in via history.Config and survives across runs and processes.
package agent
