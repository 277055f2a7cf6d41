// Package tracing provides optional, purely observational hooks around agent
// runs, model calls and tool calls. Tracers must never alter control flow:
// the loop ignores anything a tracer does and continues regardless.
package tracing

import (
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentpool/logging"
)

// Tracer receives start/end notifications around the three suspension points
// of the execution loop. Implementations must be fast and must not panic.
type Tracer interface {
	// AgentStart is called when an agent run begins. The returned run id is
	// passed back to AgentEnd so tracers can correlate nested events.
	AgentStart(agent, input string) (runID string)
	// AgentEnd is called when an agent run finishes, successfully or not.
	AgentEnd(runID, agent, output string, err error)

	// ModelStart/ModelEnd bracket one model generation.
	ModelStart(runID, agent, model string, prompt string)
	ModelEnd(runID, agent, model string, response string, err error)

	// ToolStart/ToolEnd bracket one tool execution.
	ToolStart(runID, agent, tool string, args map[string]any)
	ToolEnd(runID, agent, tool string, output string, err error)
}

// Noop discards all notifications. Assigning it to an agent explicitly opts
// that agent out of a pool-level tracer.
type Noop struct{}

// AgentStart implements Tracer.
func (Noop) AgentStart(string, string) string { return "" }

// AgentEnd implements Tracer.
func (Noop) AgentEnd(string, string, string, error) {}

// ModelStart implements Tracer.
func (Noop) ModelStart(string, string, string, string) {}

// ModelEnd implements Tracer.
func (Noop) ModelEnd(string, string, string, string, error) {}

// ToolStart implements Tracer.
func (Noop) ToolStart(string, string, string, map[string]any) {}

// ToolEnd implements Tracer.
func (Noop) ToolEnd(string, string, string, string, error) {}

// Log emits every notification as a structured log entry with measured
// durations. Safe for concurrent use as long as the underlying Logger is.
type Log struct {
	logger logging.Logger
	starts timedStarts
}

// NewLog constructs a logging tracer. A nil logger falls back to
// slog.Default().
func NewLog(logger logging.Logger) *Log {
	if logger == nil {
		logger = logging.NewDefaultSlogLogger()
	}
	return &Log{logger: logger, starts: newTimedStarts()}
}

// AgentStart implements Tracer.
func (t *Log) AgentStart(agent, input string) string {
	runID := uuid.NewString()
	t.starts.put("agent:"+runID, time.Now())
	t.logger.Info("trace.agent.start", "run_id", runID, "agent", agent, "input_len", len(input))
	return runID
}

// AgentEnd implements Tracer.
func (t *Log) AgentEnd(runID, agent, output string, err error) {
	dur := t.starts.since("agent:" + runID)
	if err != nil {
		t.logger.Error("trace.agent.end", "run_id", runID, "agent", agent, "duration", dur, "error", err.Error())
		return
	}
	t.logger.Info("trace.agent.end", "run_id", runID, "agent", agent, "duration", dur, "output_len", len(output))
}

// ModelStart implements Tracer.
func (t *Log) ModelStart(runID, agent, model, prompt string) {
	t.starts.put("model:"+runID, time.Now())
	t.logger.Debug("trace.model.start", "run_id", runID, "agent", agent, "model", model, "prompt_len", len(prompt))
}

// ModelEnd implements Tracer.
func (t *Log) ModelEnd(runID, agent, model, response string, err error) {
	dur := t.starts.since("model:" + runID)
	if err != nil {
		t.logger.Error("trace.model.end", "run_id", runID, "agent", agent, "model", model, "duration", dur, "error", err.Error())
		return
	}
	t.logger.Info("trace.model.end", "run_id", runID, "agent", agent, "model", model, "duration", dur, "response_len", len(response))
}

// ToolStart implements Tracer.
func (t *Log) ToolStart(runID, agent, tool string, args map[string]any) {
	t.starts.put("tool:"+runID+":"+tool, time.Now())
	t.logger.Debug("trace.tool.start", "run_id", runID, "agent", agent, "tool", tool, "arg_count", len(args))
}

// ToolEnd implements Tracer.
func (t *Log) ToolEnd(runID, agent, tool, output string, err error) {
	dur := t.starts.since("tool:" + runID + ":" + tool)
	if err != nil {
		t.logger.Error("trace.tool.end", "run_id", runID, "agent", agent, "tool", tool, "duration", dur, "error", err.Error())
		return
	}
	t.logger.Info("trace.tool.end", "run_id", runID, "agent", agent, "tool", tool, "duration", dur, "output_len", len(output))
}

// Multi fans every notification out to a list of tracers in order. The run
// id returned by AgentStart is the first tracer's; downstream tracers still
// receive their own AgentStart call.
type Multi struct {
	tracers []Tracer
}

// NewMulti constructs a fan-out tracer.
func NewMulti(tracers ...Tracer) *Multi {
	return &Multi{tracers: tracers}
}

// AgentStart implements Tracer.
func (m *Multi) AgentStart(agent, input string) string {
	var runID string
	for i, t := range m.tracers {
		id := t.AgentStart(agent, input)
		if i == 0 {
			runID = id
		}
	}
	return runID
}

// AgentEnd implements Tracer.
func (m *Multi) AgentEnd(runID, agent, output string, err error) {
	for _, t := range m.tracers {
		t.AgentEnd(runID, agent, output, err)
	}
}

// ModelStart implements Tracer.
func (m *Multi) ModelStart(runID, agent, model, prompt string) {
	for _, t := range m.tracers {
		t.ModelStart(runID, agent, model, prompt)
	}
}

// ModelEnd implements Tracer.
func (m *Multi) ModelEnd(runID, agent, model, response string, err error) {
	for _, t := range m.tracers {
		t.ModelEnd(runID, agent, model, response, err)
	}
}

// ToolStart implements Tracer.
func (m *Multi) ToolStart(runID, agent, tool string, args map[string]any) {
	for _, t := range m.tracers {
		t.ToolStart(runID, agent, tool, args)
	}
}

// ToolEnd implements Tracer.
func (m *Multi) ToolEnd(runID, agent, tool, output string, err error) {
	for _, t := range m.tracers {
		t.ToolEnd(runID, agent, tool, output, err)
	}
}
