package tracing

import (
	"fmt"
	"sync"
)

// Recorder captures every notification as a flat event string. Useful for
// tests asserting hook ordering.
type Recorder struct {
	mu     sync.Mutex
	events []string
	nextID int
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Events returns a copy of all recorded events in order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

// AgentStart implements Tracer.
func (r *Recorder) AgentStart(agent, _ string) string {
	r.mu.Lock()
	r.nextID++
	runID := fmt.Sprintf("run-%d", r.nextID)
	r.events = append(r.events, "agent.start "+agent)
	r.mu.Unlock()
	return runID
}

// AgentEnd implements Tracer.
func (r *Recorder) AgentEnd(_, agent, _ string, err error) {
	if err != nil {
		r.record("agent.error %s", agent)
		return
	}
	r.record("agent.end %s", agent)
}

// ModelStart implements Tracer.
func (r *Recorder) ModelStart(_, agent, model, _ string) {
	r.record("model.start %s %s", agent, model)
}

// ModelEnd implements Tracer.
func (r *Recorder) ModelEnd(_, agent, model, _ string, err error) {
	if err != nil {
		r.record("model.error %s %s", agent, model)
		return
	}
	r.record("model.end %s %s", agent, model)
}

// ToolStart implements Tracer.
func (r *Recorder) ToolStart(_, agent, tool string, _ map[string]any) {
	r.record("tool.start %s %s", agent, tool)
}

// ToolEnd implements Tracer.
func (r *Recorder) ToolEnd(_, agent, tool, _ string, err error) {
	if err != nil {
		r.record("tool.error %s %s", agent, tool)
		return
	}
	r.record("tool.end %s %s", agent, tool)
}
