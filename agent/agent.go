package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/history"
	"github.com/hupe1980/agentpool/logging"
	"github.com/hupe1980/agentpool/model"
	"github.com/hupe1980/agentpool/stop"
	"github.com/hupe1980/agentpool/tool"
	"github.com/hupe1980/agentpool/tracing"
)

// ErrUnknownTool is returned when a parsed tool call references a name that
// is not in the agent's tool set. This is a configuration error, fatal for
// the run.
var ErrUnknownTool = errors.New("agent: unknown tool")

// ErrNoModel is returned by Run when the agent has neither its own model nor
// one inherited from a pool.
var ErrNoModel = errors.New("agent: no model configured")

// Options configure an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Model generates responses. May be left nil when the agent joins a
	// pool with a default model.
	Model model.Model
	// Tools the agent may call. Names must be unique; a later tool with a
	// duplicate name replaces the earlier one.
	Tools []*tool.Tool
	// Stop decides when the internal loop terminates. Default
	// stop.LimitSteps(5).
	Stop stop.Condition
	// History opts into persistent conversation storage and context-window
	// management.
	History *history.Config
	// Tracer observes the run. Nil inherits a pool-level tracer when the
	// agent joins a pool; assign tracing.Noop to opt out explicitly.
	Tracer tracing.Tracer
	// Logger receives diagnostics (context-management failures). Default
	// logging.NewDefaultSlogLogger.
	Logger logging.Logger
}

// Agent is a persona + model + tool set + stop condition exposing a
// synchronous Run loop.
//
// An Agent is not safe for concurrent Run calls on the same instance: the
// temporary memory accumulated during a run is instance state. Use separate
// instances for concurrent workloads.
type Agent struct {
	name        string
	description string
	persona     string
	model       model.Model
	tools       map[string]*tool.Tool
	stop        stop.Condition
	historyCfg  *history.Config
	conv        *history.Conversation
	tracer      tracing.Tracer
	logger      logging.Logger

	// memory is the per-run working set, reset at the start of every Run.
	memory []core.Message
}

// New creates an agent.
func New(name, description, persona string, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Stop:   stop.LimitSteps(5),
		Logger: logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tools := make(map[string]*tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		tools[t.Name()] = t
	}

	a := &Agent{
		name:        name,
		description: description,
		persona:     persona,
		model:       opts.Model,
		tools:       tools,
		stop:        opts.Stop,
		tracer:      opts.Tracer,
		logger:      opts.Logger,
	}

	if opts.History != nil && opts.History.Store != nil {
		cfg := opts.History.WithDefaults()
		a.historyCfg = &cfg
		a.conv = history.NewConversation(cfg.Store)
	}

	return a
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's purpose description.
func (a *Agent) Description() string { return a.description }

// Persona returns the agent's system-prompt text.
func (a *Agent) Persona() string { return a.persona }

// Model returns the agent's model, nil when none is configured yet.
func (a *Agent) Model() model.Model { return a.model }

// SetModel assigns a model. Pools use this to backfill their default model
// into agents constructed without one.
func (a *Agent) SetModel(m model.Model) { a.model = m }

// Tracer returns the agent's tracer; nil means unset (inherit).
func (a *Agent) Tracer() tracing.Tracer { return a.tracer }

// SetTracer assigns a tracer. Pools use this to propagate a pool-level
// tracer into agents that have none.
func (a *Agent) SetTracer(t tracing.Tracer) { a.tracer = t }

// ToolNames returns the names of the agent's tools in no particular order.
func (a *Agent) ToolNames() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	return names
}

// Conversation returns the persistent history manager, nil when the agent
// runs without history. Callers resume an earlier thread via
// Conversation().SetThread.
func (a *Agent) Conversation() *history.Conversation { return a.conv }

// Memory returns a copy of the temporary memory accumulated by the most
// recent Run call.
func (a *Agent) Memory() []core.Message {
	out := make([]core.Message, len(a.memory))
	copy(out, a.memory)
	return out
}

// ToolsUsed returns the tool names recorded in the most recent run's memory,
// in execution order.
func (a *Agent) ToolsUsed() []string {
	var names []string
	for _, m := range a.memory {
		if m.Role == core.RoleTool && m.ToolCall != nil {
			names = append(names, m.ToolCall.Name)
		}
	}
	return names
}

// Run executes the agent loop against one input and returns the final
// answer. The input is the user's request, or the previous agent's output
// when running inside a pool.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	if a.model == nil {
		return "", ErrNoModel
	}

	tracer := a.effectiveTracer()
	runID := tracer.AgentStart(a.name, input)

	output, err := a.run(ctx, input, runID, tracer)

	tracer.AgentEnd(runID, a.name, output, err)
	return output, err
}

func (a *Agent) run(ctx context.Context, input string, runID string, tracer tracing.Tracer) (string, error) {
	a.memory = nil

	if a.conv != nil {
		if err := a.conv.EnsureThread(ctx, map[string]string{"agent": a.name}); err != nil {
			return "", err
		}

		// Context management is an optimization: failures are logged and
		// never abort the run.
		if a.historyCfg.AutoManage {
			if err := a.manageContext(ctx); err != nil {
				a.logger.Warn("context management failed", "agent", a.name, "error", err)
			}
		}

		if err := a.loadHistory(ctx); err != nil {
			return "", err
		}
	}

	a.memory = append(a.memory, core.Message{Role: core.RoleUser, Content: input})

	prompt := a.initialPrompt()
	modelName := a.model.Info().Name
	step := 0

	for {
		step++

		tracer.ModelStart(runID, a.name, modelName, prompt)
		response, err := a.model.Generate(ctx, prompt)
		tracer.ModelEnd(runID, a.name, modelName, response, err)
		if err != nil {
			a.syncBestEffort(ctx)
			return "", err
		}

		a.memory = append(a.memory, core.Message{Role: core.RoleAssistant, Content: response})

		call, found := ParseToolCall(response)
		if found {
			t, exists := a.tools[call.Tool]
			if !exists {
				a.syncBestEffort(ctx)
				return "", fmt.Errorf("%w: %q is not in the agent's tool set", ErrUnknownTool, call.Tool)
			}

			tracer.ToolStart(runID, a.name, call.Tool, call.Args)
			output, err := t.Run(ctx, call.Args)
			tracer.ToolEnd(runID, a.name, call.Tool, output, err)
			if err != nil {
				a.syncBestEffort(ctx)
				return "", err
			}

			a.memory = append(a.memory, core.Message{
				Role:     core.RoleTool,
				ToolCall: &core.ToolCallRecord{Name: call.Tool, Args: call.Args, Output: output},
			})

			if a.stop.ShouldStop(step-1, a.memory) {
				result := "Tool result: " + output
				return result, a.syncHistory(ctx)
			}

			prompt = a.followUpPrompt()
			continue
		}

		if a.stop.ShouldStop(step, a.memory) {
			// Prefer the most recent tool output over a raw response that
			// may still be tool-call JSON.
			for i := len(a.memory) - 1; i >= 0; i-- {
				if a.memory[i].Role == core.RoleTool && a.memory[i].ToolCall != nil {
					result := "Based on the analysis: " + a.memory[i].ToolCall.Output
					return result, a.syncHistory(ctx)
				}
			}
			result := "Task completed with available information."
			return result, a.syncHistory(ctx)
		}

		return response, a.syncHistory(ctx)
	}
}

// manageContext applies the configured context-window strategy, preferring
// the dedicated summarize model when one is set and the strategy may
// summarize.
func (a *Agent) manageContext(ctx context.Context) error {
	cfg := a.historyCfg

	m := a.model
	if cfg.SummarizeModel != nil && (cfg.Strategy == history.StrategySmart || cfg.Strategy == history.StrategySummarize) {
		m = cfg.SummarizeModel
	}

	return a.conv.ManageContext(ctx, m, cfg.MaxMessages, cfg.Strategy, func(o *history.ManageOptions) {
		if cfg.KeepRecent > 0 {
			o.KeepRecent = cfg.KeepRecent
		}
		if cfg.SmallOverflow > 0 {
			o.SmallOverflow = cfg.SmallOverflow
		}
	})
}

// loadHistory replays the persisted thread into temporary memory,
// role-preserving.
func (a *Agent) loadHistory(ctx context.Context) error {
	msgs, err := a.conv.Messages(ctx)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if msg.Role == core.RoleTool {
			a.memory = append(a.memory, core.Message{Role: core.RoleTool, ToolCall: msg.ToolCall})
			continue
		}
		a.memory = append(a.memory, core.Message{Role: msg.Role, Content: msg.Content})
	}
	return nil
}

// syncHistory writes back only the memory entries beyond what the store
// already holds, so reloaded messages are never persisted twice.
func (a *Agent) syncHistory(ctx context.Context) error {
	if a.conv == nil {
		return nil
	}

	existing, err := a.conv.Messages(ctx)
	if err != nil {
		return err
	}
	if len(a.memory) <= len(existing) {
		return nil
	}

	for _, m := range a.memory[len(existing):] {
		switch m.Role {
		case core.RoleUser:
			err = a.conv.AddUserMessage(ctx, m.Content)
		case core.RoleAssistant:
			err = a.conv.AddAssistantMessage(ctx, m.Content, a.name)
		case core.RoleTool:
			if m.ToolCall == nil {
				continue
			}
			err = a.conv.AddToolMessage(ctx, *m.ToolCall, a.name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// syncBestEffort persists accumulated memory on error paths without masking
// the original failure.
func (a *Agent) syncBestEffort(ctx context.Context) {
	if err := a.syncHistory(ctx); err != nil {
		a.logger.Warn("history sync failed", "agent", a.name, "error", err)
	}
}

func (a *Agent) effectiveTracer() tracing.Tracer {
	if a.tracer == nil {
		return tracing.Noop{}
	}
	return a.tracer
}
