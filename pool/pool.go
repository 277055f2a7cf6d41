// Package pool orchestrates multiple agents under a router: it maintains the
// shared state, asks the router which agent runs next, chains each agent's
// output into the next agent's input and bounds the whole workflow by an
// iteration budget.
package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentpool/agent"
	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/model"
	"github.com/hupe1980/agentpool/tracing"
)

// ErrUnknownAgent is returned when the router selects a name that is not
// registered in the pool. This is a configuration error, fatal for the run.
var ErrUnknownAgent = errors.New("pool: unknown agent")

// Options configure a Pool instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// DefaultModel is assigned at construction to agents that have none.
	// A one-time backfill, not re-checked per run.
	DefaultModel model.Model
	// Router decides which agent runs next. Default: one round-robin pass
	// over the agents in registration order.
	Router core.Router
	// MaxIter bounds the number of agent executions per Run. Default 5.
	MaxIter int
	// State shares an existing state object across pools; default fresh.
	State *core.State
	// Tracer is propagated at construction to agents whose tracer is
	// unset. Agents carrying tracing.Noop keep their explicit opt-out.
	Tracer tracing.Tracer
}

// Pool runs a named set of agents under a router with shared state.
//
// A Pool instance's Run must not be invoked concurrently: the shared state
// transcript accumulates across calls, and agents execute strictly one at a
// time.
type Pool struct {
	agents  map[string]*agent.Agent
	order   []string
	router  core.Router
	maxIter int
	state   *core.State
}

// New creates a pool over the given agents. Agent names must be unique.
func New(agents []*agent.Agent, optFns ...func(o *Options)) *Pool {
	opts := Options{MaxIter: 5}
	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]*agent.Agent, len(agents))
	order := make([]string, 0, len(agents))
	for _, a := range agents {
		if a.Model() == nil && opts.DefaultModel != nil {
			a.SetModel(opts.DefaultModel)
		}
		if a.Tracer() == nil && opts.Tracer != nil {
			a.SetTracer(opts.Tracer)
		}
		byName[a.Name()] = a
		order = append(order, a.Name())
	}

	router := opts.Router
	if router == nil {
		router = RoundRobin(order...)
	}

	state := opts.State
	if state == nil {
		state = core.NewState()
	}

	infos := make(map[string]core.AgentInfo, len(agents))
	for name, a := range byName {
		infos[name] = core.AgentInfo{
			Name:        name,
			Description: a.Description(),
			Persona:     a.Persona(),
			Tools:       a.ToolNames(),
		}
	}
	state.SetAgents(infos)

	return &Pool{
		agents:  byName,
		order:   order,
		router:  router,
		maxIter: opts.MaxIter,
		state:   state,
	}
}

// State returns the shared state, e.g. for inspection after a run or for
// custom routers seeded with scratch values.
func (p *Pool) State() *core.State { return p.state }

// AgentNames returns the registered agent names in registration order.
func (p *Pool) AgentNames() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Run executes the multi-agent workflow for one input and returns the final
// assistant output.
//
// Each round the router picks an agent (or stops), the agent runs with the
// previous round's output as its input, and the output is appended to the
// shared transcript tagged with the agent's name. Agent errors propagate
// uncaught; the transcript up to the failure point remains intact.
func (p *Pool) Run(ctx context.Context, input string) (string, error) {
	p.state.AddMessage(core.RoleUser, input, "")

	var last *core.LastResult
	current := input

	for callCount := 0; callCount < p.maxIter; callCount++ {
		name, ok, err := p.router.Next(ctx, p.state, callCount, last)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}

		a, exists := p.agents[name]
		if !exists {
			return "", fmt.Errorf("%w: router selected %q", ErrUnknownAgent, name)
		}

		output, err := a.Run(ctx, current)
		if err != nil {
			return "", err
		}

		p.state.AddMessage(core.RoleAssistant, output, name)
		last = &core.LastResult{Agent: name, Output: output, ToolsUsed: a.ToolsUsed()}
		current = output
	}

	final, _ := p.state.LastAssistant()
	return final, nil
}
