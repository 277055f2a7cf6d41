package core

import "context"

// LastResult summarizes the most recent agent execution for the router:
// which agent ran, its final output and the names of the tools it invoked
// during that run. It is nil on the router's first call.
type LastResult struct {
	Agent     string
	Output    string
	ToolsUsed []string
}

// Router decides which agent runs next inside a pool.
//
// Next returns the selected agent name with ok=true, or ok=false to stop the
// pool (the null sentinel). Routers may read and write the state's scratch
// store but must not mutate the transcript. A router that never stops simply
// exhausts the pool's iteration budget; the pool enforces no other cap.
type Router interface {
	Next(ctx context.Context, state *State, callCount int, last *LastResult) (name string, ok bool, err error)
}

// RouterFunc adapts a plain decision function to the Router interface.
type RouterFunc func(state *State, callCount int, last *LastResult) (string, bool)

// Next implements Router.
func (f RouterFunc) Next(_ context.Context, state *State, callCount int, last *LastResult) (string, bool, error) {
	name, ok := f(state, callCount, last)
	return name, ok, nil
}
