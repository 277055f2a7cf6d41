package pool

import (
	"context"

	"github.com/hupe1980/agentpool/core"
)

// RoundRobinRouter cycles through a fixed agent-name sequence by call count.
// It is the pool's default router when none is supplied.
type RoundRobinRouter struct {
	names  []string
	passes int
}

// RoundRobin creates a router that visits each name once, in order, then
// stops. Use WithPasses to cycle more than one full pass.
func RoundRobin(names ...string) *RoundRobinRouter {
	return &RoundRobinRouter{names: names, passes: 1}
}

// WithPasses sets how many full passes the router makes before stopping.
// Zero or negative means unbounded; the pool's iteration budget is then the
// only cap.
func (r *RoundRobinRouter) WithPasses(n int) *RoundRobinRouter {
	r.passes = n
	return r
}

// Next implements core.Router.
func (r *RoundRobinRouter) Next(_ context.Context, _ *core.State, callCount int, _ *core.LastResult) (string, bool, error) {
	if len(r.names) == 0 {
		return "", false, nil
	}
	if r.passes > 0 && callCount >= len(r.names)*r.passes {
		return "", false, nil
	}
	return r.names[callCount%len(r.names)], true, nil
}
