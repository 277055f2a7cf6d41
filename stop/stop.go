// Package stop provides termination predicates for the agent execution loop.
//
// A Condition is consulted after every model response and after every tool
// execution. Conditions are pure functions over the step counter and the
// accumulated memory: calling ShouldStop repeatedly with the same arguments
// must return the same result and must not mutate the memory.
package stop

import (
	"strings"

	"github.com/hupe1980/agentpool/core"
)

// Condition decides whether an agent's internal loop should terminate.
type Condition interface {
	ShouldStop(step int, memory []core.Message) bool
}

// Func adapts a plain predicate to the Condition interface.
type Func func(step int, memory []core.Message) bool

// ShouldStop implements Condition.
func (f Func) ShouldStop(step int, memory []core.Message) bool { return f(step, memory) }

// StepLimit stops the loop once the step counter exceeds a fixed budget.
// The budget counts completed steps: an agent limited to n steps still
// returns the response produced in step n itself.
type StepLimit struct {
	max int
}

// LimitSteps returns a Condition that stops after max steps. It is the
// default condition for agents constructed without an explicit one.
func LimitSteps(max int) *StepLimit {
	return &StepLimit{max: max}
}

// ShouldStop implements Condition.
func (c *StepLimit) ShouldStop(step int, _ []core.Message) bool {
	return step > c.max
}

// Max returns the configured step limit.
func (c *StepLimit) Max() int { return c.max }

// OnText returns a Condition that stops once the most recent assistant
// message contains the given substring. Matching is case-sensitive.
func OnText(substr string) Condition {
	return Func(func(_ int, memory []core.Message) bool {
		for i := len(memory) - 1; i >= 0; i-- {
			if memory[i].Role == core.RoleAssistant {
				return strings.Contains(memory[i].Content, substr)
			}
		}
		return false
	})
}

// Any combines conditions so the loop stops when at least one fires.
func Any(conds ...Condition) Condition {
	return Func(func(step int, memory []core.Message) bool {
		for _, c := range conds {
			if c.ShouldStop(step, memory) {
				return true
			}
		}
		return false
	})
}

// All combines conditions so the loop stops only when every one fires.
func All(conds ...Condition) Condition {
	return Func(func(step int, memory []core.Message) bool {
		for _, c := range conds {
			if !c.ShouldStop(step, memory) {
				return false
			}
		}
		return len(conds) > 0
	})
}
