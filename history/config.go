package history

import (
	"github.com/hupe1980/agentpool/model"
)

// Config wires persistent history into an agent. Store is the only required
// field; the remaining fields opt into automatic context-window management
// after each run.
type Config struct {
	// Store holds the thread and its message log.
	Store Store

	// AutoManage enables context-window management after every run.
	AutoManage bool
	// MaxMessages is the message budget enforced when AutoManage is set.
	// Default 50.
	MaxMessages int
	// Strategy selects the reduction strategy. Default StrategySmart.
	Strategy Strategy
	// KeepRecent overrides ManageOptions.KeepRecent when positive.
	KeepRecent int
	// SmallOverflow overrides ManageOptions.SmallOverflow when positive.
	SmallOverflow int
	// SummarizeModel generates summaries. When nil, the agent's own model
	// is used.
	SummarizeModel model.Model
}

// WithDefaults returns a copy with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.MaxMessages <= 0 {
		c.MaxMessages = 50
	}
	if c.Strategy == "" {
		c.Strategy = StrategySmart
	}
	return c
}
