package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hupe1980/agentpool/core"
	"github.com/hupe1980/agentpool/model"
)

// Strategy selects how ManageContext brings an over-budget thread back under
// its message limit.
type Strategy string

const (
	// StrategySmart picks between trimming and summarizing based on how far
	// over budget the thread is and whether tool results would be discarded.
	StrategySmart Strategy = "smart"
	// StrategyTrimLast keeps the most recent messages and drops the oldest.
	StrategyTrimLast Strategy = "trim_last"
	// StrategyTrimFirst keeps the earliest messages and drops the newest.
	StrategyTrimFirst Strategy = "trim_first"
	// StrategySummarize condenses the oldest messages into a single summary
	// entry, preserving the most recent messages verbatim.
	StrategySummarize Strategy = "summarize"
)

// SummaryAgent tags summary messages produced by context management.
const SummaryAgent = "summarizer"

const summaryPrefix = "[Summary of earlier conversation] "

// ManageOptions tune the context-window strategies.
type ManageOptions struct {
	// KeepRecent is the number of most recent messages the summarize
	// strategy preserves verbatim. Default maxMessages-1, so the managed
	// thread lands exactly at the limit (summary + recent).
	KeepRecent int
	// SmallOverflow is the largest overflow the smart strategy resolves by
	// trimming rather than summarizing. Default 3.
	SmallOverflow int
	// SummaryTokenBudget caps the token count of the transcript handed to
	// the summarization model. Default 2000.
	SummaryTokenBudget int
	// Encoding is the tiktoken encoding used for the token budget. Default
	// "cl100k_base". When the encoding cannot be loaded (e.g. offline), a
	// bytes/4 heuristic is used instead.
	Encoding string
}

// ManageContext enforces a message budget on the current thread. When the
// thread holds more than maxMessages entries the given strategy is applied
// and the store's log is replaced with the reduced one. model is only needed
// for summarization; pass nil when the strategy cannot summarize.
//
// Threads at or under the limit are left untouched.
func (c *Conversation) ManageContext(ctx context.Context, m model.Model, maxMessages int, strategy Strategy, optFns ...func(o *ManageOptions)) error {
	if c.threadID == "" || maxMessages <= 0 {
		return nil
	}

	opts := ManageOptions{
		KeepRecent:         maxMessages - 1,
		SmallOverflow:      3,
		SummaryTokenBudget: 2000,
		Encoding:           "cl100k_base",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.KeepRecent < 0 {
		opts.KeepRecent = 0
	}

	msgs, err := c.store.GetMessages(ctx, c.threadID)
	if err != nil {
		return err
	}
	if len(msgs) <= maxMessages {
		return nil
	}

	var reduced []Message

	switch strategy {
	case StrategyTrimLast:
		reduced = trimLast(msgs, maxMessages)
	case StrategyTrimFirst:
		reduced = trimFirst(msgs, maxMessages)
	case StrategySummarize:
		reduced, err = c.summarize(ctx, m, msgs, opts)
	case StrategySmart, "":
		reduced, err = c.smart(ctx, m, msgs, maxMessages, opts)
	default:
		return fmt.Errorf("history: unknown context strategy %q", strategy)
	}
	if err != nil {
		return err
	}

	return c.store.ReplaceMessages(ctx, c.threadID, reduced)
}

// trimLast keeps the max most recent messages.
func trimLast(msgs []Message, max int) []Message {
	out := make([]Message, max)
	copy(out, msgs[len(msgs)-max:])
	return out
}

// trimFirst keeps the max earliest messages.
func trimFirst(msgs []Message, max int) []Message {
	out := make([]Message, max)
	copy(out, msgs[:max])
	return out
}

// smart resolves a small overflow with a trim; a large overflow, or one that
// would discard tool results, is summarized so the information survives.
func (c *Conversation) smart(ctx context.Context, m model.Model, msgs []Message, max int, opts ManageOptions) ([]Message, error) {
	overflow := len(msgs) - max
	if !hasToolMessages(msgs[:overflow]) && overflow <= opts.SmallOverflow {
		return trimLast(msgs, max), nil
	}
	return c.summarize(ctx, m, msgs, opts)
}

// summarize condenses everything but the KeepRecent newest messages into a
// single assistant entry at the head of the log.
func (c *Conversation) summarize(ctx context.Context, m model.Model, msgs []Message, opts ManageOptions) ([]Message, error) {
	if m == nil {
		return nil, fmt.Errorf("history: summarize strategy requires a model")
	}

	keep := opts.KeepRecent
	if keep > len(msgs) {
		keep = len(msgs)
	}
	older := msgs[:len(msgs)-keep]
	recent := msgs[len(msgs)-keep:]
	if len(older) == 0 {
		return msgs, nil
	}

	transcript := truncateToTokens(renderTranscript(older), opts.SummaryTokenBudget, opts.Encoding)
	prompt := "Summarize the following conversation excerpt concisely. " +
		"Preserve key facts, decisions, tool results and open questions so the " +
		"conversation can continue without the original messages.\n\n" + transcript

	summary, err := m.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("history: summarize: %w", err)
	}

	head := older[0]
	head.Role = core.RoleAssistant
	head.Content = summaryPrefix + strings.TrimSpace(summary)
	head.Agent = SummaryAgent
	head.ToolCall = nil

	out := make([]Message, 0, 1+len(recent))
	out = append(out, head)
	out = append(out, recent...)
	return out, nil
}

func hasToolMessages(msgs []Message) bool {
	for _, msg := range msgs {
		if msg.Role == core.RoleTool {
			return true
		}
	}
	return false
}

func renderTranscript(msgs []Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleTool:
			if msg.ToolCall != nil {
				fmt.Fprintf(&sb, "Tool '%s': %s\n", msg.ToolCall.Name, msg.ToolCall.Output)
			}
		case core.RoleAssistant:
			name := msg.Agent
			if name == "" {
				name = "Assistant"
			}
			fmt.Fprintf(&sb, "%s: %s\n", name, msg.Content)
		default:
			fmt.Fprintf(&sb, "User: %s\n", msg.Content)
		}
	}
	return sb.String()
}

// truncateToTokens cuts text at a token budget. Token counts come from
// tiktoken; when the encoding is unavailable a bytes/4 heuristic keeps the
// truncation working offline.
func truncateToTokens(text string, budget int, encoding string) string {
	if budget <= 0 {
		return text
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		if len(text) > budget*4 {
			return text[:budget*4]
		}
		return text
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return enc.Decode(tokens[:budget])
}
