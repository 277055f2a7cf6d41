package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentpool/core"
)

// Conversation is the high-level history manager used by agents. It binds a
// Store to a current thread and offers role-specific append helpers plus the
// context-window management entry point.
//
// A Conversation tracks exactly one current thread. Multiple agents may
// share one Conversation to accumulate onto the same thread; they then must
// not run concurrently.
type Conversation struct {
	store    Store
	threadID string
}

// NewConversation binds a manager to a store. No thread exists until
// EnsureThread or SetThread is called; agents ensure one lazily on first run.
func NewConversation(store Store) *Conversation {
	return &Conversation{store: store}
}

// Store returns the underlying store.
func (c *Conversation) Store() Store { return c.store }

// CurrentThreadID returns the active thread id, or empty when none exists.
func (c *Conversation) CurrentThreadID() string { return c.threadID }

// SetThread switches the manager to an existing thread id, e.g. to resume a
// persisted conversation.
func (c *Conversation) SetThread(id string) { c.threadID = id }

// CreateThread creates a new thread and makes it current.
func (c *Conversation) CreateThread(ctx context.Context, metadata map[string]string) (string, error) {
	now := time.Now().UTC()
	t := Thread{ID: uuid.NewString(), Metadata: metadata, CreatedAt: now, UpdatedAt: now}
	if err := c.store.CreateThread(ctx, t); err != nil {
		return "", err
	}
	c.threadID = t.ID
	return t.ID, nil
}

// EnsureThread creates a thread if none is current yet.
func (c *Conversation) EnsureThread(ctx context.Context, metadata map[string]string) error {
	if c.threadID != "" {
		return nil
	}
	_, err := c.CreateThread(ctx, metadata)
	return err
}

// AddUserMessage appends a user entry to the current thread.
func (c *Conversation) AddUserMessage(ctx context.Context, content string) error {
	return c.append(ctx, Message{Role: core.RoleUser, Content: content})
}

// AddAssistantMessage appends an assistant entry tagged with the producing
// agent's name.
func (c *Conversation) AddAssistantMessage(ctx context.Context, content, agent string) error {
	return c.append(ctx, Message{Role: core.RoleAssistant, Content: content, Agent: agent})
}

// AddToolMessage appends a structured tool execution entry tagged with the
// producing agent's name.
func (c *Conversation) AddToolMessage(ctx context.Context, rec core.ToolCallRecord, agent string) error {
	return c.append(ctx, Message{Role: core.RoleTool, ToolCall: &rec, Agent: agent})
}

// Messages returns the current thread's messages in append order. An empty
// slice is returned when no thread exists yet.
func (c *Conversation) Messages(ctx context.Context) ([]Message, error) {
	if c.threadID == "" {
		return nil, nil
	}
	return c.store.GetMessages(ctx, c.threadID)
}

func (c *Conversation) append(ctx context.Context, msg Message) error {
	if err := c.EnsureThread(ctx, nil); err != nil {
		return err
	}
	msg.ID = uuid.NewString()
	msg.ThreadID = c.threadID
	msg.CreatedAt = time.Now().UTC()
	return c.store.AppendMessage(ctx, msg)
}
