// Package history provides persistent conversation storage for agents: a
// thread/message data model, a Store interface with in-memory, file, SQLite,
// Postgres and Redis backends, a Conversation manager tracking the current
// thread, and context-window management strategies that keep a thread within
// a message budget.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentpool/core"
)

// ErrThreadNotFound is returned when an operation references an unknown
// thread id.
var ErrThreadNotFound = errors.New("history: thread not found")

// Thread is a persisted conversation container.
type Thread struct {
	ID        string            `json:"id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Message is a persisted conversation entry. Entries with RoleTool carry the
// structured ToolCall payload; Agent tags assistant and tool messages with
// the producing agent's name.
type Message struct {
	ID        string               `json:"id"`
	ThreadID  string               `json:"thread_id"`
	Role      core.Role            `json:"role"`
	Content   string               `json:"content,omitempty"`
	Agent     string               `json:"agent,omitempty"`
	ToolCall  *core.ToolCallRecord `json:"tool_call,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Store persists threads and their ordered message logs. Implementations
// must preserve append order: GetMessages returns messages in the exact
// order they were appended (or replaced). Backends serialize their own
// writes; callers must not run the same thread concurrently.
type Store interface {
	// CreateThread persists a new thread.
	CreateThread(ctx context.Context, t Thread) error
	// GetThread returns a thread by id or ErrThreadNotFound.
	GetThread(ctx context.Context, id string) (Thread, error)
	// ListThreads returns all threads.
	ListThreads(ctx context.Context) ([]Thread, error)
	// DeleteThread removes a thread and its messages.
	DeleteThread(ctx context.Context, id string) error

	// AppendMessage adds a message to the end of its thread's log.
	AppendMessage(ctx context.Context, msg Message) error
	// GetMessages returns the thread's messages in append order.
	GetMessages(ctx context.Context, threadID string) ([]Message, error)
	// ReplaceMessages atomically swaps the thread's entire message log.
	// Used by context-window management.
	ReplaceMessages(ctx context.Context, threadID string, msgs []Message) error

	// Close releases any underlying resources.
	Close() error
}
