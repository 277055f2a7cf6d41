// Package model defines the minimal LLM contract consumed by the agent loop
// plus a deterministic MockModel for tests and examples. Provider adapters
// live in the openai and anthropic subpackages.
package model

import (
	"context"
	"fmt"
	"sync"
)

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the interface required by agents to drive generation. Provider
// errors are returned as-is; the agent loop treats them as fatal and does
// not retry.
type Model interface {
	// Generate produces a completion for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are served from a scripted FIFO queue first, then from a canned
// prompt->response map, then from a generic fallback. All prompts received
// are recorded for assertions. Safe for concurrent use.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	queue     []queued
	responses map[string]string
	prompts   []string
}

type queued struct {
	text string
	err  error
}

// NewMockModel constructs an empty MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: map[string]string{},
	}
}

// AddResponse registers a deterministic canned completion for an exact prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Queue appends scripted responses returned in order regardless of prompt.
func (m *MockModel) Queue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range responses {
		m.queue = append(m.queue, queued{text: r})
	}
}

// QueueError appends a scripted failure returned in order.
func (m *MockModel) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{err: err})
}

// Prompts returns a copy of every prompt received so far, in order.
func (m *MockModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Calls returns the number of Generate invocations so far.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next.text, next.err
	}
	if r, ok := m.responses[prompt]; ok {
		return r, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
