package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a volatile Store implementation keeping threads in a
// process-local map. It is safe for concurrent access and best suited for
// tests, examples and single-session buffers. Returned slices are copies to
// prevent external mutation of internal state.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]Thread
	msgs    map[string][]Message
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads: map[string]Thread{},
		msgs:    map[string][]Message{},
	}
}

// CreateThread implements Store.
func (s *MemoryStore) CreateThread(_ context.Context, t Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[t.ID] = t
	if _, ok := s.msgs[t.ID]; !ok {
		s.msgs[t.ID] = nil
	}
	return nil
}

// GetThread implements Store.
func (s *MemoryStore) GetThread(_ context.Context, id string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrThreadNotFound
	}
	return t, nil
}

// ListThreads implements Store. Threads are returned ordered by creation
// time for deterministic iteration.
func (s *MemoryStore) ListThreads(_ context.Context) ([]Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Thread, 0, len(s.threads))
	for _, t := range s.threads {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteThread implements Store.
func (s *MemoryStore) DeleteThread(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return ErrThreadNotFound
	}
	delete(s.threads, id)
	delete(s.msgs, id)
	return nil
}

// AppendMessage implements Store.
func (s *MemoryStore) AppendMessage(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[msg.ThreadID]; !ok {
		return ErrThreadNotFound
	}
	s.msgs[msg.ThreadID] = append(s.msgs[msg.ThreadID], msg)
	return nil
}

// GetMessages implements Store.
func (s *MemoryStore) GetMessages(_ context.Context, threadID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.threads[threadID]; !ok {
		return nil, ErrThreadNotFound
	}
	msgs := s.msgs[threadID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// ReplaceMessages implements Store.
func (s *MemoryStore) ReplaceMessages(_ context.Context, threadID string, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return ErrThreadNotFound
	}
	replaced := make([]Message, len(msgs))
	copy(replaced, msgs)
	s.msgs[threadID] = replaced
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
