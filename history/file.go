package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore persists each thread as one JSON document under a storage
// directory. Writes rewrite the whole document; suitable for local tooling
// and small conversation volumes.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// threadDoc is the on-disk layout of a thread file.
type threadDoc struct {
	Thread   Thread    `json:"thread"`
	Messages []Message `json:"messages"`
}

// NewFileStore creates the storage directory if needed and returns a store
// rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create storage dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(threadID string) string {
	return filepath.Join(s.dir, threadID+".json")
}

func (s *FileStore) load(threadID string) (threadDoc, error) {
	data, err := os.ReadFile(s.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return threadDoc{}, ErrThreadNotFound
		}
		return threadDoc{}, fmt.Errorf("history: read thread %s: %w", threadID, err)
	}
	var doc threadDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return threadDoc{}, fmt.Errorf("history: decode thread %s: %w", threadID, err)
	}
	return doc, nil
}

func (s *FileStore) save(doc threadDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode thread %s: %w", doc.Thread.ID, err)
	}
	tmp := s.path(doc.Thread.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("history: write thread %s: %w", doc.Thread.ID, err)
	}
	return os.Rename(tmp, s.path(doc.Thread.ID))
}

// CreateThread implements Store.
func (s *FileStore) CreateThread(_ context.Context, t Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(threadDoc{Thread: t})
}

// GetThread implements Store.
func (s *FileStore) GetThread(_ context.Context, id string) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(id)
	if err != nil {
		return Thread{}, err
	}
	return doc.Thread, nil
}

// ListThreads implements Store.
func (s *FileStore) ListThreads(_ context.Context) ([]Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("history: list threads: %w", err)
	}
	var out []Thread
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		doc, err := s.load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, doc.Thread)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteThread implements Store.
func (s *FileStore) DeleteThread(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrThreadNotFound
		}
		return fmt.Errorf("history: delete thread %s: %w", id, err)
	}
	return nil
}

// AppendMessage implements Store.
func (s *FileStore) AppendMessage(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(msg.ThreadID)
	if err != nil {
		return err
	}
	doc.Messages = append(doc.Messages, msg)
	doc.Thread.UpdatedAt = msg.CreatedAt
	return s.save(doc)
}

// GetMessages implements Store.
func (s *FileStore) GetMessages(_ context.Context, threadID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(threadID)
	if err != nil {
		return nil, err
	}
	return doc.Messages, nil
}

// ReplaceMessages implements Store.
func (s *FileStore) ReplaceMessages(_ context.Context, threadID string, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(threadID)
	if err != nil {
		return err
	}
	doc.Messages = msgs
	return s.save(doc)
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
