package tracing

import (
	"sync"
	"time"
)

// timedStarts tracks start timestamps by key so paired end hooks can report
// durations. Entries are removed on lookup to keep the map bounded.
type timedStarts struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newTimedStarts() timedStarts {
	return timedStarts{m: map[string]time.Time{}}
}

func (s *timedStarts) put(key string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = at
}

func (s *timedStarts) since(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.m[key]
	if !ok {
		return 0
	}
	delete(s.m, key)
	return time.Since(start)
}
