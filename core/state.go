package core

import "sync"

// StateMessage is one entry of the pool-level shared transcript. Agent is
// empty for user messages and carries the producing agent's name otherwise.
type StateMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Agent   string `json:"agent,omitempty"`
}

// AgentInfo is the read-only view of a registered agent that State exposes to
// routers for introspection (a model-backed router builds its roster from it).
type AgentInfo struct {
	Name        string
	Description string
	Persona     string
	Tools       []string
}

// State is the shared, mutable context of one pool. It tracks the ordered
// message transcript, a read-only view of the pool's agents and an arbitrary
// key/value scratch store for custom routers.
//
// Contract:
//   - History is append-only during a run; entries are appended in execution
//     order and History returns a defensive copy.
//   - Execution within one Pool.Run is sequential, so State is effectively
//     single-writer; the lock exists so independent pools and external
//     observers can read safely.
//
// State must never be a process-global: every Pool owns (or is handed) its
// own instance so multiple pools can run independently.
type State struct {
	mu      sync.RWMutex
	history []StateMessage
	agents  map[string]AgentInfo
	scratch map[string]any
}

// NewState constructs an empty State.
func NewState() *State {
	return &State{
		agents:  map[string]AgentInfo{},
		scratch: map[string]any{},
	}
}

// AddMessage appends a transcript entry. Pass an empty agent name for user
// messages.
func (s *State) AddMessage(role Role, content, agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, StateMessage{Role: role, Content: content, Agent: agent})
}

// History returns a copy of the full transcript in execution order.
func (s *State) History() []StateMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StateMessage, len(s.history))
	copy(out, s.history)
	return out
}

// LastAssistant returns the content of the most recent assistant entry,
// scanning backward. The second return value reports whether one exists.
func (s *State) LastAssistant() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == RoleAssistant {
			return s.history[i].Content, true
		}
	}
	return "", false
}

// SetAgents installs the read-only agent view. Called once by the pool at
// construction.
func (s *State) SetAgents(agents map[string]AgentInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = make(map[string]AgentInfo, len(agents))
	for k, v := range agents {
		s.agents[k] = v
	}
}

// Agents returns a copy of the registered agent view keyed by name.
func (s *State) Agents() map[string]AgentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]AgentInfo, len(s.agents))
	for k, v := range s.agents {
		out[k] = v
	}
	return out
}

// Set stores a scratch value under key.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scratch[key] = value
}

// Get returns the scratch value and an existence flag.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scratch[key]
	return v, ok
}

// Delete removes a scratch value.
func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scratch, key)
}
