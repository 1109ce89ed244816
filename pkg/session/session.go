// Package session provides conversation history, changed-file tracking,
// and todo-list persistence for one agent-loop run (spec.md §3 "Session",
// §6 filesystem layout), adapted from the teacher's MemorySession/
// FileSession split.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Message is a minimal, provider-agnostic conversation entry. pkg/agentloop
// converts to/from its own wire-protocol Message type at the session
// boundary, keeping this package free of any LLM-client dependency.
type Message struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

// Meta is the persisted `meta.json` shape (spec.md §3 Session, §6).
type Meta struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Title            string    `json:"title"`
	RequestCount     int       `json:"request_count"`
	TotalTokens      int       `json:"total_tokens"`
	ToolCallCount    int       `json:"tool_call_count"`
	LinesEdited      int       `json:"lines_edited"`
	ToolSuccessCount int       `json:"tool_success_count"`
	ToolFailureCount int       `json:"tool_failure_count"`
}

// Session is one conversation's mutable state: history, changed files, and
// tool outcome counters. All mutations are linearised by mu (spec.md §5
// "session writes are linearised by holding a mutex").
type Session struct {
	mu           sync.Mutex
	dir          string
	meta         Meta
	history      []Message
	changedFiles map[string]struct{}
}

// New creates a fresh session rooted at dir (spec.md §6 `.doge/sessions/<id>/`).
func New(id, dir string) *Session {
	now := time.Now().UTC()
	return &Session{
		dir:          dir,
		meta:         Meta{ID: id, CreatedAt: now, UpdatedAt: now},
		changedFiles: map[string]struct{}{},
	}
}

// Open loads a session from dir if meta.json/history.json exist there,
// otherwise returns a fresh session for id.
func Open(id, dir string) (*Session, error) {
	s := New(id, dir)
	metaPath := filepath.Join(dir, "meta.json")
	if data, err := os.ReadFile(metaPath); err == nil {
		if jsonErr := json.Unmarshal(data, &s.meta); jsonErr != nil {
			return nil, jsonErr
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	historyPath := filepath.Join(dir, "history.json")
	if data, err := os.ReadFile(historyPath); err == nil {
		if jsonErr := json.Unmarshal(data, &s.history); jsonErr != nil {
			return nil, jsonErr
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.meta.ID
}

// History returns a copy of the conversation log.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// AddMessage appends one message to the conversation log.
func (s *Session) AddMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}

// SetHistory replaces the conversation log wholesale (used by the History
// Compactor, spec.md §4.I, which replaces the prior conversation with a
// single synthesized user message).
func (s *Session) SetHistory(messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = messages
}

// RecordChangedFile registers a mutated path (relative to project root)
// into the session's changed-files set (spec.md §4.F invariant).
func (s *Session) RecordChangedFile(relPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changedFiles[relPath] = struct{}{}
}

// ChangedFiles returns the current changed-files set as a sorted-free slice.
func (s *Session) ChangedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.changedFiles))
	for p := range s.changedFiles {
		out = append(out, p)
	}
	return out
}

// ClearChangedFiles empties the changed-files set and returns what was
// cleared, for the Update Hook (spec.md §4.G) to consume atomically.
func (s *Session) ClearChangedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.changedFiles))
	for p := range s.changedFiles {
		out = append(out, p)
	}
	s.changedFiles = map[string]struct{}{}
	return out
}

// RecordToolOutcome increments the session's success/failure counters.
func (s *Session) RecordToolOutcome(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		s.meta.ToolSuccessCount++
	} else {
		s.meta.ToolFailureCount++
	}
}

// Meta returns a copy of the session's metadata.
func (s *Session) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// SetTitle updates the session's display title. Per spec.md §3, callers
// should pass the first 30 characters of the first user message, or a
// default, if none has been set yet.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta.Title == "" {
		s.meta.Title = title
	}
}

// RecordRequest increments the request counter and adds to total tokens.
func (s *Session) RecordRequest(tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.RequestCount++
	s.meta.TotalTokens += tokens
}

// RecordToolCall increments the tool-call counter.
func (s *Session) RecordToolCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.ToolCallCount++
}

// RecordLinesEdited adds n to the cumulative lines-edited counter.
func (s *Session) RecordLinesEdited(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.LinesEdited += n
}

// Save persists meta.json and history.json to the session directory.
func (s *Session) Save() error {
	s.mu.Lock()
	meta := s.meta
	meta.UpdatedAt = time.Now().UTC()
	history := make([]Message, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, "meta.json"), metaBytes, 0644); err != nil {
		return err
	}

	historyBytes, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, "history.json"), historyBytes, 0644)
}
