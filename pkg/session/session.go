package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultTerminalCapacity bounds the terminal ring buffer when no capacity is given.
const DefaultTerminalCapacity = 2000

// Tab describes an editor tab the user has open.
type Tab struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Dirty    bool   `json:"dirty,omitempty"`
}

// Session owns the state shared between generation runs: the captured
// terminal output, the open tabs and the last payload/context slot.
type Session struct {
	mu       sync.Mutex
	terminal *RingBuffer
	tabs     []Tab
	last     LastRun
}

// LastRun is what the previous generation sent and assembled.
type LastRun struct {
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Context json.RawMessage `json:"context,omitempty"`
	System  string          `json:"system,omitempty"`
	User    string          `json:"user,omitempty"`
}

// New creates a session whose terminal buffer keeps at most capacity lines.
func New(capacity int) *Session {
	if capacity <= 0 {
		capacity = DefaultTerminalCapacity
	}
	return &Session{terminal: NewRingBuffer(capacity)}
}

// AppendTerminal records captured terminal output, split into lines.
func (s *Session) AppendTerminal(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminal.AppendText(text)
}

// TerminalTail returns the last n captured terminal lines.
func (s *Session) TerminalTail(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal.Tail(n)
}

// SetTabs replaces the open tab list.
func (s *Session) SetTabs(tabs []Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs = append([]Tab(nil), tabs...)
}

// Tabs returns a copy of the open tab list.
func (s *Session) Tabs() []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Tab(nil), s.tabs...)
}

// RecordContext overwrites the context half of the last-run slot.
func (s *Session) RecordContext(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last.Context = data
	s.last.At = time.Now()
}

// RecordPayload overwrites the payload half of the last-run slot.
func (s *Session) RecordPayload(v any, system, user string) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last.Payload = data
	s.last.System = system
	s.last.User = user
	s.last.At = time.Now()
}

// Last returns the last-run slot.
func (s *Session) Last() LastRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// SaveLast persists the last-run slot so a later process can show it.
func (s *Session) SaveLast(path string) error {
	last := s.Last()
	data, err := json.MarshalIndent(last, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadLast reads a last-run file written by SaveLast.
func LoadLast(path string) (LastRun, error) {
	var last LastRun
	data, err := os.ReadFile(path)
	if err != nil {
		return last, err
	}
	err = json.Unmarshal(data, &last)
	return last, err
}

// DefaultLastPath is where the CLI keeps the last-run file.
func DefaultLastPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "commitscope", "last.json")
}
