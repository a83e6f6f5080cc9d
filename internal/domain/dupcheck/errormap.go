package dupcheck

import (
	"sort"
	"sync"
)

// ErrorMap is the field -> message bag shared between form sections and the
// form itself. Any non-empty message blocks submission.
type ErrorMap struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewErrorMap() *ErrorMap {
	return &ErrorMap{entries: map[string]string{}}
}

func (m *ErrorMap) Set(field, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if message == "" {
		delete(m.entries, field)
		return
	}
	m.entries[field] = message
}

func (m *ErrorMap) Clear(field string) {
	m.Set(field, "")
}

func (m *ErrorMap) Get(field string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[field]
}

func (m *ErrorMap) HasErrors() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries) > 0
}

// Fields lists the fields currently holding a message, sorted.
func (m *ErrorMap) Fields() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.entries))
	for field := range m.entries {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

func (m *ErrorMap) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

func (m *ErrorMap) Reset() {
	m.mu.Lock()
	m.entries = map[string]string{}
	m.mu.Unlock()
}
