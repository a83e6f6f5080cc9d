package attachments

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry owns the in-memory buffers behind preview handles. Every handle is
// released exactly once, on detach or on cleanup.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]File
}

func NewRegistry() *Registry {
	return &Registry{handles: map[string]File{}}
}

func (r *Registry) Open(file File) string {
	handle := uuid.NewString()
	r.mu.Lock()
	r.handles[handle] = file
	r.mu.Unlock()
	return handle
}

func (r *Registry) Lookup(handle string) (File, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	file, ok := r.handles[handle]
	return file, ok
}

func (r *Registry) Release(handle string) error {
	r.mu.Lock()
	_, ok := r.handles[handle]
	delete(r.handles, handle)
	r.mu.Unlock()
	if !ok {
		slog.Warn("preview handle released twice", "handle", handle)
		return ErrHandleReleased
	}
	return nil
}

// ReleaseAll drops every outstanding handle and reports how many there were.
func (r *Registry) ReleaseAll() int {
	r.mu.Lock()
	n := len(r.handles)
	r.handles = map[string]File{}
	r.mu.Unlock()
	return n
}

func (r *Registry) Outstanding() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
