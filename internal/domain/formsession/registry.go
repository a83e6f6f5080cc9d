// Package formsession keeps the employee forms that are open in the console.
package formsession

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/employeeform"
)

var (
	ErrNotFound  = errors.New("form session not found")
	ErrForbidden = errors.New("form session belongs to another user")
)

// Form is what the registry needs from an open form.
type Form interface {
	Close()
	State() employeeform.State
}

type entry[F Form] struct {
	form     F
	owner    string
	tenantID string
	lastSeen time.Time
}

type Registry[F Form] struct {
	mu          sync.Mutex
	sessions    map[string]*entry[F]
	idleTimeout time.Duration
	now         func() time.Time
	onClose     func()
}

// NewRegistry returns a registry that evicts forms idle for longer than idleTimeout.
// onClose runs once for every form that leaves the registry.
func NewRegistry[F Form](idleTimeout time.Duration, onClose func()) *Registry[F] {
	if onClose == nil {
		onClose = func() {}
	}
	return &Registry[F]{
		sessions:    map[string]*entry[F]{},
		idleTimeout: idleTimeout,
		now:         time.Now,
		onClose:     onClose,
	}
}

func (r *Registry[F]) Add(owner auth.Session, form F) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry[F]{form: form, owner: owner.UserID, tenantID: owner.TenantID, lastSeen: r.now()}
	r.mu.Unlock()
	return id
}

func (r *Registry[F]) lookupLocked(id string, actor auth.Session) (*entry[F], error) {
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.owner != actor.UserID || e.tenantID != actor.TenantID {
		return nil, ErrForbidden
	}
	return e, nil
}

// Get returns the form and marks it as recently used.
func (r *Registry[F]) Get(id string, actor auth.Session) (F, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookupLocked(id, actor)
	if err != nil {
		var zero F
		return zero, err
	}
	e.lastSeen = r.now()
	return e.form, nil
}

// Remove closes the form, releasing everything it holds.
func (r *Registry[F]) Remove(id string, actor auth.Session) error {
	r.mu.Lock()
	e, err := r.lookupLocked(id, actor)
	if err == nil {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if err != nil {
		return err
	}
	e.form.Close()
	r.onClose()
	return nil
}

// Sweep evicts idle forms. A form with a submission in flight is never evicted.
func (r *Registry[F]) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var evicted []F
	for id, e := range r.sessions {
		if e.lastSeen.After(cutoff) || e.form.State() != employeeform.StateIdle {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, e.form)
	}
	r.mu.Unlock()

	for _, form := range evicted {
		form.Close()
		r.onClose()
	}
	if len(evicted) > 0 {
		slog.Info("idle forms evicted", "count", len(evicted))
	}
	return len(evicted)
}

// CloseAll closes every open form, used on shutdown.
func (r *Registry[F]) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*entry[F]{}
	r.mu.Unlock()
	for _, e := range sessions {
		e.form.Close()
		r.onClose()
	}
}

func (r *Registry[F]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
