package formsession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/employeeform"
)

type fakeForm struct {
	closed int
	state  employeeform.State
}

func (f *fakeForm) Close() { f.closed++ }

func (f *fakeForm) State() employeeform.State {
	if f.state == "" {
		return employeeform.StateIdle
	}
	return f.state
}

var (
	alice = auth.Session{UserID: "alice", TenantID: "t1"}
	bob   = auth.Session{UserID: "bob", TenantID: "t1"}
)

func TestOwnerOnly(t *testing.T) {
	r := NewRegistry[*fakeForm](time.Minute, nil)
	form := &fakeForm{}
	id := r.Add(alice, form)

	got, err := r.Get(id, alice)
	require.NoError(t, err)
	assert.Same(t, form, got)

	_, err = r.Get(id, bob)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, r.Remove(id, bob), ErrForbidden)
	_, err = r.Get("missing", alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveClosesOnce(t *testing.T) {
	closes := 0
	r := NewRegistry[*fakeForm](time.Minute, func() { closes++ })
	form := &fakeForm{}
	id := r.Add(alice, form)

	require.NoError(t, r.Remove(id, alice))
	assert.ErrorIs(t, r.Remove(id, alice), ErrNotFound)
	assert.Equal(t, 1, form.closed)
	assert.Equal(t, 1, closes)
}

func TestSweepEvictsIdleForms(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry[*fakeForm](30*time.Minute, nil)
	r.now = func() time.Time { return now }

	idle := &fakeForm{}
	busy := &fakeForm{state: employeeform.StateSubmitting}
	r.Add(alice, idle)
	r.Add(alice, busy)
	now = now.Add(20 * time.Minute)
	fresh := &fakeForm{}
	freshID := r.Add(bob, fresh)

	now = now.Add(15 * time.Minute)
	_, err := r.Get(freshID, bob)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, idle.closed)
	assert.Zero(t, busy.closed)
	assert.Zero(t, fresh.closed)
	assert.Equal(t, 2, r.Len())
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry[*fakeForm](time.Minute, nil)
	a, b := &fakeForm{}, &fakeForm{}
	r.Add(alice, a)
	r.Add(bob, b)
	r.CloseAll()
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
	assert.Zero(t, r.Len())
}
