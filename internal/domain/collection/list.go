// Package collection holds ordered, keyed lists of sub-records edited inside a form.
package collection

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("item not found")
	ErrMinimumItems = errors.New("the last remaining item cannot be removed")
)

// Entry is one item with its stable key. ServerID is empty for items that
// were added during this session.
type Entry[T any] struct {
	Key      string `json:"key"`
	ServerID string `json:"serverId,omitempty"`
	Item     T      `json:"item"`
}

func (e Entry[T]) IsNew() bool {
	return e.ServerID == ""
}

// List is not safe for concurrent use; the owning form serialises access.
type List[T any] struct {
	template func() T
	minItems int
	entries  []Entry[T]
	newKey   func() string
}

// New returns an empty list whose added items are seeded from template.
func New[T any](template func() T, minItems int) *List[T] {
	if minItems < 0 {
		minItems = 0
	}
	return &List[T]{
		template: template,
		minItems: minItems,
		newKey:   uuid.NewString,
	}
}

func (l *List[T]) blank() T {
	if l.template == nil {
		var zero T
		return zero
	}
	return l.template()
}

// Add appends a fresh item and returns its key.
func (l *List[T]) Add() string {
	key := l.newKey()
	l.entries = append(l.entries, Entry[T]{Key: key, Item: l.blank()})
	return key
}

// AddFrom appends a copy of the item under key. reset clears whatever must not
// carry over (files, previews); the copy never inherits the server id.
func (l *List[T]) AddFrom(key string, reset func(T) T) (string, error) {
	idx := l.Index(key)
	if idx < 0 {
		return "", ErrNotFound
	}
	item := l.entries[idx].Item
	if reset != nil {
		item = reset(item)
	}
	newKey := l.newKey()
	l.entries = append(l.entries, Entry[T]{Key: newKey, Item: item})
	return newKey, nil
}

// Restore appends a server-backed item loaded for editing. The server id is its key.
func (l *List[T]) Restore(serverID string, item T) string {
	if idx := l.Index(serverID); idx >= 0 {
		l.entries[idx].Item = item
		return serverID
	}
	l.entries = append(l.entries, Entry[T]{Key: serverID, ServerID: serverID, Item: item})
	return serverID
}

func (l *List[T]) Update(key string, fn func(*T)) error {
	idx := l.Index(key)
	if idx < 0 {
		return ErrNotFound
	}
	fn(&l.entries[idx].Item)
	return nil
}

// Remove drops the item and returns it so the caller can record its server id
// or release resources it holds.
func (l *List[T]) Remove(key string) (Entry[T], error) {
	idx := l.Index(key)
	if idx < 0 {
		return Entry[T]{}, ErrNotFound
	}
	if !l.CanRemove() {
		return Entry[T]{}, ErrMinimumItems
	}
	removed := l.entries[idx]
	l.entries = append(l.entries[:idx:idx], l.entries[idx+1:]...)
	return removed, nil
}

func (l *List[T]) Get(key string) (Entry[T], bool) {
	idx := l.Index(key)
	if idx < 0 {
		return Entry[T]{}, false
	}
	return l.entries[idx], true
}

func (l *List[T]) Index(key string) int {
	for i, entry := range l.entries {
		if entry.Key == key {
			return i
		}
	}
	return -1
}

func (l *List[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *List[T]) Len() int {
	return len(l.entries)
}

func (l *List[T]) MinItems() int {
	return l.minItems
}

// CanRemove drives the disabled state of the remove action.
func (l *List[T]) CanRemove() bool {
	return len(l.entries) > l.minItems
}
