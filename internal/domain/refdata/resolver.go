package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"hrconsole/internal/platform/cache"
)

// Source is the remote side of the lookup lists.
type Source interface {
	ListReferences(ctx context.Context, kind Kind, parentID string) ([]Item, error)
	CreateReference(ctx context.Context, kind Kind, input CreateInput) (string, error)
}

// Resolver loads, caches and refreshes reference lists for one tenant scope.
type Resolver struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
	scope  string
	sf     *singleflight.Group
}

func NewResolver(source Source, c cache.Cache, ttl time.Duration) *Resolver {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Resolver{
		source: source,
		cache:  c,
		ttl:    ttl,
		sf:     &singleflight.Group{},
	}
}

// WithSource returns a resolver bound to source and scope that shares the
// cache and the in-flight load group of r.
func (r *Resolver) WithSource(source Source, scope string) *Resolver {
	clone := *r
	clone.source = source
	clone.scope = scope
	return &clone
}

func (r *Resolver) cacheKey(kind Kind, parentID string) string {
	return fmt.Sprintf("refs:%s:%s:%s", r.scope, kind, parentID)
}

// Load returns the list for kind. Failures degrade to an empty list flagged Failed.
func (r *Resolver) Load(ctx context.Context, kind Kind, parentID string) List {
	list := List{Kind: kind, ParentID: parentID, Items: []Item{}}
	if _, dependent := kind.Parent(); dependent && strings.TrimSpace(parentID) == "" {
		return list
	}

	key := r.cacheKey(kind, parentID)
	if raw, ok, err := r.cache.Get(ctx, key); err != nil {
		slog.Warn("reference cache read failed", "key", key, "err", err)
	} else if ok {
		var items []Item
		if err := json.Unmarshal(raw, &items); err == nil {
			list.Items = items
			return list
		}
	}

	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		items, err := r.source.ListReferences(ctx, kind, parentID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Item{}
		}
		if encoded, err := json.Marshal(items); err == nil {
			if err := r.cache.Set(ctx, key, encoded, r.ttl); err != nil {
				slog.Warn("reference cache write failed", "key", key, "err", err)
			}
		}
		return items, nil
	})
	if err != nil {
		slog.Warn("reference list load failed", "kind", kind, "parentId", parentID, "err", err)
		list.Failed = true
		return list
	}
	list.Items = v.([]Item)
	return list
}

// Refresh drops the cached copy and loads the authoritative list.
func (r *Resolver) Refresh(ctx context.Context, kind Kind, parentID string) List {
	key := r.cacheKey(kind, parentID)
	r.sf.Forget(key)
	if err := r.cache.Delete(ctx, key); err != nil {
		slog.Warn("reference cache invalidate failed", "key", key, "err", err)
	}
	return r.Load(ctx, kind, parentID)
}

// CreateInline creates a value remotely, then reloads the list from the server
// instead of splicing locally. The id is reported selectable only when the
// reloaded list contains it.
func (r *Resolver) CreateInline(ctx context.Context, kind Kind, input CreateInput) (Created, error) {
	if !kind.Creatable() {
		return Created{}, ErrNotCreatable
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Created{}, ErrEmptyName
	}
	if _, dependent := kind.Parent(); dependent && strings.TrimSpace(input.ParentID) == "" {
		return Created{}, ErrParentRequired
	}

	id, err := r.source.CreateReference(ctx, kind, input)
	if err != nil {
		return Created{}, fmt.Errorf("create %s: %w", kind, err)
	}
	list := r.Refresh(ctx, kind, input.ParentID)
	created := Created{ID: id, List: list}
	if !list.Contains(id) {
		return created, ErrCreatedNotListed
	}
	slog.Info("reference created inline", "kind", kind, "id", id)
	return created, nil
}
