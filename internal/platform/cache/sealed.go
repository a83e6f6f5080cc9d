package cache

import (
	"context"
	"time"
)

// Sealer encrypts values before they leave the process.
type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Sealed wraps a cache so every stored value is encrypted. Stored submit
// responses carry employee drafts, and redis is shared infrastructure.
type Sealed struct {
	inner  Cache
	sealer Sealer
}

func NewSealed(inner Cache, sealer Sealer) *Sealed {
	return &Sealed{inner: inner, sealer: sealer}
}

func (c *Sealed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	plain, err := c.sealer.Open(raw)
	if err != nil {
		return nil, false, err
	}
	return plain, true, nil
}

func (c *Sealed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	sealed, err := c.sealer.Seal(value)
	if err != nil {
		return err
	}
	return c.inner.Set(ctx, key, sealed, ttl)
}

func (c *Sealed) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}
