package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrconsole/internal/platform/cache"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

const IdempotencyHeader = "Idempotency-Key"

type idempotencyRecord struct {
	RequestHash string          `json:"requestHash"`
	Response    json.RawMessage `json:"response"`
}

// IdempotencyStore remembers the response to a keyed request so a retried
// submit replays it instead of writing twice.
type IdempotencyStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewIdempotencyStore(c cache.Cache, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{cache: c, ttl: ttl}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func idempotencyKey(tenantID, userID, endpoint, key string) string {
	return fmt.Sprintf("idem:%s:%s:%s:%s", tenantID, userID, endpoint, key)
}

func (s *IdempotencyStore) Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.cache == nil || key == "" {
		return nil, false, nil
	}
	raw, ok, err := s.cache.Get(ctx, idempotencyKey(tenantID, userID, endpoint, key))
	if err != nil || !ok {
		return nil, false, err
	}
	var record idempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, err
	}
	if record.RequestHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return record.Response, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.cache == nil || key == "" {
		return nil
	}
	cacheKey := idempotencyKey(tenantID, userID, endpoint, key)
	raw, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		return err
	}
	if ok {
		var existing idempotencyRecord
		if err := json.Unmarshal(raw, &existing); err == nil && existing.RequestHash != requestHash {
			return ErrIdempotencyConflict
		}
	}
	encoded, err := json.Marshal(idempotencyRecord{RequestHash: requestHash, Response: response})
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cacheKey, encoded, s.ttl)
}
