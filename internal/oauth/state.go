package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/Omakidx/link6ync/internal/cache"
)

const (
	stateKeyPrefix = "oauth_state:"
	stateTTL       = 10 * time.Minute
)

// StateStore keeps one-time state nonces in Redis. A nonce is valid for one
// callback only; when Redis is unreachable every state is rejected, so the
// flow fails closed.
type StateStore struct {
	cache *cache.Client
}

// NewStateStore creates a state store.
func NewStateStore(cacheClient *cache.Client) *StateStore {
	return &StateStore{cache: cacheClient}
}

// Create generates and persists a fresh nonce.
func (s *StateStore) Create(ctx context.Context) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	if err := s.cache.Set(ctx, stateKeyPrefix+state, []byte("1"), stateTTL); err != nil {
		return "", err
	}
	return state, nil
}

// Consume reports whether the state is known, deleting it either way.
func (s *StateStore) Consume(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	key := stateKeyPrefix + state
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	_ = s.cache.Delete(ctx, key)
	return true
}
