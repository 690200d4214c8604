package state

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-state-migrate/tree"
)

// MemoryStore is an in-memory Store for tests and examples. Documents are
// cloned on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	state  map[string]any
	meta   Meta
	exists bool
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// NewMemoryStoreWith returns a store already holding state.
func NewMemoryStoreWith(state map[string]any) (*MemoryStore, error) {
	store := NewMemoryStore()
	if _, err := store.Save(context.Background(), state, Meta{}); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MemoryStore) Load(_ context.Context) (map[string]any, Meta, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, Meta{}, false, nil
	}
	return tree.CloneMap(s.state), cloneMeta(s.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, state map[string]any, meta Meta) (Meta, error) {
	etag, err := ETag(state)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exists {
		if err := checkETag(meta.ETag, s.meta.ETag); err != nil {
			return Meta{}, err
		}
	}

	saved := cloneMeta(meta)
	saved.ETag = etag
	saved.UpdatedAt = s.now().UTC()
	s.state = tree.CloneMap(state)
	s.meta = saved
	s.exists = true
	return cloneMeta(saved), nil
}
