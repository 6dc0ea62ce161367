package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter"
)

// MemorySaver keeps checkpoints in a bounded in-process cache. An evicted
// thread starts over with empty state.
type MemorySaver struct {
	cache otter.Cache[string, Checkpoint]
}

var _ Saver = (*MemorySaver)(nil)

// NewMemorySaver creates a cache holding up to capacity threads. A positive
// ttl expires idle threads.
func NewMemorySaver(capacity int, ttl time.Duration) (*MemorySaver, error) {
	if capacity <= 0 {
		capacity = 1000
	}
	var (
		cache otter.Cache[string, Checkpoint]
		err   error
	)
	if ttl > 0 {
		cache, err = otter.MustBuilder[string, Checkpoint](capacity).WithTTL(ttl).Build()
	} else {
		cache, err = otter.MustBuilder[string, Checkpoint](capacity).Build()
	}
	if err != nil {
		return nil, fmt.Errorf("build checkpoint cache: %w", err)
	}
	return &MemorySaver{cache: cache}, nil
}

// Get returns a copy of the thread's checkpoint.
func (s *MemorySaver) Get(ctx context.Context, threadID string) (*Checkpoint, error) {
	cp, ok := s.cache.Get(threadID)
	if !ok {
		return nil, ErrNotFound
	}
	cp.Data = append([]byte(nil), cp.Data...)
	return &cp, nil
}

// Put stores a copy of cp.
func (s *MemorySaver) Put(ctx context.Context, cp Checkpoint) error {
	cp.Data = append([]byte(nil), cp.Data...)
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now()
	}
	s.cache.Set(cp.ThreadID, cp)
	return nil
}

// Delete removes the thread's checkpoint.
func (s *MemorySaver) Delete(ctx context.Context, threadID string) error {
	s.cache.Delete(threadID)
	return nil
}

// Close stops the cache's background work.
func (s *MemorySaver) Close() error {
	s.cache.Close()
	return nil
}
