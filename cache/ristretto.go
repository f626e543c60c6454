package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Local is an in-process Cache backed by ristretto. Entries are bounded by
// total byte cost, so a busy catalog can't grow the process without limit.
type Local struct {
	store *ristretto.Cache[string, []byte]
}

// NewLocal creates a local cache holding at most maxBytes of values.
func NewLocal(maxBytes int64) (*Local, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 100_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &Local{store: store}, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := l.store.Get(key)
	return value, ok, nil
}

// Set waits for the write buffer to drain so a Get right after Set sees the value.
// ristretto may still refuse an entry under memory pressure; for a lookaside
// cache that is just a future miss.
func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	l.store.SetWithTTL(key, value, int64(len(value)), ttl)
	l.store.Wait()
	return nil
}

func (l *Local) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		l.store.Del(key)
	}
	return nil
}

func (l *Local) Clear(_ context.Context) error {
	l.store.Clear()
	return nil
}

func (l *Local) Close() {
	l.store.Close()
}
