// Package cache provides a content-addressed synthesis cache that wraps a
// [voice.Voice].
//
// Entries are keyed by a SHA-256 digest over the wrapped voice's identifier
// and the input text, so identical text synthesised by two different voices
// never shares an entry and a single [Store] can safely back every voice in
// the process. Concurrent misses for the same key are coalesced into one
// call to the underlying voice via singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yomubot/yomu/pkg/voice"
)

// Store is a bounded, process-wide audio store shared by any number of
// [CachedVoice] wrappers. Eviction is approximate-LRU; an evicted entry
// simply becomes a future miss.
//
// Store is safe for concurrent use.
type Store struct {
	entries *lru.Cache[string, []byte]
	flight  singleflight.Group

	// OnLookup, when non-nil, is invoked once per Generate call with
	// whether the lookup was a hit. Used to wire metrics without the store
	// depending on an observability package. Must be safe for concurrent
	// use and must not block.
	OnLookup func(hit bool)
}

// NewStore creates a Store holding at most capacity entries.
func NewStore(capacity int) (*Store, error) {
	entries, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: create store: %w", err)
	}
	return &Store{entries: entries}, nil
}

// Len returns the current number of cached entries.
func (s *Store) Len() int {
	return s.entries.Len()
}

func (s *Store) lookup(key string) ([]byte, bool) {
	data, ok := s.entries.Get(key)
	if s.OnLookup != nil {
		s.OnLookup(ok)
	}
	return data, ok
}

// CachedVoice decorates a [voice.Voice] with the shared [Store].
type CachedVoice struct {
	id    string
	inner voice.Voice
	store *Store
}

var _ voice.Voice = (*CachedVoice)(nil)

// Wrap decorates inner with store. The wrapper's identifier is derived from
// the inner identifier so that logs show which voices are cached.
func Wrap(inner voice.Voice, store *Store) *CachedVoice {
	return &CachedVoice{
		id:    "cached-" + inner.Identifier(),
		inner: inner,
		store: store,
	}
}

// Identifier implements [voice.Voice].
func (c *CachedVoice) Identifier() string {
	return c.id
}

// Generate implements [voice.Voice]. On a hit it returns the stored bytes
// without calling the underlying voice; on a miss it synthesises, stores the
// result, and returns the underlying voice's error unchanged on failure.
//
// Concurrent misses for the same key perform exactly one underlying call;
// every waiter receives the same result. The underlying call runs under the
// context of the caller that initiated it.
func (c *CachedVoice) Generate(ctx context.Context, text string) ([]byte, error) {
	key := Key(c.inner.Identifier(), text)

	if data, ok := c.store.lookup(key); ok {
		return data, nil
	}

	v, err, _ := c.store.flight.Do(key, func() (any, error) {
		// A concurrent flight may have populated the entry between the
		// lookup above and acquiring the flight.
		if data, ok := c.store.entries.Get(key); ok {
			return data, nil
		}
		data, genErr := c.inner.Generate(ctx, text)
		if genErr != nil {
			return nil, genErr
		}
		c.store.entries.Add(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Key derives the cache key for (identity, text). The identity is
// length-prefixed before hashing so that no (identity, text) pair can
// produce the same digest as a different pair whose concatenation happens
// to match.
func Key(identity, text string) string {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(identity)))
	h.Write(n[:])
	h.Write([]byte(identity))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
