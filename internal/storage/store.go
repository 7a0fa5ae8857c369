package storage

import (
	"sync"

	"github.com/juju/loggo/v2"

	"keyedstore/internal/config"
	"keyedstore/internal/fingerprint"
)

var logger = loggo.GetLogger("keyedstore.storage")

// KeyKind tells identity keys and structural keys apart.
type KeyKind uint8

const (
	// IdentityKey keys a single item by its class ID or ID.
	IdentityKey KeyKind = iota + 1
	// StructuralKey keys a bucket of items by their fingerprint.
	StructuralKey
)

func (k KeyKind) String() string {
	switch k {
	case IdentityKey:
		return "identity"
	case StructuralKey:
		return "structural"
	default:
		return "unknown"
	}
}

// Key is a derived mapping key. The kind is part of the key, so an identity
// "1" and a fingerprint "1" never share an entry.
type Key struct {
	Kind  KeyKind
	Value string
}

func (k Key) String() string {
	return k.Kind.String() + ":" + k.Value
}

// Entry is one slot of the mapping: Item for identity keys, Bucket for
// structural keys.
type Entry struct {
	Item   any
	Bucket []any
}

// Store defines the keyed object store.
type Store interface {
	// Put stores item and returns it. Only identity collisions fail.
	Put(item any) (any, error)
	// Get returns the stored item for item's key, or the head of its bucket.
	Get(item any) (any, bool)
	// Remove deletes an identity entry or pops the tail of a bucket.
	Remove(item any) (any, bool)
	// Len returns the number of stored items.
	Len() int
	// Reset empties the store.
	Reset()
}

// KeyedStore is an in-memory implementation of Store.
// It's thread-safe; a single mutex guards the mapping and the count.
type KeyedStore struct {
	mu     sync.RWMutex
	data   map[Key]*Entry
	length int
	fp     *fingerprint.Fingerprinter
}

var _ Store = (*KeyedStore)(nil)

// NewKeyedStore creates an empty store.
func NewKeyedStore(cfg config.Config) *KeyedStore {
	return &KeyedStore{
		data: make(map[Key]*Entry),
		fp:   fingerprint.New(cfg.FingerprintOptions()),
	}
}

// Open parses a config string, applies its logging spec and creates a store.
func Open(spec string) (*KeyedStore, error) {
	cfg, err := config.Parse(spec)
	if err != nil {
		return nil, err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return nil, err
	}
	return NewKeyedStore(cfg), nil
}

// Reset empties the mapping. Calling it repeatedly is harmless.
func (s *KeyedStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[Key]*Entry)
	s.length = 0
}

// KeyOf returns the key item would be stored under.
func (s *KeyedStore) KeyOf(item any) Key {
	if key, ok := IdentityKeyOf(item); ok {
		return Key{Kind: IdentityKey, Value: key}
	}
	if t, ok := item.(Tagged); ok {
		item = t.Value
	}
	return Key{Kind: StructuralKey, Value: s.fp.Of(item)}
}

// Put stores item and returns it unmodified.
func (s *KeyedStore) Put(item any) (any, error) {
	key := s.KeyOf(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.data[key]
	if key.Kind == IdentityKey {
		if exists {
			logger.Debugf("put rejected, %s already stored", key)
			return nil, &KeyCollisionError{Key: key.Value}
		}
		s.data[key] = &Entry{Item: item}
	} else {
		if !exists {
			entry = &Entry{Bucket: make([]any, 0, 1)}
			s.data[key] = entry
		}
		entry.Bucket = append(entry.Bucket, item)
	}
	s.length++

	logger.Tracef("put %s (len %d)", key, s.length)
	return item, nil
}

// Get returns the item stored under item's key. For structural keys it is
// always the first item of the bucket, whichever duplicate was asked for.
func (s *KeyedStore) Get(item any) (any, bool) {
	key := s.KeyOf(item)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(key)
}

// Remove deletes the item stored under item's key and returns it.
// Structural buckets give up their LAST item, not the head Get returns;
// the bucket stays in place even when emptied.
func (s *KeyedStore) Remove(item any) (any, bool) {
	key := s.KeyOf(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.lookup(key)
	if !found {
		return nil, false
	}

	if key.Kind == IdentityKey {
		delete(s.data, key)
	} else {
		entry := s.data[key]
		last := len(entry.Bucket) - 1
		existing = entry.Bucket[last]
		entry.Bucket[last] = nil
		entry.Bucket = entry.Bucket[:last]
	}
	s.length--

	logger.Tracef("removed %s (len %d)", key, s.length)
	return existing, true
}

// Len returns the number of stored items: one per identity entry plus every
// item in every bucket.
func (s *KeyedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.length
}

// Entries returns a snapshot of the mapping. Buckets are copied; the items
// themselves are shared with the store.
func (s *KeyedStore) Entries() map[Key]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Key]Entry, len(s.data))
	for k, e := range s.data {
		cp := Entry{Item: e.Item}
		if e.Bucket != nil {
			cp.Bucket = append([]any{}, e.Bucket...)
		}
		out[k] = cp
	}
	return out
}

// lookup must be called with s.mu held.
func (s *KeyedStore) lookup(key Key) (any, bool) {
	entry, exists := s.data[key]
	if !exists {
		return nil, false
	}
	if key.Kind == IdentityKey {
		return entry.Item, true
	}
	if len(entry.Bucket) == 0 {
		return nil, false
	}
	return entry.Bucket[0], true
}
