package reports

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
)

// Store is the report cache's backing storage. Implementations must treat a
// missing or expired key as (found=false, nil); the cache layer owns
// single-flight and invalidation semantics on top.
type Store interface {
	Get(key string, dest any) (bool, error)
	Set(key string, obj any, ttl time.Duration) error
	Register(family, key string) error
	Members(family string) ([]string, error)
	Remove(keys ...string) error
	RemoveFamily(family string) error
}

const familyKeyPrefix = "reportkeys:"

// redisStore delegates to the shared Redis helpers. All helpers no-op (not
// found / nil error) when Redis is not connected, so the cache degrades to
// computing every request instead of failing reports.
type redisStore struct{}

func NewRedisStore() Store { return redisStore{} }

func (redisStore) Get(key string, dest any) (bool, error) {
	return config.GetRedisObject(key, dest)
}

func (redisStore) Set(key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(key, obj, ttl)
}

func (redisStore) Register(family, key string) error {
	return config.AddRedisSet(familyKeyPrefix+family, key)
}

func (redisStore) Members(family string) ([]string, error) {
	return config.GetRedisSetMembers(familyKeyPrefix + family)
}

func (redisStore) Remove(keys ...string) error {
	return config.RemoveRedisKey(keys...)
}

func (redisStore) RemoveFamily(family string) error {
	return config.RemoveRedisKey(familyKeyPrefix + family)
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// memoryStore is the single-process store. Values round-trip through JSON
// exactly like the Redis store so cached and computed responses are
// byte-identical.
type memoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	families map[string]map[string]struct{}
	now      func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		entries:  map[string]memoryEntry{},
		families: map[string]map[string]struct{}{},
		now:      time.Now,
	}
}

func (s *memoryStore) Get(key string, dest any) (bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *memoryStore) Set(key string, obj any, ttl time.Duration) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{data: data, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Register(family, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.families[family]
	if !ok {
		members = map[string]struct{}{}
		s.families[family] = members
	}
	members[key] = struct{}{}
	return nil
}

func (s *memoryStore) Members(family string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.families[family]))
	for key := range s.families[family] {
		members = append(members, key)
	}
	return members, nil
}

func (s *memoryStore) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *memoryStore) RemoveFamily(family string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.families, family)
	return nil
}
