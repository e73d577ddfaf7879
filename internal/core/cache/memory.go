// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-memory store. Unlike the TTL, the bound is
// a capacity guard, not a correctness rule: when the cache is full, the entry
// with the oldest resolution timestamp is evicted to make room.
const DefaultMaxEntries = 10000

type memoryEntry struct {
	mamAssetID    string
	mamAssetTitle string
	resolvedAt    time.Time
}

// MemoryStore is the default Store: a mutex-guarded map with lazy TTL
// expiry. The mutex is required because separate search invocations run on
// separate goroutines and the cache is their only shared state.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time // Injectable clock for TTL tests.
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory Store.
//
// Inputs:
//   - ttl: Entry lifetime; <= 0 selects the 30 minute default.
//   - maxEntries: Capacity bound; <= 0 selects DefaultMaxEntries.
//
// Outputs:
//   - *MemoryStore: A ready-to-use, goroutine-safe store.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetClock replaces the store's notion of "now". Tests use it to cross the
// TTL boundary without sleeping.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Set stores or overwrites the resolution for videoID with the current
// timestamp, evicting the oldest entry first if the store is at capacity.
func (s *MemoryStore) Set(_ context.Context, videoID, mamAssetID, mamAssetTitle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[videoID]; !exists && len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.entries[videoID] = memoryEntry{
		mamAssetID:    mamAssetID,
		mamAssetTitle: mamAssetTitle,
		resolvedAt:    s.now(),
	}
}

// Get returns the cached pair for videoID, or reports a miss. An expired
// entry is deleted on the way out so a subsequent Has sees it gone.
func (s *MemoryStore) Get(_ context.Context, videoID string) (CachedAsset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[videoID]
	if !ok {
		return CachedAsset{}, false
	}
	if s.now().Sub(entry.resolvedAt) > s.ttl {
		delete(s.entries, videoID)
		return CachedAsset{}, false
	}
	return CachedAsset{MAMAssetID: entry.mamAssetID, MAMAssetTitle: entry.mamAssetTitle}, true
}

// Has reports whether a live (unexpired) entry exists for videoID.
func (s *MemoryStore) Has(ctx context.Context, videoID string) bool {
	_, ok := s.Get(ctx, videoID)
	return ok
}

// Clear drops all entries.
func (s *MemoryStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
}

// Size returns the advisory entry count, including entries that have expired
// but have not been read since.
func (s *MemoryStore) Size(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictOldestLocked removes the entry with the oldest resolution timestamp.
// Callers must hold the mutex.
func (s *MemoryStore) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	first := true
	for id, entry := range s.entries {
		if first || entry.resolvedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = entry.resolvedAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestID)
	}
}
