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

// Package cache_test contains unit tests for the in-memory identifier cache,
// focused on the TTL boundary and the capacity bound. Time is driven by an
// injected clock so no test sleeps.
package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/mam-search-gateway/internal/core/cache"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(30*time.Minute, 10)

	store.Set(ctx, "video-001", "asset-abc", "Sunrise Harbor")

	entry, ok := store.Get(ctx, "video-001")
	assert.True(t, ok)
	assert.Equal(t, "asset-abc", entry.MAMAssetID)
	assert.Equal(t, "Sunrise Harbor", entry.MAMAssetTitle)
	assert.True(t, store.Has(ctx, "video-001"))
	assert.Equal(t, 1, store.Size(ctx))
}

func TestMemoryStoreMissIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(30*time.Minute, 10)

	entry, ok := store.Get(ctx, "never-seen")
	assert.False(t, ok)
	assert.Empty(t, entry.MAMAssetID)
	assert.False(t, store.Has(ctx, "never-seen"))
}

// An entry is live right up to the TTL and gone after it. Expiry is lazy: the
// expired entry is removed by the read that discovers it.
func TestMemoryStoreTTLBoundary(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(30*time.Minute, 10)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })

	store.Set(ctx, "video-001", "asset-abc", "Sunrise Harbor")

	now = base.Add(30 * time.Minute)
	_, ok := store.Get(ctx, "video-001")
	assert.True(t, ok, "entry must still be live exactly at the TTL")

	now = base.Add(30*time.Minute + time.Second)
	_, ok = store.Get(ctx, "video-001")
	assert.False(t, ok, "entry must be gone past the TTL")
	assert.Equal(t, 0, store.Size(ctx), "expired entry is deleted by the read")
}

func TestMemoryStoreOverwriteRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(30*time.Minute, 10)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })

	store.Set(ctx, "video-001", "asset-abc", "Sunrise Harbor")

	now = base.Add(20 * time.Minute)
	store.Set(ctx, "video-001", "asset-abc", "Sunrise Harbor (renamed)")

	now = base.Add(45 * time.Minute)
	entry, ok := store.Get(ctx, "video-001")
	assert.True(t, ok, "overwrite at t+20m keeps the entry live at t+45m")
	assert.Equal(t, "Sunrise Harbor (renamed)", entry.MAMAssetTitle)
}

func TestMemoryStoreEvictsOldestAtCapacity(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(30*time.Minute, 3)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		store.Set(ctx, fmt.Sprintf("video-%03d", i), fmt.Sprintf("asset-%03d", i), "")
		now = now.Add(time.Minute)
	}
	assert.Equal(t, 3, store.Size(ctx))

	// A fourth insert displaces the oldest entry, not the newest.
	store.Set(ctx, "video-003", "asset-003", "")
	assert.Equal(t, 3, store.Size(ctx))
	assert.False(t, store.Has(ctx, "video-000"))
	assert.True(t, store.Has(ctx, "video-001"))
	assert.True(t, store.Has(ctx, "video-003"))
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(30*time.Minute, 10)

	store.Set(ctx, "video-001", "asset-abc", "")
	store.Set(ctx, "video-002", "asset-def", "")
	store.Clear(ctx)

	assert.Equal(t, 0, store.Size(ctx))
	assert.False(t, store.Has(ctx, "video-001"))
}
