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

// Package cache provides the time-bounded memoization of provider video ID
// to MAM asset resolutions. Entries are written only for successful,
// positive resolutions; "not found" and failed lookups are deliberately
// never cached, so every search re-attempts them. MAM ingestion lags behind
// the search provider, so a video that is not found now may be found a few
// minutes later.
//
// The cache is an injected dependency of the search orchestrator rather than
// package-level shared state, which keeps tests isolated and lets a
// deployment pick a different backing store.
package cache

import "context"

// DefaultTTL is how long a positive resolution stays valid. Reads that find
// an older entry treat it as a miss and evict it.
const DefaultTTL = 30 // minutes

// CachedAsset is the pair a cache hit yields.
type CachedAsset struct {
	MAMAssetID    string
	MAMAssetTitle string
}

// Store is the identifier cache contract. All operations are total: a Store
// never surfaces backend failures to the pipeline; a failed backend read
// simply behaves as a miss, and a failed write is dropped.
type Store interface {
	// Set stores or overwrites the positive resolution for a video ID,
	// stamped with the current time.
	Set(ctx context.Context, videoID, mamAssetID, mamAssetTitle string)

	// Get returns the cached resolution for a video ID. An entry past its
	// TTL is evicted and reported as a miss.
	Get(ctx context.Context, videoID string) (CachedAsset, bool)

	// Has reports whether Get would return a live entry.
	Has(ctx context.Context, videoID string) bool

	// Clear drops every entry.
	Clear(ctx context.Context)

	// Size returns the current entry count. The count is advisory: expiry is
	// lazy, so entries that are past their TTL but have not been read since
	// are still included.
	Size(ctx context.Context) int
}
