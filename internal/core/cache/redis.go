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
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for deployments that run more than
// one gateway replica and want them to share resolutions. Expiry is native
// (SET with TTL) rather than lazy, which satisfies the same observable
// contract: a read after the TTL is a miss.
//
// Backend failures never propagate: a failed read behaves as a miss and a
// failed write is logged and dropped, so a Redis outage degrades the cache
// to a no-op instead of breaking search.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

type redisEntry struct {
	MAMAssetID    string `json:"mam_asset_id"`
	MAMAssetTitle string `json:"mam_asset_title"`
}

// NewRedisStore creates a Redis-backed Store. A ttl <= 0 selects the 30
// minute default. The key prefix namespaces this gateway's entries within a
// shared Redis database.
func NewRedisStore(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL * time.Minute
	}
	if keyPrefix == "" {
		keyPrefix = "mamgw:asset:"
	}
	return &RedisStore{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(videoID string) string {
	return s.keyPrefix + videoID
}

// Set stores the resolution with the store's TTL.
func (s *RedisStore) Set(ctx context.Context, videoID, mamAssetID, mamAssetTitle string) {
	payload, err := json.Marshal(redisEntry{MAMAssetID: mamAssetID, MAMAssetTitle: mamAssetTitle})
	if err != nil {
		slog.Warn("asset cache: failed to encode entry", "video_id", videoID, "error", err)
		return
	}
	if err := s.client.Set(ctx, s.key(videoID), payload, s.ttl).Err(); err != nil {
		slog.Warn("asset cache: redis write failed", "video_id", videoID, "error", err)
	}
}

// Get returns the cached pair, treating any backend error as a miss.
func (s *RedisStore) Get(ctx context.Context, videoID string) (CachedAsset, bool) {
	raw, err := s.client.Get(ctx, s.key(videoID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("asset cache: redis read failed", "video_id", videoID, "error", err)
		}
		return CachedAsset{}, false
	}
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Warn("asset cache: corrupt entry, evicting", "video_id", videoID, "error", err)
		s.client.Del(ctx, s.key(videoID))
		return CachedAsset{}, false
	}
	return CachedAsset{MAMAssetID: entry.MAMAssetID, MAMAssetTitle: entry.MAMAssetTitle}, true
}

// Has reports whether a live entry exists for videoID.
func (s *RedisStore) Has(ctx context.Context, videoID string) bool {
	_, ok := s.Get(ctx, videoID)
	return ok
}

// Clear removes every entry under this store's key prefix.
func (s *RedisStore) Clear(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		s.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Warn("asset cache: redis clear failed", "error", err)
	}
}

// Size counts the entries under this store's key prefix. Advisory only: the
// scan is not atomic with respect to concurrent writes.
func (s *RedisStore) Size(ctx context.Context) int {
	count := 0
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		slog.Warn("asset cache: redis size scan failed", "error", err)
	}
	return count
}
