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

package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/mam-search-gateway/internal/core/cache"
	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/core/pipeline"
	"github.com/jaycherian/mam-search-gateway/internal/core/results"
	"github.com/jaycherian/mam-search-gateway/internal/platform"
)

// AssetResolution maps the provider's video IDs to MAM assets. The IDs on the
// result page are deduplicated, partitioned against the cache, and only the
// misses go to the platform resolver in a single batch. Successful lookups are
// written back to the cache; not-found outcomes are kept for this request but
// never cached, so an asset registered later is picked up on the next search.
//
// Resolution is best-effort: a missing resolver or a failed batch degrades the
// search to provider results without MAM links rather than failing it.
type AssetResolution struct {
	pipeline.BaseCommand
	store    cache.Store
	registry *platform.Registry
}

// NewAssetResolution creates the resolution command backed by the given cache
// store and platform registry.
func NewAssetResolution(name string, store cache.Store, registry *platform.Registry) *AssetResolution {
	out := &AssetResolution{store: store, registry: registry}
	out.BaseCommand = *pipeline.NewBaseCommand(name)
	out.InputParamName = ParamProviderResult
	out.OutputParamName = ParamResolutions
	return out
}

// Execute resolves every distinct video ID on the page and publishes the
// complete map under ParamResolutions. Every deduplicated ID has an entry,
// resolved or not, so the enrichment step never needs to guess.
func (c *AssetResolution) Execute(pctx pipeline.Context) {
	result, ok := pctx.Get(c.GetInputParam()).(*model.ProviderSearchResult)
	if !ok {
		pctx.AddError(c.GetName(), fmt.Errorf("missing provider result in context"))
		return
	}
	job, ok := pctx.Get(ParamSearchJob).(*model.SearchJob)
	if !ok {
		pctx.AddError(c.GetName(), fmt.Errorf("missing search job in context"))
		return
	}
	ctx := pctx.GetContext()

	ids := make([]string, 0, len(result.Data))
	for _, segment := range result.Data {
		ids = append(ids, segment.VideoID)
	}
	ids = results.DeduplicateVideoIDs(ids)

	resolutions := make(map[string]*model.ResolvedAsset, len(ids))
	misses := make([]string, 0, len(ids))
	for _, id := range ids {
		if entry, hit := c.store.Get(ctx, id); hit {
			resolutions[id] = &model.ResolvedAsset{
				VideoID:       id,
				MAMAssetID:    entry.MAMAssetID,
				MAMAssetTitle: entry.MAMAssetTitle,
				DeepLink:      c.cachedDeepLink(job.Platform, entry.MAMAssetID),
			}
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		resolver := c.registry.Resolver(job.Platform)
		if resolver == nil {
			slog.WarnContext(ctx, "no resolver registered for platform, skipping asset resolution",
				slog.String("platform", job.Platform))
			for _, id := range misses {
				resolutions[id] = model.NotFoundAsset(id)
			}
		} else {
			resolved, err := resolver.ResolveBatch(ctx, misses, job.Credentials, job.VideoIDField)
			if err != nil {
				slog.WarnContext(ctx, "asset resolution batch failed, degrading to provider-only results",
					slog.String("platform", job.Platform),
					slog.String("error", err.Error()))
			}
			for _, id := range misses {
				asset := resolved[id]
				if asset == nil {
					asset = model.NotFoundAsset(id)
				}
				resolutions[id] = asset
				if asset.MAMAssetID != "" {
					c.store.Set(ctx, id, asset.MAMAssetID, asset.MAMAssetTitle)
				}
			}
		}
	}

	pctx.Add(c.GetOutputParam(), resolutions)
}

// cachedDeepLink rebuilds a deep link for a cache hit. The cache stores only
// the asset identity; the link template lives in platform config.
func (c *AssetResolution) cachedDeepLink(hostname, assetID string) string {
	if assetID == "" {
		return ""
	}
	cfg := c.registry.Config(hostname)
	if cfg == nil || cfg.AssetURLPattern == "" {
		return ""
	}
	return platform.BuildDeepLink(cfg.AssetURLPattern, assetID, 0)
}
