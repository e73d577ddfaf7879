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

	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/core/pipeline"
	"github.com/jaycherian/mam-search-gateway/internal/core/results"
	"github.com/jaycherian/mam-search-gateway/internal/platform"
)

// ResultEnrichment merges provider segments with MAM asset resolutions into
// the final ranked result list. Every provider segment survives the merge,
// including multiple segments of the same video; unresolved segments keep
// empty MAM fields instead of being dropped.
type ResultEnrichment struct {
	pipeline.BaseCommand
	registry *platform.Registry
}

// NewResultEnrichment creates the enrichment command.
func NewResultEnrichment(name string, registry *platform.Registry) *ResultEnrichment {
	out := &ResultEnrichment{registry: registry}
	out.BaseCommand = *pipeline.NewBaseCommand(name)
	out.InputParamName = ParamResolutions
	out.OutputParamName = ParamEnrichedResults
	return out
}

// Execute builds one enriched result per provider segment, ordered by rank.
func (c *ResultEnrichment) Execute(pctx pipeline.Context) {
	resolutions, ok := pctx.Get(c.GetInputParam()).(map[string]*model.ResolvedAsset)
	if !ok {
		pctx.AddError(c.GetName(), fmt.Errorf("missing resolutions in context"))
		return
	}
	result, ok := pctx.Get(ParamProviderResult).(*model.ProviderSearchResult)
	if !ok {
		pctx.AddError(c.GetName(), fmt.Errorf("missing provider result in context"))
		return
	}
	job, ok := pctx.Get(ParamSearchJob).(*model.SearchJob)
	if !ok {
		pctx.AddError(c.GetName(), fmt.Errorf("missing search job in context"))
		return
	}

	platformCfg := c.registry.Config(job.Platform)

	enriched := make([]*model.EnrichedResult, 0, len(result.Data))
	for _, segment := range result.Data {
		asset := resolutions[segment.VideoID]
		if asset == nil {
			asset = model.NotFoundAsset(segment.VideoID)
		}

		out := &model.EnrichedResult{
			Rank:         segment.Rank,
			Start:        segment.Start,
			End:          segment.End,
			Score:        segment.Score,
			VideoID:      segment.VideoID,
			ThumbnailURL: segment.ThumbnailURL,
			Filename:     segmentFilename(segment, asset),
			MAMAssetID:   asset.MAMAssetID,
		}
		// Deep links are rebuilt per segment so each clip lands on its own
		// start offset, not the offset of whichever lookup ran first.
		if asset.MAMAssetID != "" && platformCfg != nil && platformCfg.AssetURLPattern != "" {
			out.DeepLink = platform.BuildDeepLink(platformCfg.AssetURLPattern, asset.MAMAssetID, segment.Start)
		}
		enriched = append(enriched, out)
	}
	results.SortByRank(enriched)

	pctx.Add(c.GetOutputParam(), enriched)
}

// segmentFilename picks the display name for a segment: the MAM title wins,
// then the provider's user metadata filename, then the raw video ID.
func segmentFilename(segment *model.SearchSegment, asset *model.ResolvedAsset) string {
	if asset.MAMAssetTitle != "" {
		return asset.MAMAssetTitle
	}
	if name := segment.UserMetadata["filename"]; name != "" {
		return name
	}
	return segment.VideoID
}
