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

// Package services_test runs the search service end to end through the real
// workflow and cache, with the provider client and the platform resolver
// replaced by fakes.
package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/mam-search-gateway/internal/config"
	"github.com/jaycherian/mam-search-gateway/internal/core/cache"
	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/core/services"
	"github.com/jaycherian/mam-search-gateway/internal/core/workflow"
	"github.com/jaycherian/mam-search-gateway/internal/platform"
)

const testHostname = "app.iconik.io"

// fakeSearchClient stands in for the provider and records how it was called.
type fakeSearchClient struct {
	result     *model.ProviderSearchResult
	err        error
	textCalls  int
	imageCalls int
	lastAPIKey string
	lastQuery  string
	lastImage  string
	lastOpts   model.SearchOptions
}

func (f *fakeSearchClient) SearchByText(_ context.Context, apiKey, _, query string, opts model.SearchOptions) (*model.ProviderSearchResult, error) {
	f.textCalls++
	f.lastAPIKey = apiKey
	f.lastQuery = query
	f.lastOpts = opts
	return f.result, f.err
}

func (f *fakeSearchClient) SearchByImage(_ context.Context, apiKey, _, imageRef string, opts model.SearchOptions) (*model.ProviderSearchResult, error) {
	f.imageCalls++
	f.lastAPIKey = apiKey
	f.lastImage = imageRef
	f.lastOpts = opts
	return f.result, f.err
}

// fakeResolver answers from a canned map and records every batch it is asked
// to resolve.
type fakeResolver struct {
	assets  map[string]*model.ResolvedAsset
	batches [][]string
}

func (f *fakeResolver) Resolve(_ context.Context, videoID string, _ map[string]string, _ string) (*model.ResolvedAsset, error) {
	if asset, ok := f.assets[videoID]; ok {
		return asset, nil
	}
	return model.NotFoundAsset(videoID), nil
}

func (f *fakeResolver) ResolveBatch(ctx context.Context, videoIDs []string, credentials map[string]string, videoIDField string) (map[string]*model.ResolvedAsset, error) {
	f.batches = append(f.batches, videoIDs)
	out := make(map[string]*model.ResolvedAsset, len(videoIDs))
	for _, id := range videoIDs {
		resolved, _ := f.Resolve(ctx, id, credentials, videoIDField)
		out[id] = resolved
	}
	return out, nil
}

// providerPage builds the canonical three-segment page: two clips of
// video-001 at ranks 1 and 3 with one clip of video-002 between them.
func providerPage() *model.ProviderSearchResult {
	return &model.ProviderSearchResult{
		Data: []*model.SearchSegment{
			{Rank: 1, Start: 12.5, End: 18, Score: 84.9, Confidence: "high", VideoID: "video-001",
				UserMetadata: map[string]string{"filename": "sunrise_harbor.mp4"}},
			{Rank: 2, Start: 3, End: 9.5, Score: 80.1, Confidence: "high", VideoID: "video-002",
				UserMetadata: map[string]string{"filename": "city_night.mp4"}},
			{Rank: 3, Start: 44.25, End: 51, Score: 72.3, Confidence: "medium", VideoID: "video-001",
				UserMetadata: map[string]string{"filename": "sunrise_harbor.mp4"}},
		},
		PageInfo: model.ProviderPageInfo{TotalResults: 3, NextPageToken: "token-page-2"},
	}
}

type harness struct {
	client   *fakeSearchClient
	resolver *fakeResolver
	store    *cache.MemoryStore
	service  *services.SearchService
}

func newHarness(client *fakeSearchClient, resolver *fakeResolver) *harness {
	store := cache.NewMemoryStore(30*time.Minute, 100)

	registry := platform.NewRegistry()
	cfg := &config.Platform{
		Name:            "Iconik",
		Hostname:        testHostname,
		AssetURLPattern: "https://app.iconik.io/asset/{asset_id}#tl_seek={start}",
		VideoIDField:    "TL_VIDEO_ID",
	}
	if resolver != nil {
		registry.Register(cfg, resolver)
	} else {
		registry.Register(cfg, nil)
	}

	provider := config.SearchProvider{
		SearchScopes:      []string{"visual", "audio"},
		ImageSearchScopes: []string{"visual"},
		PageLimit:         20,
	}
	wf := workflow.NewSearchWorkflow(provider, client, store, registry)
	return &harness{
		client:   client,
		resolver: resolver,
		store:    store,
		service:  services.NewSearchService(wf),
	}
}

func textRequest() *model.SearchRequest {
	return &model.SearchRequest{
		Query:      "sunrise over the harbor",
		IndexID:    "idx-1",
		SearchType: model.SearchTypeText,
	}
}

func TestHandleSearchEnrichesAndOrdersResults(t *testing.T) {
	client := &fakeSearchClient{result: providerPage()}
	resolver := &fakeResolver{assets: map[string]*model.ResolvedAsset{
		"video-001": {VideoID: "video-001", MAMAssetID: "asset-1", MAMAssetTitle: "Sunrise Harbor",
			DeepLink: "https://app.iconik.io/asset/asset-1#tl_seek=0"},
	}}
	h := newHarness(client, resolver)

	out := h.service.HandleSearch(context.Background(), textRequest(), testHostname, "caller-key", nil, "TL_VIDEO_ID")

	require.True(t, out.Success)
	require.Len(t, out.Results, 3, "both clips of the same video survive the merge")

	for i, r := range out.Results {
		assert.Equal(t, i+1, r.Rank)
	}

	// Resolved video: MAM title wins the filename, deep link lands on the
	// clip's own start offset.
	first := out.Results[0]
	assert.Equal(t, "asset-1", first.MAMAssetID)
	assert.Equal(t, "Sunrise Harbor", first.Filename)
	assert.Equal(t, "https://app.iconik.io/asset/asset-1#tl_seek=12.5", first.DeepLink)

	third := out.Results[2]
	assert.Equal(t, "asset-1", third.MAMAssetID)
	assert.Equal(t, "https://app.iconik.io/asset/asset-1#tl_seek=44.25", third.DeepLink)

	// Unresolved video: kept, inert, named by its provider metadata.
	second := out.Results[1]
	assert.Empty(t, second.MAMAssetID)
	assert.Empty(t, second.DeepLink)
	assert.Equal(t, "city_night.mp4", second.Filename)

	require.NotNil(t, out.PageInfo)
	assert.Equal(t, "token-page-2", out.PageInfo.NextPageToken)
	assert.Equal(t, 3, out.PageInfo.TotalResults)

	// The resolver saw each distinct ID exactly once, in first-seen order.
	require.Len(t, resolver.batches, 1)
	assert.Equal(t, []string{"video-001", "video-002"}, resolver.batches[0])

	// Only the successful resolution was cached.
	assert.True(t, h.store.Has(context.Background(), "video-001"))
	assert.False(t, h.store.Has(context.Background(), "video-002"))

	assert.Equal(t, "caller-key", client.lastAPIKey)
	assert.Equal(t, 1, client.textCalls)
	assert.Equal(t, 0, client.imageCalls)
}

func TestHandleSearchSecondCallServedFromCache(t *testing.T) {
	client := &fakeSearchClient{result: providerPage()}
	resolver := &fakeResolver{assets: map[string]*model.ResolvedAsset{
		"video-001": {VideoID: "video-001", MAMAssetID: "asset-1", MAMAssetTitle: "Sunrise Harbor",
			DeepLink: "https://app.iconik.io/asset/asset-1#tl_seek=0"},
		"video-002": {VideoID: "video-002", MAMAssetID: "asset-2", MAMAssetTitle: "City Night",
			DeepLink: "https://app.iconik.io/asset/asset-2#tl_seek=0"},
	}}
	h := newHarness(client, resolver)

	first := h.service.HandleSearch(context.Background(), textRequest(), testHostname, "k", nil, "TL_VIDEO_ID")
	require.True(t, first.Success)
	require.Len(t, resolver.batches, 1)

	second := h.service.HandleSearch(context.Background(), textRequest(), testHostname, "k", nil, "TL_VIDEO_ID")
	require.True(t, second.Success)
	assert.Len(t, resolver.batches, 1, "a fully cached page must not touch the resolver")

	// Cache hits still produce per-segment deep links and titles.
	assert.Equal(t, "https://app.iconik.io/asset/asset-2#tl_seek=3", second.Results[1].DeepLink)
	assert.Equal(t, "City Night", second.Results[1].Filename)
}

func TestHandleSearchProviderFailure(t *testing.T) {
	client := &fakeSearchClient{err: fmt.Errorf("twelvelabs search failed: 401 invalid api key")}
	resolver := &fakeResolver{}
	h := newHarness(client, resolver)

	out := h.service.HandleSearch(context.Background(), textRequest(), testHostname, "bad-key", nil, "TL_VIDEO_ID")

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "invalid api key")
	assert.Empty(t, out.Results)
	assert.Nil(t, out.PageInfo)
	assert.Empty(t, resolver.batches, "resolution must not run after a provider failure")
}

// A platform with no resolver bound degrades to provider-only results instead
// of failing the search.
func TestHandleSearchWithoutResolverDegrades(t *testing.T) {
	client := &fakeSearchClient{result: providerPage()}
	h := newHarness(client, nil)

	out := h.service.HandleSearch(context.Background(), textRequest(), testHostname, "k", nil, "TL_VIDEO_ID")

	require.True(t, out.Success)
	require.Len(t, out.Results, 3)
	for _, r := range out.Results {
		assert.Empty(t, r.MAMAssetID)
		assert.Empty(t, r.DeepLink)
	}
	assert.Equal(t, "sunrise_harbor.mp4", out.Results[0].Filename)
}

func TestHandleSearchUnknownPlatformDegrades(t *testing.T) {
	client := &fakeSearchClient{result: providerPage()}
	resolver := &fakeResolver{}
	h := newHarness(client, resolver)

	out := h.service.HandleSearch(context.Background(), textRequest(), "nobody.example", "k", nil, "TL_VIDEO_ID")

	require.True(t, out.Success)
	require.Len(t, out.Results, 3)
	for _, r := range out.Results {
		assert.Empty(t, r.DeepLink)
	}
	assert.Empty(t, resolver.batches)
}

// Continuation pages re-invoke the same query with the provider's token.
func TestHandleSearchForwardsPageToken(t *testing.T) {
	client := &fakeSearchClient{result: providerPage()}
	h := newHarness(client, &fakeResolver{})

	req := textRequest()
	req.PageToken = "token-page-2"
	out := h.service.HandleSearch(context.Background(), req, testHostname, "k", nil, "TL_VIDEO_ID")

	require.True(t, out.Success)
	assert.Equal(t, "token-page-2", client.lastOpts.PageToken)
}

// A segment with no resolution and no provider metadata falls back to the
// raw video ID as its display name.
func TestHandleSearchFilenameFallsBackToVideoID(t *testing.T) {
	client := &fakeSearchClient{result: &model.ProviderSearchResult{
		Data: []*model.SearchSegment{
			{Rank: 1, Start: 0, End: 4, Score: 55.0, VideoID: "video-bare"},
		},
		PageInfo: model.ProviderPageInfo{TotalResults: 1},
	}}
	h := newHarness(client, &fakeResolver{})

	out := h.service.HandleSearch(context.Background(), textRequest(), testHostname, "k", nil, "TL_VIDEO_ID")

	require.True(t, out.Success)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "video-bare", out.Results[0].Filename)
	assert.Empty(t, out.Results[0].MAMAssetID)
}

func TestHandleSearchDispatchesImageMode(t *testing.T) {
	client := &fakeSearchClient{result: providerPage()}
	h := newHarness(client, &fakeResolver{})

	req := &model.SearchRequest{
		Query:      "person at a desk",
		IndexID:    "idx-1",
		SearchType: model.SearchTypeImage,
		ImageURL:   "https://cdn.example/frame.jpg",
	}
	out := h.service.HandleSearch(context.Background(), req, testHostname, "k", nil, "TL_VIDEO_ID")

	require.True(t, out.Success)
	assert.Equal(t, 1, client.imageCalls)
	assert.Equal(t, 0, client.textCalls)
	assert.Equal(t, "https://cdn.example/frame.jpg", client.lastImage)
	// The text query qualifies the image search instead of being dropped.
	assert.Equal(t, "person at a desk", client.lastOpts.QueryText)
	assert.Equal(t, []string{"visual"}, client.lastOpts.SearchScopes)
}

// Image mode without an image falls back to a plain text search rather than
// sending the provider an empty media reference.
func TestHandleSearchImageModeWithoutImageFallsBackToText(t *testing.T) {
	client := &fakeSearchClient{result: providerPage()}
	h := newHarness(client, &fakeResolver{})

	req := &model.SearchRequest{
		Query:      "sunrise",
		IndexID:    "idx-1",
		SearchType: model.SearchTypeImage,
	}
	out := h.service.HandleSearch(context.Background(), req, testHostname, "k", nil, "TL_VIDEO_ID")

	require.True(t, out.Success)
	assert.Equal(t, 1, client.textCalls)
	assert.Equal(t, 0, client.imageCalls)
}
