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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains struct definitions for data models that
// are used in memory while a search request flows through the enrichment
// pipeline. These objects are never persisted; they are intermediate
// containers for data as it is fetched from the search provider, resolved
// against the MAM platform, and assembled into the final result set.
package model

// SearchRequest is the inbound request shape for a semantic search. It is
// bound directly from the caller's JSON body.
type SearchRequest struct {
	Query      string `json:"query"`               // The natural language search string (may be empty in pure image mode).
	IndexID    string `json:"indexId"`             // The search provider index to query.
	SearchType string `json:"searchType"`          // Either "text" or "image".
	ImageURL   string `json:"imageUrl,omitempty"`  // A public URL or data: URL for image search.
	PageToken  string `json:"pageToken,omitempty"` // Opaque continuation token from a previous page.
}

// SearchTypeText and SearchTypeImage are the two accepted values for
// SearchRequest.SearchType. Anything else is treated as a text search.
const (
	SearchTypeText  = "text"
	SearchTypeImage = "image"
)

// SearchOptions carries the optional knobs for a single provider search call.
// It decouples the pipeline commands from the concrete provider client.
type SearchOptions struct {
	PageToken    string   // Continuation token for paginated fetches.
	QueryText    string   // Optional text qualifier for combined text+image search.
	PageLimit    int      // Results per page; 0 means the client default.
	SearchScopes []string // Provider modalities to search (e.g. "visual", "audio").
}

// SearchSegment is one ranked hit from the search provider, in the provider's
// wire shape. The video ID is the join key used to resolve the segment back
// to a MAM asset.
type SearchSegment struct {
	Rank         int               `json:"rank"`                    // 1-based global rank, unique within a page.
	Start        float64           `json:"start"`                   // Segment start in seconds.
	End          float64           `json:"end"`                     // Segment end in seconds, always > Start.
	Score        float64           `json:"score"`                   // Provider relevance score.
	Confidence   string            `json:"confidence"`              // Provider confidence bucket (e.g. "high").
	VideoID      string            `json:"video_id"`                // Opaque provider video identifier.
	ThumbnailURL string            `json:"thumbnail_url"`           // Segment thumbnail, may be empty.
	UserMetadata map[string]string `json:"user_metadata,omitempty"` // Optional caller-supplied metadata, may hold a fallback "filename".
}

// ProviderPageInfo is the pagination block returned by the search provider.
type ProviderPageInfo struct {
	TotalResults  int    `json:"total_results"`
	PageExpiredAt string `json:"page_expired_at"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

// ProviderSearchResult is the raw, un-enriched response of a single provider
// search call: the ranked segments plus pagination metadata.
type ProviderSearchResult struct {
	Data     []*SearchSegment `json:"data"`
	PageInfo ProviderPageInfo `json:"page_info"`
}

// ResolvedAsset is the outcome of resolving one provider video ID against a
// MAM platform. It is produced exclusively by a platform resolver. An empty
// MAMAssetID means the video is not (yet) known to the MAM, which is a valid,
// non-error outcome. DeepLink is empty exactly when MAMAssetID is empty.
type ResolvedAsset struct {
	VideoID       string `json:"videoId"`       // Echo of the input video ID.
	MAMAssetID    string `json:"mamAssetId"`    // The MAM's native asset identifier, "" if not found.
	MAMAssetTitle string `json:"mamAssetTitle"` // Human readable asset title, "" if not found.
	DeepLink      string `json:"deepLink"`      // Fully substituted asset URL, "" if not found.
}

// NotFoundAsset builds the canonical "not found" resolution for a video ID.
// Batch resolution uses it to convert per-ID lookup failures into a defined
// degraded outcome instead of aborting the batch.
func NotFoundAsset(videoID string) *ResolvedAsset {
	return &ResolvedAsset{VideoID: videoID}
}

// EnrichedResult is the terminal entity of the pipeline: one search segment
// merged with its resolution, ready for presentation. Instances are built
// once per search response and never mutated afterwards. A result with an
// empty DeepLink must be rendered as inert (non-clickable).
type EnrichedResult struct {
	Rank         int     `json:"rank"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Score        float64 `json:"score"`
	VideoID      string  `json:"videoId"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Filename     string  `json:"filename"`   // Resolved MAM title, else provider metadata filename, else the raw video ID.
	MAMAssetID   string  `json:"mamAssetId"` // "" when the video could not be resolved.
	DeepLink     string  `json:"deepLink"`   // "" when the video could not be resolved.
}

// PageInfo is the pagination block of the gateway's own response shape.
type PageInfo struct {
	NextPageToken string `json:"nextPageToken,omitempty"`
	TotalResults  int    `json:"totalResults"`
}

// SearchResponse is the single response envelope returned to callers. A
// failed search carries Success=false and a display-ready Error message; a
// successful search carries the enriched results in global rank order plus
// pagination metadata. The two variants are mutually exclusive.
type SearchResponse struct {
	Success  bool              `json:"success"`
	Results  []*EnrichedResult `json:"results,omitempty"`
	PageInfo *PageInfo         `json:"pageInfo,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// SearchJob bundles everything one search invocation needs as it travels
// through the pipeline: the caller's request plus the platform identity and
// the opaque credential material the resolvers require. The orchestrator
// performs no validation on the credential map beyond what resolvers enforce.
type SearchJob struct {
	Request      *SearchRequest
	Platform     string            // MAM platform hostname, selects the resolver.
	APIKey       string            // Search provider API key.
	Credentials  map[string]string // Per-platform credential material, opaque to the core.
	VideoIDField string            // Name of the MAM metadata field holding the provider video ID.
}
