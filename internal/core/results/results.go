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

// Package results holds the small pure helpers that implement the result
// ordering and grouping contract: consumers render strictly by global rank,
// never grouped or re-ranked by video, and appending a continuation page
// followed by a re-sort must preserve that global total order.
package results

import (
	"fmt"
	"math"
	"sort"

	"github.com/jaycherian/mam-search-gateway/internal/core/model"
)

// DeduplicateVideoIDs returns the unique set of video IDs in first-seen
// order. The stable order makes the resolver fan-out deterministic; the final
// result ordering is rank based and unaffected by it.
//
// Inputs:
//   - videoIDs: The raw, possibly repeating ID list taken from ranked segments.
//
// Outputs:
//   - []string: Each distinct ID exactly once, in order of first appearance.
func DeduplicateVideoIDs(videoIDs []string) []string {
	seen := make(map[string]struct{}, len(videoIDs))
	out := make([]string, 0, len(videoIDs))
	for _, id := range videoIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SortByRank orders results in place by ascending rank as a global total
// order. The sort is stable so results that share a rank (which should not
// happen within one provider page) keep their arrival order.
func SortByRank(results []*model.EnrichedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Rank < results[j].Rank
	})
}

// MergePages appends a continuation page to previously accumulated results
// and re-establishes the global rank order. A new slice is always returned;
// neither input is mutated, matching the immutable lifecycle of enriched
// results.
func MergePages(accumulated, page []*model.EnrichedResult) []*model.EnrichedResult {
	out := make([]*model.EnrichedResult, 0, len(accumulated)+len(page))
	out = append(out, accumulated...)
	out = append(out, page...)
	SortByRank(out)
	return out
}

// GroupByVideoID buckets results by their provider video ID. Grouping is a
// presentation convenience only (e.g. a per-video hit count badge); it must
// never drive the render order.
func GroupByVideoID(results []*model.EnrichedResult) map[string][]*model.EnrichedResult {
	groups := make(map[string][]*model.EnrichedResult)
	for _, r := range results {
		groups[r.VideoID] = append(groups[r.VideoID], r)
	}
	return groups
}

// FormatTime renders a second offset as "M:SS", or "H:MM:SS" once the offset
// reaches an hour. Fractional seconds are truncated.
func FormatTime(seconds float64) string {
	total := int(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
