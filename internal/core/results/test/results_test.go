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

// Package results_test contains unit tests for the ordering, grouping and
// formatting helpers in the results package.
package results_test

import (
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/core/results"
)

func TestDeduplicateVideoIDsKeepsFirstSeenOrder(t *testing.T) {
	ids := []string{"v2", "v1", "v2", "v3", "v1", "v2"}
	out := results.DeduplicateVideoIDs(ids)
	assert.DeepEqual(t, []string{"v2", "v1", "v3"}, out)
}

func TestDeduplicateVideoIDsEmptyInput(t *testing.T) {
	out := results.DeduplicateVideoIDs(nil)
	assert.Equal(t, 0, len(out))
}

func TestSortByRankIsAscending(t *testing.T) {
	rs := []*model.EnrichedResult{
		{Rank: 3, VideoID: "v3"},
		{Rank: 1, VideoID: "v1"},
		{Rank: 2, VideoID: "v2"},
	}
	results.SortByRank(rs)
	assert.Equal(t, 1, rs[0].Rank)
	assert.Equal(t, 2, rs[1].Rank)
	assert.Equal(t, 3, rs[2].Rank)
}

// A continuation page carries ranks that interleave with the accumulated
// results; after the merge the whole list must read as one global ranking.
func TestMergePagesRestoresGlobalOrder(t *testing.T) {
	accumulated := []*model.EnrichedResult{
		{Rank: 1, VideoID: "v1"},
		{Rank: 3, VideoID: "v1"},
	}
	page := []*model.EnrichedResult{
		{Rank: 2, VideoID: "v2"},
		{Rank: 4, VideoID: "v3"},
	}

	out := results.MergePages(accumulated, page)

	assert.Equal(t, 4, len(out))
	for i, r := range out {
		assert.Equal(t, i+1, r.Rank)
	}
	// Inputs are never mutated.
	assert.Equal(t, 2, len(accumulated))
	assert.Equal(t, 3, accumulated[1].Rank)
}

func TestGroupByVideoIDBucketsWithoutReordering(t *testing.T) {
	rs := []*model.EnrichedResult{
		{Rank: 1, VideoID: "v1"},
		{Rank: 2, VideoID: "v2"},
		{Rank: 3, VideoID: "v1"},
	}
	groups := results.GroupByVideoID(rs)
	assert.Equal(t, 2, len(groups))
	assert.Equal(t, 2, len(groups["v1"]))
	assert.Equal(t, 1, groups["v1"][0].Rank)
	assert.Equal(t, 3, groups["v1"][1].Rank)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00", results.FormatTime(0))
	assert.Equal(t, "0:59", results.FormatTime(59.9))
	assert.Equal(t, "1:05", results.FormatTime(65.2))
	assert.Equal(t, "12:34", results.FormatTime(754))
	assert.Equal(t, "1:00:01", results.FormatTime(3601))
	assert.Equal(t, "2:03:04", results.FormatTime(7384.7))
}
