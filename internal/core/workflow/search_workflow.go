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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the
// search enrichment workflow.
package workflow

import (
	"github.com/jaycherian/mam-search-gateway/internal/config"
	"github.com/jaycherian/mam-search-gateway/internal/core/cache"
	"github.com/jaycherian/mam-search-gateway/internal/core/commands"
	"github.com/jaycherian/mam-search-gateway/internal/core/pipeline"
	"github.com/jaycherian/mam-search-gateway/internal/platform"
)

// SearchWorkflow orchestrates one search request end to end. It is structured
// as a chain (pipeline.Chain) of three commands: query the video understanding
// provider, resolve the returned video IDs to MAM assets, and merge both into
// the ranked, deep-linkable result list.
//
// The workflow is triggered per HTTP search request by the search service.
type SearchWorkflow struct {
	pipeline.BaseCommand
	provider config.SearchProvider
	client   commands.SearchClient
	store    cache.Store
	registry *platform.Registry
	chain    pipeline.Chain
}

// Execute runs the whole search workflow by invoking the underlying chain.
// The context must carry the search job under commands.ParamSearchJob.
func (w *SearchWorkflow) Execute(context pipeline.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the command sequence. Each step reads the previous
// step's output from the shared context and publishes its own.
func (w *SearchWorkflow) initializeChain() {
	out := pipeline.NewBaseChain(w.GetName())

	// Step 1: Send the query to the provider. Text and image modes share the
	// command; the job's search type picks the provider endpoint shape.
	out.AddCommand(commands.NewProviderSearch(
		"provider-search",
		w.client,
		w.provider.SearchScopes,
		w.provider.ImageSearchScopes,
		w.provider.PageLimit))

	// Step 2: Map the page's distinct video IDs to MAM assets, consulting the
	// cache first and batching only the misses to the platform resolver.
	out.AddCommand(commands.NewAssetResolution("asset-resolution", w.store, w.registry))

	// Step 3: Merge provider segments with resolutions into the final ranked
	// list, one entry per segment, with per-segment deep links.
	out.AddCommand(commands.NewResultEnrichment("result-enrichment", w.registry))

	w.chain = out
}

// NewSearchWorkflow is the constructor for the SearchWorkflow. It wires the
// provider client, cache store, and platform registry into the command chain.
func NewSearchWorkflow(
	provider config.SearchProvider,
	client commands.SearchClient,
	store cache.Store,
	registry *platform.Registry) *SearchWorkflow {

	out := &SearchWorkflow{
		BaseCommand: *pipeline.NewBaseCommand("search-pipeline"),
		provider:    provider,
		client:      client,
		store:       store,
		registry:    registry,
	}
	out.initializeChain()
	return out
}
