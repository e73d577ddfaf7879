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

// Package commands provides the concrete pipeline commands that make up the
// search enrichment workflow. This file defines the first step: dispatching
// the caller's query to the video understanding provider.
package commands

import (
	"context"
	"fmt"

	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/core/pipeline"
)

// Context parameter keys shared by the search workflow commands. The
// workflow seeds ParamSearchJob; each command publishes its output under its
// own key so later multi-input steps can address them directly.
const (
	ParamSearchJob       = "__search_job__"
	ParamProviderResult  = "__provider_result__"
	ParamResolutions     = "__resolutions__"
	ParamEnrichedResults = "__enriched_results__"
)

// SearchClient is the slice of the provider client this command consumes.
type SearchClient interface {
	SearchByText(ctx context.Context, apiKey, indexID, query string, opts model.SearchOptions) (*model.ProviderSearchResult, error)
	SearchByImage(ctx context.Context, apiKey, indexID, imageRef string, opts model.SearchOptions) (*model.ProviderSearchResult, error)
}

// ProviderSearch dispatches a search job to the provider. Image mode with a
// non-empty text query becomes a combined text+image search; the text is
// passed as a qualifier, never dropped. A provider failure is fatal to the
// whole search: it is recorded on the context and the chain stops.
type ProviderSearch struct {
	pipeline.BaseCommand
	client       SearchClient
	searchScopes []string // Modal scopes for text search.
	imageScopes  []string // Modal scopes for image search.
	pageLimit    int
}

// NewProviderSearch creates the provider search command.
//
// Inputs:
//   - name: Command name for tracing and metrics.
//   - client: The provider search client (typically the quota-aware wrapper).
//   - searchScopes, imageScopes: Default modality scopes per mode.
//   - pageLimit: Default page size; 0 defers to the client.
//
// Outputs:
//   - *ProviderSearch: The command, wired to read ParamSearchJob and write
//     ParamProviderResult.
func NewProviderSearch(name string, client SearchClient, searchScopes, imageScopes []string, pageLimit int) *ProviderSearch {
	out := &ProviderSearch{
		client:       client,
		searchScopes: searchScopes,
		imageScopes:  imageScopes,
		pageLimit:    pageLimit,
	}
	out.BaseCommand = *pipeline.NewBaseCommand(name)
	out.InputParamName = ParamSearchJob
	out.OutputParamName = ParamProviderResult
	return out
}

// Execute performs the provider call and stores the raw result page.
func (c *ProviderSearch) Execute(pctx pipeline.Context) {
	job, ok := pctx.Get(c.GetInputParam()).(*model.SearchJob)
	if !ok {
		pctx.AddError(c.GetName(), fmt.Errorf("missing search job in context"))
		return
	}
	ctx := pctx.GetContext()

	var result *model.ProviderSearchResult
	var err error
	if job.Request.SearchType == model.SearchTypeImage && job.Request.ImageURL != "" {
		opts := model.SearchOptions{
			PageToken:    job.Request.PageToken,
			QueryText:    job.Request.Query, // combined text+image when both present
			PageLimit:    c.pageLimit,
			SearchScopes: c.imageScopes,
		}
		result, err = c.client.SearchByImage(ctx, job.APIKey, job.Request.IndexID, job.Request.ImageURL, opts)
	} else {
		opts := model.SearchOptions{
			PageToken:    job.Request.PageToken,
			PageLimit:    c.pageLimit,
			SearchScopes: c.searchScopes,
		}
		result, err = c.client.SearchByText(ctx, job.APIKey, job.Request.IndexID, job.Request.Query, opts)
	}
	if err != nil {
		pctx.AddError(c.GetName(), err)
		return
	}
	pctx.Add(c.GetOutputParam(), result)
}
