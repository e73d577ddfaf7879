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

// Package services contains the business logic that sits between the HTTP
// handlers and the pipeline. This file defines the SearchService, the single
// entry point for running an enriched search: it seeds the pipeline context,
// executes the search workflow, and folds any outcome, success or failure,
// into a response envelope the extension can always decode.
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jaycherian/mam-search-gateway/internal/core/commands"
	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/core/pipeline"
)

// SearchService runs search requests through the enrichment workflow.
type SearchService struct {
	Workflow pipeline.Command // The search pipeline to execute per request.
}

// NewSearchService creates a SearchService backed by the given workflow.
func NewSearchService(workflow pipeline.Command) *SearchService {
	return &SearchService{Workflow: workflow}
}

// HandleSearch executes one search and always returns a response, never an
// error: any failure inside the pipeline becomes {Success: false, Error: msg}
// so the caller has exactly one decode path.
//
// Inputs:
//   - ctx: The request context, used for cancellation and tracing.
//   - req: The caller's search request (query, index, mode, paging).
//   - platformHost: Hostname key of the MAM platform to resolve against.
//   - apiKey: The caller's provider API key.
//   - credentials: Per-platform credential values keyed by field name.
//   - videoIDField: The MAM metadata field holding the provider video ID.
//
// Outputs:
//   - *model.SearchResponse: The enriched, ranked results or an error envelope.
func (s *SearchService) HandleSearch(
	ctx context.Context,
	req *model.SearchRequest,
	platformHost string,
	apiKey string,
	credentials map[string]string,
	videoIDField string) *model.SearchResponse {

	searchID := uuid.NewString()
	logger := slog.With(
		slog.String("search_id", searchID),
		slog.String("platform", platformHost),
		slog.String("search_type", req.SearchType))
	logger.InfoContext(ctx, "starting search")

	job := &model.SearchJob{
		Request:      req,
		Platform:     platformHost,
		APIKey:       apiKey,
		Credentials:  credentials,
		VideoIDField: videoIDField,
	}

	pctx := pipeline.NewBaseContext(ctx)
	pctx.Add(commands.ParamSearchJob, job)
	s.Workflow.Execute(pctx)

	if pctx.HasErrors() {
		message := "search failed"
		for name, err := range pctx.GetErrors() {
			message = err.Error()
			logger.ErrorContext(ctx, "search failed",
				slog.String("command", name),
				slog.String("error", err.Error()))
			break
		}
		return &model.SearchResponse{Success: false, Error: message}
	}

	enriched, ok := pctx.Get(commands.ParamEnrichedResults).([]*model.EnrichedResult)
	if !ok {
		logger.ErrorContext(ctx, "search pipeline produced no results payload")
		return &model.SearchResponse{Success: false, Error: "internal error: search produced no results"}
	}

	out := &model.SearchResponse{Success: true, Results: enriched}
	if provider, ok := pctx.Get(commands.ParamProviderResult).(*model.ProviderSearchResult); ok {
		out.PageInfo = &model.PageInfo{
			NextPageToken: provider.PageInfo.NextPageToken,
			TotalResults:  provider.PageInfo.TotalResults,
		}
	}
	logger.InfoContext(ctx, "search complete", slog.Int("result_count", len(enriched)))
	return out
}
