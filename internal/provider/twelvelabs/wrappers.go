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

// This file wraps the search client with a quota-aware decorator. The
// TwelveLabs API enforces per-minute request quotas; exceeding them turns
// into hard 429 failures for every concurrent user of the gateway. The
// decorator holds each search call until the shared token bucket admits it,
// so the gateway itself never drives the account over quota.
package twelvelabs

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/jaycherian/mam-search-gateway/internal/core/model"
)

// SearchAPI is the provider search contract the pipeline consumes. Both the
// raw Client and the quota-aware wrapper satisfy it.
type SearchAPI interface {
	SearchByText(ctx context.Context, apiKey, indexID, query string, opts model.SearchOptions) (*model.ProviderSearchResult, error)
	SearchByImage(ctx context.Context, apiKey, indexID, imageRef string, opts model.SearchOptions) (*model.ProviderSearchResult, error)
}

// QuotaAwareSearchClient decorates a SearchAPI with a token-bucket rate
// limiter. Calls block (honoring context cancellation) until the bucket
// admits them.
type QuotaAwareSearchClient struct {
	wrapped SearchAPI
	limiter *rate.Limiter
}

var _ SearchAPI = (*QuotaAwareSearchClient)(nil)

// NewQuotaAwareSearchClient wraps a search client with a per-minute quota.
//
// Inputs:
//   - wrapped: The client to decorate.
//   - requestsPerMinute: The quota ceiling; <= 0 selects 60.
//
// Outputs:
//   - *QuotaAwareSearchClient: The decorated client.
func NewQuotaAwareSearchClient(wrapped SearchAPI, requestsPerMinute int) *QuotaAwareSearchClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &QuotaAwareSearchClient{
		wrapped: wrapped,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
	}
}

// SearchByText waits for quota, then delegates.
func (q *QuotaAwareSearchClient) SearchByText(ctx context.Context, apiKey, indexID, query string, opts model.SearchOptions) (*model.ProviderSearchResult, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return q.wrapped.SearchByText(ctx, apiKey, indexID, query, opts)
}

// SearchByImage waits for quota, then delegates.
func (q *QuotaAwareSearchClient) SearchByImage(ctx context.Context, apiKey, indexID, imageRef string, opts model.SearchOptions) (*model.ProviderSearchResult, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return q.wrapped.SearchByImage(ctx, apiKey, indexID, imageRef, opts)
}
