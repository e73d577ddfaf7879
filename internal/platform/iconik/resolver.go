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

// Package iconik implements the platform.Resolver strategy for the Iconik
// MAM. A provider video ID is resolved by searching Iconik for assets whose
// configured metadata field carries that ID; the first match supplies the
// asset identity for deep linking.
//
// Logic Flow (batch):
//  1. ResolveBatch fans out one Resolve call per video ID on a bounded
//     errgroup, so a 20-result page with 15 distinct videos costs one
//     round of concurrent lookups rather than a sequential scan.
//  2. Each lookup that fails (bad credentials, upstream outage, malformed
//     ID) is converted into a "not found" resolution for that ID only.
//     The batch itself never fails and never drops an entry, so a single
//     sick lookup cannot suppress the healthy results around it.
package iconik

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jaycherian/mam-search-gateway/internal/config"
	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/platform"
)

// Credential map keys the resolver reads. They match the credential field
// descriptors published for the Iconik platform.
const (
	CredentialAppID     = "iconik_app_id"
	CredentialAuthToken = "iconik_auth_token"
)

// DefaultSearchAPIURL is the Iconik search endpoint used when the platform
// configuration does not override it.
const DefaultSearchAPIURL = "https://app.iconik.io/API/search/v1/search/"

// searchRequest is the Iconik search API request body for a metadata lookup.
type searchRequest struct {
	Query       string   `json:"query"`
	ObjectTypes []string `json:"object_types"`
}

// searchResponse is the subset of the Iconik search response the resolver
// reads.
type searchResponse struct {
	Objects []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"objects"`
}

// Resolver resolves provider video IDs against one Iconik deployment.
type Resolver struct {
	cfg        *config.Platform
	httpClient *http.Client
	maxWorkers int
}

var _ platform.Resolver = (*Resolver)(nil)

// NewResolver creates an Iconik resolver.
//
// Inputs:
//   - cfg: The platform configuration (URL pattern, search endpoint).
//   - httpClient: The HTTP client for lookups; nil selects http.DefaultClient.
//   - maxWorkers: Concurrency bound for batch fan-out; <= 0 selects 8.
//
// Outputs:
//   - *Resolver: A resolver ready for registration.
func NewResolver(cfg *config.Platform, httpClient *http.Client, maxWorkers int) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &Resolver{cfg: cfg, httpClient: httpClient, maxWorkers: maxWorkers}
}

// searchURL returns the configured Iconik search endpoint, falling back to
// the public SaaS default.
func (r *Resolver) searchURL() string {
	if r.cfg.SearchAPIURL != "" {
		return r.cfg.SearchAPIURL
	}
	return DefaultSearchAPIURL
}

// Resolve looks up a single video ID in Iconik.
//
// The lookup searches for assets whose metadata field videoIDField equals
// videoID. Missing credentials fail with *platform.CredentialsError before
// any network I/O; a non-success upstream response fails with
// *platform.LookupError. Zero matches is a success that returns a not-found
// ResolvedAsset. On a match, the deep link is built from the platform's URL
// pattern anchored at the start of the asset.
func (r *Resolver) Resolve(ctx context.Context, videoID string, credentials map[string]string, videoIDField string) (*model.ResolvedAsset, error) {
	appID := credentials[CredentialAppID]
	authToken := credentials[CredentialAuthToken]
	if appID == "" || authToken == "" {
		missing := make([]string, 0, 2)
		if appID == "" {
			missing = append(missing, CredentialAppID)
		}
		if authToken == "" {
			missing = append(missing, CredentialAuthToken)
		}
		return nil, &platform.CredentialsError{Platform: r.cfg.Name, Missing: missing}
	}

	query := fmt.Sprintf("metadata.%s:%s", videoIDField, videoID)
	body, err := json.Marshal(searchRequest{Query: query, ObjectTypes: []string{"assets"}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode iconik search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.searchURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build iconik search request: %w", err)
	}
	req.Header.Set("App-ID", appID)
	req.Header.Set("Auth-Token", authToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iconik search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		status := string(excerpt)
		if status == "" {
			status = resp.Status
		}
		return nil, &platform.LookupError{Platform: r.cfg.Name, StatusCode: resp.StatusCode, Status: status}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode iconik search response: %w", err)
	}

	if len(parsed.Objects) == 0 {
		slog.Debug("iconik lookup: no asset found", "video_id", videoID, "query", query)
		return model.NotFoundAsset(videoID), nil
	}

	first := parsed.Objects[0]
	return &model.ResolvedAsset{
		VideoID:       videoID,
		MAMAssetID:    first.ID,
		MAMAssetTitle: first.Title,
		DeepLink:      platform.BuildDeepLink(r.cfg.AssetURLPattern, first.ID, 0),
	}, nil
}

// ResolveBatch resolves every ID concurrently with per-ID failure isolation.
// The returned map always contains exactly one entry per input ID; a failed
// lookup contributes a not-found entry rather than an error. The error
// return is always nil and exists only to satisfy callers that treat the
// resolver polymorphically.
func (r *Resolver) ResolveBatch(ctx context.Context, videoIDs []string, credentials map[string]string, videoIDField string) (map[string]*model.ResolvedAsset, error) {
	out := make(map[string]*model.ResolvedAsset, len(videoIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)
	for _, videoID := range videoIDs {
		g.Go(func() error {
			resolved, err := r.Resolve(gctx, videoID, credentials, videoIDField)
			if err != nil {
				slog.Warn("iconik lookup failed; treating as not found",
					"video_id", videoID, "error", err)
				resolved = model.NotFoundAsset(videoID)
			}
			mu.Lock()
			out[videoID] = resolved
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes completion:
	// the batch is done exactly when every lookup has settled.
	_ = g.Wait()
	return out, nil
}
