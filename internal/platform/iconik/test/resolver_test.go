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

// Package iconik_test exercises the Iconik resolver against a local HTTP
// server standing in for the Iconik search API.
package iconik_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/mam-search-gateway/internal/config"
	"github.com/jaycherian/mam-search-gateway/internal/platform"
	"github.com/jaycherian/mam-search-gateway/internal/platform/iconik"
)

func testCredentials() map[string]string {
	return map[string]string{
		iconik.CredentialAppID:     "app-id-1",
		iconik.CredentialAuthToken: "token-1",
	}
}

func newTestResolver(serverURL string) *iconik.Resolver {
	cfg := &config.Platform{
		Name:            "Iconik",
		Hostname:        "app.iconik.io",
		AssetURLPattern: "https://app.iconik.io/asset/{asset_id}#tl_seek={start}",
		SearchAPIURL:    serverURL,
	}
	return iconik.NewResolver(cfg, nil, 4)
}

func TestResolveFindsAsset(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "app-id-1", r.Header.Get("App-ID"))
		assert.Equal(t, "token-1", r.Header.Get("Auth-Token"))

		var body struct {
			Query       string   `json:"query"`
			ObjectTypes []string `json:"object_types"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body.Query
		assert.Equal(t, []string{"assets"}, body.ObjectTypes)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"objects": []map[string]string{
				{"id": "asset-abc", "title": "Sunrise Harbor"},
			},
		})
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	out, err := resolver.Resolve(context.Background(), "video-001", testCredentials(), "TL_VIDEO_ID")
	require.NoError(t, err)

	assert.Equal(t, "metadata.TL_VIDEO_ID:video-001", gotQuery)
	assert.Equal(t, "video-001", out.VideoID)
	assert.Equal(t, "asset-abc", out.MAMAssetID)
	assert.Equal(t, "Sunrise Harbor", out.MAMAssetTitle)
	assert.Equal(t, "https://app.iconik.io/asset/asset-abc#tl_seek=0", out.DeepLink)
}

// Zero matches is a success with a not-found resolution, never an error.
func TestResolveNoMatchIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"objects": []interface{}{}})
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	out, err := resolver.Resolve(context.Background(), "video-404", testCredentials(), "TL_VIDEO_ID")
	require.NoError(t, err)

	assert.Equal(t, "video-404", out.VideoID)
	assert.Empty(t, out.MAMAssetID)
	assert.Empty(t, out.MAMAssetTitle)
	assert.Empty(t, out.DeepLink)
}

func TestResolveMissingCredentialsFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	_, err := resolver.Resolve(context.Background(), "video-001",
		map[string]string{iconik.CredentialAppID: "app-id-1"}, "TL_VIDEO_ID")

	var credErr *platform.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, []string{iconik.CredentialAuthToken}, credErr.Missing)
	assert.Equal(t, int32(0), calls.Load(), "no request may leave the process without credentials")
}

func TestResolveUpstreamErrorSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	_, err := resolver.Resolve(context.Background(), "video-001", testCredentials(), "TL_VIDEO_ID")

	var lookupErr *platform.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, http.StatusInternalServerError, lookupErr.StatusCode)
	assert.Contains(t, lookupErr.Error(), "Iconik")
}

// One misbehaving ID must not poison the batch: the failed lookup degrades to
// not-found while the healthy lookups resolve normally.
func TestResolveBatchIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		if body.Query == "metadata.TL_VIDEO_ID:video-bad" {
			http.Error(w, "shard down", http.StatusBadGateway)
			return
		}
		// Answer with an asset ID derived from the query so assertions can
		// match responses back to inputs.
		id := body.Query[len("metadata.TL_VIDEO_ID:"):]
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"objects": []map[string]string{
				{"id": "asset-" + id, "title": "Title " + id},
			},
		})
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	ids := []string{"video-001", "video-bad", "video-002"}
	out, err := resolver.ResolveBatch(context.Background(), ids, testCredentials(), "TL_VIDEO_ID")
	require.NoError(t, err)

	require.Len(t, out, 3, "every input ID has exactly one entry")
	assert.Equal(t, "asset-video-001", out["video-001"].MAMAssetID)
	assert.Equal(t, "asset-video-002", out["video-002"].MAMAssetID)
	assert.Empty(t, out["video-bad"].MAMAssetID)
	assert.Equal(t, "video-bad", out["video-bad"].VideoID)
}

func TestResolveBatchEmptyInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no lookup expected for an empty batch")
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	out, err := resolver.ResolveBatch(context.Background(), nil, testCredentials(), "TL_VIDEO_ID")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCredentialsErrorMessage(t *testing.T) {
	err := &platform.CredentialsError{Platform: "Iconik", Missing: []string{"iconik_app_id"}}
	assert.Equal(t, "Iconik credentials missing: iconik_app_id required", err.Error())
	assert.True(t, errors.As(error(err), new(*platform.CredentialsError)))
}

func TestLookupErrorMessage(t *testing.T) {
	err := &platform.LookupError{Platform: "Iconik", StatusCode: 502, Status: "shard down"}
	assert.Equal(t, fmt.Sprintf("Iconik lookup failed: %d %s", 502, "shard down"), err.Error())
}
