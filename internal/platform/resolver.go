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

package platform

import (
	"context"

	"github.com/jaycherian/mam-search-gateway/internal/core/model"
)

// Resolver is the pluggable strategy that maps a search provider's opaque
// video IDs to MAM asset identities for one platform. Adding support for a
// new MAM vendor means implementing this interface and registering it; no
// other code branches on the platform.
type Resolver interface {
	// Resolve performs a single external lookup for one video ID.
	//
	// It fails with a *CredentialsError when required credentials are absent
	// from the map (checked before any network call), and with a
	// *LookupError when the platform API answers non-success. A successful
	// call that matches nothing returns a ResolvedAsset with an empty
	// MAMAssetID; that is a valid outcome, not an error.
	Resolve(ctx context.Context, videoID string, credentials map[string]string, videoIDField string) (*model.ResolvedAsset, error)

	// ResolveBatch looks up every ID concurrently and independently. A
	// failed lookup is converted into a not-found ResolvedAsset for that ID
	// only; one bad lookup never aborts the batch. The returned map always
	// holds exactly one entry per input ID.
	ResolveBatch(ctx context.Context, videoIDs []string, credentials map[string]string, videoIDField string) (map[string]*model.ResolvedAsset, error)
}
