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
	"fmt"
	"strings"
)

// CredentialsError reports that a resolver was invoked without the
// credential keys its platform requires. Resolvers raise it before making
// any network call. Inside a batch it degrades to a not-found result for
// the affected ID only.
type CredentialsError struct {
	Platform string   // Platform display name, e.g. "Iconik".
	Missing  []string // The credential keys that were absent or empty.
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("%s credentials missing: %s required", e.Platform, strings.Join(e.Missing, " and "))
}

// LookupError reports a non-success response from the MAM platform's lookup
// API. It carries the upstream status so operators can tell an auth problem
// from an outage. Retryable in principle; the resolver itself does not
// retry.
type LookupError struct {
	Platform   string // Platform display name.
	StatusCode int    // Upstream HTTP status code.
	Status     string // Upstream status text or response body excerpt.
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup failed: %d %s", e.Platform, e.StatusCode, e.Status)
}
