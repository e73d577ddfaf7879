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

// Package platform holds the pluggable MAM-platform abstraction: the
// resolver strategy interface, the static registry that selects a platform
// by hostname, and the deep-link builder. The registry is assembled once at
// startup from configuration and is read-only afterwards.
package platform

import (
	"strconv"
	"strings"

	"github.com/jaycherian/mam-search-gateway/internal/config"
)

// Registry is the static hostname-indexed lookup table of platform
// configurations and their resolver implementations. An unknown hostname
// yields nil from both accessors; the orchestrator treats that as "skip
// resolution, return everything unresolved", not as an error.
type Registry struct {
	configs   map[string]*config.Platform
	resolvers map[string]Resolver
}

// NewRegistry creates an empty registry. Entries are added with Register
// during startup wiring.
func NewRegistry() *Registry {
	return &Registry{
		configs:   make(map[string]*config.Platform),
		resolvers: make(map[string]Resolver),
	}
}

// Register binds a platform configuration and its resolver under the
// platform's hostname. A nil resolver is allowed: the platform is then
// published for discovery but every search against it runs in the
// unresolved degraded mode.
func (r *Registry) Register(cfg *config.Platform, resolver Resolver) {
	r.configs[cfg.Hostname] = cfg
	if resolver != nil {
		r.resolvers[cfg.Hostname] = resolver
	}
}

// Config returns the platform configuration for a hostname, or nil.
func (r *Registry) Config(hostname string) *config.Platform {
	return r.configs[hostname]
}

// Resolver returns the resolver for a hostname, or nil when the platform is
// unknown or has no resolver bound.
func (r *Registry) Resolver(hostname string) Resolver {
	return r.resolvers[hostname]
}

// Hostnames returns every registered platform hostname. Order is unspecified.
func (r *Registry) Hostnames() []string {
	out := make([]string, 0, len(r.configs))
	for hostname := range r.configs {
		out = append(out, hostname)
	}
	return out
}

// BuildDeepLink substitutes the {asset_id} and {start} placeholders in a
// platform URL pattern. The start time is rendered as a plain decimal string
// with no padding or unit suffix (12.5 -> "12.5", 12 -> "12"). Only the
// first occurrence of each placeholder is substituted, and no URL escaping
// is performed; asset IDs are expected to already be URL-safe.
func BuildDeepLink(pattern string, assetID string, startSeconds float64) string {
	out := strings.Replace(pattern, "{asset_id}", assetID, 1)
	out = strings.Replace(out, "{start}", strconv.FormatFloat(startSeconds, 'f', -1, 64), 1)
	return out
}
