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

// Package config defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the HTTP server, the search provider client, the identifier cache,
// telemetry, and the static registry of MAM platforms the gateway can
// resolve against.
//
// Structs:
//   - Server: Listen port and CORS settings for the gateway API.
//   - SearchProvider: Endpoint, credentials and quota for the video
//     understanding API.
//   - Cache: Backend selection and sizing for the identifier cache.
//   - Telemetry: OTLP export settings.
//   - CredentialField: Describes one credential input a platform requires.
//   - Platform: One MAM platform: its hostname, deep-link URL pattern,
//     resolver binding, and credential requirements.
//   - Config: The top-level aggregate.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config with its maps
//     allocated and defaults applied.
package config

// Server holds the HTTP listener settings.
type Server struct {
	Port           int      `toml:"port"`            // TCP port for the gateway API. Defaults to 8080.
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins; empty means allow all (development default).
}

// SearchProvider holds the settings for the video understanding API client.
type SearchProvider struct {
	BaseURL           string   `toml:"base_url"`                // API root, e.g. "https://api.twelvelabs.io/v1.3".
	APIKey            string   `toml:"api_key"`                 // Server-side API key; callers may override per request.
	PageLimit         int      `toml:"page_limit"`              // Results per page. Defaults to 20.
	SearchScopes      []string `toml:"search_options"`          // Modalities for text search. Defaults to visual+audio.
	ImageSearchScopes []string `toml:"image_search_options"`    // Modalities for image search. Defaults to visual.
	RequestsPerMinute int      `toml:"max_requests_per_minute"` // Quota ceiling enforced by the rate-limited client wrapper.
	TimeoutInSeconds  int      `toml:"timeout_in_seconds"`      // HTTP client timeout. Defaults to 30.
}

// Cache holds the identifier cache settings.
type Cache struct {
	Backend       string `toml:"backend"`        // "memory" (default) or "redis".
	TTLMinutes    int    `toml:"ttl_minutes"`    // Entry lifetime. Defaults to 30.
	MaxEntries    int    `toml:"max_entries"`    // Capacity bound for the memory backend.
	RedisAddr     string `toml:"redis_addr"`     // host:port, required for the redis backend.
	RedisPassword string `toml:"redis_password"` // Optional redis auth.
	RedisDB       int    `toml:"redis_db"`       // Redis logical database number.
	KeyPrefix     string `toml:"key_prefix"`     // Namespace for this gateway's keys in a shared redis.
}

// Telemetry holds the OpenTelemetry export settings. An empty endpoint
// disables export; tracing and metrics then stay process-local no-ops.
type Telemetry struct {
	OTLPEndpoint string `toml:"otlp_endpoint"` // host:port of an OTLP gRPC collector.
	Insecure     bool   `toml:"insecure"`      // Use a plaintext connection to the collector.
}

// CredentialField describes one credential input a platform requires from
// the user. The gateway publishes these descriptors so frontends can render
// configuration forms; it never stores the values itself.
type CredentialField struct {
	Key         string `toml:"key"`         // Map key the resolver reads, e.g. "iconik_app_id".
	Label       string `toml:"label"`       // Human readable label for forms.
	Type        string `toml:"type"`        // "text" or "password".
	Placeholder string `toml:"placeholder"` // Example value shown in forms.
}

// Platform is the static description of one MAM platform the gateway can
// resolve against. Platforms are keyed by hostname in the registry and are
// immutable for the life of the process.
type Platform struct {
	Name                string            `toml:"name"`                 // Display name, e.g. "Iconik".
	Hostname            string            `toml:"hostname"`             // The hostname requests identify the platform by.
	Resolver            string            `toml:"resolver"`             // Resolver implementation binding, e.g. "iconik".
	AssetURLPattern     string            `toml:"asset_url_pattern"`    // Deep-link template with {asset_id} and {start} placeholders.
	SearchAPIURL        string            `toml:"search_api_url"`       // The platform's own search endpoint used for ID lookups.
	VideoIDField        string            `toml:"video_id_field"`       // Default metadata field holding the provider video ID.
	RequiresCredentials bool              `toml:"requires_credentials"` // Whether lookups need user credentials.
	CredentialFields    []CredentialField `toml:"credential_fields"`    // Descriptors for the credentials the resolver reads.
	SearchBarSelectors  []string          `toml:"search_bar_selectors"` // CSS selectors the extension probes to anchor its panel.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name           string `toml:"name"`             // The service name, used in telemetry resources.
		ThreadPoolSize int    `toml:"thread_pool_size"` // Worker bound for the batch resolution fan-out.
	} `toml:"application"`
	Server         Server              `toml:"server"`
	SearchProvider SearchProvider      `toml:"search_provider"`
	Cache          Cache               `toml:"cache"`
	Telemetry      Telemetry           `toml:"telemetry"`
	Platforms      map[string]Platform `toml:"platforms"` // MAM platforms keyed by a logical name (e.g. "iconik").
}

// NewConfig creates a new, initialized Config instance. The map fields must
// be allocated before the TOML decoder populates them.
func NewConfig() *Config {
	cfg := &Config{
		Platforms: make(map[string]Platform),
	}
	cfg.Application.Name = "mam-search-gateway"
	cfg.Application.ThreadPoolSize = 8
	cfg.Server.Port = 8080
	cfg.SearchProvider.BaseURL = "https://api.twelvelabs.io/v1.3"
	cfg.SearchProvider.PageLimit = 20
	cfg.SearchProvider.SearchScopes = []string{"visual", "audio"}
	cfg.SearchProvider.ImageSearchScopes = []string{"visual"}
	cfg.SearchProvider.RequestsPerMinute = 60
	cfg.SearchProvider.TimeoutInSeconds = 30
	cfg.Cache.Backend = "memory"
	cfg.Cache.TTLMinutes = 30
	return cfg
}
