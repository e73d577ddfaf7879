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

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jaycherian/mam-search-gateway/internal/config"
	"github.com/jaycherian/mam-search-gateway/internal/core/cache"
	"github.com/jaycherian/mam-search-gateway/internal/core/services"
	"github.com/jaycherian/mam-search-gateway/internal/core/workflow"
	"github.com/jaycherian/mam-search-gateway/internal/platform"
	"github.com/jaycherian/mam-search-gateway/internal/platform/iconik"
	"github.com/jaycherian/mam-search-gateway/internal/provider/twelvelabs"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config        *config.Config
	cacheStore    cache.Store
	registry      *platform.Registry
	searchClient  *twelvelabs.QuotaAwareSearchClient
	searchService *services.SearchService
	entityService *services.EntityService
}

var state = &StateManager{}

// SetupOS points the config loader at the configs directory with the "local"
// runtime overlay unless the environment already says otherwise.
func SetupOS() (err error) {
	if os.Getenv(config.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(config.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(config.EnvConfigRuntime) == "" {
		err = os.Setenv(config.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the application configuration once and caches it on the
// state manager.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup env: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}

// InitState initializes the application state and dependencies: the cache
// store, the platform registry with its resolvers, the quota-aware provider
// client, and the services the HTTP layer calls into.
func InitState(ctx context.Context) {
	cfg := GetConfig()

	state.cacheStore = newCacheStore(ctx, cfg)
	state.registry = newRegistry(cfg)

	providerClient := twelvelabs.NewClient(
		cfg.SearchProvider.BaseURL,
		cfg.SearchProvider.APIKey,
		time.Duration(cfg.SearchProvider.TimeoutInSeconds)*time.Second)
	state.searchClient = twelvelabs.NewQuotaAwareSearchClient(providerClient, cfg.SearchProvider.RequestsPerMinute)

	searchWorkflow := workflow.NewSearchWorkflow(
		cfg.SearchProvider,
		state.searchClient,
		state.cacheStore,
		state.registry)
	state.searchService = services.NewSearchService(searchWorkflow)
	state.entityService = services.NewEntityService(providerClient)
}

// newCacheStore builds the asset cache backend named in the config. Redis is
// opt-in; the default is the in-process store.
func newCacheStore(ctx context.Context, cfg *config.Config) cache.Store {
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	if cfg.Cache.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis at %s: %v\n", cfg.Cache.RedisAddr, err)
		}
		return cache.NewRedisStore(client, ttl, cfg.Cache.KeyPrefix)
	}
	return cache.NewMemoryStore(ttl, cfg.Cache.MaxEntries)
}

// newRegistry registers every configured MAM platform, attaching a resolver
// implementation where one is named. Platforms without a resolver still serve
// provider-only results.
func newRegistry(cfg *config.Config) *platform.Registry {
	registry := platform.NewRegistry()
	for key := range cfg.Platforms {
		platformCfg := cfg.Platforms[key]
		var resolver platform.Resolver
		switch platformCfg.Resolver {
		case "iconik":
			resolver = iconik.NewResolver(&platformCfg, nil, cfg.Application.ThreadPoolSize)
		case "":
			// Provider-only platform, nothing to resolve against.
		default:
			log.Fatalf("unknown resolver %q for platform %q\n", platformCfg.Resolver, key)
		}
		registry.Register(&platformCfg, resolver)
	}
	return registry
}
