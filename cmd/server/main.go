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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/mam-search-gateway/internal/config"
	"github.com/jaycherian/mam-search-gateway/internal/core/model"
	"github.com/jaycherian/mam-search-gateway/internal/provider/twelvelabs"
	"github.com/jaycherian/mam-search-gateway/internal/telemetry"
)

// apiKeyHeader carries the caller's provider API key. The gateway holds no
// key of its own in the default deployment; each request brings one.
const apiKeyHeader = "X-API-Key"

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, cfg)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Add OpenTelemetry middleware
	r.Use(otelgin.Middleware(cfg.Application.Name))

	// The extension calls with its per-browser origin, so the allow list is
	// configured rather than hard-coded. An empty list allows everything,
	// which is the right posture for local development.
	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, apiKeyHeader)
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Create the "/api/v1" group
	apiV1 := r.Group("/api/v1")
	{
		SearchRouter(apiV1)
		PlatformRouter(apiV1, cfg)
		EntityRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", cfg.Server.Port)

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// The context informs the server it has 5 seconds to finish the
	// requests it is currently handling.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed", "error", err)
	}

	log.Println("Server exiting")
}

// searchPayload is the request body for the search endpoint: the provider
// query plus the MAM platform to resolve results against, that platform's
// credentials, and an optional override for the metadata field holding the
// provider video ID. Deployments that ingested under a custom field name set
// the override; everyone else gets the platform config's default.
type searchPayload struct {
	model.SearchRequest
	Platform     string            `json:"platform"`
	Credentials  map[string]string `json:"credentials"`
	VideoIDField string            `json:"videoIdField,omitempty"`
}

// SearchRouter sets up the search endpoint.
func SearchRouter(r *gin.RouterGroup) {
	r.POST("/search", func(c *gin.Context) {
		var payload searchPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, model.SearchResponse{Success: false, Error: "invalid request body: " + err.Error()})
			return
		}
		if payload.Query == "" && payload.ImageURL == "" {
			c.JSON(http.StatusBadRequest, model.SearchResponse{Success: false, Error: "a query or an image is required"})
			return
		}
		if payload.IndexID == "" {
			c.JSON(http.StatusBadRequest, model.SearchResponse{Success: false, Error: "indexId is required"})
			return
		}

		videoIDField := payload.VideoIDField
		if videoIDField == "" {
			if platformCfg := state.registry.Config(payload.Platform); platformCfg != nil {
				videoIDField = platformCfg.VideoIDField
			}
		}

		out := state.searchService.HandleSearch(
			c.Request.Context(),
			&payload.SearchRequest,
			payload.Platform,
			c.GetHeader(apiKeyHeader),
			payload.Credentials,
			videoIDField)
		c.JSON(http.StatusOK, out)
	})
}

// platformInfo is the public description of one configured MAM platform. The
// extension uses it to decide which page it is on and which credential fields
// to prompt for. Secrets never appear here.
type platformInfo struct {
	Hostname           string                   `json:"hostname"`
	Name               string                   `json:"name"`
	VideoIDField       string                   `json:"videoIdField"`
	RequiresCredential bool                     `json:"requiresCredentials"`
	CredentialFields   []config.CredentialField `json:"credentialFields"`
	SearchBarSelectors []string                 `json:"searchBarSelectors"`
}

// PlatformRouter sets up the platform discovery endpoint.
func PlatformRouter(r *gin.RouterGroup, cfg *config.Config) {
	r.GET("/platforms", func(c *gin.Context) {
		out := make([]platformInfo, 0, len(cfg.Platforms))
		for _, hostname := range state.registry.Hostnames() {
			platformCfg := state.registry.Config(hostname)
			if platformCfg == nil {
				continue
			}
			out = append(out, platformInfo{
				Hostname:           platformCfg.Hostname,
				Name:               platformCfg.Name,
				VideoIDField:       platformCfg.VideoIDField,
				RequiresCredential: platformCfg.RequiresCredentials,
				CredentialFields:   platformCfg.CredentialFields,
				SearchBarSelectors: platformCfg.SearchBarSelectors,
			})
		}
		c.JSON(http.StatusOK, out)
	})
}

// EntityRouter sets up the entity collection, entity, and asset endpoints
// that back entity-aware search.
func EntityRouter(r *gin.RouterGroup) {
	collections := r.Group("/entity-collections")
	{
		collections.GET("", func(c *gin.Context) {
			out, err := state.entityService.ListCollections(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		collections.POST("", func(c *gin.Context) {
			var payload struct {
				Name string `json:"name"`
			}
			if err := c.ShouldBindJSON(&payload); err != nil || payload.Name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "a collection name is required"})
				return
			}
			out, err := state.entityService.CreateCollection(c.Request.Context(), payload.Name)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, out)
		})

		collections.GET("/:id/entities", func(c *gin.Context) {
			out, err := state.entityService.ListEntities(c.Request.Context(), c.Param("id"), c.Query("name"))
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		collections.POST("/:id/entities", func(c *gin.Context) {
			var payload struct {
				Name     string   `json:"name"`
				AssetIDs []string `json:"assetIds"`
			}
			if err := c.ShouldBindJSON(&payload); err != nil || payload.Name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "an entity name is required"})
				return
			}
			out, err := state.entityService.CreateEntity(c.Request.Context(), c.Param("id"), payload.Name, payload.AssetIDs)
			if err != nil {
				if errors.Is(err, twelvelabs.ErrDuplicateEntity) {
					c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, out)
		})

		collections.DELETE("/:id/entities/:entityId", func(c *gin.Context) {
			if err := state.entityService.DeleteEntity(c.Request.Context(), c.Param("id"), c.Param("entityId")); err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})
	}

	// Assets are uploaded either as a multipart file or by public URL, then
	// referenced by ID when creating entities.
	r.POST("/assets", func(c *gin.Context) {
		if file, err := c.FormFile("file"); err == nil {
			f, err := file.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload: " + err.Error()})
				return
			}
			defer func() { _ = f.Close() }()
			payload, err := io.ReadAll(f)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload: " + err.Error()})
				return
			}
			out, err := state.entityService.UploadAssetFile(c.Request.Context(), file.Filename, payload)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, out)
			return
		}

		var payload struct {
			URL string `json:"url"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil || payload.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a file or a url is required"})
			return
		}
		out, err := state.entityService.UploadAssetFromURL(c.Request.Context(), payload.URL)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, out)
	})
}
