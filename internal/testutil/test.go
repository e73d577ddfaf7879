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

// Package test provides utility functions and mock data to support the
// application's test suite. It sets up a consistent test environment, loads
// test-specific configuration, and provides sample provider payloads.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/jaycherian/mam-search-gateway/internal/config"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so configuration files load once per
// test binary.
type StateManager struct {
	config *config.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil. A convenience to reduce
// boilerplate error checking in tests.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestSearchResponseText returns a provider search response covering two
// videos across three clips, the second video ranked between two clips of the
// first. Used to exercise deduplication, resolution, and rank ordering.
//
// Outputs:
//   - A string containing the JSON payload of a provider search response.
func GetTestSearchResponseText() string {
	return `{
  "data": [
    {
      "rank": 1,
      "start": 12.5,
      "end": 18.0,
      "score": 84.9,
      "confidence": "high",
      "video_id": "video-001",
      "thumbnail_url": "https://provider.example/thumbs/video-001-12.jpg",
      "user_metadata": { "filename": "sunrise_harbor.mp4" }
    },
    {
      "rank": 2,
      "start": 3.0,
      "end": 9.5,
      "score": 80.1,
      "confidence": "high",
      "video_id": "video-002",
      "thumbnail_url": "https://provider.example/thumbs/video-002-03.jpg",
      "user_metadata": { "filename": "city_night.mp4" }
    },
    {
      "rank": 3,
      "start": 44.25,
      "end": 51.0,
      "score": 72.3,
      "confidence": "medium",
      "video_id": "video-001",
      "thumbnail_url": "https://provider.example/thumbs/video-001-44.jpg",
      "user_metadata": { "filename": "sunrise_harbor.mp4" }
    }
  ],
  "page_info": {
    "total_results": 3,
    "next_page_token": "token-page-2"
  }
}`
}

// SetupOS configures the environment variables the configuration loader
// depends on, selecting the "test" runtime overlay.
//
// Outputs:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(config.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. Missing
// config files are not an error; defaults then apply, which is what
// package-level tests run against.
//
// Outputs:
//   - A pointer to the loaded and cached config.Config struct.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}
