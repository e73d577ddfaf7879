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

// Package config also implements the hierarchical configuration loader. It
// first reads a base configuration file and then overwrites values with a
// second, environment-specific file (e.g. .env.local.toml, .env.test.toml).
// The environment is selected by an environment variable, which lets the
// same binary run against local, test and production settings without
// rebuilds.
package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Constants for configuration loading: file naming and the environment
// variables that select the config directory and runtime flavor.
const (
	ConfigFileBaseName  = ".env"                 // Base name for configuration files (e.g. ".env.toml").
	ConfigFileExtension = ".toml"                // File extension for configuration files.
	ConfigSeparator     = "."                    // Separator in override file names (e.g. ".env.local.toml").
	EnvConfigFilePrefix = "MAM_GW_CONFIG_PREFIX" // Environment variable naming the config directory.
	EnvConfigRuntime    = "MAM_GW_RUNTIME"       // Environment variable naming the runtime flavor (e.g. "local", "test").
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the base TOML file and then from the
// environment-specific override file, if either exists. Values from the
// override file win. A malformed file is fatal: the process cannot run with
// half-applied configuration.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}
