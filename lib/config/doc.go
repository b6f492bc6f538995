// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the analyzer
// service and CLI.
//
// Configuration comes from a single file named by the
// LOGANALYSER_CONFIG environment variable (via [Load]) or by an
// explicit path (via [LoadFile]). When the variable is unset, Load
// reads /etc/loganalyser/config.yaml; if that file does not exist
// either, the built-in defaults apply, so a bare environment with
// ANTHROPIC_API_KEY set is enough to run the service.
//
// Variable expansion is performed on credential fields after loading:
// ${VAR} and ${VAR:-default} patterns are resolved from the
// environment. No other environment variables override file values.
//
// Key exports:
//
//   - [Config] -- top-level struct with Provider, Suggestions, Logging
//   - [Default] -- returns a Config with the built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- reports every problem at once
package config
