// Package config handles configuration loading and management for reqline.
//
// It provides functionality for:
//   - Loading configuration from .reqline.yaml, reqline.yaml or .reqline.json files
//   - Loading a .env file from the working directory
//   - REQLINE_* environment overrides
//   - Default configuration values
package config
