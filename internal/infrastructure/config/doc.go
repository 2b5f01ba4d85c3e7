// Package config loads and validates the bridge configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file,
// then environment variable overrides (KNXBRIDGE_SECTION_KEY). The
// result is validated before use, so a running bridge always has a
// complete, consistent configuration.
package config
