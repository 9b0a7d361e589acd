// Package config handles configuration loading for lemon-store.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LEMON_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/lemon/config.yaml
//  3. ~/.config/lemon/config.yaml
//
// When no file exists the CLI falls back to Default, which keeps everything
// under the data directory.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${LEMON_DATA}/lemon.db"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
//	database:
//	  path: "~/.local/share/lemon/lemon.db"   # required
//	  busy_timeout: "5s"                      # wait on a locked database file
//
//	session:
//	  path: "~/.local/share/lemon/session.toml"  # defaults next to the database
//
//	catalog:
//	  path: "./menu.yaml"   # empty = built-in menu
//
//	logging:
//	  level: "warn"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
