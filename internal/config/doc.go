// Package config provides user configuration management for claimsense.
//
// This package manages a YAML-based configuration file that stores
// preferences for the prediction client (endpoint, timeouts, report location,
// settings backend) and the values saved from the Settings panel. The
// configuration follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/claimsense/config.yaml or $HOME/.config/claimsense/config.yaml
//   - macOS: $HOME/.config/claimsense/config.yaml
//   - Windows: %LOCALAPPDATA%\claimsense\config.yaml
//
// The analysis history database (history.db) lives next to it.
//
// # Precedence
//
// Values are resolved in this order, later wins:
//
//  1. built-in defaults
//  2. config.yaml
//  3. .env file (loaded with gotenv, never overriding real variables)
//  4. CLAIMSENSE_* environment variables
//  5. command line flags
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = config.LoadDotEnv()
//	if err := registry.Preferences.ApplyEnv(); err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetSetting("username", "Dana")
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes, and the
// Settings map is guarded so the websocket bridge and the TUI can share one
// registry.
package config
