// Package settings persists the display name and dark mode preference.
//
// Values are stored as strings under the keys "username" and "darkMode" in
// a Repository. Three are provided: the YAML config file (default), a valkey
// server shared between machines, and process memory.
package settings
