package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"
)

// Environment variables that override the config file. Flags override these.
const (
	EnvEndpoint        = "CLAIMSENSE_ENDPOINT"
	EnvTimeout         = "CLAIMSENSE_TIMEOUT"
	EnvMaxRetries      = "CLAIMSENSE_MAX_RETRIES"
	EnvReportDir       = "CLAIMSENSE_REPORT_DIR"
	EnvHistory         = "CLAIMSENSE_HISTORY"
	EnvSettingsBackend = "CLAIMSENSE_SETTINGS_BACKEND"
	EnvValkeyAddr      = "CLAIMSENSE_VALKEY_ADDR"
	EnvBridgeAddr      = "CLAIMSENSE_BRIDGE_ADDR"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := gotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays CLAIMSENSE_* environment variables onto p.
// Malformed numeric or boolean values are reported and leave the field as is.
func (p *Preferences) ApplyEnv() error {
	var errs []error

	if v := os.Getenv(EnvEndpoint); v != "" {
		p.Endpoint = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid seconds %q", EnvTimeout, v))
		} else {
			p.TimeoutSeconds = n
		}
	}
	if v := os.Getenv(EnvMaxRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid count %q", EnvMaxRetries, v))
		} else {
			p.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvReportDir); v != "" {
		p.ReportDir = v
	}
	if v := os.Getenv(EnvHistory); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid boolean %q", EnvHistory, v))
		} else {
			p.History = b
		}
	}
	if v := os.Getenv(EnvSettingsBackend); v != "" {
		p.SettingsBackend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvValkeyAddr); v != "" {
		p.ValkeyAddr = v
	}
	if v := os.Getenv(EnvBridgeAddr); v != "" {
		p.BridgeAddr = v
	}

	return errors.Join(errs...)
}

// Validate checks the combined preferences before they are handed to the
// front ends.
func (p *Preferences) Validate() error {
	switch p.SettingsBackend {
	case BackendFile, BackendMemory:
	case BackendValkey:
		if p.ValkeyAddr == "" {
			return fmt.Errorf("settings backend %q requires valkey_addr", BackendValkey)
		}
	default:
		return fmt.Errorf("unknown settings backend %q (want file, valkey or memory)", p.SettingsBackend)
	}
	if p.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	return nil
}
