package config

import (
	"sync"
	"time"
)

const (
	// CurrentVersion is the config file schema version
	CurrentVersion = 1

	// DefaultEndpoint is the prediction service shipped with the backend
	DefaultEndpoint = "http://127.0.0.1:5000/Predict_Sentiment"

	// DefaultReportFile is the file name every export is written to
	DefaultReportFile = "medical_report.pdf"

	// DefaultDiscoverTimeout is the mDNS scan duration in seconds
	DefaultDiscoverTimeout = 5

	// Settings backends
	BackendFile   = "file"
	BackendValkey = "valkey"
	BackendMemory = "memory"
)

// Registry represents the entire user configuration file.
// It stores application preferences and the key/value settings written by
// the settings panel.
type Registry struct {
	Version     int               `yaml:"version"`
	Preferences *Preferences      `yaml:"preferences,omitempty"`
	Settings    map[string]string `yaml:"settings,omitempty"` // username, darkMode

	path string       // where Save writes; empty means GetConfigPath()
	mu   sync.RWMutex // guards Settings
}

// Preferences represents application-wide preferences.
type Preferences struct {
	Endpoint        string `yaml:"endpoint"`              // Prediction service URL
	TimeoutSeconds  int    `yaml:"timeout_seconds"`       // 0 waits for the transport
	MaxRetries      int    `yaml:"max_retries"`           // 0 never retries
	ReportDir       string `yaml:"report_dir,omitempty"`  // Empty means the working directory
	ReportFile      string `yaml:"report_file,omitempty"` // Defaults to medical_report.pdf
	History         bool   `yaml:"history"`               // Record every analysis in history.db
	SettingsBackend string `yaml:"settings_backend"`      // file, valkey or memory
	ValkeyAddr      string `yaml:"valkey_addr,omitempty"` // host:port for the valkey backend
	DiscoverTimeout int    `yaml:"discover_timeout"`      // mDNS scan timeout in seconds
	BridgeAddr      string `yaml:"bridge_addr,omitempty"` // Listen address for `serve`
}

// NewPreferences returns preferences populated with defaults.
func NewPreferences() *Preferences {
	return &Preferences{
		Endpoint:        DefaultEndpoint,
		ReportFile:      DefaultReportFile,
		History:         true,
		SettingsBackend: BackendFile,
		DiscoverTimeout: DefaultDiscoverTimeout,
		BridgeAddr:      "127.0.0.1:8765",
	}
}

// Timeout returns the request timeout as a duration
func (p *Preferences) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// fillDefaults replaces zero values left by an older or hand-edited file.
func (p *Preferences) fillDefaults() {
	if p.Endpoint == "" {
		p.Endpoint = DefaultEndpoint
	}
	if p.ReportFile == "" {
		p.ReportFile = DefaultReportFile
	}
	if p.SettingsBackend == "" {
		p.SettingsBackend = BackendFile
	}
	if p.DiscoverTimeout <= 0 {
		p.DiscoverTimeout = DefaultDiscoverTimeout
	}
	if p.BridgeAddr == "" {
		p.BridgeAddr = "127.0.0.1:8765"
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Preferences: NewPreferences(),
		Settings:    make(map[string]string),
	}
}

// GetSetting returns the stored value for key and whether it was present.
func (r *Registry) GetSetting(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.Settings[key]
	return value, ok
}

// SetSetting stores value under key in memory. Call Save to persist.
func (r *Registry) SetSetting(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Settings == nil {
		r.Settings = make(map[string]string)
	}
	r.Settings[key] = value
}

// Path returns the file this registry was loaded from (or will be saved to).
func (r *Registry) Path() (string, error) {
	if r.path != "" {
		return r.path, nil
	}
	return GetConfigPath()
}
