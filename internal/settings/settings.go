package settings

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/logging"
)

// Keys used in every backend.
const (
	KeyUsername = "username"
	KeyDarkMode = "darkMode"
)

// FallbackUsername is shown when no name has been saved.
const FallbackUsername = "Analyst"

// Repository is a string key/value store the settings live in.
type Repository interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Settings is the resolved user preference pair.
type Settings struct {
	Username string `json:"username"`
	DarkMode bool   `json:"darkMode"`
}

// Avatar returns the upper-cased first character of the username.
func (s Settings) Avatar() string {
	r, _ := utf8.DecodeRuneInString(s.Username)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// Store loads and saves Settings through a Repository.
type Store struct {
	repo Repository
}

// NewStore creates a store backed by repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Load reads the persisted settings. A missing or blank username resolves
// to FallbackUsername; dark mode is on only when stored as exactly "true".
func (s *Store) Load(ctx context.Context) (Settings, error) {
	name, ok, err := s.repo.Get(ctx, KeyUsername)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read %s: %w", KeyUsername, err)
	}
	if !ok || strings.TrimSpace(name) == "" {
		name = FallbackUsername
	}

	dark, ok, err := s.repo.Get(ctx, KeyDarkMode)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read %s: %w", KeyDarkMode, err)
	}

	return Settings{Username: name, DarkMode: ok && dark == "true"}, nil
}

// Save trims rawUsername, substitutes FallbackUsername when it is blank and
// persists both keys. The returned Settings are what was written.
func (s *Store) Save(ctx context.Context, rawUsername string, darkMode bool) (Settings, error) {
	name := strings.TrimSpace(rawUsername)
	if name == "" {
		name = FallbackUsername
	}

	if err := s.repo.Set(ctx, KeyUsername, name); err != nil {
		return Settings{}, fmt.Errorf("failed to save %s: %w", KeyUsername, err)
	}

	dark := "false"
	if darkMode {
		dark = "true"
	}
	if err := s.repo.Set(ctx, KeyDarkMode, dark); err != nil {
		return Settings{}, fmt.Errorf("failed to save %s: %w", KeyDarkMode, err)
	}

	logging.Info("Settings saved", zap.String("username", name), zap.Bool("dark_mode", darkMode))
	return Settings{Username: name, DarkMode: darkMode}, nil
}
