package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/config"
	"github.com/claimsense/claimsense/internal/history"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/report"
	"github.com/claimsense/claimsense/internal/settings"
)

// retryDelay is the first backoff step when max_retries is set
const retryDelay = time.Second

// environment is everything a command needs, built from
// defaults < config file < .env < CLAIMSENSE_* < flags.
type environment struct {
	registry *config.Registry
	prefs    *config.Preferences
	client   *analysis.Client
	exporter *report.Exporter
	settings *settings.Store
	history  *history.Store // nil when disabled or unavailable

	closers []func()
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	registry, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	prefs := registry.Preferences
	if err := prefs.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	applyFlags(cmd, prefs)
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	env := &environment{registry: registry, prefs: prefs}

	env.client = analysis.NewClientWithURL(prefs.Endpoint)
	env.client.SetTimeout(prefs.Timeout())
	env.client.SetRetry(prefs.MaxRetries, retryDelay)

	env.exporter = report.NewExporter(prefs.ReportDir)
	env.exporter.FileName = prefs.ReportFile

	repo, closeRepo, err := settings.Open(prefs.SettingsBackend, registry, prefs.ValkeyAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s settings backend: %w", prefs.SettingsBackend, err)
	}
	env.closers = append(env.closers, closeRepo)
	env.settings = settings.NewStore(repo)

	if prefs.History {
		env.history = openHistory()
		if env.history != nil {
			h := env.history
			env.closers = append(env.closers, func() { _ = h.Close() })
		}
	}

	logging.Debug("Environment loaded",
		zap.String("endpoint", prefs.Endpoint),
		zap.String("settings_backend", prefs.SettingsBackend),
		zap.Bool("history", env.history != nil),
	)
	return env, nil
}

func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadRegistryFrom(configPath)
	}
	return config.LoadRegistry()
}

// applyFlags overlays explicitly set global flags onto prefs
func applyFlags(cmd *cobra.Command, prefs *config.Preferences) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		prefs.Endpoint = endpointFlag
	}
	if flags.Changed("settings-backend") {
		prefs.SettingsBackend = settingsBackend
	}
	if flags.Changed("no-history") && noHistory {
		prefs.History = false
	}
}

// openHistory opens the history database. History is optional, so a
// failure only disables it.
func openHistory() *history.Store {
	path, err := config.GetHistoryPath()
	if err == nil {
		err = config.EnsureConfigDir()
	}
	if err != nil {
		logging.Warn("History disabled", zap.Error(err))
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		logging.Warn("History disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return store
}

// newApp wires the handlers to view
func (e *environment) newApp(view app.View) *app.App {
	opts := app.Options{
		Analyzer: e.client,
		Exporter: e.exporter,
		Settings: e.settings,
		View:     view,
	}
	if e.history != nil {
		opts.History = e.history
	}
	return app.New(opts)
}

func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}
