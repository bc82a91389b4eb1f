package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/history"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/report"
	"github.com/claimsense/claimsense/internal/settings"
)

// User-facing messages.
const (
	MsgAnalysisFailedPrefix = "Error during analysis: "
	MsgNoAnalysis           = "Please analyze a medical claim first."
	MsgSettingsSaved        = "Settings saved!"
)

// Analyzer submits claim text for prediction.
type Analyzer interface {
	Analyze(ctx context.Context, claimText string) (*analysis.Result, error)
}

// Exporter writes a report for a result and returns where it went.
type Exporter interface {
	Export(result *analysis.Result) (string, error)
}

// HistoryRecorder records successful analyses.
type HistoryRecorder interface {
	Add(ctx context.Context, result analysis.Result) (history.Entry, error)
}

// Options wires an App. History may be nil.
type Options struct {
	Analyzer Analyzer
	Exporter Exporter
	Settings *settings.Store
	History  HistoryRecorder
	View     View
}

// App owns the shell state: navigation, the last analysis and the
// collaborators every handler needs.
//
// Handlers report failures through exactly one error Notification and
// leave all state untouched. The returned error is for callers that need
// an exit status; front ends can ignore it.
type App struct {
	analyzer Analyzer
	exporter Exporter
	settings *settings.Store
	history  HistoryRecorder
	view     View

	mu   sync.Mutex
	nav  Navigation
	last *analysis.Result
}

// New creates an App showing the Dashboard with no result.
func New(opts Options) *App {
	return &App{
		analyzer: opts.Analyzer,
		exporter: opts.Exporter,
		settings: opts.Settings,
		history:  opts.History,
		view:     opts.View,
		nav:      NewNavigation(),
	}
}

// Navigation returns the current navigation state.
func (a *App) Navigation() Navigation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav
}

// LastResult returns a copy of the most recent result, or nil.
func (a *App) LastResult() *analysis.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}
	r := *a.last
	r.Entities = append([]string(nil), a.last.Entities...)
	return &r
}

// Navigate shows section.
func (a *App) Navigate(section Section) {
	a.mu.Lock()
	a.nav.Activate(section)
	nav := a.nav
	a.mu.Unlock()

	logging.Debug("Navigated", zap.Stringer("section", nav.Active()))
	a.view.ShowNavigation(nav)
}

// SubmitAnalysis sends text to the prediction service. On success the
// result replaces the last one, is shown, and is recorded in history.
// Concurrent submissions each overwrite the slot when they complete.
func (a *App) SubmitAnalysis(ctx context.Context, text string) (*analysis.Result, error) {
	result, err := a.analyzer.Analyze(ctx, text)
	if err != nil {
		logging.Warn("Analysis failed", zap.Error(err))
		a.notifyError(MsgAnalysisFailedPrefix + err.Error())
		return nil, err
	}

	a.mu.Lock()
	a.last = result
	a.mu.Unlock()

	a.view.ShowResult(*result)

	if a.history != nil {
		if _, err := a.history.Add(ctx, *result); err != nil {
			logging.Warn("Failed to record analysis in history", zap.Error(err))
		}
	}

	return result, nil
}

// Restore makes result the last result, as if it had just been analyzed.
// It is used to reopen history entries and is not recorded again.
func (a *App) Restore(result analysis.Result) {
	a.mu.Lock()
	a.last = &result
	a.mu.Unlock()
	a.view.ShowResult(result)
}

// ExportReport writes the report for the last result.
func (a *App) ExportReport() (string, error) {
	last := a.LastResult()
	if last == nil {
		a.notifyError(MsgNoAnalysis)
		return "", report.ErrNoAnalysisAvailable
	}

	path, err := a.exporter.Export(last)
	if err != nil {
		logging.Error("Report export failed", zap.Error(err))
		a.notifyError("Error generating report: " + err.Error())
		return "", err
	}

	a.view.Notify(Notification{Level: LevelInfo, Message: "Report saved to " + path})
	return path, nil
}

// LoadSettings reads the persisted settings and shows them.
func (a *App) LoadSettings(ctx context.Context) (settings.Settings, error) {
	s, err := a.settings.Load(ctx)
	if err != nil {
		logging.Warn("Failed to load settings", zap.Error(err))
		a.notifyError("Error loading settings: " + err.Error())
		return settings.Settings{}, err
	}
	a.view.ShowSettings(s)
	return s, nil
}

// SaveSettings persists the display name and theme.
func (a *App) SaveSettings(ctx context.Context, username string, darkMode bool) (settings.Settings, error) {
	s, err := a.settings.Save(ctx, username, darkMode)
	if err != nil {
		logging.Error("Failed to save settings", zap.Error(err))
		a.notifyError("Error saving settings: " + err.Error())
		return settings.Settings{}, err
	}
	a.view.ShowSettings(s)
	a.view.Notify(Notification{Level: LevelInfo, Message: MsgSettingsSaved})
	return s, nil
}

func (a *App) notifyError(msg string) {
	a.view.Notify(Notification{Level: LevelError, Message: msg})
}
