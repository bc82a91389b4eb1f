package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/history"
	"github.com/claimsense/claimsense/internal/settings"
)

type stubAnalyzer struct {
	result *analysis.Result
	err    error
}

func (s stubAnalyzer) Analyze(_ context.Context, text string) (*analysis.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	r.Text = text
	return &r, nil
}

type stubExporter struct{}

func (stubExporter) Export(*analysis.Result) (string, error) {
	return "/tmp/medical_report.pdf", nil
}

type stubHistory struct {
	entries []history.Entry
}

func (s stubHistory) List(_ context.Context, limit int) ([]history.Entry, error) {
	if limit < len(s.entries) {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func newTestModel(t *testing.T, analyzer app.Analyzer, hist HistoryLister) (Model, *EventView) {
	t.Helper()
	events := NewEventView()
	a := app.New(app.Options{
		Analyzer: analyzer,
		Exporter: stubExporter{},
		Settings: settings.NewStore(settings.NewMemoryRepository()),
		View:     events,
	})
	m := NewModel(Config{
		App:     a,
		Events:  events,
		History: hist,
	})
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, events
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// flush feeds every queued view call into the model
func flush(m Model, events *EventView) Model {
	for _, msg := range events.Pending() {
		m, _ = update(m, msg)
	}
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavigationKeys(t *testing.T) {
	m, events := newTestModel(t, stubAnalyzer{}, nil)

	// Digits type into the focused claim input
	m, _ = update(m, keyRunes("2"))
	if m.Nav.Active() != app.SectionDashboard {
		t.Fatalf("active = %v, want dashboard while editing", m.Nav.Active())
	}
	if m.claim.Value() != "2" {
		t.Errorf("claim = %q, want %q", m.claim.Value(), "2")
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(m, keyRunes("3"))
	if m.Nav.Active() != app.SectionSettings {
		t.Errorf("active = %v, want settings", m.Nav.Active())
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Nav.Active() != app.SectionDashboard {
		t.Errorf("tab from settings = %v, want dashboard", m.Nav.Active())
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = flush(m, events)
	if m.Nav.Active() != app.SectionSettings {
		t.Errorf("shift+tab from dashboard = %v, want settings", m.Nav.Active())
	}

	controls := m.Nav.Controls()
	active := 0
	for _, c := range controls {
		if c.Active {
			active++
		}
	}
	if active != 1 {
		t.Errorf("%d active controls, want 1", active)
	}
}

func TestSubmitShowsResult(t *testing.T) {
	m, events := newTestModel(t, stubAnalyzer{result: &analysis.Result{
		Sentiment:  "Reliable",
		Confidence: 0.91,
		Entities:   []string{"DRUG: Aspirin"},
	}}, nil)

	m, _ = update(m, keyRunes("Aspirin lowers fever"))
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.Analyzing || cmd == nil {
		t.Fatal("ctrl+s did not start an analysis")
	}

	// A second submit while one is in flight is ignored
	if _, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Error("second submit returned a command")
	}

	m, _ = update(m, m.submit(m.claim.Value())())
	m = flush(m, events)

	if m.Analyzing {
		t.Error("still analyzing after completion")
	}
	if m.Result == nil || m.Result.Text != "Aspirin lowers fever" {
		t.Fatalf("Result = %+v", m.Result)
	}

	view := m.View()
	for _, want := range []string{"Sentiment: Reliable", "Confidence: 0.91", "DRUG: Aspirin"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNotificationBlocksKeys(t *testing.T) {
	m, events := newTestModel(t, stubAnalyzer{err: errors.New("connection refused")}, nil)

	m, _ = update(m, m.submit("claim")())
	m = flush(m, events)

	if m.Notification == nil || m.Notification.Level != app.LevelError {
		t.Fatalf("Notification = %+v, want an error", m.Notification)
	}
	if !strings.HasPrefix(m.Notification.Message, app.MsgAnalysisFailedPrefix) {
		t.Errorf("message = %q", m.Notification.Message)
	}
	if m.Result != nil {
		t.Error("failed analysis set a result")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("modal not rendered")
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Nav.Active() != app.SectionDashboard {
		t.Error("tab navigated while the notification was shown")
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Notification != nil {
		t.Error("enter did not dismiss the notification")
	}
}

func TestExportWithoutResult(t *testing.T) {
	m, events := newTestModel(t, stubAnalyzer{}, nil)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := update(m, keyRunes("p"))
	if !m.Exporting || cmd == nil {
		t.Fatal("p did not start an export")
	}

	m, _ = update(m, m.export()())
	m = flush(m, events)

	if m.Exporting {
		t.Error("still exporting")
	}
	if m.Notification == nil || m.Notification.Message != app.MsgNoAnalysis {
		t.Errorf("Notification = %+v, want %q", m.Notification, app.MsgNoAnalysis)
	}
	if m.Result != nil {
		t.Errorf("Result = %+v, want nil", m.Result)
	}
}

func TestSaveSettingsSwitchesPalette(t *testing.T) {
	m, events := newTestModel(t, stubAnalyzer{}, nil)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(m, keyRunes("3"))
	m, _ = update(m, keyRunes("d"))
	if !m.DarkDraft {
		t.Fatal("d did not toggle dark mode")
	}
	if m.styles.Palette != LightPalette {
		t.Error("palette changed before saving")
	}

	m, _ = update(m, m.saveSettings("   ", m.DarkDraft)())
	m = flush(m, events)

	if m.Settings.Username != settings.FallbackUsername || !m.Settings.DarkMode {
		t.Errorf("Settings = %+v", m.Settings)
	}
	if m.styles.Palette != DarkPalette {
		t.Error("palette not switched after save")
	}
	if m.Notification == nil || m.Notification.Message != app.MsgSettingsSaved {
		t.Errorf("Notification = %+v", m.Notification)
	}
}

func TestInitLoadsPersistedSettings(t *testing.T) {
	store := settings.NewStore(settings.NewMemoryRepository())
	if _, err := store.Save(context.Background(), "zoe", true); err != nil {
		t.Fatal(err)
	}

	events := NewEventView()
	a := app.New(app.Options{
		Analyzer: stubAnalyzer{},
		Exporter: stubExporter{},
		Settings: store,
		View:     events,
	})
	m := NewModel(Config{App: a, Events: events})
	if m.Settings.Username != settings.FallbackUsername || m.styles.Palette != LightPalette {
		t.Fatalf("initial Settings = %+v, want defaults before loading", m.Settings)
	}

	m, _ = update(m, m.loadSettings()())
	m = flush(m, events)

	if m.Settings.Username != "zoe" || !m.Settings.DarkMode {
		t.Errorf("Settings = %+v, want zoe with dark mode", m.Settings)
	}
	if m.username.Value() != "zoe" || !m.DarkDraft {
		t.Errorf("settings form = %q dark=%v, want the loaded values", m.username.Value(), m.DarkDraft)
	}
	if m.styles.Palette != DarkPalette {
		t.Error("dark palette not applied after loading")
	}
	if m.Notification != nil {
		t.Errorf("Notification = %+v, want none for a successful load", m.Notification)
	}
}

func TestHistoryRestore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hist := stubHistory{entries: []history.Entry{
		{ID: uuid.New(), CreatedAt: now, Result: analysis.Result{Text: "newest", Sentiment: "Reliable"}},
		{ID: uuid.New(), CreatedAt: now.Add(-time.Hour), Result: analysis.Result{Text: "older", Sentiment: "Misleading"}},
	}}
	m, events := newTestModel(t, stubAnalyzer{}, hist)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyTab})
	if cmd == nil {
		t.Fatal("entering reports did not load history")
	}
	m, _ = update(m, cmd())
	if len(m.Entries) != 2 {
		t.Fatalf("Entries = %d, want 2", len(m.Entries))
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1", m.Cursor)
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = flush(m, events)
	if m.Result == nil || m.Result.Text != "older" {
		t.Fatalf("Result = %+v, want the older entry", m.Result)
	}
	if !strings.Contains(m.View(), "older") {
		t.Error("history entry missing from view")
	}
}
