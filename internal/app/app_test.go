package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/history"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/report"
	"github.com/claimsense/claimsense/internal/settings"
)

func newTestApp(t *testing.T, handler http.HandlerFunc) (*App, *Recorder, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	view := &Recorder{}
	a := New(Options{
		Analyzer: analysis.NewClientWithURL(server.URL + "/Predict_Sentiment"),
		Exporter: report.NewExporter(dir),
		Settings: settings.NewStore(settings.NewMemoryRepository()),
		View:     view,
	})
	return a, view, dir
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestSubmitAnalysis_EmptyResponse(t *testing.T) {
	a, view, _ := newTestApp(t, jsonHandler(`{}`))

	result, err := a.SubmitAnalysis(context.Background(), "")
	if err != nil {
		t.Fatalf("SubmitAnalysis() error = %v", err)
	}
	if result.SentimentLine() != "Sentiment: N/A" || result.ConfidenceLine() != "Confidence: 0.00" {
		t.Errorf("result = %q / %q", result.SentimentLine(), result.ConfidenceLine())
	}
	if len(result.Entities) != 0 {
		t.Errorf("Entities = %v, want empty", result.Entities)
	}

	last := a.LastResult()
	if last == nil || last.Sentiment != "N/A" {
		t.Errorf("LastResult() = %+v, want the normalized result", last)
	}
	if n := len(view.Notifications()); n != 0 {
		t.Errorf("got %d notifications, want 0", n)
	}
	events := view.Events()
	if len(events) != 1 || events[0].Result == nil {
		t.Errorf("events = %+v, want one ShowResult", events)
	}
}

func TestSubmitAnalysis_APIErrorLeavesStateUntouched(t *testing.T) {
	fail := false
	var mu sync.Mutex
	a, view, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"Sentiment_Prediction":"Reliable","Sentiment_Score":0.4}`))
	})

	if _, err := a.SubmitAnalysis(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	view.Drain()

	mu.Lock()
	fail = true
	mu.Unlock()

	_, err := a.SubmitAnalysis(context.Background(), "second")
	if !analysis.IsAPIError(err) {
		t.Fatalf("SubmitAnalysis() error = %v, want API error", err)
	}

	events := view.Events()
	if len(events) != 1 || events[0].Notification == nil {
		t.Fatalf("events = %+v, want exactly one notification", events)
	}
	n := events[0].Notification
	if n.Level != LevelError {
		t.Errorf("Level = %v, want error", n.Level)
	}
	if n.Message != "Error during analysis: API error: 500 Internal Server Error" {
		t.Errorf("Message = %q", n.Message)
	}
	if last := a.LastResult(); last == nil || last.Text != "first" || last.Sentiment != "Reliable" {
		t.Errorf("LastResult() = %+v, want the previous result", last)
	}
}

func TestExportReport_WithoutResult(t *testing.T) {
	a, view, dir := newTestApp(t, jsonHandler(`{}`))

	_, err := a.ExportReport()
	if !errors.Is(err, report.ErrNoAnalysisAvailable) {
		t.Errorf("ExportReport() error = %v, want ErrNoAnalysisAvailable", err)
	}

	notes := view.Notifications()
	if len(notes) != 1 || notes[0].Message != MsgNoAnalysis || notes[0].Level != LevelError {
		t.Errorf("notifications = %+v", notes)
	}
	if files, _ := os.ReadDir(dir); len(files) != 0 {
		t.Errorf("ExportReport() wrote %d files", len(files))
	}
}

func TestExportReport_FortyEntities(t *testing.T) {
	var ents []string
	for i := 0; i < 40; i++ {
		ents = append(ents, fmt.Sprintf(`{"label":"DISEASE","text":"d%02d"}`, i))
	}
	body := `{"Sentiment_Prediction":"Misleading","Sentiment_Score":0.9,"NER_Results":[` + strings.Join(ents, ",") + `]}`
	a, view, dir := newTestApp(t, jsonHandler(body))

	if _, err := a.SubmitAnalysis(context.Background(), "claim"); err != nil {
		t.Fatal(err)
	}
	view.Drain()

	path, err := a.ExportReport()
	if err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}
	if path != filepath.Join(dir, "medical_report.pdf") {
		t.Errorf("path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}

	notes := view.Notifications()
	if len(notes) != 1 || notes[0].Level != LevelInfo || !strings.Contains(notes[0].Message, "medical_report.pdf") {
		t.Errorf("notifications = %+v", notes)
	}

	if pages := report.NewExporter(dir).Pages(a.LastResult()); pages < 2 {
		t.Errorf("report pages = %d, want more than 1", pages)
	}
}

func TestNavigate(t *testing.T) {
	a, view, _ := newTestApp(t, jsonHandler(`{}`))

	if a.Navigation().Active() != SectionDashboard {
		t.Fatal("initial section should be the Dashboard")
	}

	a.Navigate(SectionReports)
	a.Navigate(SectionSettings)

	events := view.Events()
	if len(events) != 2 || events[1].Navigation == nil {
		t.Fatalf("events = %+v", events)
	}
	if got := events[1].Navigation.Active(); got != SectionSettings {
		t.Errorf("shown section = %v, want settings", got)
	}
}

func TestSettingsHandlers(t *testing.T) {
	a, view, _ := newTestApp(t, jsonHandler(`{}`))
	ctx := context.Background()

	loaded, err := a.LoadSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Username != settings.FallbackUsername {
		t.Errorf("initial username = %q", loaded.Username)
	}
	view.Drain()

	saved, err := a.SaveSettings(ctx, "  Dana ", true)
	if err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	if saved.Username != "Dana" || !saved.DarkMode {
		t.Errorf("saved = %+v", saved)
	}

	events := view.Events()
	if len(events) != 2 || events[0].Settings == nil || events[1].Notification == nil {
		t.Fatalf("events = %+v, want ShowSettings then Notify", events)
	}
	if events[1].Notification.Message != MsgSettingsSaved {
		t.Errorf("notification = %q", events[1].Notification.Message)
	}

	reloaded, _ := a.LoadSettings(ctx)
	if reloaded != saved {
		t.Errorf("LoadSettings() = %+v, want %+v", reloaded, saved)
	}
}

type brokenRepo struct{}

func (brokenRepo) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection reset")
}
func (brokenRepo) Set(context.Context, string, string) error { return errors.New("read-only") }

func TestSettingsHandlers_Failures(t *testing.T) {
	view := &Recorder{}
	a := New(Options{Settings: settings.NewStore(brokenRepo{}), View: view})

	if _, err := a.LoadSettings(context.Background()); err == nil {
		t.Error("LoadSettings() should fail")
	}
	if _, err := a.SaveSettings(context.Background(), "x", false); err == nil {
		t.Error("SaveSettings() should fail")
	}

	events := view.Events()
	if len(events) != 2 {
		t.Fatalf("events = %+v, want two notifications", events)
	}
	for _, e := range events {
		if e.Notification == nil || e.Notification.Level != LevelError {
			t.Errorf("event = %+v, want error notification", e)
		}
	}
}

type failingHistory struct{ calls int }

func (f *failingHistory) Add(context.Context, analysis.Result) (history.Entry, error) {
	f.calls++
	return history.Entry{}, errors.New("database is locked")
}

func TestSubmitAnalysis_HistoryFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	server := httptest.NewServer(jsonHandler(`{"Sentiment_Prediction":"Reliable"}`))
	defer server.Close()

	hist := &failingHistory{}
	view := &Recorder{}
	a := New(Options{
		Analyzer: analysis.NewClientWithURL(server.URL),
		History:  hist,
		View:     view,
	})

	if _, err := a.SubmitAnalysis(context.Background(), "claim"); err != nil {
		t.Fatalf("SubmitAnalysis() error = %v", err)
	}
	if hist.calls != 1 {
		t.Errorf("history calls = %d, want 1", hist.calls)
	}
	if n := len(view.Notifications()); n != 0 {
		t.Errorf("history failure surfaced %d notifications", n)
	}
	if logs.FilterMessage("Failed to record analysis in history").Len() != 1 {
		t.Error("history failure should be logged once")
	}
}

func TestSubmitAnalysis_RecordsHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	server := httptest.NewServer(jsonHandler(`{"Sentiment_Prediction":"Reliable"}`))
	defer server.Close()

	a := New(Options{Analyzer: analysis.NewClientWithURL(server.URL), History: store, View: &Recorder{}})
	if _, err := a.SubmitAnalysis(context.Background(), "kept"); err != nil {
		t.Fatal(err)
	}

	latest, err := store.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.Result.Text != "kept" {
		t.Errorf("recorded text = %q", latest.Result.Text)
	}
}

func TestRestore(t *testing.T) {
	view := &Recorder{}
	a := New(Options{View: view})

	a.Restore(analysis.Result{Text: "old", Sentiment: "Reliable"})
	if last := a.LastResult(); last == nil || last.Text != "old" {
		t.Errorf("LastResult() = %+v", last)
	}
	if events := view.Events(); len(events) != 1 || events[0].Result == nil {
		t.Errorf("events = %+v", events)
	}
}

func TestConcurrentSubmissions(t *testing.T) {
	a, _, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = a.SubmitAnalysis(context.Background(), fmt.Sprintf("claim %d", i))
		}(i)
	}
	wg.Wait()

	last := a.LastResult()
	if last == nil || !strings.HasPrefix(last.Text, "claim ") {
		t.Errorf("LastResult() = %+v, want one of the submissions", last)
	}
}
