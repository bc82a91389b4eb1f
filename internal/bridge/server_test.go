package bridge

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/report"
	"github.com/claimsense/claimsense/internal/settings"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, text string) (*analysis.Result, error) {
	return &analysis.Result{
		Text:       text,
		Sentiment:  "Reliable",
		Confidence: 0.8,
		Entities:   []string{"DRUG: Aspirin"},
	}, nil
}

type testBridge struct {
	server *Server
	http   *httptest.Server
	client *http.Client
}

func newTestBridge(t *testing.T) *testBridge {
	t.Helper()

	exporter := report.NewExporter(t.TempDir())
	hub := NewHub()
	a := app.New(app.Options{
		Analyzer: stubAnalyzer{},
		Exporter: exporter,
		Settings: settings.NewStore(settings.NewMemoryRepository()),
		View:     hub,
	})

	srv := New(Config{}, a, hub, exporter)
	ts := httptest.NewServer(srv.Handler())

	b := &testBridge{
		server: srv,
		http:   ts,
		client: &http.Client{Transport: &http.Transport{DisableKeepAlives: true}},
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		ts.Close()
	})
	return b
}

func (b *testBridge) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(b.http.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	// Every client starts with the navigation state
	if e := readEvent(t, conn); e.Type != EventNavigation {
		t.Fatalf("first event = %q, want navigation", e.Type)
	}
	return conn
}

func (b *testBridge) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := b.client.Get(b.http.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, body
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var e Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return e
}

func send(t *testing.T, conn *websocket.Conn, cmd string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

func TestHealthz(t *testing.T) {
	b := newTestBridge(t)

	status, body := b.get(t, "/healthz")
	if status != http.StatusOK || !strings.HasPrefix(string(body), "ok") {
		t.Errorf("GET /healthz = %d %q", status, body)
	}
}

func TestReportWithoutResult(t *testing.T) {
	b := newTestBridge(t)

	status, body := b.get(t, "/report.pdf")
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if !strings.Contains(string(body), report.ErrNoAnalysisAvailable.Error()) {
		t.Errorf("body = %q", body)
	}
}

func TestAnalyzeBroadcastsResult(t *testing.T) {
	b := newTestBridge(t)
	first := b.dial(t)
	second := b.dial(t)

	send(t, first, `{"type":"analyze","text":"Aspirin lowers fever"}`)

	for name, conn := range map[string]*websocket.Conn{"first": first, "second": second} {
		e := readEvent(t, conn)
		if e.Type != EventResult || e.Result == nil {
			t.Fatalf("%s: event = %+v, want result", name, e)
		}
		if e.Result.Text != "Aspirin lowers fever" || e.Result.Sentiment != "Reliable" {
			t.Errorf("%s: result = %+v", name, e.Result)
		}
	}

	status, body := b.get(t, "/report.pdf")
	if status != http.StatusOK {
		t.Fatalf("GET /report.pdf = %d", status)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Errorf("body does not look like a PDF: %q", body[:min(len(body), 16)])
	}

	// Late joiners get the last result after navigation
	late := b.dial(t)
	if e := readEvent(t, late); e.Type != EventResult {
		t.Errorf("late client event = %q, want result", e.Type)
	}
}

func TestNavigate(t *testing.T) {
	b := newTestBridge(t)
	conn := b.dial(t)

	send(t, conn, `{"type":"navigate","section":"Reports"}`)
	e := readEvent(t, conn)
	if e.Type != EventNavigation || e.Active != "reports" {
		t.Fatalf("event = %+v, want navigation to reports", e)
	}
	visible := 0
	for _, c := range e.Controls {
		if c.Visible {
			visible++
		}
	}
	if len(e.Controls) != 3 || visible != 1 {
		t.Errorf("controls = %+v", e.Controls)
	}

	send(t, conn, `{"type":"navigate","section":"billing"}`)
	e = readEvent(t, conn)
	if e.Type != EventNotification || e.Level != "error" {
		t.Errorf("event = %+v, want error notification", e)
	}
	if got := b.server.app.Navigation().Active(); got != app.SectionReports {
		t.Errorf("active = %v, want reports unchanged", got)
	}
}

func TestExportWithoutResultNotifies(t *testing.T) {
	b := newTestBridge(t)
	conn := b.dial(t)

	send(t, conn, `{"type":"export"}`)
	e := readEvent(t, conn)
	if e.Type != EventNotification || e.Message != app.MsgNoAnalysis {
		t.Errorf("event = %+v, want %q", e, app.MsgNoAnalysis)
	}
}

func TestSaveSettings(t *testing.T) {
	b := newTestBridge(t)
	conn := b.dial(t)

	send(t, conn, `{"type":"save_settings","username":"  zoe ","dark_mode":true}`)

	e := readEvent(t, conn)
	if e.Type != EventSettings || e.Settings == nil {
		t.Fatalf("event = %+v, want settings", e)
	}
	if e.Settings.Username != "zoe" || !e.Settings.DarkMode || e.Settings.Avatar != "Z" {
		t.Errorf("settings = %+v", e.Settings)
	}

	e = readEvent(t, conn)
	if e.Type != EventNotification || e.Message != app.MsgSettingsSaved {
		t.Errorf("event = %+v, want saved notification", e)
	}
}

func TestUnknownCommand(t *testing.T) {
	b := newTestBridge(t)
	conn := b.dial(t)

	send(t, conn, `{"type":"dance"}`)
	if e := readEvent(t, conn); e.Type != EventNotification || !strings.Contains(e.Message, "dance") {
		t.Errorf("event = %+v", e)
	}

	send(t, conn, `not json`)
	if e := readEvent(t, conn); e.Type != EventNotification || e.Level != "error" {
		t.Errorf("event = %+v", e)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr bool
	}{
		{"navigate", `{"type":"navigate","section":"settings"}`, Command{Type: CmdNavigate, Section: "settings"}, false},
		{"analyze", `{"type":"analyze","text":"x"}`, Command{Type: CmdAnalyze, Text: "x"}, false},
		{"settings", `{"type":"save_settings","username":"a","dark_mode":true}`, Command{Type: CmdSaveSettings, Username: "a", DarkMode: true}, false},
		{"missing type", `{"text":"x"}`, Command{}, true},
		{"invalid", `{`, Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCommand() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
