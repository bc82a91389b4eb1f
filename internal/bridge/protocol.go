package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/settings"
)

// Command types sent by the browser
const (
	CmdNavigate     = "navigate"
	CmdAnalyze      = "analyze"
	CmdExport       = "export"
	CmdSaveSettings = "save_settings"
	CmdLoadSettings = "load_settings"
)

// Event types sent to the browser
const (
	EventNavigation   = "navigation"
	EventResult       = "result"
	EventSettings     = "settings"
	EventNotification = "notification"
)

// Command is one client request.
//
//	{"type":"navigate","section":"reports"}
//	{"type":"analyze","text":"..."}
//	{"type":"export"}
//	{"type":"save_settings","username":"Ana","dark_mode":true}
type Command struct {
	Type     string `json:"type"`
	Section  string `json:"section,omitempty"`
	Text     string `json:"text,omitempty"`
	Username string `json:"username,omitempty"`
	DarkMode bool   `json:"dark_mode,omitempty"`
}

// ParseCommand decodes a text frame
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	if cmd.Type == "" {
		return Command{}, fmt.Errorf("invalid command: missing type")
	}
	return cmd, nil
}

// ControlState is one navigation control on the wire
type ControlState struct {
	Section string `json:"section"`
	Title   string `json:"title"`
	Active  bool   `json:"active"`
	Visible bool   `json:"visible"`
}

// SettingsState is the settings payload, with the avatar glyph resolved
type SettingsState struct {
	Username string `json:"username"`
	DarkMode bool   `json:"dark_mode"`
	Avatar   string `json:"avatar"`
}

// Event is one server push. Exactly one payload is set for a given Type.
type Event struct {
	Type string `json:"type"`

	// navigation
	Active   string         `json:"active,omitempty"`
	Controls []ControlState `json:"controls,omitempty"`

	// result
	Result *analysis.Result `json:"result,omitempty"`

	// settings
	Settings *SettingsState `json:"settings,omitempty"`

	// notification
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

func navigationEvent(nav app.Navigation) Event {
	e := Event{Type: EventNavigation, Active: nav.Active().String()}
	for _, c := range nav.Controls() {
		e.Controls = append(e.Controls, ControlState{
			Section: c.Section.String(),
			Title:   c.Section.Title(),
			Active:  c.Active,
			Visible: c.Visible,
		})
	}
	return e
}

func resultEvent(r analysis.Result) Event {
	if r.Entities == nil {
		r.Entities = []string{}
	}
	return Event{Type: EventResult, Result: &r}
}

func settingsEvent(s settings.Settings) Event {
	return Event{Type: EventSettings, Settings: &SettingsState{
		Username: s.Username,
		DarkMode: s.DarkMode,
		Avatar:   s.Avatar(),
	}}
}

func notificationEvent(n app.Notification) Event {
	return Event{Type: EventNotification, Level: n.Level.String(), Message: n.Message}
}
