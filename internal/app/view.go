package app

import (
	"sync"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/settings"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notification is a message the user has to acknowledge.
type Notification struct {
	Level   Level
	Message string
}

// View is what handlers render into. Front ends implement it.
type View interface {
	ShowNavigation(nav Navigation)
	ShowResult(result analysis.Result)
	ShowSettings(s settings.Settings)
	Notify(n Notification)
}

// Event is one View call captured by a Recorder. Exactly one field is set.
type Event struct {
	Navigation   *Navigation
	Result       *analysis.Result
	Settings     *settings.Settings
	Notification *Notification
}

// Recorder is a View that keeps every call in order. The CLI renders from
// it after a handler returns.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) ShowNavigation(nav Navigation)     { r.add(Event{Navigation: &nav}) }
func (r *Recorder) ShowResult(result analysis.Result) { r.add(Event{Result: &result}) }
func (r *Recorder) ShowSettings(s settings.Settings)  { r.add(Event{Settings: &s}) }
func (r *Recorder) Notify(n Notification)             { r.add(Event{Notification: &n}) }

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Notifications returns only the recorded notifications.
func (r *Recorder) Notifications() []Notification {
	var out []Notification
	for _, e := range r.Events() {
		if e.Notification != nil {
			out = append(out, *e.Notification)
		}
	}
	return out
}

// Drain returns the recorded calls and forgets them.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}
