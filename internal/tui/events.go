package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/settings"
)

// Messages delivered from the app.View calls
type navigationMsg struct{ nav app.Navigation }
type resultMsg struct{ result analysis.Result }
type settingsMsg struct{ settings settings.Settings }
type notificationMsg struct{ notification app.Notification }

const eventBuffer = 64

// EventView is the app.View of the TUI. Handlers run inside tea.Cmds, off
// the Update loop, so every call is queued and delivered to the model as a
// message by Listen.
type EventView struct {
	ch chan tea.Msg
}

// NewEventView creates an EventView with a buffered queue
func NewEventView() *EventView {
	return &EventView{ch: make(chan tea.Msg, eventBuffer)}
}

func (v *EventView) ShowNavigation(nav app.Navigation) { v.ch <- navigationMsg{nav: nav} }
func (v *EventView) ShowResult(result analysis.Result) { v.ch <- resultMsg{result: result} }
func (v *EventView) ShowSettings(s settings.Settings)  { v.ch <- settingsMsg{settings: s} }
func (v *EventView) Notify(n app.Notification)         { v.ch <- notificationMsg{notification: n} }

// Listen waits for the next queued view call. The model re-arms it after
// every event.
func (v *EventView) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-v.ch
	}
}

// Pending returns every queued message without blocking
func (v *EventView) Pending() []tea.Msg {
	var out []tea.Msg
	for {
		select {
		case msg := <-v.ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}
