// Package tui implements the interactive claimsense shell using Bubbletea.
//
// The shell has three sections behind a tab bar, mirroring the
// app.Navigation state:
//
//   - Dashboard: claim input (ctrl+s submits) and the latest result
//   - Reports: glamour preview of the report, PDF export (p), and the
//     history of past analyses (enter reopens one)
//   - Settings: display name and dark mode (ctrl+s saves)
//
// # Architecture
//
// Model owns only presentation state. Every user action goes through the
// app.App handlers, which run inside tea.Cmds so the UI stays responsive
// while a request is in flight. The handlers render into an EventView,
// which queues each call and hands it back to Update as a message:
//
//	events := tui.NewEventView()
//	a := app.New(app.Options{..., View: events})
//	p := tea.NewProgram(tui.NewModel(tui.Config{App: a, Events: events}), tea.WithAltScreen())
//
// Notifications are shown as a modal. While one is open every key except
// enter and esc is ignored.
//
// # Key bindings
//
// tab / shift+tab cycle sections from anywhere. 1, 2 and 3 jump to a
// section and q quits, but only when no text input has focus; esc leaves
// the claim or username input and enter returns to it.
package tui
