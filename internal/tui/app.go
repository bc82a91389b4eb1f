package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/history"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/report"
	"github.com/claimsense/claimsense/internal/settings"
)

// HistoryLimit is how many past analyses the Reports section lists
const HistoryLimit = 20

// HistoryLister lists past analyses, newest first
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// Messages for async operations
type analysisCompleteMsg struct{ err error }
type exportCompleteMsg struct {
	path string
	err  error
}
type settingsCompleteMsg struct{ err error }
type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

// keyMap holds every binding. Sections show a subset in the help line.
type keyMap struct {
	NextTab    key.Binding
	PrevTab    key.Binding
	Dashboard  key.Binding
	Reports    key.Binding
	Settings   key.Binding
	Submit     key.Binding
	Edit       key.Binding
	StopEdit   key.Binding
	Export     key.Binding
	Up         key.Binding
	Down       key.Binding
	Open       key.Binding
	Refresh    key.Binding
	ToggleDark key.Binding
	Dismiss    key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		Dashboard:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard")),
		Reports:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "reports")),
		Settings:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "settings")),
		Submit:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Edit:       key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		StopEdit:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop editing")),
		Export:     key.NewBinding(key.WithKeys("p", "ctrl+p"), key.WithHelp("p", "export PDF")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		ToggleDark: key.NewBinding(key.WithKeys("d", " "), key.WithHelp("d", "dark mode")),
		Dismiss:    key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpKeys adapts a binding list to help.KeyMap
type helpKeys []key.Binding

func (h helpKeys) ShortHelp() []key.Binding  { return h }
func (h helpKeys) FullHelp() [][]key.Binding { return [][]key.Binding{h} }

// Config wires the model to the application
type Config struct {
	App      *app.App
	Events   *EventView
	History  HistoryLister // may be nil
	Endpoint string
}

// Model is the top-level bubbletea model: a tab bar over the Dashboard,
// Reports and Settings sections, and a modal for notifications.
type Model struct {
	app      *app.App
	events   *EventView
	history  HistoryLister
	endpoint string

	// Mirrored application state
	Nav          app.Navigation
	Result       *analysis.Result
	Settings     settings.Settings
	Notification *app.Notification

	// Section state
	Analyzing  bool
	Exporting  bool
	Entries    []history.Entry
	Cursor     int
	DarkDraft  bool
	preview    string
	historyErr error

	// Components
	claim    textarea.Model
	username textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	styles   Styles

	Width  int
	Height int
}

// NewModel creates the model showing the Dashboard with the claim input
// focused.
func NewModel(cfg Config) Model {
	claim := textarea.New()
	claim.Placeholder = "Paste or type a medical claim…"
	claim.CharLimit = 0
	claim.ShowLineNumbers = false
	claim.SetWidth(DefaultWidth - 10)
	claim.SetHeight(6)
	claim.Focus()

	username := textinput.New()
	username.Placeholder = settings.FallbackUsername
	username.CharLimit = 64
	username.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		app:      cfg.App,
		events:   cfg.Events,
		history:  cfg.History,
		endpoint: cfg.Endpoint,
		Nav:      app.NewNavigation(),
		Settings: settings.Settings{Username: settings.FallbackUsername},
		claim:    claim,
		username: username,
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
		Width:    DefaultWidth,
		Height:   DefaultHeight,
	}
	m.applyTheme()
	if last := cfg.App.LastResult(); last != nil {
		m.Result = last
		m.preview = m.renderPreview()
	}
	return m
}

// Init starts the event listener and the cursor blink, and loads the
// persisted settings. They arrive as a settings event.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.events.Listen(), textarea.Blink, m.loadSettings())
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = max(msg.Width, MinTerminalWidth)
		m.Height = max(msg.Height, MinTerminalHeight)
		m.claim.SetWidth(m.Width - 10)
		m.preview = m.renderPreview()
		return m, nil

	case spinner.TickMsg:
		if !m.Analyzing && !m.Exporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case navigationMsg:
		m.Nav = msg.nav
		return m, m.events.Listen()

	case resultMsg:
		r := msg.result
		m.Result = &r
		m.preview = m.renderPreview()
		return m, m.events.Listen()

	case settingsMsg:
		m.Settings = msg.settings
		m.DarkDraft = msg.settings.DarkMode
		m.username.SetValue(msg.settings.Username)
		m.applyTheme()
		m.preview = m.renderPreview()
		return m, m.events.Listen()

	case notificationMsg:
		n := msg.notification
		m.Notification = &n
		return m, m.events.Listen()

	case analysisCompleteMsg:
		m.Analyzing = false
		if msg.err == nil && m.history != nil {
			return m, m.loadHistory()
		}
		return m, nil

	case exportCompleteMsg:
		m.Exporting = false
		return m, nil

	case settingsCompleteMsg:
		return m, nil

	case historyLoadedMsg:
		m.historyErr = msg.err
		if msg.err != nil {
			logging.Warn("Failed to load history", zap.Error(msg.err))
			return m, nil
		}
		m.Entries = msg.entries
		if m.Cursor >= len(m.Entries) {
			m.Cursor = max(len(m.Entries)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The notification blocks every other key until it is dismissed.
	if m.Notification != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			m.Notification = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextTab):
		return m.navigate(m.offsetSection(1))
	case key.Matches(msg, m.keys.PrevTab):
		return m.navigate(m.offsetSection(-1))
	}

	if !m.editing() {
		switch {
		case key.Matches(msg, m.keys.Dashboard):
			return m.navigate(app.SectionDashboard)
		case key.Matches(msg, m.keys.Reports):
			return m.navigate(app.SectionReports)
		case key.Matches(msg, m.keys.Settings):
			return m.navigate(app.SectionSettings)
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
	}

	switch m.Nav.Active() {
	case app.SectionDashboard:
		return m.handleDashboardKey(msg)
	case app.SectionReports:
		return m.handleReportsKey(msg)
	case app.SectionSettings:
		return m.handleSettingsKey(msg)
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.Analyzing {
			return m, nil
		}
		m.Analyzing = true
		return m, tea.Batch(m.submit(m.claim.Value()), m.spinner.Tick)

	case m.claim.Focused() && key.Matches(msg, m.keys.StopEdit):
		m.claim.Blur()
		return m, nil

	case !m.claim.Focused() && key.Matches(msg, m.keys.Edit):
		return m, m.claim.Focus()
	}

	return m.updateFocused(msg)
}

func (m Model) handleReportsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Export):
		if m.Exporting {
			return m, nil
		}
		m.Exporting = true
		return m, tea.Batch(m.export(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Cursor < len(m.Entries)-1 {
			m.Cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.Cursor < len(m.Entries) {
			m.app.Restore(m.Entries[m.Cursor].Result)
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadHistory()
	}
	return m, nil
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.username.Blur()
		return m, m.saveSettings(m.username.Value(), m.DarkDraft)

	case m.username.Focused():
		if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
			m.username.Blur()
			return m, nil
		}
		return m.updateFocused(msg)

	case key.Matches(msg, m.keys.Edit):
		return m, m.username.Focus()

	case key.Matches(msg, m.keys.ToggleDark):
		m.DarkDraft = !m.DarkDraft
	}
	return m, nil
}

// updateFocused forwards msg to the focused input, if any
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.Nav.Active() == app.SectionDashboard && m.claim.Focused():
		m.claim, cmd = m.claim.Update(msg)
	case m.Nav.Active() == app.SectionSettings && m.username.Focused():
		m.username, cmd = m.username.Update(msg)
	}
	return m, cmd
}

// editing reports whether a text input has the keyboard
func (m Model) editing() bool {
	switch m.Nav.Active() {
	case app.SectionDashboard:
		return m.claim.Focused()
	case app.SectionSettings:
		return m.username.Focused()
	}
	return false
}

func (m Model) offsetSection(delta int) app.Section {
	sections := app.Sections()
	idx := 0
	for i, s := range sections {
		if s == m.Nav.Active() {
			idx = i
		}
	}
	n := len(sections)
	return sections[((idx+delta)%n+n)%n]
}

// navigate switches sections right away and lets the navigation event
// confirm it.
func (m Model) navigate(section app.Section) (tea.Model, tea.Cmd) {
	m.app.Navigate(section)
	m.Nav = m.app.Navigation()

	if section == app.SectionReports {
		return m, m.loadHistory()
	}
	if section == app.SectionSettings {
		m.username.SetValue(m.Settings.Username)
		m.DarkDraft = m.Settings.DarkMode
	}
	return m, nil
}

func (m Model) submit(text string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		_, err := a.SubmitAnalysis(context.Background(), text)
		return analysisCompleteMsg{err: err}
	}
}

func (m Model) export() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		path, err := a.ExportReport()
		return exportCompleteMsg{path: path, err: err}
	}
}

func (m Model) saveSettings(username string, dark bool) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		_, err := a.SaveSettings(context.Background(), username, dark)
		return settingsCompleteMsg{err: err}
	}
}

func (m Model) loadSettings() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		_, err := a.LoadSettings(context.Background())
		return settingsCompleteMsg{err: err}
	}
}

func (m Model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	h := m.history
	return func() tea.Msg {
		entries, err := h.List(context.Background(), HistoryLimit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m *Model) applyTheme() {
	m.styles = NewStyles(PaletteFor(m.Settings.DarkMode))
	m.spinner.Style = m.styles.Spinner
}

// renderPreview renders the report markdown with glamour in the current
// theme. Rendering errors fall back to the raw markdown.
func (m Model) renderPreview() string {
	md := report.Markdown(m.Result)

	style := "light"
	if m.Settings.DarkMode {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(m.Width-12, 40)),
	)
	if err != nil {
		logging.Debug("Markdown renderer unavailable", zap.Error(err))
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		logging.Debug("Markdown render failed", zap.Error(err))
		return md
	}
	return strings.TrimSpace(out)
}

// View renders the active section inside the application container
func (m Model) View() string {
	header := m.styles.BuildHeaderContent(m.Settings.Username, m.Settings.Avatar(), m.Width-6)

	var content strings.Builder
	content.WriteString(m.renderTabs())
	content.WriteString("\n\n")

	var keys helpKeys
	switch m.Nav.Active() {
	case app.SectionReports:
		content.WriteString(m.renderReports())
		keys = helpKeys{m.keys.Export, m.keys.Up, m.keys.Down, m.keys.Open, m.keys.Refresh, m.keys.NextTab, m.keys.Quit}
	case app.SectionSettings:
		content.WriteString(m.renderSettings())
		if m.username.Focused() {
			keys = helpKeys{m.keys.StopEdit, m.keys.Submit}
		} else {
			keys = helpKeys{m.keys.Edit, m.keys.ToggleDark, m.keys.Submit, m.keys.NextTab, m.keys.Quit}
		}
	default:
		content.WriteString(m.renderDashboard())
		if m.claim.Focused() {
			keys = helpKeys{m.keys.Submit, m.keys.StopEdit, m.keys.NextTab}
		} else {
			keys = helpKeys{m.keys.Edit, m.keys.Submit, m.keys.NextTab, m.keys.Quit}
		}
	}

	if m.Notification != nil {
		return RenderModal(m.renderNotification(), m.Width, m.Height)
	}

	return m.styles.RenderApplicationContainer(header, content.String(), m.help.View(keys), m.Width, m.Height)
}

func (m Model) renderTabs() string {
	var tabs []string
	for _, c := range m.Nav.Controls() {
		label := fmt.Sprintf("%d %s", int(c.Section)+1, c.Section.Title())
		if c.Active {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Analyze a medical claim"))
	b.WriteString("\n")
	b.WriteString(m.claim.View())
	b.WriteString("\n\n")

	if m.Analyzing {
		b.WriteString(m.spinner.View() + " Analyzing claim")
		if m.endpoint != "" {
			b.WriteString(" " + m.styles.Subtitle.Render("("+m.endpoint+")"))
		}
		b.WriteString("\n\n")
	}

	if m.Result == nil {
		b.WriteString(m.styles.Subtitle.Render("No analysis yet. Type a claim and press ctrl+s."))
		return b.String()
	}

	r := m.Result
	b.WriteString(m.styles.Label.Render("Claim: "))
	b.WriteString(m.styles.Value.Render(r.Text))
	b.WriteString("\n")
	b.WriteString(m.styles.Value.Render(r.SentimentLine()))
	b.WriteString("\n")
	b.WriteString(m.styles.Value.Render(r.ConfidenceLine()))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Label.Render(fmt.Sprintf("Named entities (%d)", len(r.Entities))))
	b.WriteString("\n")
	for _, e := range r.Entities {
		b.WriteString(m.styles.MenuItem.Render("• " + e))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderReports() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Report preview"))
	b.WriteString("\n")
	b.WriteString(m.preview)
	b.WriteString("\n\n")

	if m.Exporting {
		b.WriteString(m.spinner.View() + " Generating PDF\n\n")
	}

	b.WriteString(m.styles.Title.Render("History"))
	b.WriteString("\n")
	switch {
	case m.history == nil:
		b.WriteString(m.styles.Subtitle.Render("History is disabled."))
	case m.historyErr != nil:
		b.WriteString(m.styles.Subtitle.Render("History unavailable: " + m.historyErr.Error()))
	case len(m.Entries) == 0:
		b.WriteString(m.styles.Subtitle.Render("No past analyses."))
	default:
		for i, e := range m.Entries {
			line := fmt.Sprintf("%s  %-12s  %s",
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.Result.Sentiment,
				truncate(e.Result.Text, m.Width-50))
			if i == m.Cursor {
				b.WriteString(m.styles.SelectedItem.Render("→ " + line))
			} else {
				b.WriteString(m.styles.MenuItem.Render(line))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderSettings() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Settings"))
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("Username  "))
	b.WriteString(m.username.View())
	b.WriteString("\n\n")

	mode := "off"
	if m.DarkDraft {
		mode = "on"
	}
	b.WriteString(m.styles.Label.Render("Dark mode "))
	b.WriteString(m.styles.Value.Render(mode))
	if m.DarkDraft != m.Settings.DarkMode {
		b.WriteString(" " + m.styles.Subtitle.Render("(unsaved)"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderNotification() string {
	n := m.Notification
	style := m.styles.InfoBox
	title := "✓ Notice"
	if n.Level == app.LevelError {
		style = m.styles.ErrorBox
		title = "✗ Error"
	}
	body := title + "\n\n" + n.Message + "\n\n" + m.styles.Help.Render("enter/esc to dismiss")
	return style.Width(SafeModalWidth(60, m.Width)).Render(body)
}

func truncate(s string, width int) string {
	if width < 10 {
		width = 10
	}
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
