package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/claimsense/claimsense/internal/version"
)

// Application branding constants
const (
	AppName    = "CLAIMSENSE"
	AppTagline = "medical claim analysis"
)

// Layout constants for responsive terminal width
const (
	MinTerminalWidth  = 72 // Minimum supported terminal width
	MinTerminalHeight = 20
	DefaultWidth      = 100
	DefaultHeight     = 30
)

// Palette is one color theme. The Settings dark mode toggle picks between
// DarkPalette and LightPalette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Text       lipgloss.Color
	Subtle     lipgloss.Color
	Border     lipgloss.Color
	Background lipgloss.Color
}

var (
	DarkPalette = Palette{
		Primary:    lipgloss.Color("#2BA5B5"), // Teal
		Secondary:  lipgloss.Color("#43BF6D"), // Green
		Warning:    lipgloss.Color("#FFA500"), // Orange
		Error:      lipgloss.Color("#FF5F5F"), // Red
		Text:       lipgloss.Color("#FFFFFF"),
		Subtle:     lipgloss.Color("#626262"),
		Border:     lipgloss.Color("#2BA5B5"),
		Background: lipgloss.Color("#1A1A1A"),
	}

	LightPalette = Palette{
		Primary:    lipgloss.Color("#0E6F7C"),
		Secondary:  lipgloss.Color("#1E8449"),
		Warning:    lipgloss.Color("#B9770E"),
		Error:      lipgloss.Color("#C0392B"),
		Text:       lipgloss.Color("#1A1A1A"),
		Subtle:     lipgloss.Color("#7F8C8D"),
		Border:     lipgloss.Color("#0E6F7C"),
		Background: lipgloss.Color("#F4F6F6"),
	}
)

// PaletteFor returns the palette for the dark mode setting
func PaletteFor(dark bool) Palette {
	if dark {
		return DarkPalette
	}
	return LightPalette
}

// Styles are the lipgloss styles derived from one Palette
type Styles struct {
	Palette Palette

	Title        lipgloss.Style
	Subtitle     lipgloss.Style
	Tab          lipgloss.Style
	ActiveTab    lipgloss.Style
	Label        lipgloss.Style
	Value        lipgloss.Style
	MenuItem     lipgloss.Style
	SelectedItem lipgloss.Style
	Help         lipgloss.Style
	Spinner      lipgloss.Style
	Avatar       lipgloss.Style
	ErrorBox     lipgloss.Style
	InfoBox      lipgloss.Style
}

// NewStyles builds the style set for p
func NewStyles(p Palette) Styles {
	return Styles{
		Palette: p,
		Title: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Subtle).
			Italic(true),
		Tab: lipgloss.NewStyle().
			Foreground(p.Subtle).
			Padding(0, 2),
		ActiveTab: lipgloss.NewStyle().
			Foreground(p.Background).
			Background(p.Primary).
			Bold(true).
			Padding(0, 2),
		Label: lipgloss.NewStyle().
			Foreground(p.Subtle),
		Value: lipgloss.NewStyle().
			Foreground(p.Text).
			Bold(true),
		MenuItem: lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(p.Text),
		SelectedItem: lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(p.Secondary).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(p.Subtle),
		Spinner: lipgloss.NewStyle().
			Foreground(p.Primary),
		Avatar: lipgloss.NewStyle().
			Foreground(p.Background).
			Background(p.Secondary).
			Bold(true).
			Padding(0, 1),
		ErrorBox: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Error).
			Padding(1, 2),
		InfoBox: lipgloss.NewStyle().
			Foreground(p.Secondary).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Secondary).
			Padding(1, 2),
	}
}

// BuildHeaderContent creates the header line: app name and version on the
// left, the user's avatar and name on the right.
func (s Styles) BuildHeaderContent(username, avatar string, width int) string {
	left := lipgloss.NewStyle().
		Foreground(s.Palette.Text).
		Bold(true).
		Render(AppName+" v"+version.Version) +
		"  " + s.Subtitle.Render(AppTagline)

	right := s.Avatar.Render(avatar) + " " + s.Value.Render(username)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().Width(gap).Render(""), right)
}

// RenderApplicationContainer wraps a screen with the bordered frame, the
// header and the footer help line. Every section renders through it.
func (s Styles) RenderApplicationContainer(header, content, footer string, terminalWidth, terminalHeight int) string {
	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(s.Palette.Border).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(s.Palette.Border).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth-4).
		Padding(1, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		contentStyle.Render(content),
		footerStyle.Render(s.Help.Render(footer)),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(s.Palette.Border).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}

// RenderModal centers modalContent over a dimmed screen
func RenderModal(modalContent string, terminalWidth, terminalHeight int) string {
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}

// SafeModalWidth keeps a modal inside the terminal
func SafeModalWidth(requestedWidth, terminalWidth int) int {
	maxWidth := terminalWidth - 4
	if maxWidth < 40 {
		maxWidth = 40
	}
	if requestedWidth < maxWidth {
		return requestedWidth
	}
	return maxWidth
}
