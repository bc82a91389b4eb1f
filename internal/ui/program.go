package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/claimsense/claimsense/internal/analysis"
)

// Printer provides methods for printing UI components to a writer.
// This is the primary way commands should output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintLines writes multiple lines
func (p *Printer) PrintLines(lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(p.out, line)
	}
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintAnalysis prints an analysis card
func (p *Printer) PrintAnalysis(result analysis.Result) {
	p.Println(NewAnalysisCard(result).SetWidth(p.width).Render())
}

// PrintTable prints rows under a bold header row. Columns are padded to
// the widest cell; the last column is not padded.
func (p *Printer) PrintTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	format := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i < len(cells)-1 {
				cell += strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2)
			}
			b.WriteString(cell)
		}
		return style.Render(b.String())
	}

	p.Println(format(headers, SectionTitleStyle))
	for _, row := range rows {
		p.Println(format(row, ResultValueStyle))
	}
}

// PrintPleaseWait prints a styled "please wait" line for a request in flight
func (p *Printer) PrintPleaseWait(message, hint string) {
	style := lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true).
		PaddingLeft(2)

	line := style.Render("⏳ " + message)
	if hint != "" {
		line += " " + StepNoteStyle.Render("("+hint+")")
	}
	p.Println(line + style.Render("..."))
}
