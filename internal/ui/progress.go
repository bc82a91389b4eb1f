package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
	StepSkipped                    // Skipped
)

// Step represents a single step in a multi-step command
type Step struct {
	Number  int        // Step number (1-based)
	Name    string     // Step description
	Status  StepStatus // Current status
	Message string     // Optional note (e.g., "3 entities", "2 pages")
}

// Progress tracks the steps of a command and renders them with a bar
type Progress struct {
	Steps   []Step
	Total   int
	Percent float64 // 0.0 - 1.0
	Width   int
	bar     progress.Model
}

// NewProgress creates a progress tracker for the named steps
func NewProgress(names ...string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name, Status: StepPending}
	}

	p := &Progress{Steps: steps, Total: len(names)}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithGradient(string(PrimaryColor), string(SuccessColor)),
		progress.WithWidth(barWidth),
	)
	return p
}

// UpdateStep updates a step's status and optional message
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	p.Steps[stepNumber-1].Status = status
	p.Steps[stepNumber-1].Message = message

	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	if p.Total > 0 {
		p.Percent = float64(done) / float64(p.Total)
	}
}

// RenderBar renders the progress bar line
func (p *Progress) RenderBar() string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%", p.bar.ViewAs(p.Percent), p.Percent*100))
}

// Render returns the bar followed by every step line
func (p *Progress) Render() string {
	lines := []string{p.RenderBar(), ""}
	for _, s := range p.Steps {
		lines = append(lines, p.renderStepLine(s))
	}
	return strings.Join(lines, "\n")
}

func (p *Progress) renderStepLine(step Step) string {
	var marker string
	var style lipgloss.Style

	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = StepMarkerSkipped, StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  [%d/%d] ", step.Number, p.Total))
	b.WriteString(style.Render(step.Name))

	padding := 40 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}

	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
