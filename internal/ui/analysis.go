package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/claimsense/claimsense/internal/analysis"
)

// AnalysisCard is a box showing one analysis result the way the Dashboard
// does: claim text, sentiment, confidence and the entity list.
type AnalysisCard struct {
	Result      analysis.Result
	Width       int
	MaxEntities int // 0 = unlimited
}

// NewAnalysisCard creates a card for result
func NewAnalysisCard(result analysis.Result) *AnalysisCard {
	return &AnalysisCard{
		Result: result,
		Width:  GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (c *AnalysisCard) SetWidth(width int) *AnalysisCard {
	c.Width = width
	return c
}

// SetMaxEntities limits the number of entities displayed
func (c *AnalysisCard) SetMaxEntities(max int) *AnalysisCard {
	c.MaxEntities = max
	return c
}

// Render returns the styled card as a string
func (c *AnalysisCard) Render() string {
	width := c.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	inner := width - 6

	r := c.Result
	claim := r.Text
	if claim == "" {
		claim = "(empty claim)"
	}

	lines := []string{
		SectionTitleStyle.Render("Claim"),
		ClaimTextStyle.Width(inner).Render(claim),
		"",
		fmt.Sprintf("%s  %s", ResultKeyStyle.Render("Sentiment:"), SentimentBadge(r.Sentiment)),
		fmt.Sprintf("%s  %s", ResultKeyStyle.Render("Confidence:"), ResultValueStyle.Render(analysis.FormatConfidence(r.Confidence))),
		"",
		SectionTitleStyle.Render(fmt.Sprintf("Named Entities (%d)", len(r.Entities))),
	}

	entities := r.Entities
	hidden := 0
	if c.MaxEntities > 0 && len(entities) > c.MaxEntities {
		hidden = len(entities) - c.MaxEntities
		entities = entities[:c.MaxEntities]
	}
	if len(entities) == 0 {
		lines = append(lines, StepPendingStyle.Render("  none"))
	}
	for _, e := range entities {
		lines = append(lines, EntityStyle.Render("• "+e))
	}
	if hidden > 0 {
		lines = append(lines, StepNoteStyle.Render(fmt.Sprintf("  … %d more", hidden)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (c *AnalysisCard) String() string {
	return c.Render()
}
