package report

import (
	"strings"

	"github.com/claimsense/claimsense/internal/analysis"
)

// Markdown renders the same sections as the PDF for on-screen previews.
func Markdown(result *analysis.Result) string {
	if result == nil {
		return "_No analysis yet. Submit a claim from the Dashboard._\n"
	}

	var b strings.Builder
	b.WriteString("# " + Title + "\n\n")
	b.WriteString("## " + ClaimHeading + "\n\n")
	if result.Text == "" {
		b.WriteString("_(empty)_\n\n")
	} else {
		for _, line := range strings.Split(result.Text, "\n") {
			b.WriteString("> " + line + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("## " + SentimentHeading + "\n\n")
	b.WriteString("- " + result.SentimentLine() + "\n")
	b.WriteString("- " + result.ConfidenceLine() + "\n\n")
	b.WriteString("## " + EntitiesHeading + "\n\n")
	if len(result.Entities) == 0 {
		b.WriteString("_None_\n")
	}
	for _, entity := range result.Entities {
		b.WriteString("- " + entity + "\n")
	}
	return b.String()
}
