package report

import (
	"github.com/claimsense/claimsense/internal/analysis"
)

// Page geometry in millimetres on A4 portrait.
const (
	LeftMargin     = 20.0
	TopMargin      = 20.0 // cursor after a page break
	PageBottom     = 280.0
	ContentWidth   = 170.0
	EntityStep     = 10.0
	TitleY         = 20.0
	ClaimHeadingY  = 35.0
	ClaimTextY     = 45.0
	SentimentY     = 70.0 // "Sentiment Analysis:" heading
	EntitiesStartY = 120.0

	// Offsets from the sentiment heading
	sentimentLineOffset  = 10.0
	confidenceLineOffset = 20.0
	entityHeadingOffset  = 40.0
	entityListOffset     = 50.0

	// Minimum distance between the last claim line and the sentiment heading
	claimGap = 10.0
)

// Font sizes in points.
const (
	TitleSize   = 20.0
	HeadingSize = 14.0
	BodySize    = 12.0
)

// Section headings and the document title.
const (
	Title            = "Medical Sentiment Analysis Report"
	ClaimHeading     = "Analyzed Medical Claim:"
	SentimentHeading = "Sentiment Analysis:"
	EntitiesHeading  = "Named Entities:"
)

// bodyLineHeight is 12pt at a 1.15 line factor, in millimetres.
const bodyLineHeight = BodySize * 1.15 * 25.4 / 72

// Placement is where one line of text lands.
type Placement struct {
	Page int     // zero-based
	Y    float64 // baseline, mm from top
	Text string
}

// Line is a placed line with its font size.
type Line struct {
	Placement
	Size float64
}

// Layout is the full positioned content of a report.
type Layout struct {
	Lines []Line
	Pages int
}

// PlanEntities paginates entity lines starting at startY on page 0.
// Before each entity, a cursor past PageBottom moves to a new page at
// TopMargin. Every entity is placed exactly once, in order.
func PlanEntities(entities []string, startY float64) []Placement {
	placements := make([]Placement, 0, len(entities))
	page := 0
	y := startY

	for _, entity := range entities {
		if y > PageBottom {
			page++
			y = TopMargin
		}
		placements = append(placements, Placement{Page: page, Y: y, Text: "- " + entity})
		y += EntityStep
	}

	return placements
}

// Plan positions every line of the report for result. wrap splits the
// claim text to ContentWidth in the body font.
func Plan(result *analysis.Result, wrap func(string) []string) Layout {
	var lines []Line
	add := func(page int, y, size float64, text string) {
		lines = append(lines, Line{Placement: Placement{Page: page, Y: y, Text: text}, Size: size})
	}

	add(0, TitleY, TitleSize, Title)
	add(0, ClaimHeadingY, HeadingSize, ClaimHeading)

	page := 0
	y := ClaimTextY
	last := ClaimTextY
	for _, text := range wrap(result.Text) {
		if y > PageBottom {
			page++
			y = TopMargin
		}
		add(page, y, BodySize, text)
		last = y
		y += bodyLineHeight
	}

	heading := SentimentY
	if page > 0 || last+claimGap > SentimentY {
		heading = last + claimGap
	}
	// Keep the sentiment block and the entity heading on one page
	if heading+entityHeadingOffset > PageBottom {
		page++
		heading = TopMargin
	}

	add(page, heading, HeadingSize, SentimentHeading)
	add(page, heading+sentimentLineOffset, BodySize, result.SentimentLine())
	add(page, heading+confidenceLineOffset, BodySize, result.ConfidenceLine())
	add(page, heading+entityHeadingOffset, HeadingSize, EntitiesHeading)

	for _, p := range PlanEntities(result.Entities, heading+entityListOffset) {
		p.Page += page
		lines = append(lines, Line{Placement: p, Size: BodySize})
	}

	pages := 1
	for _, l := range lines {
		if l.Page+1 > pages {
			pages = l.Page + 1
		}
	}

	return Layout{Lines: lines, Pages: pages}
}
