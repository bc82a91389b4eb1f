package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/version"
)

// DefaultFileName is the name every export is written under.
const DefaultFileName = "medical_report.pdf"

const fontFamily = "Helvetica"

// ErrNoAnalysisAvailable is returned when there is no result to export.
var ErrNoAnalysisAvailable = errors.New("no analysis available")

// Exporter renders analysis results as PDF reports.
type Exporter struct {
	// Dir is the output directory. Empty means the working directory.
	Dir string

	// FileName defaults to medical_report.pdf. Each export overwrites it.
	FileName string

	// Now stamps the document metadata; nil uses time.Now.
	Now func() time.Time
}

// NewExporter creates an exporter writing medical_report.pdf into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir, FileName: DefaultFileName}
}

// Path returns the file an export will be written to.
func (e *Exporter) Path() string {
	name := e.FileName
	if name == "" {
		name = DefaultFileName
	}
	return filepath.Join(e.Dir, name)
}

// Export writes the report for result to Path and returns that path.
// A nil result returns ErrNoAnalysisAvailable without touching the disk.
func (e *Exporter) Export(result *analysis.Result) (string, error) {
	if result == nil {
		return "", ErrNoAnalysisAvailable
	}

	pdf := e.build(result)
	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if e.Dir != "" {
		if err := os.MkdirAll(e.Dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	path := e.Path()
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	logging.Info("Report exported",
		zap.String("path", path),
		zap.Int("pages", pdf.PageCount()),
		zap.Int("entities", len(result.Entities)),
	)
	return path, nil
}

// Write streams the report for result to w.
func (e *Exporter) Write(w io.Writer, result *analysis.Result) error {
	if result == nil {
		return ErrNoAnalysisAvailable
	}

	pdf := e.build(result)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Pages returns how many pages the report for result occupies.
func (e *Exporter) Pages(result *analysis.Result) int {
	if result == nil {
		return 0
	}
	return e.build(result).PageCount()
}

func (e *Exporter) build(result *analysis.Result) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(Title, true)
	pdf.SetCreator(version.UserAgent(), true)
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	pdf.SetCreationDate(now())

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(fontFamily, "", BodySize)
	wrap := func(text string) []string {
		if text == "" {
			return nil
		}
		var out []string
		for _, paragraph := range strings.Split(latin1(text), "\n") {
			out = append(out, pdf.SplitText(paragraph, ContentWidth)...)
		}
		return out
	}

	layout := Plan(result, wrap)

	page := -1
	for _, line := range layout.Lines {
		for page < line.Page {
			pdf.AddPage()
			page++
		}
		pdf.SetFont(fontFamily, "", line.Size)
		pdf.Text(LeftMargin, line.Y, tr(latin1(line.Text)))
	}

	return pdf
}

// latin1 replaces runes outside Latin-1 so the core fonts can measure them.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}
