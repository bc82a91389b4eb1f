// Package report renders an analysis result as a paginated PDF.
//
// The layout is computed by Plan, which is pure and independent of the PDF
// library, and drawn by Exporter with fpdf core fonts. Entities paginate
// with PlanEntities: one "- <entity>" line every 10mm, and a new page once
// the cursor passes 280mm.
package report
