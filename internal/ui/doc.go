// Package ui provides terminal output components for the claimsense CLI.
//
// These components follow a "print and exit" pattern: they render styled
// output with Lipgloss but never take input. The interactive shell lives in
// internal/tui.
//
// # Components
//
//   - Header: command banner showing operation name and parameters
//   - Progress: step list with a progress bar
//   - Result: success, failure and warning boxes with troubleshooting tips
//   - AnalysisCard: one analysis result (claim, sentiment, entities)
//
// Runner strings Header, Progress and Result together for multi-step
// commands such as `claimsense analyze --pdf`:
//
//	runner := ui.NewRunner(printer, ui.RunnerConfig{
//	    Title:     "Claim Analysis",
//	    Command:   "claimsense analyze",
//	    StepNames: []string{"Submit claim", "Export report"},
//	})
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepFunc) ([]ui.Param, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ...
//	    onStep(1, ui.StepComplete, "3 entities")
//	    return nil, nil
//	})
//
// # Logging Integration
//
// Logging is silent unless CLAIMSENSE_LOG_LEVEL or --log-level is set, so
// the styled output is displayed cleanly.
package ui
