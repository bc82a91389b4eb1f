package ui

import (
	"context"
	"fmt"
	"time"
)

// RunnerConfig describes a multi-step command
type RunnerConfig struct {
	Title     string  // e.g., "Claim Analysis"
	Command   string  // e.g., "claimsense analyze --pdf"
	Params    []Param // Shown in the header
	StepNames []string
	// Hints returns troubleshooting tips shown under a failure
	Hints func(err error) []string
}

// StepFunc reports progress for step number (1-based)
type StepFunc func(step int, status StepStatus, message string)

// Operation is the work a Runner wraps. It returns the details for the
// success box.
type Operation func(ctx context.Context, onStep StepFunc) ([]Param, error)

// Runner orchestrates header → steps → result output for a command.
type Runner struct {
	config   RunnerConfig
	printer  *Printer
	progress *Progress
}

// NewRunner creates a runner printing through printer
func NewRunner(printer *Printer, config RunnerConfig) *Runner {
	return &Runner{
		config:   config,
		printer:  printer,
		progress: NewProgress(config.StepNames...).SetWidth(printer.Width()),
	}
}

// Progress exposes the step state, mostly for tests
func (r *Runner) Progress() *Progress {
	return r.progress
}

// Run prints the header, runs op while printing each finished step, then
// prints a success or failure box. op's error is returned unchanged.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()

	r.printer.PrintHeader(r.config.Title, r.config.Command, r.config.Params...)

	onStep := func(step int, status StepStatus, message string) {
		r.progress.UpdateStep(step, status, message)
		if step < 1 || step > len(r.progress.Steps) {
			return
		}
		line := r.progress.renderStepLine(r.progress.Steps[step-1])
		switch status {
		case StepComplete, StepFailed, StepSkipped:
			r.printer.Println(line)
		case StepRunning:
			// Overwritten by the finished line
			r.printer.Print(line + "\r")
		}
	}

	details, err := op(ctx, onStep)
	elapsed := time.Since(start).Round(time.Millisecond)

	r.printer.Newline()
	if err != nil {
		hints := []string(nil)
		if r.config.Hints != nil {
			hints = r.config.Hints(err)
		}
		r.printer.PrintError(r.config.Title+" failed", err, hints)
		return err
	}

	details = append(details, Param{Key: "Duration", Value: elapsed.String()})
	r.printer.PrintSuccess(fmt.Sprintf("%s complete", r.config.Title), details...)
	return nil
}
