package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/history"
	"github.com/claimsense/claimsense/internal/ui"
)

// Command flags
var (
	claimFile      string
	exportPDF      bool
	jsonOutput     bool
	reportID       string
	reportLatest   bool
	historyLimit   int
	setUsername    string
	setDarkMode    bool
	scanTimeout    int
	scanSave       bool
	serveAddr      string
	serveAdvertise bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
}

// signalContext is cancelled on ctrl+c so in-flight requests abort cleanly
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printNotifications renders what a handler reported through a Recorder.
// It returns errReported if any notification was an error.
func printNotifications(p *ui.Printer, title string, rec *app.Recorder, hints []string) error {
	var failed bool
	for _, n := range rec.Notifications() {
		if n.Level == app.LevelError {
			failed = true
			p.PrintError(title+" failed", errors.New(n.Message), hints)
			continue
		}
		p.PrintSuccess(n.Message)
	}
	if failed {
		return errReported
	}
	return nil
}

// analyzeCmd submits one claim
var analyzeCmd = &cobra.Command{
	Use:   "analyze [claim text]",
	Short: "Analyze a medical claim",
	Long: `Submit a medical claim to the prediction service and print the predicted
sentiment, confidence and named entities.

The claim is taken from the arguments, from --file, or from standard input.`,
	Example: `  # Analyze a claim given on the command line
  claimsense analyze "Vitamin C prevents the common cold"

  # Read the claim from a file and export the PDF report
  claimsense analyze --file claim.txt --pdf

  # Pipe a claim in and print JSON
  echo "Aspirin cures cancer" | claimsense analyze --json`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&claimFile, "file", "f", "", "Read the claim from a file (- for stdin)")
	analyzeCmd.Flags().BoolVar(&exportPDF, "pdf", false, "Export the PDF report after analysis")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readClaim(args, claimFile, cmd.InOrStdin(), ui.IsStdinTerminal())
	if err != nil {
		return err
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	rec := &app.Recorder{}
	a := env.newApp(rec)
	printer := ui.NewPrinter(cmd.OutOrStdout())

	if jsonOutput {
		result, err := a.SubmitAnalysis(ctx, text)
		if err != nil {
			return err
		}
		if exportPDF {
			if _, err := a.ExportReport(); err != nil {
				return err
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !exportPDF {
		printer.PrintPleaseWait("Analyzing claim", env.prefs.Endpoint)
		result, err := a.SubmitAnalysis(ctx, text)
		if err != nil {
			printer.PrintError("Analysis failed", err, analysis.TroubleshootingHints(err))
			return errReported
		}
		printer.PrintAnalysis(*result)
		return nil
	}

	runner := ui.NewRunner(printer, ui.RunnerConfig{
		Title:     "Claim Analysis",
		Command:   "claimsense analyze --pdf",
		Params:    []ui.Param{{Key: "Endpoint", Value: env.prefs.Endpoint}},
		StepNames: []string{"Submit claim", "Export report"},
		Hints:     analysis.TroubleshootingHints,
	})

	err = runner.Run(ctx, func(ctx context.Context, onStep ui.StepFunc) ([]ui.Param, error) {
		onStep(1, ui.StepRunning, "")
		result, err := a.SubmitAnalysis(ctx, text)
		if err != nil {
			onStep(1, ui.StepFailed, analysis.ShortMessage(err))
			onStep(2, ui.StepSkipped, "")
			return nil, err
		}
		onStep(1, ui.StepComplete, fmt.Sprintf("%d entities", len(result.Entities)))

		onStep(2, ui.StepRunning, "")
		path, err := a.ExportReport()
		if err != nil {
			onStep(2, ui.StepFailed, "")
			return nil, err
		}
		onStep(2, ui.StepComplete, fmt.Sprintf("%d pages", env.exporter.Pages(result)))

		return []ui.Param{
			{Key: "Sentiment", Value: result.Sentiment},
			{Key: "Confidence", Value: analysis.FormatConfidence(result.Confidence)},
			{Key: "Entities", Value: strconv.Itoa(len(result.Entities))},
			{Key: "Report", Value: path},
		}, nil
	})
	if err != nil {
		return errReported
	}
	return nil
}

// readClaim picks the claim text from args, a file, or piped stdin
func readClaim(args []string, file string, stdin io.Reader, stdinIsTerminal bool) (string, error) {
	switch {
	case len(args) > 0 && file != "":
		return "", fmt.Errorf("give the claim as arguments or --file, not both")
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file == "-":
		return readAll(stdin)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read claim: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case !stdinIsTerminal:
		return readAll(stdin)
	default:
		return "", fmt.Errorf("no claim given (pass text, --file, or pipe it in)")
	}
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read claim: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// reportCmd re-exports a past analysis
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the PDF report of a past analysis",
	Long: `Write the PDF report for an analysis stored in the history database.

Without flags the most recent analysis is used.`,
	Example: `  # Report of the latest analysis
  claimsense report

  # Report of a specific analysis (IDs from 'claimsense history')
  claimsense report --id 3f0c9a9e-8d7b-4b61-9c55-0d0b1c2f6f10`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportID, "id", "", "History entry ID")
	reportCmd.Flags().BoolVar(&reportLatest, "latest", false, "Use the most recent analysis (default)")
	reportCmd.MarkFlagsMutuallyExclusive("id", "latest")
}

func runReport(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.history == nil {
		return fmt.Errorf("history is disabled or unavailable")
	}

	entry, err := lookupEntry(cmd.Context(), env.history, reportID)
	if err != nil {
		return err
	}

	rec := &app.Recorder{}
	a := env.newApp(rec)
	a.Restore(entry.Result)
	_, _ = a.ExportReport()

	return printNotifications(ui.NewPrinter(cmd.OutOrStdout()), "Report", rec, []string{
		"Check that the report directory is writable",
		"Set report_dir in the config file or CLAIMSENSE_REPORT_DIR",
	})
}

func lookupEntry(ctx context.Context, store *history.Store, id string) (history.Entry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		entry, err := store.Latest(ctx)
		if errors.Is(err, history.ErrNotFound) {
			return history.Entry{}, fmt.Errorf("no analyses recorded yet")
		}
		return entry, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return history.Entry{}, fmt.Errorf("invalid --id: %w", err)
	}
	entry, err := store.Get(ctx, parsed)
	if errors.Is(err, history.ErrNotFound) {
		return history.Entry{}, fmt.Errorf("no analysis with id %s", parsed)
	}
	return entry, err
}

// historyCmd lists past analyses
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses",
	Example: `  claimsense history
  claimsense history --limit 50 --json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.history == nil {
		return fmt.Errorf("history is disabled or unavailable")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := env.history.List(ctx, historyLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	if len(entries) == 0 {
		printer.PrintWarning("No analyses recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		claim := strings.ReplaceAll(e.Result.Text, "\n", " ")
		if r := []rune(claim); len(r) > 48 {
			claim = string(r[:47]) + "…"
		}
		rows = append(rows, []string{
			e.ID.String(),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Result.Sentiment,
			analysis.FormatConfidence(e.Result.Confidence),
			claim,
		})
	}
	printer.PrintTable([]string{"ID", "When", "Sentiment", "Conf.", "Claim"}, rows)
	return nil
}

// settingsCmd shows or changes the display settings
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the username and theme",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Example: `  claimsense settings set --username "Dr. Ana"
  claimsense settings set --dark-mode=false`,
	RunE: runSettingsSet,
}

func init() {
	settingsSetCmd.Flags().StringVar(&setUsername, "username", "", "Display name (blank resets to the default)")
	settingsSetCmd.Flags().BoolVar(&setDarkMode, "dark-mode", false, "Use the dark theme")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	s, err := env.settings.Load(ctx)
	if err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Settings",
		ui.Param{Key: "Username", Value: s.Username},
		ui.Param{Key: "Avatar", Value: s.Avatar()},
		ui.Param{Key: "Dark mode", Value: strconv.FormatBool(s.DarkMode)},
		ui.Param{Key: "Backend", Value: env.prefs.SettingsBackend},
	)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("username") && !flags.Changed("dark-mode") {
		return fmt.Errorf("nothing to change (use --username and/or --dark-mode)")
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	current, err := env.settings.Load(ctx)
	if err != nil {
		return err
	}
	username, dark := current.Username, current.DarkMode
	if flags.Changed("username") {
		username = setUsername
	}
	if flags.Changed("dark-mode") {
		dark = setDarkMode
	}

	rec := &app.Recorder{}
	_, _ = env.newApp(rec).SaveSettings(ctx, username, dark)

	return printNotifications(ui.NewPrinter(cmd.OutOrStdout()), "Saving settings", rec, []string{
		"Check that the config directory is writable",
		"For the valkey backend, check that the server is reachable",
	})
}

// pingCmd checks the prediction service
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the prediction service answers",
	RunE:  runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	printer := ui.NewPrinter(cmd.OutOrStdout())
	start := time.Now()
	if err := env.client.Ping(ctx); err != nil {
		printer.PrintError("Service unreachable", err, analysis.TroubleshootingHints(err))
		return errReported
	}

	printer.PrintSuccess("Service is up",
		ui.Param{Key: "Endpoint", Value: env.prefs.Endpoint},
		ui.Param{Key: "Round trip", Value: time.Since(start).Round(time.Millisecond).String()},
	)
	return nil
}
