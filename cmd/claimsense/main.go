// Claimsense analyzes medical claims with a remote prediction service.
//
// It submits claim text to the service, shows the predicted sentiment,
// confidence and named entities, and exports the result as a PDF report.
// The same handlers drive an interactive terminal shell, a set of scripting
// commands and a websocket bridge for browser front ends.
//
// Usage:
//
//	claimsense [command] [flags]
//
// Running without arguments launches the interactive shell.
// See 'claimsense --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/version"
)

// errReported marks a failure that was already printed as a styled box
var errReported = errors.New("reported")

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	endpointFlag    string
	configPath      string
	logLevel        string
	logFile         string
	settingsBackend string
	noHistory       bool
)

var rootCmd = &cobra.Command{
	Use:   "claimsense",
	Short: "Medical claim analysis",
	Long: `Analyze medical claims with a sentiment and named-entity prediction service.

Submit a claim, read the predicted sentiment, confidence and entities, and
export the result as a PDF report.

If no command is specified, the interactive shell launches.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeWithOptions(logging.Options{Level: logLevel, File: logFile})
	},
	RunE: runShell,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&endpointFlag, "endpoint", "", "Prediction service URL (overrides config and CLAIMSENSE_ENDPOINT)")
	flags.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/claimsense/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default silent)")
	flags.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")
	flags.StringVar(&settingsBackend, "settings-backend", "", "Where settings live: file, valkey or memory")
	flags.BoolVar(&noHistory, "no-history", false, "Do not record analyses in the history database")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("claimsense %s (commit: %s)\n", version.Version, version.Commit)
	},
}
