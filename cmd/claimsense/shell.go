package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/claimsense/claimsense/internal/tui"
)

// runShell launches the interactive shell
func runShell(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	events := tui.NewEventView()
	cfg := tui.Config{
		App:      env.newApp(events),
		Events:   events,
		Endpoint: env.prefs.Endpoint,
	}
	if env.history != nil {
		cfg.History = env.history
	}

	p := tea.NewProgram(tui.NewModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("shell error: %w", err)
	}
	return nil
}
