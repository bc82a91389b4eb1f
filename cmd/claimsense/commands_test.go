package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/claimsense/claimsense/internal/config"
)

func TestReadClaim(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "claim.txt")
	if err := os.WriteFile(file, []byte("  Garlic lowers blood pressure\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		file     string
		stdin    string
		terminal bool
		want     string
		wantErr  bool
	}{
		{name: "args joined", args: []string{"Aspirin", "cures", "cancer"}, terminal: true, want: "Aspirin cures cancer"},
		{name: "file trimmed", file: file, terminal: true, want: "Garlic lowers blood pressure"},
		{name: "dash reads stdin", file: "-", stdin: "from stdin\n", terminal: true, want: "from stdin"},
		{name: "piped stdin", stdin: "piped claim", terminal: false, want: "piped claim"},
		{name: "args and file", args: []string{"x"}, file: file, wantErr: true},
		{name: "missing file", file: filepath.Join(dir, "nope.txt"), wantErr: true},
		{name: "nothing on a terminal", terminal: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readClaim(tt.args, tt.file, strings.NewReader(tt.stdin), tt.terminal)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readClaim() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("readClaim() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().StringVar(&endpointFlag, "endpoint", "", "")
		cmd.Flags().StringVar(&settingsBackend, "settings-backend", "", "")
		cmd.Flags().BoolVar(&noHistory, "no-history", false, "")
		return cmd
	}

	t.Run("unset flags keep prefs", func(t *testing.T) {
		cmd := newCmd()
		prefs := &config.Preferences{Endpoint: "http://from-config", SettingsBackend: "file", History: true}
		applyFlags(cmd, prefs)
		if prefs.Endpoint != "http://from-config" || prefs.SettingsBackend != "file" || !prefs.History {
			t.Errorf("prefs changed without flags: %+v", prefs)
		}
	})

	t.Run("set flags override", func(t *testing.T) {
		cmd := newCmd()
		if err := cmd.Flags().Parse([]string{"--endpoint", "http://flag", "--settings-backend", "memory", "--no-history"}); err != nil {
			t.Fatal(err)
		}
		prefs := &config.Preferences{Endpoint: "http://from-config", SettingsBackend: "file", History: true}
		applyFlags(cmd, prefs)
		if prefs.Endpoint != "http://flag" {
			t.Errorf("Endpoint = %q, want http://flag", prefs.Endpoint)
		}
		if prefs.SettingsBackend != "memory" {
			t.Errorf("SettingsBackend = %q, want memory", prefs.SettingsBackend)
		}
		if prefs.History {
			t.Error("History should be disabled by --no-history")
		}
	})
}

func TestCommandTree(t *testing.T) {
	want := []string{"analyze", "report", "history", "settings", "ping", "scan", "serve", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}
