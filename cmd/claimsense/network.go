package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/bridge"
	"github.com/claimsense/claimsense/internal/discovery"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/ui"
)

// scanCmd discovers prediction services on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for prediction services on the network",
	Long: `Scan for prediction services using mDNS/DNS-SD discovery.

Services are "_http._tcp" entries whose TXT records carry
path=/Predict_Sentiment.`,
	Example: `  # Scan with the configured timeout
  claimsense scan

  # Longer scan, then save the first service as the endpoint
  claimsense scan --timeout 15 --save`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from config)")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Save the first service found as the endpoint")
}

func runScan(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	timeout := scanTimeout
	if timeout <= 0 {
		timeout = env.prefs.DiscoverTimeout
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintPleaseWait("Scanning for prediction services", fmt.Sprintf("%ds", timeout))

	if scanSave {
		return saveFirstService(ctx, printer, env, timeout)
	}

	services, err := discovery.ScanForServices(ctx, time.Duration(timeout)*time.Second)
	if err != nil {
		printer.PrintError("Scan failed", err, scanHints)
		return errReported
	}

	if len(services) == 0 {
		printNoServices(printer, timeout)
		return nil
	}

	rows := make([][]string, 0, len(services))
	for _, svc := range services {
		rows = append(rows, []string{svc.Instance, svc.Hostname, svc.Endpoint()})
	}
	printer.PrintTable([]string{"Instance", "Host", "Endpoint"}, rows)
	printer.Newline()
	printer.PrintLines(
		"  Use 'claimsense --endpoint <url>' to try a service,",
		"  or 'claimsense scan --save' to keep the first one found.",
	)
	return nil
}

var scanHints = []string{
	"mDNS needs multicast on the local network",
	"Check firewall rules for UDP port 5353",
}

func printNoServices(printer *ui.Printer, timeout int) {
	printer.PrintWarning("No prediction services found",
		ui.Param{Key: "Timeout", Value: fmt.Sprintf("%ds", timeout)},
		ui.Param{Key: "Hint", Value: "Try a longer --timeout or set --endpoint by hand"},
	)
}

// saveFirstService stops at the first service that answers and stores its
// endpoint in the config file.
func saveFirstService(ctx context.Context, printer *ui.Printer, env *environment, timeout int) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(timeout) * time.Second

	svc, err := scanner.WaitForService(ctx)
	if errors.Is(err, discovery.ErrNoService) {
		printNoServices(printer, timeout)
		return nil
	}
	if err != nil {
		printer.PrintError("Scan failed", err, scanHints)
		return errReported
	}

	env.registry.Preferences.Endpoint = svc.Endpoint()
	if err := env.registry.Save(); err != nil {
		return fmt.Errorf("failed to save endpoint: %w", err)
	}
	printer.PrintSuccess("Endpoint saved",
		ui.Param{Key: "Instance", Value: svc.Instance},
		ui.Param{Key: "Endpoint", Value: svc.Endpoint()},
	)
	return nil
}

// serveCmd runs the websocket bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the handlers to a browser over a websocket",
	Long: `Run the websocket bridge so a browser front end can drive the same
handlers as the terminal shell.

Routes: /ws (websocket), /report.pdf (last report), /healthz.`,
	Example: `  claimsense serve
  claimsense serve --addr 0.0.0.0:8765 --advertise`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8765)")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Announce the bridge over mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	addr := serveAddr
	if addr == "" {
		addr = env.prefs.BridgeAddr
	}

	hub := bridge.NewHub()
	a := env.newApp(hub)
	srv := bridge.New(bridge.Config{Addr: addr}, a, hub, env.exporter)
	if err := srv.Listen(); err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Websocket Bridge", "claimsense serve",
		ui.Param{Key: "Listen", Value: srv.Addr()},
		ui.Param{Key: "Endpoint", Value: env.prefs.Endpoint},
	)

	if serveAdvertise {
		_, portStr, _ := net.SplitHostPort(srv.Addr())
		port, _ := strconv.Atoi(portStr)
		host, _ := os.Hostname()
		withdraw, err := discovery.Advertise("claimsense-"+host, port)
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
			printer.PrintWarning("Not advertised over mDNS", ui.Param{Key: "Error", Value: err.Error()})
		} else {
			defer withdraw()
		}
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	printer.Println(ui.StepNoteStyle.Render("  Press ctrl+c to stop"))
	return srv.Serve(ctx)
}
