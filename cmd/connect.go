package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"swarm-terminal/pkg/app"
	"swarm-terminal/pkg/config"
	"swarm-terminal/pkg/modem"
	"swarm-terminal/pkg/serial"
	"swarm-terminal/pkg/ui"
)

var connectLogFile string

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [port]",
	Short: "Open an interactive session with the modem",
	Long: `Open a serial port and start the interactive terminal session.

The port may be given as a system location (/dev/ttyUSB0, COM3) or a
bare device name (ttyUSB0). Without an argument the last-used port is
reopened.

Inside the session:
  Enter        send the compose line as a framed command
  /<id>        send a predefined command (see 'swarm-terminal commands')
  Ctrl+O/X     open / close the port
  Ctrl+L       start / stop logging
  Ctrl+T/E     clear the monitor / messages pane
  Ctrl+Q       quit`,
	Args:    cobra.MaximumNArgs(1),
	Aliases: []string{"open", "c"},
	Run:     runConnect,
}

func init() {
	connectCmd.Flags().StringVarP(&connectLogFile, "log", "l", "", "log file path (defaults to the last-used path)")
}

func runConnect(cmd *cobra.Command, args []string) {
	settings, err := loadSettings()
	if err != nil {
		slog.Warn("could not load settings", "error", err)
	}

	target := settings.PortName
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		fmt.Fprintln(os.Stderr, "Error: no port given and no last-used port on record.")
		printAvailablePorts()
		os.Exit(1)
	}

	port, err := resolvePort(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printAvailablePorts()
		os.Exit(1)
	}

	logPath := settings.FileLocation
	if connectLogFile != "" {
		logPath = connectLogFile
	}

	view, err := ui.New(port, logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting terminal: %v\n", err)
		os.Exit(1)
	}

	conn := modem.New(modem.Config{})
	session := app.NewSession(conn, view.Sinks())

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	runErr := view.Run(session)
	cancel()
	session.Shutdown()

	saveSettings(config.Settings{PortName: port, FileLocation: logPath})

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running terminal: %v\n", runErr)
		os.Exit(1)
	}
}

// resolvePort maps a user-supplied port argument to a system location.
// Both the system location and the bare device name are accepted.
func resolvePort(target string) (string, error) {
	ports, err := serial.ListPorts()
	if err != nil {
		return "", err
	}
	return resolvePortFrom(ports, target)
}

func resolvePortFrom(ports []serial.PortInfo, target string) (string, error) {
	for _, p := range ports {
		if p.SystemLocation == target || p.Name == target {
			return p.SystemLocation, nil
		}
	}
	return "", fmt.Errorf("port %q not found", target)
}

func printAvailablePorts() {
	ports, err := serial.ListPorts()
	if err != nil || len(ports) == 0 {
		fmt.Fprintln(os.Stderr, "No serial ports found.")
		return
	}
	fmt.Fprintln(os.Stderr, "\nAvailable ports:")
	for _, p := range ports {
		fmt.Fprintf(os.Stderr, "  %s  %s\n", p.SystemLocation, p.Label())
	}
}

func loadSettings() (config.Settings, error) {
	return config.NewManager("").Load()
}

func saveSettings(s config.Settings) {
	if err := config.NewManager("").Save(s); err != nil {
		slog.Warn("could not save settings", "error", err)
	}
}
