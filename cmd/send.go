package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"swarm-terminal/pkg/app"
	"swarm-terminal/pkg/config"
	"swarm-terminal/pkg/modem"
)

var (
	sendPort    string
	sendWait    time.Duration
	sendLogFile string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <payload> [payload...]",
	Short: "Send commands to the modem without the interactive UI",
	Long: `Frame and transmit one or more commands, print the replies, and exit.

Each payload is wrapped in the modem's frame format before transmission.
A payload starting with '/' names a predefined command instead (see
'swarm-terminal commands'). After the last command the session keeps
listening for --wait before closing the port.

Examples:
  swarm-terminal send CS
  swarm-terminal send --port /dev/ttyUSB0 /fv "DT @"
  swarm-terminal send --log session.log --wait 5s RT 1`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendPort, "port", "p", "", "serial port (defaults to the last-used port)")
	sendCmd.Flags().DurationVarP(&sendWait, "wait", "w", 2*time.Second, "time to wait for replies after the last command")
	sendCmd.Flags().StringVarP(&sendLogFile, "log", "l", "", "append session traffic to this file")
}

func runSend(cmd *cobra.Command, args []string) {
	settings, err := loadSettings()
	if err != nil {
		slog.Warn("could not load settings", "error", err)
	}

	target := sendPort
	if target == "" {
		target = settings.PortName
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

	conn := modem.New(modem.Config{})
	session := app.NewSession(conn, app.Sinks{
		Display: func(line string) { fmt.Println(line) },
		Status:  func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)

	if err := session.OpenPort(port); err != nil {
		os.Exit(1)
	}

	if sendLogFile != "" {
		if err := session.StartLogging(sendLogFile); err != nil {
			session.Shutdown()
			os.Exit(1)
		}
	}

	failed := false
	for _, payload := range args {
		var err error
		if strings.HasPrefix(payload, "/") {
			err = session.SendCanned(strings.TrimPrefix(payload, "/"))
		} else {
			err = session.Send(payload)
		}
		if err != nil {
			failed = true
		}
	}

	time.Sleep(sendWait)
	session.Shutdown()

	saveSettings(config.Settings{PortName: port, FileLocation: settings.FileLocation})

	if failed {
		os.Exit(1)
	}
}
