package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"swarm-terminal/pkg/commands"
	"swarm-terminal/pkg/frame"
)

var commandsFrames bool

// commandsCmd represents the commands command
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the predefined modem commands",
	Long: `List the predefined modem commands and the payloads they send.

Inside an interactive session a predefined command is sent as /<id>.
The send command accepts the same /<id> form.`,
	Aliases: []string{"cmds"},
	Run:     runCommands,
}

func init() {
	commandsCmd.Flags().BoolVarP(&commandsFrames, "frames", "F", false, "show the encoded frame for each command")
}

func runCommands(cmd *cobra.Command, args []string) {
	idWidth := 0
	payloadWidth := 0
	for _, c := range commands.Predefined {
		if len(c.ID) > idWidth {
			idWidth = len(c.ID)
		}
		if len(c.Payload) > payloadWidth {
			payloadWidth = len(c.Payload)
		}
	}

	for _, c := range commands.Predefined {
		if commandsFrames {
			encoded, err := frame.Encode(c.Payload)
			if err != nil {
				continue
			}
			fmt.Printf("  /%-*s  %-*s  %s\n",
				idWidth, c.ID, payloadWidth+2, strings.TrimSuffix(string(encoded), "\n"), c.Description)
		} else {
			fmt.Printf("  /%-*s  %-*s  %s\n", idWidth, c.ID, payloadWidth, c.Payload, c.Description)
		}
	}
}
