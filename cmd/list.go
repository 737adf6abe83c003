package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"swarm-terminal/pkg/serial"
)

var (
	listDetails bool
	listFormat  string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all serial ports currently enumerated by the OS.

The system location shown in the first column is the identifier the
connect and send commands expect. On different platforms:
  - Windows: COM ports
  - Linux: /dev/tty* devices
  - macOS: /dev/cu.* and /dev/tty.* devices`,
	Aliases: []string{"ls", "ports"},
	Run:     runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listDetails, "details", "d", false, "show detailed port information")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, csv, json)")
}

func runList(cmd *cobra.Command, args []string) {
	ports, err := serial.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
		os.Exit(1)
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return
	}

	switch listFormat {
	case "csv":
		printPortsCSV(ports)
	case "json":
		printPortsJSON(ports)
	default:
		printPortsTable(ports)
	}
}

func printPortsTable(ports []serial.PortInfo) {
	fmt.Printf("Found %d serial port(s):\n", len(ports))

	for _, p := range ports {
		if listDetails {
			fmt.Printf("  %-20s %s", p.SystemLocation, p.Label())
			if p.IsUSB {
				fmt.Printf(" [USB]")
				if p.VID != "" || p.PID != "" {
					fmt.Printf(" VID:%s PID:%s", p.VID, p.PID)
				}
				if p.SerialNumber != "" {
					fmt.Printf(" (SN: %s)", p.SerialNumber)
				}
			}
			fmt.Println()
		} else {
			fmt.Printf("  %s\n", p.SystemLocation)
		}
	}

	fmt.Println("\nUse 'swarm-terminal connect <port>' to start a session.")
}

func printPortsCSV(ports []serial.PortInfo) {
	if listDetails {
		fmt.Println("system_location,name,description,is_usb,vid,pid,serial_number")
		for _, p := range ports {
			fmt.Printf("%s,%s,%s,%t,%s,%s,%s\n",
				p.SystemLocation, p.Name, p.Description, p.IsUSB, p.VID, p.PID, p.SerialNumber)
		}
	} else {
		fmt.Println("system_location")
		for _, p := range ports {
			fmt.Println(p.SystemLocation)
		}
	}
}

func printPortsJSON(ports []serial.PortInfo) {
	var out any = ports
	if !listDetails {
		locations := make([]string, 0, len(ports))
		for _, p := range ports {
			locations = append(locations, p.SystemLocation)
		}
		out = locations
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding ports: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
