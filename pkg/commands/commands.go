// Package commands holds the catalogue of predefined Swarm M138 command
// payloads. The payloads are transmitted verbatim inside the checksummed
// frame; their content is opaque to the rest of the terminal.
package commands

// Command is one predefined modem command.
type Command struct {
	// ID is the short identifier used to pick the command from the CLI
	// or the canned-command key binding.
	ID string
	// Payload is the raw command text before framing.
	Payload string
	// Description is the human-readable label.
	Description string
}

// Predefined is the canned command catalogue, in display order.
var Predefined = []Command{
	{ID: "cs", Payload: "CS", Description: "Configuration Settings"},
	{ID: "dt", Payload: "DT @", Description: "Date/Time Status"},
	{ID: "fv", Payload: "FV", Description: "Firmware Version"},
	{ID: "gj", Payload: "GJ @", Description: "GPS Jamming"},
	{ID: "gn", Payload: "GN @", Description: "Geospatial Info"},
	{ID: "gs", Payload: "GS @", Description: "GPS Fix Quality"},
	{ID: "gp-read", Payload: "GP @", Description: "GPIO1 Read Pin"},
	{ID: "gp-mode", Payload: "GP ?", Description: "GPIO1 Get Mode"},
	{ID: "gp-analog", Payload: "GP 1", Description: "GPIO1 Set Mode - Analog"},
	{ID: "gp-input", Payload: "GP 2", Description: "GPIO1 Set Mode - Input"},
	{ID: "gp-low", Payload: "GP 5", Description: "GPIO1 Set Mode - Output Low"},
	{ID: "gp-high", Payload: "GP 6", Description: "GPIO1 Set Mode - Output High"},
	{ID: "mm-unread", Payload: "MM C=U", Description: "Messages Received - Count Unread"},
	{ID: "mm-oldest", Payload: "MM R=O", Description: "Messages Received - Read Oldest"},
	{ID: "mm-newest", Payload: "MM R=N", Description: "Messages Received - Read Newest"},
	{ID: "mm-notify-on", Payload: "MM N=E", Description: "Messages Received - Notify Enable"},
	{ID: "mm-notify-off", Payload: "MM N=D", Description: "Messages Received - Notify Disable"},
	{ID: "mt-unsent", Payload: "MT C=U", Description: "Message Transmit - Count Unsent"},
	{ID: "mt-delete", Payload: "MT D=U", Description: "Message Transmit - Delete All Unsent"},
	{ID: "po", Payload: "PO", Description: "Power Off"},
	{ID: "pw", Payload: "PW @", Description: "Power Status"},
	{ID: "rs", Payload: "RS", Description: "Restart Device"},
	{ID: "rt-on", Payload: "RT 1", Description: "Receive Test 1Hz"},
	{ID: "rt-off", Payload: "RT 0", Description: "Receive Test Stop"},
	{ID: "td-hello", Payload: `TD "Hello World!"`, Description: "Transmit Text - Hello World!"},
	{ID: "td-binary", Payload: "TD 000102030405", Description: "Transmit Binary - 00 01 02 03 04 05"},
}

// Lookup returns the predefined command with the given identifier.
func Lookup(id string) (Command, bool) {
	for _, c := range Predefined {
		if c.ID == id {
			return c, true
		}
	}
	return Command{}, false
}
