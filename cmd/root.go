package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espfetch",
	Short: "Fetch JSON readings through an ESP-AT Wi-Fi radio",
	Long: `espfetch - drive an ESP8266 radio running the ESP-AT firmware.

The radio is brought up, joined to a wireless network, and used to issue an
HTTP GET to a fixed peer whose reply is a JSON integer or integer array.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  Emulated:  --emulate

The Wi-Fi password is read from the WIFI_PASSWORD environment variable, or
prompted interactively if not set. The WebSocket bridge password is read from
WS_PASSWORD the same way. No password flags are provided to avoid leaking
credentials in shell history.`,
	SilenceUsage: true,
	Version:      "1.0.0",
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", 0, "Baud rate (serial only)")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	flags.Bool("emulate", false, "Use the in-process radio emulator")

	// Session flags
	flags.String("ssid", "", "Wi-Fi network to join")
	flags.String("peer-host", "", "Peer host to fetch from")
	flags.Int("peer-port", 0, "Peer TCP port")
	flags.String("path", "", "Request path")
	flags.Int("join-attempts", 0, "Association attempts before giving up")

	// Diagnostics
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
	flags.String("capture", "", "Append every command exchange to this CBOR capture file")
	flags.Bool("trace", false, "Print every command exchange to stderr")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
