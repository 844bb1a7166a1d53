// Command espfetch drives an ESP8266 radio running the ESP-AT firmware and
// fetches JSON readings from a peer on the joined Wi-Fi network.
package main

import (
	"os"

	"i4.energy/across/espfetch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
