package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"i4.energy/across/espfetch/httpjson"
)

// loadConfig layers defaults, environment and the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	return LoadConfig(WithDefaults(), WithEnv(), WithFlags(cmd.Flags()))
}

// reading interprets a payload the way the stats peer reports it: CPU usage
// first, then temperatures.
type reading struct {
	CPU          int64
	Temperatures []int64
	ok           bool
}

func newReading(p httpjson.Payload) reading {
	values := p.Values()
	if len(values) == 0 {
		return reading{}
	}
	return reading{CPU: values[0], Temperatures: values[1:], ok: true}
}

func (r reading) String() string {
	if !r.ok {
		return "no values"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "CPU %d%%", r.CPU)
	for i, t := range r.Temperatures {
		fmt.Fprintf(&sb, ", temp %d %d°C", i, t)
	}
	return sb.String()
}

func formatResult(res httpjson.Result) string {
	return fmt.Sprintf("HTTP %d %s (%s)", res.Status, res.Payload, newReading(res.Payload))
}
