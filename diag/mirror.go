// Package diag mirrors completed command exchanges to diagnostic outputs:
// a human-readable log stream and a CBOR capture file that can be inspected
// later.
package diag

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Exchange is one completed command round trip.
type Exchange struct {
	Time     time.Time     `cbor:"1,keyasint"`
	Command  string        `cbor:"2,keyasint"`
	Response string        `cbor:"3,keyasint"`
	Marker   string        `cbor:"4,keyasint"`
	Err      string        `cbor:"5,keyasint,omitempty"`
	Duration time.Duration `cbor:"6,keyasint"`
}

// OK reports whether the exchange ended with the success marker.
func (e Exchange) OK() bool { return e.Err == "" }

// Mirror receives every completed exchange. Mirroring is best-effort: the
// protocol engine logs a returned error and carries on.
type Mirror interface {
	Mirror(Exchange) error
}

// Discard drops every exchange.
var Discard Mirror = discard{}

type discard struct{}

func (discard) Mirror(Exchange) error { return nil }

// Text writes exchanges as plain lines, the way the firmware echoed them on
// its second UART.
type Text struct {
	W io.Writer
}

func (t Text) Mirror(e Exchange) error {
	status := e.Marker
	if e.Err != "" {
		status = e.Err
	}
	_, err := fmt.Fprintf(t.W, "Sending: AT%s\r\n%s\r\nRead cmd complete: %s (%s)\r\n",
		e.Command, e.Response, status, e.Duration.Round(time.Millisecond))
	return err
}

// Multi fans an exchange out to several mirrors. Every mirror sees the
// exchange even if an earlier one fails.
type Multi []Mirror

func (m Multi) Mirror(e Exchange) error {
	var errs []error
	for _, mirror := range m {
		if err := mirror.Mirror(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
