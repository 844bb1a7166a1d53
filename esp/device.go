// Package esp drives an ESP8266-class Wi-Fi radio running the ESP-AT
// firmware. A Device sends one AT command at a time over a byte channel,
// collects the response until a terminal marker line, and sequences the
// bring-up, association and single HTTP GET the application needs.
package esp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"i4.energy/across/espfetch/at"
	"i4.energy/across/espfetch/diag"
	"i4.energy/across/espfetch/internal/bounded"
	"i4.energy/across/espfetch/uart"
)

// Device is one ESP-AT radio module. All operations are serialized: only
// one command is ever outstanding.
type Device struct {
	// ch is the byte link; the Device is its only consumer
	ch uart.Channel
	// closer releases the link, nil when the caller owns it
	closer io.Closer
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

// Response is the outcome of one command round trip.
type Response struct {
	Command string
	// Text is the response with one leading and one trailing CRLF removed.
	Text   string
	Marker at.Marker
}

// Lines returns the non-empty lines of the response text.
func (r Response) Lines() []string { return at.Lines(r.Text) }

// New dials the configured Dialer and returns a Device reading through a
// uart.Port. The radio is not touched; call BringUp next.
func New(ctx context.Context, config Config) (*Device, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial radio: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	port := uart.NewPort(transport, config.QueueCapacity)
	d := newDevice(port, config)
	d.closer = port
	return d, nil
}

// NewDevice returns a Device over an existing channel. Closing the Device
// does not close ch.
func NewDevice(ch uart.Channel, config Config) *Device {
	config.setDefaults()
	return newDevice(ch, config)
}

func newDevice(ch uart.Channel, config Config) *Device {
	return &Device{
		ch:     ch,
		config: config,
		logger: config.Logger.With("component", "esp"),
		state:  StateUninitialized,
	}
}

// State returns the current session state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close releases the link. A second Close returns ErrAlreadyClosed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// Communicate sends cmd, prefixed with "AT" when prefix is set, and waits
// for its terminal marker. The response is returned on failure too.
func (d *Device) Communicate(ctx context.Context, cmd at.Command, prefix bool) (Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Response{}, ErrAlreadyClosed
	}
	return d.communicate(ctx, cmd, prefix, d.config.ATTimeout)
}

// Send is Communicate for callers that only need the outcome.
func (d *Device) Send(ctx context.Context, cmd at.Command, prefix bool) error {
	_, err := d.Communicate(ctx, cmd, prefix)
	return err
}

// communicate runs one round trip bounded by timeout. d.mu must be held.
func (d *Device) communicate(ctx context.Context, cmd at.Command, prefix bool, timeout time.Duration) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	resp, err := d.roundTrip(ctx, cmd, prefix)
	d.mirror(cmd, resp, err, started)
	return resp, err
}

func (d *Device) roundTrip(ctx context.Context, cmd at.Command, prefix bool) (Response, error) {
	resp := Response{Command: cmd.Redacted()}
	if _, err := d.ch.Write(cmd.Line(prefix)); err != nil {
		return resp, &TransportError{Op: "write", Command: resp.Command, Err: err}
	}

	buf := bounded.New(d.config.ResponseCapacity)
	for {
		b, err := d.ch.TryReadByte()
		if errors.Is(err, uart.ErrWouldBlock) {
			if err := uart.Pause(ctx, d.config.PollInterval); err != nil {
				resp.Text = trimResponse(buf.Bytes())
				return resp, waitError(fmt.Sprintf("command %q", resp.Command), err)
			}
			continue
		}
		if err != nil {
			resp.Text = trimResponse(buf.Bytes())
			return resp, &TransportError{Op: "read", Command: resp.Command, Err: err}
		}

		if err := buf.AppendByte(b); err != nil {
			resp.Text = trimResponse(buf.Bytes())
			return resp, &OverrunError{What: "response to " + resp.Command, Capacity: buf.Cap(), Err: err}
		}
		if b != '\n' {
			continue
		}
		marker, ok := at.MatchTerminal(buf.Bytes())
		if !ok {
			continue
		}

		resp.Marker = marker
		resp.Text = trimResponse(buf.Bytes())
		if marker != at.MarkerOK {
			return resp, &ProtocolError{Command: resp.Command, Marker: marker, Response: resp.Text}
		}
		return resp, nil
	}
}

var crlf = []byte(at.CRLF)

func trimResponse(b []byte) string {
	b = bytes.TrimPrefix(b, crlf)
	b = bytes.TrimSuffix(b, crlf)
	return string(b)
}

// waitError maps the end of a bounded wait to ErrTimeout, leaving
// cancellation as it is.
func waitError(what string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", what, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (d *Device) mirror(cmd at.Command, resp Response, err error, started time.Time) {
	exchange := diag.Exchange{
		Time:     started,
		Command:  cmd.Redacted(),
		Response: resp.Text,
		Marker:   resp.Marker.String(),
		Duration: time.Since(started),
	}
	if err != nil {
		exchange.Err = err.Error()
	}

	d.logger.Debug("exchange",
		"command", exchange.Command,
		"marker", exchange.Marker,
		"duration", exchange.Duration,
		"error", exchange.Err,
	)
	if merr := d.config.Mirror.Mirror(exchange); merr != nil {
		d.logger.Debug("mirror exchange", "error", merr)
	}
}
