package esp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"i4.energy/across/espfetch/at"
	"i4.energy/across/espfetch/httpjson"
	"i4.energy/across/espfetch/stream"
	"i4.energy/across/espfetch/uart"
)

// State is the position of the session in the bring-up sequence.
type State int

const (
	StateUninitialized State = iota
	StateEchoDisabled
	StateWifiJoined
	StateTCPOpen
	StateRequesting
	StateResponseComplete
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEchoDisabled:
		return "echo-disabled"
	case StateWifiJoined:
		return "wifi-joined"
	case StateTCPOpen:
		return "tcp-open"
	case StateRequesting:
		return "requesting"
	case StateResponseComplete:
		return "response-complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BringUp disables command echo. The module's reply is not framed
// reliably while echo is still on, so it is discarded after EchoSettle.
func (d *Device) BringUp(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrAlreadyClosed
	}

	if _, err := d.ch.Write(at.CmdEchoOff.Line(true)); err != nil {
		return &TransportError{Op: "write", Command: at.CmdEchoOff.String(), Err: err}
	}
	discarded, err := d.settle(ctx)
	if err != nil {
		return fmt.Errorf("disable echo: %w", err)
	}

	d.state = StateEchoDisabled
	d.logger.Info("radio ready", "discarded", discarded)
	return nil
}

// settle waits EchoSettle, then drops whatever the module sends until the
// link has been quiet for a whole poll interval.
func (d *Device) settle(ctx context.Context) (int, error) {
	if err := uart.Pause(ctx, d.config.EchoSettle); err != nil {
		return 0, err
	}
	total := 0
	for {
		n, err := uart.Drain(d.ch)
		total += n
		if err != nil {
			return total, &TransportError{Op: "drain", Err: err}
		}
		if n == 0 {
			return total, nil
		}
		if err := uart.Pause(ctx, d.config.PollInterval); err != nil {
			return total, err
		}
	}
}

// JoinNetwork selects station mode and associates with ssid. It makes up
// to the configured number of attempts.
func (d *Device) JoinNetwork(ctx context.Context, ssid, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrAlreadyClosed
	}
	if d.state < StateEchoDisabled {
		return &SequencingError{Op: "join network", State: d.state, Err: ErrNotReady}
	}

	var err error
	for attempt := 1; attempt <= d.config.JoinAttempts; attempt++ {
		if attempt > 1 {
			d.logger.Warn("retrying association", "ssid", ssid, "attempt", attempt, "error", err)
			if perr := uart.Pause(ctx, d.config.RetryInterval); perr != nil {
				return errors.Join(err, perr)
			}
		}
		if err = d.join(ctx, ssid, password); err == nil {
			d.state = StateWifiJoined
			d.logger.Info("joined network", "ssid", ssid)
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	// A failed +CWJAP drops any previous association.
	if d.state > StateEchoDisabled {
		d.state = StateEchoDisabled
	}
	return err
}

func (d *Device) join(ctx context.Context, ssid, password string) error {
	if _, err := d.communicate(ctx, at.CmdStationMode, true, d.config.ATTimeout); err != nil {
		return fmt.Errorf("select station mode: %w", err)
	}
	if err := uart.Pause(ctx, d.config.ModeSettle); err != nil {
		return err
	}
	if _, err := d.communicate(ctx, at.JoinAP(ssid, password), true, d.config.JoinTimeout); err != nil {
		return fmt.Errorf("join %q: %w", ssid, err)
	}
	return nil
}

// OpenAndGet opens a TCP connection to host:port, sends a GET for path and
// decodes the JSON reply. The peer closes the connection once it has
// answered, so on return the session is back in StateWifiJoined.
func (d *Device) OpenAndGet(ctx context.Context, host string, port int, path string) (httpjson.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return httpjson.Result{}, ErrAlreadyClosed
	}
	if d.state < StateWifiJoined {
		return httpjson.Result{}, &SequencingError{Op: "open connection", State: d.state, Err: ErrNotJoined}
	}

	if _, err := d.communicate(ctx, at.StartTCP(host, port), true, d.config.ATTimeout); err != nil {
		return httpjson.Result{}, fmt.Errorf("open connection to %s:%d: %w", host, port, err)
	}
	d.state = StateTCPOpen

	res, err := d.get(ctx, host, path)
	if err != nil && d.state < StateResponseComplete {
		d.abort(ctx)
	}
	d.state = StateWifiJoined
	if err != nil {
		return res, err
	}

	d.logger.Info("fetched reading", "host", host, "path", path, "status", res.Status, "payload", res.Payload.String())
	return res, nil
}

func (d *Device) get(ctx context.Context, host, path string) (httpjson.Result, error) {
	request := httpjson.NewRequest(host, path)
	if _, err := d.communicate(ctx, at.SendLength(len(request)), true, d.config.ATTimeout); err != nil {
		return httpjson.Result{}, fmt.Errorf("announce request: %w", err)
	}
	d.state = StateRequesting

	if _, err := d.ch.Write(request); err != nil {
		return httpjson.Result{}, &TransportError{Op: "write", Command: "request", Err: err}
	}

	raw, err := d.collect(ctx)
	if err != nil {
		return httpjson.Result{}, err
	}
	d.state = StateResponseComplete

	resp, err := stream.Reassemble(raw)
	if err != nil {
		return httpjson.Result{Text: string(raw)}, fmt.Errorf("reassemble response: %w", err)
	}
	res, err := httpjson.Decode(resp)
	if err != nil {
		return res, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}

func (d *Device) collect(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.StreamTimeout)
	defer cancel()

	collector := stream.Collector{
		Capacity:     d.config.StreamCapacity,
		PollInterval: d.config.PollInterval,
	}
	raw, err := collector.Collect(ctx, d.ch)
	switch {
	case err == nil:
		return raw, nil
	case errors.Is(err, ErrOverrun):
		return raw, &OverrunError{What: "response stream", Capacity: d.config.StreamCapacity, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return raw, waitError("collect response", err)
	default:
		return raw, &TransportError{Op: "read", Command: "response stream", Err: err}
	}
}

// abort closes a connection left open by a failed exchange. Errors are
// logged only.
func (d *Device) abort(ctx context.Context) {
	if n, err := uart.Drain(d.ch); err != nil {
		d.logger.Warn("drain after failed request", "error", err)
		return
	} else if n > 0 {
		d.logger.Debug("discarded stale bytes", "count", n)
	}
	ctx = context.WithoutCancel(ctx)
	if _, err := d.communicate(ctx, at.CmdCloseTCP, true, d.config.ATTimeout); err != nil {
		d.logger.Warn("close connection after failed request", "error", err)
	}
}

// Ping checks that the module answers a bare "AT".
func (d *Device) Ping(ctx context.Context) error {
	return d.Send(ctx, at.CmdAttention, true)
}

// Reset restarts the module. Echo comes back on after a restart, so the
// session returns to StateUninitialized and BringUp is required again.
func (d *Device) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrAlreadyClosed
	}

	if _, err := d.communicate(ctx, at.CmdReset, true, d.config.ATTimeout); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	d.state = StateUninitialized

	discarded, err := d.settle(ctx)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	d.logger.Info("radio restarted", "discarded", discarded)
	return nil
}

// QueryNetwork returns the SSID the module is associated with, or "" when
// it is not associated. The session state follows the answer.
func (d *Device) QueryNetwork(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", ErrAlreadyClosed
	}
	if d.state < StateEchoDisabled {
		return "", &SequencingError{Op: "query network", State: d.state, Err: ErrNotReady}
	}

	resp, err := d.communicate(ctx, at.CmdQueryAP, true, d.config.ATTimeout)
	if err != nil {
		return "", fmt.Errorf("query network: %w", err)
	}

	ssid := currentSSID(resp.Lines())
	switch {
	case ssid == "" && d.state >= StateWifiJoined:
		d.state = StateEchoDisabled
	case ssid != "" && d.state == StateEchoDisabled:
		d.state = StateWifiJoined
	}
	return ssid, nil
}

// currentSSID returns the SSID field of a +CWJAP: line, or "" when the
// module reports none.
func currentSSID(lines []string) string {
	for _, line := range lines {
		rest, ok := strings.CutPrefix(line, at.CurrentAP)
		if !ok || !strings.HasPrefix(rest, `"`) {
			continue
		}
		fields, err := at.SplitParams(rest)
		if err != nil {
			continue
		}
		return fields[0]
	}
	return ""
}

// CloseConnection closes the TCP connection.
func (d *Device) CloseConnection(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrAlreadyClosed
	}

	if _, err := d.communicate(ctx, at.CmdCloseTCP, true, d.config.ATTimeout); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	if d.state > StateWifiJoined {
		d.state = StateWifiJoined
	}
	return nil
}
