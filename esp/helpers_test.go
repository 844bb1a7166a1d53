package esp_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"i4.energy/across/espfetch/diag"
	"i4.energy/across/espfetch/esp"
	"i4.energy/across/espfetch/uart"
)

// scriptChannel is an in-memory uart.Channel. Every Write queues the next
// scripted reply for reading.
type scriptChannel struct {
	mu      sync.Mutex
	replies []string
	pending []byte
	written []string

	// late chunks arrive one at a time, each only after the reader has
	// found the link empty.
	late []string
	// stutter makes every other read would-block.
	stutter  bool
	tick     int
	readErr  error
	writeErr error
}

func newScript(replies ...string) *scriptChannel {
	return &scriptChannel{replies: replies}
}

func (c *scriptChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.written = append(c.written, string(p))
	if len(c.replies) > 0 {
		c.pending = append(c.pending, c.replies[0]...)
		c.replies = c.replies[1:]
	}
	return len(p), nil
}

func (c *scriptChannel) TryReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	if c.stutter && c.tick%2 == 0 {
		return 0, uart.ErrWouldBlock
	}
	if len(c.pending) == 0 && len(c.late) > 0 {
		c.pending = append(c.pending, c.late[0]...)
		c.late = c.late[1:]
		return 0, uart.ErrWouldBlock
	}
	if len(c.pending) == 0 {
		if c.readErr != nil {
			return 0, c.readErr
		}
		return 0, uart.ErrWouldBlock
	}
	b := c.pending[0]
	c.pending = c.pending[1:]
	return b, nil
}

func (c *scriptChannel) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

// recordMirror keeps every mirrored exchange.
type recordMirror struct {
	mu        sync.Mutex
	exchanges []diag.Exchange
	err       error
}

func (m *recordMirror) Mirror(e diag.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = append(m.exchanges, e)
	return m.err
}

var errNotDialable = errors.New("not dialable")

// testConfig returns a Config with short waits for devices built with
// NewDevice.
func testConfig(t *testing.T, configure ...func(*esp.ConfigBuilder)) esp.Config {
	t.Helper()
	b := esp.NewConfigBuilder().
		WithDialer(esp.DialerFunc(func(context.Context) (esp.Transport, error) {
			return nil, errNotDialable
		})).
		WithPollInterval(10 * time.Microsecond).
		WithEchoSettle(time.Microsecond).
		WithModeSettle(time.Microsecond).
		WithATTimeout(time.Second).
		WithJoinTimeout(time.Second).
		WithStreamTimeout(time.Second)
	for _, fn := range configure {
		fn(b)
	}
	config, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}
	return config
}

// ipd frames payload as one inbound-data segment.
func ipd(payload string) string {
	return fmt.Sprintf("\r\n+IPD,%d:%s", len(payload), payload)
}

const (
	replyOK      = "\r\nOK\r\n"
	replyJoined  = "WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n"
	replyConnect = "CONNECT\r\n\r\nOK\r\n"
	replyPrompt  = "\r\nOK\r\n> "
	sendAck      = "\r\nRecv 88 bytes\r\n\r\nSEND OK\r\n"
	closedLine   = "\r\nCLOSED\r\n"
)

// joinedDevice returns a device that has been brought up and joined, with
// the remaining replies scripted for what follows.
func joinedDevice(t *testing.T, ch *scriptChannel, config esp.Config) *esp.Device {
	t.Helper()
	ch.replies = append([]string{"ATE0\r\r\nOK\r\n", replyOK, replyJoined}, ch.replies...)
	d := esp.NewDevice(ch, config)
	ctx := context.Background()
	if err := d.BringUp(ctx); err != nil {
		t.Fatalf("unexpected BringUp error: %v", err)
	}
	if err := d.JoinNetwork(ctx, "home", "secret"); err != nil {
		t.Fatalf("unexpected JoinNetwork error: %v", err)
	}
	return d
}
