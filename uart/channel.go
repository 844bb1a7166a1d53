// Package uart models the byte link to the radio module: a non-blocking
// single-byte read primitive, a blocking write primitive, and the bounded
// queue that sits between the receiver and the protocol engine.
package uart

import (
	"context"
	"errors"
	"time"
)

// ErrWouldBlock is returned by TryReadByte when no byte is available yet.
// It is a cue to poll again, not a failure.
var ErrWouldBlock = errors.New("uart: would block")

// Channel is the byte-level link to the radio module.
type Channel interface {
	// TryReadByte returns the next received byte, ErrWouldBlock if none is
	// available right now, or a terminal receive error.
	TryReadByte() (byte, error)
	// Write blocks until p has been accepted by the link.
	Write(p []byte) (int, error)
}

// Drain discards every byte currently available on ch and returns how many
// were dropped. It stops at the first would-block; any other read error is
// returned.
func Drain(ch Channel) (int, error) {
	n := 0
	for {
		_, err := ch.TryReadByte()
		if errors.Is(err, ErrWouldBlock) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// Pause waits d before the next poll of a channel that would block. It
// returns early with the context's error once ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
