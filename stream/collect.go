package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"i4.energy/across/espfetch/at"
	"i4.energy/across/espfetch/internal/bounded"
	"i4.energy/across/espfetch/uart"
)

// ByteSource is the read half of a uart.Channel.
type ByteSource interface {
	TryReadByte() (byte, error)
}

// Collector reads the raw socket stream that follows a send.
type Collector struct {
	// Capacity is the maximum stream size in bytes.
	Capacity int
	// PollInterval is the pause after a would-block read.
	PollInterval time.Duration
}

// Collect reads bytes from r until the connection-closed marker appears on
// its own line, and returns everything read including the marker.
//
// Reaching Capacity first returns bounded.ErrOverrun along with the bytes
// read so far. The only other way out is ctx ending or a receive error.
func (c Collector) Collect(ctx context.Context, r ByteSource) ([]byte, error) {
	buf := bounded.New(c.Capacity)
	for {
		b, err := r.TryReadByte()
		if errors.Is(err, uart.ErrWouldBlock) {
			if err := uart.Pause(ctx, c.PollInterval); err != nil {
				return buf.Bytes(), err
			}
			continue
		}
		if err != nil {
			return buf.Bytes(), fmt.Errorf("read stream: %w", err)
		}

		if err := buf.AppendByte(b); err != nil {
			return buf.Bytes(), err
		}
		if b == '\n' && at.MatchClosed(buf.Bytes()) {
			return buf.Bytes(), nil
		}
	}
}
