// Package bounded provides a fixed-capacity byte buffer for accumulating
// radio responses without ever growing past a declared size.
package bounded

import "errors"

// ErrOverrun is returned when an append would exceed the buffer capacity.
var ErrOverrun = errors.New("buffer capacity exceeded")

// Buffer is an append-only byte buffer with a fixed capacity. The zero value
// has capacity 0 and rejects every append; use New.
type Buffer struct {
	data []byte
}

// New returns an empty Buffer that holds at most capacity bytes.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, 0, capacity)}
}

// AppendByte appends b, or returns ErrOverrun if the buffer is full.
func (b *Buffer) AppendByte(c byte) error {
	if len(b.data) == cap(b.data) {
		return ErrOverrun
	}
	b.data = append(b.data, c)
	return nil
}

// Bytes returns the accumulated bytes. The slice aliases the buffer until
// the next append.
func (b *Buffer) Bytes() []byte { return b.data }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return cap(b.data) }
