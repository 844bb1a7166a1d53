package diag

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var captureEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// CaptureWriter appends exchanges to w as a sequence of CBOR items.
type CaptureWriter struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewCaptureWriter returns a CaptureWriter that writes to w.
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: captureEncMode.NewEncoder(w)}
}

func (c *CaptureWriter) Mirror(e Exchange) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(e); err != nil {
		return fmt.Errorf("encode capture: %w", err)
	}
	return nil
}

// ReadCapture decodes every exchange stored in r.
func ReadCapture(r io.Reader) ([]Exchange, error) {
	dec := cbor.NewDecoder(r)
	var out []Exchange
	for {
		var e Exchange
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("decode capture item %d: %w", len(out), err)
		}
		out = append(out, e)
	}
}
