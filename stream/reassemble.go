package stream

import (
	"bytes"
	"fmt"
)

// Reassemble removes every framing segment from raw and returns the socket
// payload in its original order.
//
// Bytes in front of an introducer are copied to the output unchanged. After
// each segment, the declared number of payload bytes is copied verbatim
// without looking for introducers in it, so payload that happens to contain
// "+IPD," is preserved. The module separates consecutive segments with a
// CRLF; a CRLF found exactly between one segment's payload and the next
// introducer is framing and is dropped. If the stream ends before the
// declared length, the remaining bytes are taken as they are. Input without
// any introducer is returned unchanged.
func Reassemble(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	pos := 0
	afterSegment := false
	for {
		idx := bytes.Index(raw[pos:], introducer)
		if idx < 0 {
			return append(out, raw[pos:]...), nil
		}

		seg, err := ParseSegment(raw, pos+idx)
		if err != nil {
			return nil, fmt.Errorf("segment at offset %d: %w", pos+idx, err)
		}

		if !(afterSegment && idx == len(crlf) && bytes.HasPrefix(raw[pos:], crlf)) {
			out = append(out, raw[pos:seg.Start]...)
		}

		end := min(seg.End+seg.Length, len(raw))
		out = append(out, raw[seg.End:end]...)
		pos = end
		afterSegment = true
	}
}

// Segments returns every framing segment in raw, in order. It follows the
// same rules as Reassemble and is mostly useful for diagnostics.
func Segments(raw []byte) ([]Segment, error) {
	var segs []Segment
	pos := 0
	for {
		idx := bytes.Index(raw[pos:], introducer)
		if idx < 0 {
			return segs, nil
		}
		seg, err := ParseSegment(raw, pos+idx)
		if err != nil {
			return segs, fmt.Errorf("segment at offset %d: %w", pos+idx, err)
		}
		segs = append(segs, seg)
		pos = min(seg.End+seg.Length, len(raw))
	}
}
