// Package stream recovers the HTTP response from the raw bytes the radio
// module emits after a send: it collects them up to the connection-closed
// marker and strips the inbound-data framing segments (+IPD) the module
// interleaves with the socket payload.
package stream

import (
	"bytes"
	"errors"

	"i4.energy/across/espfetch/at"
)

const (
	// MaxLengthDigits bounds the declared length field.
	MaxLengthDigits = 5
	// MaxHeaderLen bounds a whole segment header, from the introducer to the
	// terminator, including optional remote address metadata.
	MaxHeaderLen = 40
)

var (
	// ErrMalformedSegment is returned for an introducer that is not followed
	// by a valid length field and terminator.
	ErrMalformedSegment = errors.New("malformed inbound data segment")

	// ErrTruncatedSegment is returned when the data ends inside a segment
	// header.
	ErrTruncatedSegment = errors.New("truncated inbound data segment")
)

var (
	introducer = []byte(at.IPDIntroducer)
	crlf       = []byte(at.CRLF)
)

// Segment locates one framing segment inside a raw stream.
type Segment struct {
	// Start is the offset of the introducer.
	Start int
	// End is the offset just past the terminator; payload starts here.
	End int
	// Length is the declared number of payload bytes that follow.
	Length int
}

// ParseSegment parses the segment whose introducer starts at data[off].
//
// Grammar: "+IPD," DIGIT{1,5} *(any byte except ':' and '\n') ":"
//
// Bytes between the length and the terminator are the optional remote
// address fields the module adds when +CIPDINFO is enabled; they are
// skipped, not interpreted.
func ParseSegment(data []byte, off int) (Segment, error) {
	if !bytes.HasPrefix(data[off:], introducer) {
		return Segment{}, ErrMalformedSegment
	}

	seg := Segment{Start: off}

	i := off + len(introducer)
	digits := 0
	for ; i < len(data) && data[i] >= '0' && data[i] <= '9'; i++ {
		digits++
		if digits > MaxLengthDigits {
			return Segment{}, ErrMalformedSegment
		}
		seg.Length = seg.Length*10 + int(data[i]-'0')
	}
	if i == len(data) {
		return Segment{}, ErrTruncatedSegment
	}
	if digits == 0 {
		return Segment{}, ErrMalformedSegment
	}

	for ; i < len(data) && data[i] != at.IPDTerminator; i++ {
		if i-off >= MaxHeaderLen || data[i] == '\n' {
			return Segment{}, ErrMalformedSegment
		}
	}
	if i == len(data) {
		return Segment{}, ErrTruncatedSegment
	}

	seg.End = i + 1
	return seg, nil
}
