// Package httpjson extracts the status code and the numeric JSON payload
// from a reassembled HTTP/1.x response.
package httpjson

import (
	"bytes"
	"fmt"

	"i4.energy/across/espfetch/at"
)

var (
	statusPrefix      = []byte("HTTP/")
	contentTypeMarker = []byte("Content-Type:")
	headerEnd         = []byte("\r\n\r\n")
	closedLine        = []byte(at.ClosedMarker)
)

// Result is a decoded response.
type Result struct {
	// Status is the three-digit HTTP status code.
	Status int
	// Text is the reassembled response the result was decoded from.
	Text string
	// Payload is the decoded JSON body.
	Payload Payload
}

// Decode parses resp, the reassembled bytes received after a GET.
//
// Anything before the first "HTTP/" (the module's send acknowledgements) is
// skipped. The body starts after the first blank line following the
// Content-Type header, or after the first blank line following the status
// line when there is no Content-Type header. A trailing CLOSED marker line
// and trailing line terminators are removed from the body before decoding.
func Decode(resp []byte) (Result, error) {
	res := Result{Text: string(resp)}

	start := bytes.Index(resp, statusPrefix)
	if start < 0 {
		return res, fmt.Errorf("%w: no status line", ErrParse)
	}
	status, err := parseStatus(resp[start:])
	if err != nil {
		return res, err
	}
	res.Status = status

	body, err := Body(resp[start:])
	if err != nil {
		return res, err
	}

	res.Payload, err = DecodePayload(body)
	if err != nil {
		return res, err
	}
	return res, nil
}

// parseStatus reads the code from "HTTP/<version> <code>".
func parseStatus(line []byte) (int, error) {
	sp := bytes.IndexByte(line, ' ')
	if sp < 0 || bytes.IndexByte(line[:sp], '\n') >= 0 {
		return 0, fmt.Errorf("%w: malformed status line", ErrParse)
	}
	code := line[sp+1:]
	if len(code) < 3 {
		return 0, fmt.Errorf("%w: short status line", ErrParse)
	}
	status := 0
	for _, c := range code[:3] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: status code %q", ErrParse, code[:3])
		}
		status = status*10 + int(c-'0')
	}
	if len(code) > 3 && code[3] != ' ' && code[3] != '\r' {
		return 0, fmt.Errorf("%w: status code %q", ErrParse, code[:4])
	}
	return status, nil
}

// Body returns the body of a response that starts at its status line.
func Body(resp []byte) ([]byte, error) {
	from := 0
	if i := bytes.Index(resp, contentTypeMarker); i >= 0 {
		from = i
	}
	sep := bytes.Index(resp[from:], headerEnd)
	if sep < 0 {
		return nil, fmt.Errorf("%w: no header/body boundary", ErrParse)
	}
	body := resp[from+sep+len(headerEnd):]

	if at.EndsWithLine(body, closedLine) {
		body = body[:len(body)-len(closedLine)]
	}
	return bytes.TrimRight(body, " \t\r\n"), nil
}
