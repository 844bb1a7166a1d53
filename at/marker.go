package at

import "bytes"

// Marker identifies which terminal line completed a response.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerOK
	MarkerError
	MarkerFail
)

var markerLines = [...]struct {
	marker Marker
	line   []byte
}{
	{MarkerOK, []byte(OK + CRLF)},
	{MarkerError, []byte(ERROR + CRLF)},
	{MarkerFail, []byte(FAIL + CRLF)},
}

// MinMarkerLen is the length of the shortest terminal line, "OK\r\n".
const MinMarkerLen = len(OK + CRLF)

func (m Marker) String() string {
	switch m {
	case MarkerOK:
		return OK
	case MarkerError:
		return ERROR
	case MarkerFail:
		return FAIL
	default:
		return "NONE"
	}
}

// EndsWithLine reports whether buf ends with line and line starts either at
// the beginning of buf or right after a '\n'. line must include its CRLF.
//
// The anchoring keeps marker-shaped bytes inside a longer line ("BOOK\r\n")
// from completing a response.
func EndsWithLine(buf, line []byte) bool {
	if !bytes.HasSuffix(buf, line) {
		return false
	}
	start := len(buf) - len(line)
	return start == 0 || buf[start-1] == '\n'
}

// MatchTerminal checks the tail of an accumulating response for a terminal
// marker line. It only needs calling right after a '\n' was appended.
func MatchTerminal(buf []byte) (Marker, bool) {
	if len(buf) < MinMarkerLen || buf[len(buf)-1] != '\n' {
		return MarkerNone, false
	}
	for _, m := range markerLines {
		if EndsWithLine(buf, m.line) {
			return m.marker, true
		}
	}
	return MarkerNone, false
}

// ClosedMarker is the line the module prints when the peer closes the
// connection.
const ClosedMarker = UrcClosed + CRLF

var closedLine = []byte(ClosedMarker)

// MatchClosed reports whether buf ends with the connection-closed line.
func MatchClosed(buf []byte) bool {
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		return false
	}
	return EndsWithLine(buf, closedLine)
}
