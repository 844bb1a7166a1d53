package esp

import (
	"errors"
	"fmt"

	"i4.energy/across/espfetch/at"
	"i4.energy/across/espfetch/httpjson"
	"i4.energy/across/espfetch/internal/bounded"
	"i4.energy/across/espfetch/stream"
)

var (
	// ErrNoDialer is returned when a Device is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the radio.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when the Dialer hands back no Transport.
	ErrNotInitialized = errors.New("radio not initialized")

	// ErrAlreadyClosed is returned when an operation or Close is attempted on
	// a Device that has already been closed.
	ErrAlreadyClosed = errors.New("radio already closed")

	// ErrTimeout is returned when a bounded wait for the radio expires.
	//
	// It is distinct from a ProtocolError: the module never produced a
	// terminal marker in time.
	ErrTimeout = errors.New("timed out waiting for the radio")

	// ErrNotReady is wrapped by a SequencingError when echo has not been
	// disabled yet.
	ErrNotReady = errors.New("radio not brought up")

	// ErrNotJoined is wrapped by a SequencingError when no network has been
	// joined.
	ErrNotJoined = errors.New("not associated with a network")

	ErrOverrun          = bounded.ErrOverrun
	ErrParse            = httpjson.ErrParse
	ErrJSON             = httpjson.ErrJSON
	ErrMalformedSegment = stream.ErrMalformedSegment
	ErrTruncatedSegment = stream.ErrTruncatedSegment
)

// TransportError reports a failed write to or read from the Byte Channel.
type TransportError struct {
	Op      string
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response that ended with a failure marker.
type ProtocolError struct {
	Command string
	Marker  at.Marker
	// Response is the trimmed response text.
	Response string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("command %q failed with %s: %q", e.Command, e.Marker, e.Response)
}

// SequencingError reports an operation attempted before its prerequisite
// step succeeded.
type SequencingError struct {
	Op    string
	State State
	Err   error
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("%s in state %s: %v", e.Op, e.State, e.Err)
}

func (e *SequencingError) Unwrap() error { return e.Err }

// OverrunError reports a bounded buffer that filled up before its
// terminating condition was seen.
type OverrunError struct {
	What     string
	Capacity int
	Err      error
}

func (e *OverrunError) Error() string {
	return fmt.Sprintf("%s exceeds %d bytes: %v", e.What, e.Capacity, e.Err)
}

func (e *OverrunError) Unwrap() error { return e.Err }
