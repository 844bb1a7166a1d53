// Package emulator is an in-process ESP-AT radio module. It implements the
// esp Transport, keeps a small association and connection state, and
// answers HTTP requests sent through +CIPSEND from registered http.Handler
// peers, framed in +IPD segments like the real firmware does.
package emulator

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/eapache/queue"
	"i4.energy/across/espfetch/at"
)

// DefaultSegmentSize is the largest +IPD payload the emulator emits.
const DefaultSegmentSize = 1460

// MaxSendLength is the largest +CIPSEND length accepted.
const MaxSendLength = 2048

// Radio is the emulated module. It is safe for one reader and any number of
// writers.
type Radio struct {
	mu   sync.Mutex
	cond *sync.Cond
	// out holds pending output chunks ([]byte)
	out    *queue.Queue
	head   []byte
	closed bool

	in []byte
	// sendRemaining counts passthrough bytes still expected after +CIPSEND
	sendRemaining int
	sendBuf       []byte

	echo      bool
	mode      int
	joined    string
	connected string

	networks    map[string]string
	peers       map[string]http.Handler
	segmentSize int
	logger      *slog.Logger
}

// Option configures a Radio.
type Option func(*Radio)

// WithNetwork adds an access point the radio can join.
func WithNetwork(ssid, password string) Option {
	return func(r *Radio) {
		r.networks[ssid] = password
	}
}

// WithPeer serves TCP connections to host:port with h.
func WithPeer(host string, port int, h http.Handler) Option {
	return func(r *Radio) {
		r.peers[net.JoinHostPort(host, strconv.Itoa(port))] = h
	}
}

// WithSegmentSize sets the largest +IPD payload.
func WithSegmentSize(n int) Option {
	return func(r *Radio) {
		if n > 0 {
			r.segmentSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Radio) {
		r.logger = logger
	}
}

// New returns a powered-up radio with echo on, as after a reset.
func New(opts ...Option) *Radio {
	r := &Radio{
		out:         queue.New(),
		echo:        true,
		networks:    make(map[string]string),
		peers:       make(map[string]http.Handler),
		segmentSize: DefaultSegmentSize,
		logger:      slog.New(slog.DiscardHandler),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "emulator")
	return r
}

// Read blocks until output is available or the radio is closed.
func (r *Radio) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.head) == 0 {
		if r.out.Length() > 0 {
			r.head = r.out.Peek().([]byte)
			r.out.Remove()
			continue
		}
		if r.closed {
			return 0, io.EOF
		}
		r.cond.Wait()
	}
	n := copy(p, r.head)
	r.head = r.head[n:]
	return n, nil
}

// Write feeds command lines and +CIPSEND passthrough data to the radio.
func (r *Radio) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	r.in = append(r.in, p...)
	r.process()
	return len(p), nil
}

// Close makes pending and future reads return io.EOF once the output is
// drained.
func (r *Radio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Broadcast()
	return nil
}

// Joined returns the SSID the radio is associated with.
func (r *Radio) Joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joined
}

func (r *Radio) emit(s string) {
	if s == "" {
		return
	}
	r.out.Add([]byte(s))
	r.cond.Broadcast()
}

func (r *Radio) process() {
	for len(r.in) > 0 {
		if r.sendRemaining > 0 {
			n := min(r.sendRemaining, len(r.in))
			r.sendBuf = append(r.sendBuf, r.in[:n]...)
			r.in = r.in[n:]
			r.sendRemaining -= n
			if r.sendRemaining == 0 {
				r.transmit()
			}
			continue
		}

		advance, token, err := at.Splitter(r.in, false)
		if err != nil || advance == 0 {
			return
		}
		line := string(token)
		r.in = r.in[advance:]
		r.command(line)
	}
}
