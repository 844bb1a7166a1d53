package uart

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Port adapts a blocking byte stream (a serial port, a WebSocket bridge, an
// emulator) into a Channel.
//
// A single receiver goroutine reads the stream and pushes bytes into a Queue;
// TryReadByte pops from it. The receiver only reads as many bytes as the
// queue has room for, so on a host the excess stays in the OS driver instead
// of being dropped.
type Port struct {
	rw    io.ReadWriteCloser
	queue *Queue
	idle  time.Duration

	err  atomic.Pointer[error]
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewPort starts the receiver for rw with a queue of the given power-of-two
// capacity.
func NewPort(rw io.ReadWriteCloser, capacity int) *Port {
	p := &Port{
		rw:    rw,
		queue: NewQueue(capacity),
		idle:  time.Millisecond,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.receive()
	return p
}

func (p *Port) receive() {
	defer close(p.done)
	buf := make([]byte, p.queue.Cap())
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		free := p.queue.Free()
		if free == 0 {
			select {
			case <-p.stop:
				return
			case <-time.After(p.idle):
			}
			continue
		}

		n, err := p.rw.Read(buf[:free])
		for i := 0; i < n; i++ {
			p.queue.Push(buf[i])
		}
		if err != nil {
			p.err.Store(&err)
			return
		}
	}
}

// TryReadByte implements Channel.
func (p *Port) TryReadByte() (byte, error) {
	if b, ok := p.queue.Pop(); ok {
		return b, nil
	}
	if errp := p.err.Load(); errp != nil {
		// The receiver may have queued its last bytes between the Pop above
		// and storing the error.
		if b, ok := p.queue.Pop(); ok {
			return b, nil
		}
		return 0, *errp
	}
	return 0, ErrWouldBlock
}

// Write implements Channel.
func (p *Port) Write(b []byte) (int, error) {
	return p.rw.Write(b)
}

// Dropped reports bytes lost to queue overflow.
func (p *Port) Dropped() uint64 { return p.queue.Dropped() }

// Close stops the receiver and closes the underlying stream.
func (p *Port) Close() error {
	var err error
	p.once.Do(func() {
		close(p.stop)
		err = p.rw.Close()
	})
	return err
}
