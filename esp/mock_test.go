package esp_test

import (
	"io"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/espfetch/esp"
)

// MockSequenceBuilder scripts a radio behind a MockTransport: each expected
// write releases its reply to the blocking Read.
type MockSequenceBuilder struct {
	transport *esp.MockTransport
	replies   chan string
	done      chan struct{}
	calls     []any
}

func NewMockSequence(transport *esp.MockTransport) *MockSequenceBuilder {
	b := &MockSequenceBuilder{
		transport: transport,
		replies:   make(chan string, 16),
		done:      make(chan struct{}),
		calls:     []any{},
	}
	transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		select {
		case reply := <-b.replies:
			return copy(p, reply), nil
		case <-b.done:
			return 0, io.EOF
		}
	}).AnyTimes()
	return b
}

func (b *MockSequenceBuilder) exchange(line, reply string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(line)).DoAndReturn(func(p []byte) (int, error) {
			b.replies <- reply
			return len(p), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.exchange("ATE0\r\n", "ATE0\r\r\nOK\r\n")
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.exchange("AT\r\n", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) StationMode() *MockSequenceBuilder {
	return b.exchange("AT+CWMODE=1\r\n", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) JoinAP(ssid, password string) *MockSequenceBuilder {
	return b.exchange(`AT+CWJAP="`+ssid+`","`+password+`"`+"\r\n", "WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) QueryAP(ssid string) *MockSequenceBuilder {
	return b.exchange("AT+CWJAP?\r\n", `+CWJAP:"`+ssid+`","aa:bb:cc:dd:ee:ff",6,-50`+"\r\n\r\nOK\r\n")
}

// Close expects the transport to be closed and unblocks the reader.
func (b *MockSequenceBuilder) Close() *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Close().DoAndReturn(func() error {
			close(b.done)
			return nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
