package esp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"go.uber.org/mock/gomock"
)

func TestSerialDialer_Dial_EmptyPortName(t *testing.T) {
	dialer := SerialDialer{
		PortName: "",
	}

	transport, err := dialer.Dial(context.Background())

	if err == nil {
		t.Fatal("expected error for empty port name")
	}
	if transport != nil {
		t.Error("expected nil transport for empty port name")
	}
	if err.Error() != "esp: serial port name is required" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSerialDialer_Dial_NilContext(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/ttyUSB0",
	}

	//lint:ignore SA1012 nil context is the case under test
	transport, err := dialer.Dial(nil)

	if err == nil {
		t.Fatal("expected error for nil context")
	}
	if transport != nil {
		t.Error("expected nil transport for nil context")
	}
	if err.Error() != "esp: context is nil" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSerialDialer_Dial_ContextCanceled(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/nonexistent",
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport, err := dialer.Dial(ctx)

	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport for canceled context")
	}
}

func TestSerialDialer_Dial_NonexistentPort(t *testing.T) {
	tests := []struct {
		name   string
		dialer SerialDialer
	}{
		{
			name: "Explicit mode",
			dialer: SerialDialer{
				PortName: "/dev/nonexistent",
				Mode: &serial.Mode{
					BaudRate: 115200,
					Parity:   serial.NoParity,
					DataBits: 8,
					StopBits: serial.OneStopBit,
				},
			},
		},
		{
			name:   "Default mode",
			dialer: SerialDialer{PortName: "/dev/nonexistent"},
		},
		{
			name:   "Custom baud rate",
			dialer: SerialDialer{PortName: "/dev/nonexistent", BaudRate: 9600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := tt.dialer.Dial(context.Background())
			if err == nil {
				t.Fatal("expected error for non-existent port")
			}
			if transport != nil {
				t.Error("expected nil transport for non-existent port")
			}
			if !strings.Contains(err.Error(), "/dev/nonexistent") {
				t.Errorf("expected port name in error, got: %v", err)
			}
		})
	}
}

// bridge relays binary frames back to the sender, preceded by a text frame
// the transport must skip.
func bridge(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "esp" || pass != "bridge" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("status")); err != nil {
				return
			}
			if err := conn.WriteMessage(messageType, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketDialer(t *testing.T) {
	srv := bridge(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("Relays binary frames as a byte stream", func(t *testing.T) {
		dialer := WebSocketDialer{URL: wsURL, Username: "esp", Password: "bridge"}
		transport, err := dialer.Dial(context.Background())
		if err != nil {
			t.Fatalf("unexpected dial error: %v", err)
		}
		defer transport.Close()

		if _, err := transport.Write([]byte("AT\r\n")); err != nil {
			t.Fatalf("unexpected write error: %v", err)
		}

		buf := make([]byte, 2)
		var got []byte
		for len(got) < 4 {
			n, err := transport.Read(buf)
			if err != nil {
				t.Fatalf("unexpected read error: %v", err)
			}
			got = append(got, buf[:n]...)
		}
		if string(got) != "AT\r\n" {
			t.Errorf("expected echoed AT line, got %q", got)
		}
	})

	t.Run("Handshake rejected", func(t *testing.T) {
		dialer := WebSocketDialer{URL: wsURL}
		_, err := dialer.Dial(context.Background())
		if err == nil || !strings.Contains(err.Error(), "HTTP 401") {
			t.Errorf("expected HTTP 401 error, got: %v", err)
		}
	})

	t.Run("Unsupported scheme", func(t *testing.T) {
		dialer := WebSocketDialer{URL: "http://bridge.local/uart"}
		if _, err := dialer.Dial(context.Background()); err == nil {
			t.Error("expected error for http scheme")
		}
	})

	t.Run("Read after close", func(t *testing.T) {
		dialer := WebSocketDialer{URL: wsURL, Username: "esp", Password: "bridge"}
		transport, err := dialer.Dial(context.Background())
		if err != nil {
			t.Fatalf("unexpected dial error: %v", err)
		}
		transport.Close()

		if _, err := transport.Read(make([]byte, 1)); err == nil {
			t.Fatal("expected read error after close")
		}
		if _, err := transport.Read(make([]byte, 1)); !errors.Is(err, ErrConnectionClosed) {
			t.Errorf("expected ErrConnectionClosed, got: %v", err)
		}
	})
}

func TestTransportInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := NewMockTransport(ctrl)
	var _ Transport = mockTransport

	data := []byte("test")
	mockTransport.EXPECT().Write(data).Return(len(data), nil)
	mockTransport.EXPECT().Read(gomock.Any()).Return(0, io.EOF)
	mockTransport.EXPECT().Close().Return(nil)

	if n, err := mockTransport.Write(data); err != nil || n != len(data) {
		t.Errorf("unexpected write result: %d, %v", n, err)
	}
	if _, err := mockTransport.Read(make([]byte, 10)); err != io.EOF {
		t.Errorf("expected io.EOF, got: %v", err)
	}
	if err := mockTransport.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestDialerFunc(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := NewMockTransport(ctrl)
	var dialer Dialer = DialerFunc(func(ctx context.Context) (Transport, error) {
		return mockTransport, ctx.Err()
	})

	transport, err := dialer.Dial(context.Background())
	if err != nil {
		t.Errorf("unexpected dial error: %v", err)
	}
	if transport != mockTransport {
		t.Error("expected mock transport to be returned")
	}
}
