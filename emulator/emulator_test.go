package emulator_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"testing"

	"i4.energy/across/espfetch/emulator"
	"i4.energy/across/espfetch/httpjson"
	"i4.energy/across/espfetch/stream"
)

// exchange writes line and reads exactly len(want) bytes of output.
func exchange(t *testing.T, r *emulator.Radio, line, want string) {
	t.Helper()
	if _, err := r.Write([]byte(line)); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if string(got) != want {
		t.Errorf("after %q expected %q, got %q", line, want, got)
	}
}

func readings(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, "[7,8]")
}

func TestEcho(t *testing.T) {
	r := emulator.New()
	defer r.Close()

	exchange(t, r, "AT\r\n", "AT\r\r\n\r\nOK\r\n")
	exchange(t, r, "ATE0\r\n", "ATE0\r\r\n\r\nOK\r\n")
	exchange(t, r, "AT\r\n", "\r\nOK\r\n")
	exchange(t, r, "AT+BOGUS\r\n", "\r\nERROR\r\n")
}

func TestJoin(t *testing.T) {
	r := emulator.New(emulator.WithNetwork("home", "secret"))
	defer r.Close()

	exchange(t, r, "ATE0\r\n", "ATE0\r\r\n\r\nOK\r\n")
	exchange(t, r, `AT+CWJAP="home","secret"`+"\r\n", "\r\nERROR\r\n")
	exchange(t, r, "AT+CWMODE=1\r\n", "\r\nOK\r\n")
	exchange(t, r, `AT+CWJAP="home","wrong"`+"\r\n", "+CWJAP:2\r\n\r\nFAIL\r\n")
	exchange(t, r, `AT+CWJAP="away","secret"`+"\r\n", "+CWJAP:3\r\n\r\nFAIL\r\n")
	exchange(t, r, "AT+CWJAP?\r\n", "No AP\r\n\r\nOK\r\n")
	exchange(t, r, `AT+CWJAP="home","secret"`+"\r\n", "WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n")
	exchange(t, r, "AT+CWJAP?\r\n", `+CWJAP:"home","aa:bb:cc:dd:ee:ff",6,-50`+"\r\n\r\nOK\r\n")

	if r.Joined() != "home" {
		t.Errorf("expected joined home, got %q", r.Joined())
	}
}

func joined(t *testing.T, opts ...emulator.Option) *emulator.Radio {
	t.Helper()
	r := emulator.New(append([]emulator.Option{emulator.WithNetwork("home", "secret")}, opts...)...)
	exchange(t, r, "ATE0\r\n", "ATE0\r\r\n\r\nOK\r\n")
	exchange(t, r, "AT+CWMODE=1\r\n", "\r\nOK\r\n")
	exchange(t, r, `AT+CWJAP="home","secret"`+"\r\n", "WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n")
	return r
}

func TestConnection(t *testing.T) {
	r := joined(t, emulator.WithPeer("peer", 80, http.HandlerFunc(readings)))
	defer r.Close()

	exchange(t, r, `AT+CIPSTART="TCP","nowhere",80`+"\r\n", "\r\nFAIL\r\n")
	exchange(t, r, "AT+CIPSEND=4\r\n", "link is not valid\r\n\r\nERROR\r\n")
	exchange(t, r, `AT+CIPSTART="TCP","peer",80`+"\r\n", "CONNECT\r\n\r\nOK\r\n")
	exchange(t, r, `AT+CIPSTART="TCP","peer",80`+"\r\n", "ALREADY CONNECTED\r\n\r\nERROR\r\n")
	exchange(t, r, "AT+CIPCLOSE\r\n", "CLOSED\r\n\r\nOK\r\n")
	exchange(t, r, "AT+CIPCLOSE\r\n", "\r\nERROR\r\n")
}

func TestRequest(t *testing.T) {
	tests := []struct {
		name        string
		segmentSize int
		minSegments int
	}{
		{name: "One segment", segmentSize: emulator.DefaultSegmentSize, minSegments: 1},
		{name: "Many segments", segmentSize: 16, minSegments: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := joined(t,
				emulator.WithPeer("peer", 5000, http.HandlerFunc(readings)),
				emulator.WithSegmentSize(tt.segmentSize),
			)

			request := httpjson.NewRequest("peer", "/stats")
			exchange(t, r, `AT+CIPSTART="TCP","peer",5000`+"\r\n", "CONNECT\r\n\r\nOK\r\n")
			exchange(t, r, fmt.Sprintf("AT+CIPSEND=%d\r\n", len(request)), "\r\nOK\r\n> ")

			// Passthrough data may arrive in pieces.
			r.Write(request[:10])
			r.Write(request[10:])
			r.Close()

			raw, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("unexpected read error: %v", err)
			}
			if !strings.HasSuffix(string(raw), "\r\nCLOSED\r\n") {
				t.Errorf("expected stream to end with CLOSED, got %q", raw)
			}
			wantAck := fmt.Sprintf("\r\nRecv %d bytes\r\n\r\nSEND OK\r\n", len(request))
			if !strings.HasPrefix(string(raw), wantAck) {
				t.Errorf("expected send acknowledgement, got %q", raw)
			}

			segments, err := stream.Segments(raw)
			if err != nil {
				t.Fatalf("unexpected segment error: %v", err)
			}
			if len(segments) < tt.minSegments {
				t.Errorf("expected at least %d segments, got %d", tt.minSegments, len(segments))
			}
			for _, seg := range segments {
				if seg.Length > tt.segmentSize {
					t.Errorf("segment of %d bytes exceeds %d", seg.Length, tt.segmentSize)
				}
			}

			resp, err := stream.Reassemble(raw)
			if err != nil {
				t.Fatalf("unexpected reassembly error: %v", err)
			}
			res, err := httpjson.Decode(resp)
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if res.Status != http.StatusOK || !slices.Equal(res.Payload.Values(), []int64{7, 8}) {
				t.Errorf("unexpected result: %d %v", res.Status, res.Payload)
			}
		})
	}
}

func TestReset(t *testing.T) {
	r := joined(t)
	defer r.Close()

	if _, err := r.Write([]byte("AT+RST\r\n")); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	buf := make([]byte, 256)
	var out []byte
	for !strings.HasSuffix(string(out), "ready\r\n") {
		n, err := r.Read(buf)
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
		out = append(out, buf[:n]...)
	}
	if r.Joined() != "" {
		t.Errorf("reset must drop the association, still joined to %q", r.Joined())
	}
	exchange(t, r, "AT\r\n", "AT\r\r\n\r\nOK\r\n")
}

func TestClose(t *testing.T) {
	r := emulator.New()
	if _, err := r.Write([]byte("AT\r\n")); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if string(out) != "AT\r\r\n\r\nOK\r\n" {
		t.Errorf("pending output must survive close, got %q", out)
	}
	if _, err := r.Write([]byte("AT\r\n")); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("expected io.ErrClosedPipe, got: %v", err)
	}
}
