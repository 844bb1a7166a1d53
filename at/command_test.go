package at_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"i4.energy/across/espfetch/at"
)

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name   string
		cmd    at.Command
		prefix bool
		want   string
	}{
		{name: "Attention", cmd: at.CmdAttention, prefix: true, want: "AT\r\n"},
		{name: "Echo off", cmd: at.CmdEchoOff, prefix: true, want: "ATE0\r\n"},
		{name: "Station mode", cmd: at.CmdStationMode, prefix: true, want: "AT+CWMODE=1\r\n"},
		{name: "Query AP", cmd: at.CmdQueryAP, prefix: true, want: "AT+CWJAP?\r\n"},
		{name: "Reset", cmd: at.CmdReset, prefix: true, want: "AT+RST\r\n"},
		{name: "Without prefix", cmd: at.Raw("GET / HTTP/1.0"), prefix: false, want: "GET / HTTP/1.0\r\n"},
		{
			name:   "Join access point",
			cmd:    at.JoinAP("home", "secret"),
			prefix: true,
			want:   `AT+CWJAP="home","secret"` + "\r\n",
		},
		{
			name:   "Join with escaped characters",
			cmd:    at.JoinAP(`my "net",2`, `a\b`),
			prefix: true,
			want:   `AT+CWJAP="my \"net\"\,2","a\\b"` + "\r\n",
		},
		{
			name:   "Start TCP",
			cmd:    at.StartTCP("192.168.1.20", 5000),
			prefix: true,
			want:   `AT+CIPSTART="TCP","192.168.1.20",5000` + "\r\n",
		},
		{name: "Send length", cmd: at.SendLength(64), prefix: true, want: "AT+CIPSEND=64\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.cmd.Line(tt.prefix)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuilderDoesNotShareParams(t *testing.T) {
	b := at.Set("+CIPSTART").String("TCP")
	first := b.String("a").Build()
	if first.String() != `+CIPSTART="TCP","a"` {
		t.Errorf("unexpected first command %q", first)
	}
	if at.JoinAP("x", "y").String() == first.String() {
		t.Error("commands built from separate builders must differ")
	}
}

func TestRedacted(t *testing.T) {
	join := at.JoinAP("home", "hunter2")
	if got := join.Redacted(); got != `+CWJAP="home","***"` {
		t.Errorf("expected masked password, got %q", got)
	}
	if got := at.CmdStationMode.Redacted(); got != "+CWMODE=1" {
		t.Errorf("expected plain body, got %q", got)
	}
}

func TestSplitParams(t *testing.T) {
	join := at.JoinAP(`my "net",2`, `a\b`)
	_, params, _ := strings.Cut(join.String(), "=")

	got, err := at.SplitParams(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{`my "net",2`, `a\b`}) {
		t.Errorf("expected builder input back, got %q", got)
	}

	got, err = at.SplitParams(`"TCP","peer",5000`)
	if err != nil || !slices.Equal(got, []string{"TCP", "peer", "5000"}) {
		t.Errorf("unexpected split %q, %v", got, err)
	}

	if _, err := at.SplitParams(`"open`); !errors.Is(err, at.ErrBadParams) {
		t.Errorf("expected ErrBadParams, got: %v", err)
	}
}
