package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"i4.energy/across/espfetch/httpjson"
)

func TestWatchModelFetchCycle(t *testing.T) {
	radio := &fakeRadio{result: httpjson.Result{
		Status:  200,
		Payload: httpjson.Payload{Kind: httpjson.List, List: []int64{23, 51, 44}},
	}}
	m := newWatchModel(context.Background(), radio, "Emulated radio", "192.168.4.1:80/", time.Second)

	if !strings.Contains(m.View(), "No reading yet") {
		t.Errorf("initial view:\n%s", m.View())
	}

	next, cmd := m.Update(fetchTickMsg(time.Now()))
	m = next.(watchModel)
	if !m.fetching || cmd == nil {
		t.Fatalf("tick did not start a fetch")
	}

	// A tick during a fetch is ignored
	next, cmd = m.Update(fetchTickMsg(time.Now()))
	m = next.(watchModel)
	if cmd != nil {
		t.Error("second tick started another fetch")
	}

	msg := m.fetch()()
	if radio.fetches != 1 {
		t.Fatalf("fetches = %d, want 1", radio.fetches)
	}
	next, cmd = m.Update(msg)
	m = next.(watchModel)
	if m.fetching || cmd == nil {
		t.Error("result did not schedule the next fetch")
	}
	if m.fetches != 1 || m.failures != 0 {
		t.Errorf("fetches/failures = %d/%d", m.fetches, m.failures)
	}

	view := m.View()
	for _, want := range []string{"23%", "51°C", "44°C", "HTTP 200 [23,51,44]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestWatchModelFailure(t *testing.T) {
	m := newWatchModel(context.Background(), &fakeRadio{}, "radio", "peer", time.Second)

	next, _ := m.Update(fetchResultMsg{err: errors.New("link is down")})
	m = next.(watchModel)
	if m.failures != 1 || m.last != nil {
		t.Errorf("failures = %d, last = %v", m.failures, m.last)
	}
	if !strings.Contains(m.View(), "fetch failed: link is down") {
		t.Errorf("view missing failure:\n%s", m.View())
	}
}

func TestWatchModelQuit(t *testing.T) {
	m := newWatchModel(context.Background(), &fakeRadio{}, "radio", "peer", time.Second)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(watchModel)
	if !m.quitting || cmd == nil {
		t.Error("q did not quit")
	}
	if m.View() != "Shutting down...\n" {
		t.Errorf("view = %q", m.View())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m = newWatchModel(ctx, &fakeRadio{}, "radio", "peer", time.Second)
	next, _ = m.Update(fetchResultMsg{err: context.Canceled})
	if !next.(watchModel).quitting {
		t.Error("cancelled context did not stop the watch")
	}
}

func TestReadingString(t *testing.T) {
	tests := []struct {
		payload httpjson.Payload
		want    string
	}{
		{httpjson.Payload{Kind: httpjson.Scalar, Scalar: 9}, "CPU 9%"},
		{httpjson.Payload{Kind: httpjson.List, List: []int64{1, 40}}, "CPU 1%, temp 0 40°C"},
		{httpjson.Payload{Kind: httpjson.List}, "no values"},
	}
	for _, tt := range tests {
		if got := newReading(tt.payload).String(); got != tt.want {
			t.Errorf("newReading(%s) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}
