package bounded_test

import (
	"errors"
	"testing"

	"i4.energy/across/espfetch/internal/bounded"
)

func TestBufferCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		input    string
		wantErr  bool
	}{
		{name: "Below capacity", capacity: 8, input: "OK\r\n"},
		{name: "Exactly at capacity", capacity: 4, input: "OK\r\n"},
		{name: "One over capacity", capacity: 3, input: "OK\r\n", wantErr: true},
		{name: "Zero capacity", capacity: 0, input: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bounded.New(tt.capacity)
			var err error
			for i := 0; i < len(tt.input) && err == nil; i++ {
				err = buf.AppendByte(tt.input[i])
			}

			if tt.wantErr {
				if !errors.Is(err, bounded.ErrOverrun) {
					t.Fatalf("expected ErrOverrun, got %v", err)
				}
				if len(buf.Bytes()) != tt.capacity {
					t.Errorf("expected %d bytes kept, got %d", tt.capacity, len(buf.Bytes()))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(buf.Bytes()) != tt.input {
				t.Errorf("expected %q, got %q", tt.input, buf.Bytes())
			}
			if buf.Cap() != tt.capacity {
				t.Errorf("expected capacity %d, got %d", tt.capacity, buf.Cap())
			}
		})
	}
}
