// ABOUTME: Tests for the codec factory
// ABOUTME: Verifies codec selection and rejection of unknown codecs
package decode

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"pcm 16", Params{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}, false},
		{"pcm 24", Params{Codec: "pcm", SampleRate: 96000, Channels: 2, BitDepth: 24}, false},
		{"opus", Params{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, false},
		{"upper case", Params{Codec: "PCM", SampleRate: 48000, Channels: 1, BitDepth: 16}, false},
		{"aac", Params{Codec: "aac", SampleRate: 48000, Channels: 2}, true},
		{"empty", Params{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := New(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer dec.Close()
		})
	}
}
