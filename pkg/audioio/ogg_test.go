package audioio

import (
	"errors"
	"testing"
)

// oggHeader builds the first page prefix of an Ogg/Opus stream with the
// given channel count. Only the fields the probes read are meaningful.
func oggHeader(channels byte) []byte {
	page := make([]byte, 28)
	copy(page, "OggS")
	head := []byte("OpusHead")
	head = append(head, 1, channels, 0x38, 0x01, 0x80, 0xbb, 0, 0, 0, 0, 0)
	return append(page, head...)
}

func TestIsOggOpus(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"opus", oggHeader(1), true},
		{"ogg vorbis", append([]byte("OggS"), []byte("\x01vorbis")...), false},
		{"wav", EncodeWAV([]int16{0}, 16000, 1), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOggOpus(tt.data); got != tt.want {
				t.Errorf("IsOggOpus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpusChannels(t *testing.T) {
	ch, err := OpusChannels(oggHeader(2))
	if err != nil {
		t.Fatalf("OpusChannels failed: %v", err)
	}
	if ch != 2 {
		t.Errorf("Expected 2 channels, got %d", ch)
	}

	if _, err := OpusChannels(oggHeader(0)); err == nil {
		t.Error("Expected error for zero channels")
	}
	if _, err := OpusChannels([]byte("RIFF")); !errors.Is(err, ErrNotOggOpus) {
		t.Errorf("Expected ErrNotOggOpus, got %v", err)
	}
}

func TestDecodeOggOpusRejectsOtherFormats(t *testing.T) {
	if _, err := DecodeOggOpus(EncodeWAV([]int16{1}, 16000, 1)); !errors.Is(err, ErrNotOggOpus) {
		t.Errorf("Expected ErrNotOggOpus, got %v", err)
	}
}
