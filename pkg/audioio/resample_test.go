package audioio

import (
	"testing"
)

func TestResample_SameRate(t *testing.T) {
	samples := []int16{100, 200, 300, 400, 500}
	result := Resample(samples, 16000, 16000)

	if len(result) != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), len(result))
	}
	for i, s := range samples {
		if result[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, result[i])
		}
	}
}

func TestResample_OpusToSpeech(t *testing.T) {
	// 20ms at 48kHz -> 16kHz
	samples := make([]int16, 960)
	for i := range samples {
		samples[i] = int16(i)
	}

	result := Resample(samples, 48000, 16000)

	if len(result) != 320 {
		t.Errorf("Expected 320 samples, got %d", len(result))
	}
	if result[1] != 3 {
		t.Errorf("Expected every third sample, got %d", result[1])
	}
}

func TestResample_Empty(t *testing.T) {
	if got := Resample(nil, 48000, 16000); len(got) != 0 {
		t.Errorf("Expected empty result for nil input")
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		in       []int16
		channels int
		want     []int16
	}{
		{"mono passthrough", []int16{1, 2, 3}, 1, []int16{1, 2, 3}},
		{"stereo", []int16{100, 200, 300, 400}, 2, []int16{150, 350}},
		{"three channels", []int16{3, 6, 9}, 3, []int16{6}},
		{"clipping safe", []int16{32767, 32767}, 2, []int16{32767}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downmix(tt.in, tt.channels)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d samples, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Sample %d: expected %d, got %d", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestBytesToSamples(t *testing.T) {
	samples := BytesToSamples([]byte{0x02, 0x01, 0x04, 0x03})

	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0] != 0x0102 || samples[1] != 0x0304 {
		t.Errorf("Unexpected samples: %#v", samples)
	}
}

func TestSamplesToBytes(t *testing.T) {
	data := SamplesToBytes([]int16{0x0102, -2})

	expected := []byte{0x02, 0x01, 0xfe, 0xff}
	for i, b := range expected {
		if data[i] != b {
			t.Errorf("Byte %d: expected 0x%02x, got 0x%02x", i, b, data[i])
		}
	}
}
