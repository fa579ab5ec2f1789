// Package tts turns reply text into speech.
//
// The production engine is Piper, a local command-line synthesizer run with
// a fixed voice model. Reply text is cleaned of markdown decoration first,
// since the model emits bold and list markers that would otherwise be read
// aloud.
//
// Example usage:
//
//	provider, _ := tts.NewPiper(
//	    tts.WithBinary("piper"),
//	    tts.WithVoiceModel("models/es_ES-sharvard-medium.onnx"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, tts.CleanText(reply))
//	// result.Audio contains WAV bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the playback duration derived from the header.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the wall time of the synthesis call.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the container or codec.
	Encoding Encoding

	// SampleRate in Hz (e.g. 22050 for Piper medium voices).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16).
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

// EncodingWAV is a RIFF/WAVE container holding PCM16.
const EncodingWAV Encoding = "wav"
