// Package stt turns recorded speech into text.
//
// Callers persist the uploaded audio into their request scratch space and
// hand the path to a Transcriber. Two engines are provided: WhisperCLI runs a
// local whisper.cpp binary, OpenAI talks to any OpenAI-compatible
// /audio/transcriptions endpoint (faster-whisper-server, LocalAI, OpenAI).
//
// Example usage:
//
//	engine, _ := stt.NewWhisperCLI(
//	    stt.WithBinary("whisper-cli"),
//	    stt.WithModel("models/ggml-base.bin"),
//	    stt.WithLanguage("es"),
//	)
//
//	transcript, err := engine.TranscribeFile(ctx, "/tmp/voice-1234/upload.ogg")
package stt

import (
	"context"
)

// Transcriber recognizes speech stored in a file.
type Transcriber interface {
	// TranscribeFile returns the text spoken in the audio at path.
	// The file is read as-is; engines decide what formats they accept.
	TranscribeFile(ctx context.Context, path string) (*Transcript, error)
}

// Transcript is a recognition result.
type Transcript struct {
	// Text is the recognized speech, trimmed of surrounding whitespace.
	Text string

	// Language is the language the engine was asked for, if any.
	Language string

	// Engine names the backend that produced the text.
	Engine string

	// LatencyMs is the wall time of the engine call.
	LatencyMs int64
}
