// Package audioio converts uploaded speech into the PCM WAV format the
// local recognizer reads.
//
// Browsers record voice notes as Ogg/Opus; whisper.cpp wants 16 kHz mono
// 16-bit WAV. DecodeOggOpus bridges the two, the rest of the package holds
// the sample-level helpers it is built from.
package audioio

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// SpeechRate is the sample rate speech recognizers expect.
const SpeechRate = 16000

// ErrNotWAV is returned when a buffer does not start with a RIFF/WAVE header.
var ErrNotWAV = errors.New("audioio: not a RIFF/WAVE stream")

// WAVInfo describes a PCM WAV header.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataSize      int
}

// EncodeWAV wraps interleaved PCM16 samples in a canonical 44-byte WAV header.
func EncodeWAV(samples []int16, sampleRate, channels int) []byte {
	dataSize := len(samples) * 2

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	// RIFF header
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	// data chunk
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(SamplesToBytes(samples))

	return buf.Bytes()
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// ParseWAVHeader reads the format and data chunk sizes of a canonical WAV.
// Chunks other than "fmt " and "data" are skipped.
func ParseWAVHeader(data []byte) (*WAVInfo, error) {
	if !IsWAV(data) {
		return nil, ErrNotWAV
	}

	info := &WAVInfo{}
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8

		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return nil, ErrNotWAV
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
		case "data":
			info.DataSize = size
			if info.SampleRate == 0 {
				return nil, ErrNotWAV
			}
			return info, nil
		}

		off = body + size + size%2
	}
	return nil, ErrNotWAV
}
