package audioio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48 kHz.
const opusRate = 48000

// maxFrame is 120 ms at 48 kHz, the longest Opus packet.
const maxFrame = 5760

var (
	// ErrNotOggOpus is returned for input that is not an Ogg/Opus stream.
	ErrNotOggOpus = errors.New("audioio: not an Ogg/Opus stream")

	// ErrEmptyAudio is returned when a stream decodes to no samples.
	ErrEmptyAudio = errors.New("audioio: stream contains no audio")
)

var (
	oggMagic  = []byte("OggS")
	opusMagic = []byte("OpusHead")
)

// IsOggOpus reports whether data is an Ogg container carrying Opus.
func IsOggOpus(data []byte) bool {
	if !bytes.HasPrefix(data, oggMagic) {
		return false
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, opusMagic)
}

// OpusChannels returns the channel count from the OpusHead packet.
func OpusChannels(data []byte) (int, error) {
	if !bytes.HasPrefix(data, oggMagic) {
		return 0, ErrNotOggOpus
	}
	i := bytes.Index(data, opusMagic)
	if i < 0 || i+9 >= len(data) {
		return 0, ErrNotOggOpus
	}
	ch := int(data[i+9])
	if ch < 1 || ch > 8 {
		return 0, fmt.Errorf("audioio: invalid opus channel count %d", ch)
	}
	return ch, nil
}

// DecodeOggOpus decodes an Ogg/Opus recording into 16 kHz mono WAV bytes.
func DecodeOggOpus(data []byte) ([]byte, error) {
	channels, err := OpusChannels(data)
	if err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("audioio: open opus stream: %w", err)
	}
	defer stream.Close()

	var pcm []int16
	buf := make([]int16, maxFrame*channels)
	for {
		n, err := stream.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audioio: decode opus: %w", err)
		}
		pcm = append(pcm, buf[:n*channels]...)
	}

	if len(pcm) == 0 {
		return nil, ErrEmptyAudio
	}

	mono := Resample(Downmix(pcm, channels), opusRate, SpeechRate)
	return EncodeWAV(mono, SpeechRate, 1), nil
}
