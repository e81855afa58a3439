package discord

import (
	"encoding/binary"
	"fmt"

	"layeh.com/gopus"
)

// Discord voice uses 48 kHz stereo Opus at 20 ms frame size.
const (
	opusSampleRate  = 48000
	opusChannels    = 2
	opusFrameSizeMs = 20
	// opusFrameSize is the number of samples per channel per 20 ms frame.
	opusFrameSize = opusSampleRate * opusFrameSizeMs / 1000 // 960
	// pcmFrameBytes is the size of one frame of interleaved 16-bit PCM.
	pcmFrameBytes = opusFrameSize * opusChannels * 2
)

// opusEncoder wraps a gopus Opus encoder for the playback stream. The encoder
// is stateful, so one segment must be encoded frame-by-frame on a single encoder.
type opusEncoder struct {
	enc *gopus.Encoder
}

// newOpusEncoder creates an Opus encoder configured for Discord audio.
func newOpusEncoder() (*opusEncoder, error) {
	enc, err := gopus.NewEncoder(opusSampleRate, opusChannels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("discord: create opus encoder: %w", err)
	}
	return &opusEncoder{enc: enc}, nil
}

// encode encodes one frame of interleaved little-endian 16-bit PCM into an
// Opus packet. pcmBytes must be exactly pcmFrameBytes long.
func (e *opusEncoder) encode(pcmBytes []byte) ([]byte, error) {
	pcm := bytesToInt16s(pcmBytes)
	pkt, err := e.enc.Encode(pcm, opusFrameSize, len(pcmBytes))
	if err != nil {
		return nil, fmt.Errorf("discord: opus encode: %w", err)
	}
	return pkt, nil
}

// frames splits a PCM segment into frame-sized chunks, zero-padding the tail
// to a whole frame so the encoder always sees exactly opusFrameSize samples.
func frames(pcm []byte) [][]byte {
	var out [][]byte
	for off := 0; off < len(pcm); off += pcmFrameBytes {
		end := off + pcmFrameBytes
		if end <= len(pcm) {
			out = append(out, pcm[off:end])
			continue
		}
		padded := make([]byte, pcmFrameBytes)
		copy(padded, pcm[off:])
		out = append(out, padded)
	}
	return out
}

// bytesToInt16s converts little-endian PCM bytes to int16 samples.
func bytesToInt16s(b []byte) []int16 {
	pcm := make([]int16, len(b)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return pcm
}
