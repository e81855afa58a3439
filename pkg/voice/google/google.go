// Package google provides a Google Cloud Text-to-Speech backed voice.
// It implements the voice.Voice interface.
package google

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/yomubot/yomu/pkg/voice"
)

// sampleRate is the playback sample rate requested from the API. Google
// returns 16-bit mono at this rate; Generate widens it to interleaved
// stereo.
const sampleRate = 48000

// Config selects and tunes a Google Cloud voice.
type Config struct {
	// LanguageCode is the BCP-47 language tag, e.g. "ja-JP". Required.
	LanguageCode string

	// Name is the exact voice name, e.g. "ja-JP-Wavenet-A". When empty the
	// API picks a default voice for the language.
	Name string

	// SpeakingRate adjusts speed in [0.25, 4.0]. Zero means the API default.
	SpeakingRate float64

	// Pitch shifts pitch in semitones within [-20, 20]. Zero means neutral.
	Pitch float64
}

// Voice synthesizes speech through the Google Cloud Text-to-Speech API.
type Voice struct {
	client *texttospeech.Client
	cfg    Config
	id     string
}

var _ voice.Voice = (*Voice)(nil)

// New creates a Voice over client. client is shared between all presets and
// owned by the caller.
func New(client *texttospeech.Client, cfg Config) *Voice {
	return &Voice{client: client, cfg: cfg, id: identifier(cfg)}
}

// identifier builds a stable ID encoding everything that changes the audio,
// so distinct tunings never share cache entries.
func identifier(cfg Config) string {
	name := cfg.Name
	if name == "" {
		name = cfg.LanguageCode
	}
	var b strings.Builder
	b.WriteString("google(")
	b.WriteString(name)
	if cfg.SpeakingRate != 0 {
		b.WriteString(",rate:")
		b.WriteString(strconv.FormatFloat(cfg.SpeakingRate, 'g', -1, 64))
	}
	if cfg.Pitch != 0 {
		b.WriteString(",pitch:")
		b.WriteString(strconv.FormatFloat(cfg.Pitch, 'g', -1, 64))
	}
	b.WriteString(")")
	return b.String()
}

// Identifier implements voice.Voice.
func (v *Voice) Identifier() string {
	return v.id
}

// Generate implements voice.Voice. The returned audio is 48kHz 16-bit
// little-endian interleaved stereo PCM.
func (v *Voice) Generate(ctx context.Context, text string) ([]byte, error) {
	resp, err := v.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: v.cfg.LanguageCode,
			Name:         v.cfg.Name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: sampleRate,
			SpeakingRate:    v.cfg.SpeakingRate,
			Pitch:           v.cfg.Pitch,
		},
	})
	if err != nil {
		return nil, voice.APIError(fmt.Errorf("google: synthesize: %w", err))
	}
	return monoToStereo(stripWAVHeader(resp.GetAudioContent())), nil
}

// stripWAVHeader removes the RIFF container LINEAR16 responses arrive in,
// leaving raw PCM samples.
func stripWAVHeader(audio []byte) []byte {
	if !bytes.HasPrefix(audio, []byte("RIFF")) {
		return audio
	}
	// The data chunk follows the chunk list; scan for its tag.
	if i := bytes.Index(audio, []byte("data")); i >= 0 && len(audio) >= i+8 {
		return audio[i+8:]
	}
	return audio
}

// monoToStereo duplicates each 16-bit sample into both channels.
func monoToStereo(mono []byte) []byte {
	stereo := make([]byte, 0, len(mono)*2)
	for i := 0; i+1 < len(mono); i += 2 {
		stereo = append(stereo, mono[i], mono[i+1], mono[i], mono[i+1])
	}
	return stereo
}
