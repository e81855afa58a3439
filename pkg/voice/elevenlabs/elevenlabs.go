// Package elevenlabs provides an ElevenLabs-backed voice using the
// non-streaming synthesis REST API. It implements the voice.Voice interface.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/yomubot/yomu/pkg/voice"
)

const (
	synthesizeEndpointFmt = "https://api.elevenlabs.io/v1/text-to-speech/%s"
	defaultModel          = "eleven_flash_v2_5"

	// outputFormat requests raw 16-bit mono PCM at the playback rate.
	outputFormat = "pcm_48000"
)

// Option is a functional option for configuring the ElevenLabs Voice.
type Option func(*Voice)

// WithModel sets the ElevenLabs model ID (e.g., "eleven_flash_v2_5").
func WithModel(model string) Option {
	return func(v *Voice) {
		v.model = model
	}
}

// WithHTTPClient replaces the default HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Voice) {
		v.httpClient = c
	}
}

// WithVoiceSettings tunes stability and similarity boost, both in [0, 1].
func WithVoiceSettings(stability, similarityBoost float64) Option {
	return func(v *Voice) {
		v.settings = &voiceSettings{Stability: stability, SimilarityBoost: similarityBoost}
	}
}

// withBaseURL overrides the API endpoint. Test-only.
func withBaseURL(format string) Option {
	return func(v *Voice) {
		v.endpointFmt = format
	}
}

// Voice synthesizes speech through the ElevenLabs REST API.
type Voice struct {
	apiKey      string
	voiceID     string
	model       string
	settings    *voiceSettings
	httpClient  *http.Client
	endpointFmt string
}

var _ voice.Voice = (*Voice)(nil)

// New creates a Voice for the given ElevenLabs voice ID. apiKey and voiceID
// must be non-empty.
func New(apiKey, voiceID string, opts ...Option) (*Voice, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	if voiceID == "" {
		return nil, errors.New("elevenlabs: voiceID must not be empty")
	}
	v := &Voice{
		apiKey:      apiKey,
		voiceID:     voiceID,
		model:       defaultModel,
		httpClient:  &http.Client{},
		endpointFmt: synthesizeEndpointFmt,
	}
	for _, o := range opts {
		o(v)
	}
	return v, nil
}

// voiceSettings mirrors the ElevenLabs voice_settings object.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// synthesizeRequest is the JSON payload for POST /v1/text-to-speech/{id}.
type synthesizeRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

// Identifier implements voice.Voice. The model is part of the identity
// because switching models changes the audio for the same voice ID.
func (v *Voice) Identifier() string {
	return fmt.Sprintf("elevenlabs(%s,%s)", v.voiceID, v.model)
}

// Generate implements voice.Voice. The returned audio is 48kHz 16-bit
// little-endian interleaved stereo PCM.
func (v *Voice) Generate(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       v.model,
		VoiceSettings: v.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	url := fmt.Sprintf(v.endpointFmt, v.voiceID) + "?output_format=" + outputFormat
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: build request: %w", err)
	}
	req.Header.Set("xi-api-key", v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, voice.APIError(fmt.Errorf("elevenlabs: synthesize: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, voice.APIError(fmt.Errorf("elevenlabs: synthesize: status %d: %s", resp.StatusCode, body))
	}

	mono, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, voice.APIError(fmt.Errorf("elevenlabs: read audio: %w", err))
	}
	return monoToStereo(mono), nil
}

// monoToStereo duplicates each 16-bit sample into both channels.
func monoToStereo(mono []byte) []byte {
	stereo := make([]byte, 0, len(mono)*2)
	for i := 0; i+1 < len(mono); i += 2 {
		stereo = append(stereo, mono[i], mono[i+1], mono[i], mono[i+1])
	}
	return stereo
}
