// Package voices builds the preset registry: the mapping from configured
// preset IDs to ready-to-use synthesis voices and their display metadata.
package voices

import (
	"context"
	"fmt"
	"sort"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"

	"github.com/yomubot/yomu/internal/config"
	"github.com/yomubot/yomu/internal/observe"
	"github.com/yomubot/yomu/internal/resilience"
	"github.com/yomubot/yomu/pkg/voice"
	"github.com/yomubot/yomu/pkg/voice/cache"
	"github.com/yomubot/yomu/pkg/voice/elevenlabs"
	"github.com/yomubot/yomu/pkg/voice/google"
)

// Detail is the human-facing metadata of a preset.
type Detail struct {
	// DisplayName is shown in command replies.
	DisplayName string

	// Language is the BCP-47 tag used to localize spoken announcements.
	Language string
}

// Package pairs a usable voice with its metadata.
type Package struct {
	Voice  voice.Voice
	Detail Detail
}

// Registry maps preset IDs to packages. It is immutable after Build and
// safe for concurrent reads.
type Registry struct {
	packages map[string]Package
}

// BuildOptions carries the shared clients presets may need.
type BuildOptions struct {
	// Google is the shared Text-to-Speech client. Required when any preset
	// uses the google backend.
	Google *texttospeech.Client

	// Metrics, when non-nil, instruments synthesis calls and cache lookups.
	Metrics *observe.Metrics
}

// Build assembles the registry from cfg.Profiles. Each backend voice is
// wrapped with synthesis instrumentation, a circuit breaker, and finally the
// shared cache when cfg.Cache.Capacity is positive, so lookups are served
// even while a backend's breaker is open.
func Build(cfg *config.Config, opts BuildOptions) (*Registry, error) {
	var store *cache.Store
	if cfg.Cache.Capacity > 0 {
		var err error
		if store, err = cache.NewStore(cfg.Cache.Capacity); err != nil {
			return nil, fmt.Errorf("voices: create cache: %w", err)
		}
		if opts.Metrics != nil {
			m := opts.Metrics
			store.OnLookup = func(hit bool) {
				m.RecordCacheLookup(context.Background(), hit)
			}
		}
	}

	packages := make(map[string]Package, len(cfg.Profiles))
	for id, profile := range cfg.Profiles {
		v, language, err := buildBackend(id, profile, opts)
		if err != nil {
			return nil, err
		}
		v = resilience.NewBreakerVoice(v, resilience.BreakerConfig{Name: id})
		if store != nil {
			v = cache.Wrap(v, store)
		}

		detail := Detail{DisplayName: profile.DisplayName, Language: language}
		if detail.DisplayName == "" {
			detail.DisplayName = id
		}
		packages[id] = Package{Voice: v, Detail: detail}
	}
	return &Registry{packages: packages}, nil
}

// buildBackend creates the raw synthesis voice for one preset and reports
// the language its announcements should use.
func buildBackend(id string, profile config.ProfileConfig, opts BuildOptions) (voice.Voice, string, error) {
	language := profile.Language

	switch {
	case profile.Google != nil:
		if opts.Google == nil {
			return nil, "", fmt.Errorf("voices: preset %q uses the google backend but no Google Cloud client is configured", id)
		}
		if language == "" {
			language = profile.Google.LanguageCode
		}
		v := google.New(opts.Google, google.Config{
			LanguageCode: profile.Google.LanguageCode,
			Name:         profile.Google.Name,
			SpeakingRate: profile.Google.SpeakingRate,
			Pitch:        profile.Google.Pitch,
		})
		return instrument(v, "google", opts.Metrics), language, nil

	case profile.ElevenLabs != nil:
		elOpts := []elevenlabs.Option{}
		if profile.ElevenLabs.ModelID != "" {
			elOpts = append(elOpts, elevenlabs.WithModel(profile.ElevenLabs.ModelID))
		}
		if profile.ElevenLabs.Stability != 0 || profile.ElevenLabs.SimilarityBoost != 0 {
			elOpts = append(elOpts, elevenlabs.WithVoiceSettings(
				profile.ElevenLabs.Stability,
				profile.ElevenLabs.SimilarityBoost,
			))
		}
		v, err := elevenlabs.New(profile.ElevenLabs.APIKey, profile.ElevenLabs.VoiceID, elOpts...)
		if err != nil {
			return nil, "", fmt.Errorf("voices: preset %q: %w", id, err)
		}
		return instrument(v, "elevenlabs", opts.Metrics), language, nil

	default:
		// Config validation rejects profiles without a backend.
		return nil, "", fmt.Errorf("voices: preset %q has no backend", id)
	}
}

// Get returns the package for a preset ID.
func (r *Registry) Get(id string) (Package, bool) {
	p, ok := r.packages[id]
	return p, ok
}

// Voice returns just the synthesis voice for a preset ID.
func (r *Registry) Voice(id string) (voice.Voice, bool) {
	p, ok := r.packages[id]
	if !ok {
		return nil, false
	}
	return p.Voice, true
}

// Entry is one row of List.
type Entry struct {
	ID     string
	Detail Detail
}

// List returns all presets sorted by ID, for command replies.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.packages))
	for id, p := range r.packages {
		entries = append(entries, Entry{ID: id, Detail: p.Detail})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Len returns the number of presets.
func (r *Registry) Len() int {
	return len(r.packages)
}
