package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by LoadFromReader when the corresponding field is unset.
const (
	DefaultMessageLimit = 200
	DefaultLocale       = "en"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Reader.MessageLimit == 0 {
		cfg.Reader.MessageLimit = DefaultMessageLimit
	}
	if cfg.Reader.Locale == "" {
		cfg.Reader.Locale = DefaultLocale
	}
	for id, p := range cfg.Profiles {
		if p.DisplayName == "" {
			p.DisplayName = id
		}
		if p.Language == "" {
			p.Language = cfg.Reader.Locale
		}
		cfg.Profiles[id] = p
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token must be set"))
	}

	if cfg.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("cache.capacity %d is negative", cfg.Cache.Capacity))
	}

	if cfg.Reader.MessageLimit < 0 {
		errs = append(errs, fmt.Errorf("reader.message_limit %d is negative", cfg.Reader.MessageLimit))
	}

	if len(cfg.Profiles) == 0 {
		errs = append(errs, errors.New("at least one voice profile must be defined"))
	}

	if cfg.Reader.DefaultProfile == "" {
		errs = append(errs, errors.New("reader.default_profile must be set"))
	} else if _, ok := cfg.Profiles[cfg.Reader.DefaultProfile]; !ok {
		errs = append(errs, fmt.Errorf("reader.default_profile %q does not match any profile", cfg.Reader.DefaultProfile))
	}

	for id, p := range cfg.Profiles {
		switch {
		case p.Google == nil && p.ElevenLabs == nil:
			errs = append(errs, fmt.Errorf("profile %q: a voice backend (google or elevenlabs) must be configured", id))
		case p.Google != nil && p.ElevenLabs != nil:
			errs = append(errs, fmt.Errorf("profile %q: exactly one voice backend may be configured", id))
		case p.Google != nil && p.Google.LanguageCode == "":
			errs = append(errs, fmt.Errorf("profile %q: google.language_code must be set", id))
		case p.ElevenLabs != nil && p.ElevenLabs.VoiceID == "":
			errs = append(errs, fmt.Errorf("profile %q: elevenlabs.voice_id must be set", id))
		}
	}

	return errors.Join(errs...)
}
