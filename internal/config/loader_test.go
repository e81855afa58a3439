package config_test

import (
	"strings"
	"testing"

	"github.com/yomubot/yomu/internal/config"
)

const validYAML = `
server:
  log_level: debug
discord:
  token: "Bot abc123"
database:
  dsn: "postgres://yomu@localhost:5432/yomu"
cache:
  capacity: 512
reader:
  default_profile: wavenet-a
  locale: ja
profiles:
  wavenet-a:
    display_name: Wavenet A
    language: ja-JP
    google:
      language_code: ja-JP
      name: ja-JP-Wavenet-A
      speaking_rate: 1.2
  narrator:
    elevenlabs:
      api_key: el-key
      voice_id: abcd1234
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader() error: %v", err)
	}

	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Cache.Capacity != 512 {
		t.Errorf("Cache.Capacity = %d, want 512", cfg.Cache.Capacity)
	}
	if cfg.Reader.MessageLimit != config.DefaultMessageLimit {
		t.Errorf("MessageLimit = %d, want default %d", cfg.Reader.MessageLimit, config.DefaultMessageLimit)
	}

	p, ok := cfg.Profiles["wavenet-a"]
	if !ok {
		t.Fatal("profile wavenet-a missing")
	}
	if p.Google == nil || p.Google.Name != "ja-JP-Wavenet-A" {
		t.Errorf("google voice = %+v, want ja-JP-Wavenet-A", p.Google)
	}

	// Defaults fill in per-profile blanks.
	n := cfg.Profiles["narrator"]
	if n.DisplayName != "narrator" {
		t.Errorf("narrator DisplayName = %q, want preset ID fallback", n.DisplayName)
	}
	if n.Language != "ja" {
		t.Errorf("narrator Language = %q, want reader locale", n.Language)
	}
}

func TestLoadFromReader_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			name:    "missing token",
			yaml:    "reader:\n  default_profile: a\nprofiles:\n  a:\n    google:\n      language_code: en-US\n",
			wantSub: "discord.token",
		},
		{
			name:    "unknown default profile",
			yaml:    "discord:\n  token: t\nreader:\n  default_profile: nope\nprofiles:\n  a:\n    google:\n      language_code: en-US\n",
			wantSub: "default_profile",
		},
		{
			name:    "no backend on profile",
			yaml:    "discord:\n  token: t\nreader:\n  default_profile: a\nprofiles:\n  a: {}\n",
			wantSub: "voice backend",
		},
		{
			name:    "two backends on profile",
			yaml:    "discord:\n  token: t\nreader:\n  default_profile: a\nprofiles:\n  a:\n    google:\n      language_code: en-US\n    elevenlabs:\n      voice_id: v\n",
			wantSub: "exactly one",
		},
		{
			name:    "no profiles",
			yaml:    "discord:\n  token: t\nreader:\n  default_profile: a\n",
			wantSub: "at least one voice profile",
		},
		{
			name:    "unknown field rejected",
			yaml:    "discord:\n  token: t\nnot_a_field: true\n",
			wantSub: "decode yaml",
		},
		{
			name:    "bad log level",
			yaml:    "server:\n  log_level: loud\ndiscord:\n  token: t\nreader:\n  default_profile: a\nprofiles:\n  a:\n    google:\n      language_code: en-US\n",
			wantSub: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("LoadFromReader() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLogLevel_Level(t *testing.T) {
	t.Parallel()

	if config.LogDebug.Level() >= config.LogWarn.Level() {
		t.Error("debug should be lower than warn")
	}
	if got := config.LogLevel("").Level(); got != config.LogInfo.Level() {
		t.Errorf("empty level = %v, want info", got)
	}
}
