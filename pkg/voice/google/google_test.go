package google

import (
	"bytes"
	"testing"
)

func TestIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "name only",
			cfg:  Config{LanguageCode: "ja-JP", Name: "ja-JP-Wavenet-A"},
			want: "google(ja-JP-Wavenet-A)",
		},
		{
			name: "language fallback",
			cfg:  Config{LanguageCode: "en-US"},
			want: "google(en-US)",
		},
		{
			name: "rate and pitch",
			cfg:  Config{LanguageCode: "ja-JP", Name: "ja-JP-Wavenet-B", SpeakingRate: 1.25, Pitch: -2},
			want: "google(ja-JP-Wavenet-B,rate:1.25,pitch:-2)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := identifier(tt.cfg); got != tt.want {
				t.Errorf("identifier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripWAVHeader(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4}

	// Minimal RIFF container: header chunks, then "data" + size + samples.
	wav := append([]byte("RIFFxxxxWAVEfmt \x10\x00\x00\x00"), make([]byte, 16)...)
	wav = append(wav, []byte("data\x04\x00\x00\x00")...)
	wav = append(wav, pcm...)

	if got := stripWAVHeader(wav); !bytes.Equal(got, pcm) {
		t.Errorf("stripWAVHeader() = %v, want %v", got, pcm)
	}

	// Raw PCM passes through untouched.
	if got := stripWAVHeader(pcm); !bytes.Equal(got, pcm) {
		t.Errorf("stripWAVHeader(raw) = %v, want %v", got, pcm)
	}
}

func TestMonoToStereo(t *testing.T) {
	t.Parallel()

	mono := []byte{0x01, 0x02, 0x03, 0x04}
	want := []byte{0x01, 0x02, 0x01, 0x02, 0x03, 0x04, 0x03, 0x04}
	if got := monoToStereo(mono); !bytes.Equal(got, want) {
		t.Errorf("monoToStereo() = %v, want %v", got, want)
	}

	// Odd trailing byte is dropped rather than widened into a bogus sample.
	if got := monoToStereo([]byte{0x01}); len(got) != 0 {
		t.Errorf("monoToStereo(odd) = %v, want empty", got)
	}
}
