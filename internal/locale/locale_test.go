package locale_test

import (
	"strings"
	"testing"

	"github.com/yomubot/yomu/internal/locale"
)

func TestLoad_UnknownFallback(t *testing.T) {
	t.Parallel()

	if _, err := locale.Load("xx"); err == nil {
		t.Error("Load(xx) succeeded, want error for missing catalog")
	}
}

func TestResolve_Cascade(t *testing.T) {
	t.Parallel()

	l, err := locale.Load("en")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		name   string
		locale string
		key    string
		want   string // substring of the resolved message
	}{
		{"exact language", "ja", "launch", "読み上げ"},
		{"region tag falls back to language", "ja-JP", "launch", "読み上げ"},
		{"unknown locale uses fallback", "fr", "launch", "ready"},
		{"fallback itself", "en", "leave.thanks", "Thanks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := l.Resolve(tt.locale, tt.key)
			if err != nil {
				t.Fatalf("Resolve(%q, %q) error: %v", tt.locale, tt.key, err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Resolve(%q, %q) = %q, want it to contain %q", tt.locale, tt.key, got, tt.want)
			}
		})
	}
}

func TestResolve_UnknownKey(t *testing.T) {
	t.Parallel()

	l, err := locale.Load("en")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if _, err := l.Resolve("en", "no.such.key"); err == nil {
		t.Error("Resolve() succeeded for unknown key, want error")
	}
}
