// Package locale resolves localized message strings for spoken
// announcements and command replies.
//
// Message catalogs are flat key/value YAML files embedded at build
// time, one file per locale. Lookup cascades from the requested locale
// to its bare language tag and finally to the configured fallback, so
// "ja-JP" is searched as ja-JP, ja, then the fallback.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// Locales holds the parsed message catalogs.
type Locales struct {
	fallback string
	bundles  map[string]map[string]string
}

// Load parses the embedded catalogs. fallback names the locale used
// when no candidate matches; it must have a catalog file.
func Load(fallback string) (*Locales, error) {
	entries, err := fs.ReadDir(catalogFS, "catalogs")
	if err != nil {
		return nil, fmt.Errorf("locale: read catalogs: %w", err)
	}

	bundles := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		tag := strings.TrimSuffix(name, path.Ext(name))

		raw, err := catalogFS.ReadFile(path.Join("catalogs", name))
		if err != nil {
			return nil, fmt.Errorf("locale: read %s: %w", name, err)
		}

		messages := make(map[string]string)
		if err := yaml.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("locale: parse %s: %w", name, err)
		}
		bundles[tag] = messages
	}

	if _, ok := bundles[fallback]; !ok {
		return nil, fmt.Errorf("locale: fallback locale %q has no catalog", fallback)
	}
	return &Locales{fallback: fallback, bundles: bundles}, nil
}

// Resolve returns the message for key in the closest available locale.
// The candidate chain for "ja-JP" is ja-JP, ja, then the fallback.
func (l *Locales) Resolve(locale, key string) (string, error) {
	candidates := []string{locale}
	if lang, _, ok := strings.Cut(locale, "-"); ok {
		candidates = append(candidates, lang)
	}
	if candidates[len(candidates)-1] != l.fallback {
		candidates = append(candidates, l.fallback)
	}

	for _, candidate := range candidates {
		bundle, ok := l.bundles[candidate]
		if !ok {
			continue
		}
		if msg, ok := bundle[key]; ok {
			return msg, nil
		}
	}
	return "", fmt.Errorf("locale: no message for key %q in %v", key, candidates)
}

// Fallback returns the configured fallback locale tag.
func (l *Locales) Fallback() string {
	return l.fallback
}
