// Package voice defines the [Voice] interface for speech synthesis backends.
//
// A Voice wraps a single configured voice of a TTS service (e.g., one Google
// Cloud voice at a fixed speaking rate) and turns text into raw audio bytes.
// Decorators such as the synthesis cache in voice/cache compose around the
// same interface.
//
// Implementations must be safe for concurrent use. Many sessions may
// synthesise through the same Voice at once.
package voice

import (
	"context"
	"fmt"
)

// Kind classifies a synthesis failure.
type Kind int

const (
	// KindAPI means the backing synthesis service rejected or failed the request.
	KindAPI Kind = iota

	// KindCache means the caching layer failed (not a miss — misses are not errors).
	KindCache

	// KindUnknown covers everything else.
	KindUnknown
)

// String returns the human-readable name of the error kind.
func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindCache:
		return "cache"
	default:
		return "unknown"
	}
}

// Error is the error type returned by [Voice.Generate] implementations.
// Wrapping layers must return it unchanged so that callers can classify
// failures with [errors.As].
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("voice: %s error: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// APIError wraps err as a [KindAPI] synthesis error.
func APIError(err error) *Error {
	return &Error{Kind: KindAPI, Err: err}
}

// CacheError wraps err as a [KindCache] synthesis error.
func CacheError(err error) *Error {
	return &Error{Kind: KindCache, Err: err}
}

// Voice is the abstraction over one configured synthesis voice.
//
// Implementations must be safe for concurrent use.
type Voice interface {
	// Identifier returns a stable string that is distinct from every other
	// configured voice, e.g. "google(ja-JP-Wavenet-A,rate:1.2)". It is used
	// as part of cache keys and in logs, so two voices that produce
	// different audio must never share an identifier.
	Identifier() string

	// Generate synthesises text into audio bytes in the format the audio
	// sink expects (48 kHz 16-bit little-endian stereo PCM for Discord).
	// Returns a [*Error] on failure.
	Generate(ctx context.Context, text string) ([]byte, error)
}
