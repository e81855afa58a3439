// Package mock provides an in-memory implementation of [voice.Voice] for
// unit tests.
//
// The mock records every Generate call so tests can assert on call counts and
// inputs, and exposes exported fields to control return values. It is safe
// for concurrent use.
package mock

import (
	"context"
	"sync"

	"github.com/yomubot/yomu/pkg/voice"
)

// Voice is a mock implementation of [voice.Voice].
// Set the exported fields before use; inspect the recorded calls after.
type Voice struct {
	mu sync.Mutex

	// ID is returned by Identifier. Defaults to "mock" if empty.
	ID string

	// GenerateFunc, when non-nil, is invoked by Generate after the call is
	// recorded, and its result returned. Takes precedence over GenerateError.
	GenerateFunc func(ctx context.Context, text string) ([]byte, error)

	// GenerateError, when non-nil, is returned by every Generate call.
	GenerateError error

	// GenerateCalls records the text of every Generate call in order.
	GenerateCalls []string
}

var _ voice.Voice = (*Voice)(nil)

// Identifier implements [voice.Voice].
func (v *Voice) Identifier() string {
	if v.ID == "" {
		return "mock"
	}
	return v.ID
}

// Generate implements [voice.Voice]. Unless GenerateFunc or GenerateError is
// set, it echoes the input text back as bytes.
func (v *Voice) Generate(ctx context.Context, text string) ([]byte, error) {
	v.mu.Lock()
	v.GenerateCalls = append(v.GenerateCalls, text)
	fn := v.GenerateFunc
	genErr := v.GenerateError
	v.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	if genErr != nil {
		return nil, genErr
	}
	return []byte(text), nil
}

// CallCount returns the number of Generate calls recorded so far.
func (v *Voice) CallCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.GenerateCalls)
}
