package voices

import (
	"context"
	"time"

	"github.com/yomubot/yomu/internal/observe"
	"github.com/yomubot/yomu/pkg/voice"
)

// instrumentedVoice records synthesis latency around the wrapped backend.
// It sits inside the cache wrapper so cache hits are not counted as
// synthesis calls.
type instrumentedVoice struct {
	inner   voice.Voice
	backend string
	metrics *observe.Metrics
}

var _ voice.Voice = (*instrumentedVoice)(nil)

// instrument wraps inner with latency recording. With a nil Metrics it
// returns inner unchanged.
func instrument(inner voice.Voice, backend string, m *observe.Metrics) voice.Voice {
	if m == nil {
		return inner
	}
	return &instrumentedVoice{inner: inner, backend: backend, metrics: m}
}

func (v *instrumentedVoice) Identifier() string {
	return v.inner.Identifier()
}

func (v *instrumentedVoice) Generate(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	audio, err := v.inner.Generate(ctx, text)
	v.metrics.RecordSynthesis(ctx, v.backend, time.Since(start), err)
	return audio, err
}
