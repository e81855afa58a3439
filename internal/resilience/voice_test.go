package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yomubot/yomu/pkg/voice"
	"github.com/yomubot/yomu/pkg/voice/mock"
)

func TestBreakerVoice_PassesThroughWhileClosed(t *testing.T) {
	t.Parallel()

	inner := &mock.Voice{ID: "mock-1"}
	v := NewBreakerVoice(inner, BreakerConfig{})

	if got := v.Identifier(); got != "mock-1" {
		t.Errorf("Identifier() = %q, want mock-1", got)
	}

	audio, err := v.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if string(audio) != "hello" {
		t.Errorf("Generate() = %q, want hello", audio)
	}
	if v.State() != StateClosed {
		t.Errorf("State() = %v, want closed", v.State())
	}
}

func TestBreakerVoice_SuccessResetsFailureStreak(t *testing.T) {
	t.Parallel()

	apiDown := errors.New("api down")
	healthy := false
	inner := &mock.Voice{ID: "mock-1", GenerateFunc: func(_ context.Context, text string) ([]byte, error) {
		if healthy {
			return []byte(text), nil
		}
		return nil, apiDown
	}}
	v := NewBreakerVoice(inner, BreakerConfig{MaxFailures: 3, ResetTimeout: time.Hour})

	ctx := context.Background()
	for range 2 {
		if _, err := v.Generate(ctx, "hi"); !errors.Is(err, apiDown) {
			t.Fatalf("Generate() error = %v, want backend error", err)
		}
	}

	// A success between failures clears the streak; two more failures must
	// not reach the threshold.
	healthy = true
	if _, err := v.Generate(ctx, "hi"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	healthy = false
	for range 2 {
		v.Generate(ctx, "hi")
	}
	if v.State() != StateClosed {
		t.Errorf("State() = %v, want closed after interrupted failure streak", v.State())
	}
}

func TestBreakerVoice_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	inner := &mock.Voice{ID: "mock-1", GenerateError: errors.New("api down")}
	v := NewBreakerVoice(inner, BreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})

	ctx := context.Background()
	for range 2 {
		if _, err := v.Generate(ctx, "hello"); err == nil {
			t.Fatal("Generate() succeeded, want backend error")
		}
	}
	if v.State() != StateOpen {
		t.Fatalf("State() = %v, want open after 2 failures", v.State())
	}

	// Open breaker fails fast without touching the backend.
	callsBefore := inner.CallCount()
	_, err := v.Generate(ctx, "hello")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Generate() error = %v, want ErrCircuitOpen", err)
	}
	var verr *voice.Error
	if !errors.As(err, &verr) || verr.Kind != voice.KindAPI {
		t.Errorf("Generate() error = %v, want voice.Error with KindAPI", err)
	}
	if inner.CallCount() != callsBefore {
		t.Error("open breaker still called the backend")
	}
}

func TestBreakerVoice_ClosesAfterSuccessfulProbes(t *testing.T) {
	t.Parallel()

	healthy := false
	inner := &mock.Voice{ID: "mock-1", GenerateFunc: func(_ context.Context, text string) ([]byte, error) {
		if healthy {
			return []byte(text), nil
		}
		return nil, errors.New("api down")
	}}
	v := NewBreakerVoice(inner, BreakerConfig{
		MaxFailures:    1,
		ResetTimeout:   10 * time.Millisecond,
		HalfOpenProbes: 2,
	})

	ctx := context.Background()
	v.Generate(ctx, "trip")
	if v.State() != StateOpen {
		t.Fatalf("State() = %v, want open", v.State())
	}

	healthy = true
	time.Sleep(20 * time.Millisecond)
	if v.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open after reset timeout", v.State())
	}

	for range 2 {
		if _, err := v.Generate(ctx, "probe"); err != nil {
			t.Fatalf("Generate() probe error: %v", err)
		}
	}
	if v.State() != StateClosed {
		t.Errorf("State() = %v, want closed after successful probes", v.State())
	}
}

func TestBreakerVoice_ReopensOnFailedProbe(t *testing.T) {
	t.Parallel()

	inner := &mock.Voice{ID: "mock-1", GenerateError: errors.New("api down")}
	v := NewBreakerVoice(inner, BreakerConfig{
		MaxFailures:    1,
		ResetTimeout:   10 * time.Millisecond,
		HalfOpenProbes: 2,
	})

	ctx := context.Background()
	v.Generate(ctx, "trip")
	time.Sleep(20 * time.Millisecond)

	// The probe reaches the still-broken backend and re-opens the breaker.
	callsBefore := inner.CallCount()
	if _, err := v.Generate(ctx, "probe"); err == nil {
		t.Fatal("Generate() probe succeeded, want backend error")
	}
	if inner.CallCount() != callsBefore+1 {
		t.Fatalf("backend calls = %d, want %d", inner.CallCount(), callsBefore+1)
	}
	if v.State() != StateOpen {
		t.Errorf("State() = %v, want open after failed probe", v.State())
	}

	// And the fresh open window fails fast again.
	if _, err := v.Generate(ctx, "hello"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Generate() error = %v, want ErrCircuitOpen", err)
	}
	if inner.CallCount() != callsBefore+1 {
		t.Error("open breaker still called the backend")
	}
}
