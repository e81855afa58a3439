// Package mock provides an in-memory implementation of [audio.Sink] for unit
// tests.
//
// The mock records every enqueued batch and exposes EmitEnd / EmitDisconnect
// so tests can drive playback-completion and forced-disconnect events by
// hand. It is safe for concurrent use.
//
// Typical usage:
//
//	sink := &mock.Sink{}
//	actor, handle := session.NewActor(sink)
//	go actor.Run()
//	// ... submit work through handle ...
//	sink.EmitEnd() // grant one playback-completion credit
package mock

import (
	"context"
	"sync"

	"github.com/yomubot/yomu/pkg/audio"
)

// Sink is a mock implementation of [audio.Sink].
type Sink struct {
	mu sync.Mutex

	// EnqueueError, when non-nil, is returned by every Enqueue call.
	EnqueueError error

	// LeaveError, when non-nil, is returned by every Leave call.
	LeaveError error

	// EnqueueCalls records every batch passed to Enqueue, in order.
	EnqueueCalls [][][]byte

	// CallCountLeave records how many times Leave was called.
	CallCountLeave int

	endChans        []chan<- struct{}
	disconnectChans []chan<- struct{}
}

var _ audio.Sink = (*Sink)(nil)

// Enqueue implements [audio.Sink]. It records the batch and returns EnqueueError.
func (s *Sink) Enqueue(_ context.Context, segments [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EnqueueError != nil {
		return s.EnqueueError
	}
	s.EnqueueCalls = append(s.EnqueueCalls, segments)
	return nil
}

// Leave implements [audio.Sink]. It increments CallCountLeave and returns LeaveError.
func (s *Sink) Leave(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountLeave++
	return s.LeaveError
}

// NotifyEnd implements [audio.Sink].
func (s *Sink) NotifyEnd(ch chan<- struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endChans = append(s.endChans, ch)
}

// NotifyDisconnect implements [audio.Sink].
func (s *Sink) NotifyDisconnect(ch chan<- struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectChans = append(s.disconnectChans, ch)
}

// EmitEnd delivers one playback-completion event to every subscriber.
// Full subscriber channels are skipped, matching the non-blocking send
// contract of [audio.Sink].
func (s *Sink) EmitEnd() {
	s.mu.Lock()
	chans := append([]chan<- struct{}(nil), s.endChans...)
	s.mu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// EmitDisconnect delivers a forced-disconnect event to every subscriber.
func (s *Sink) EmitDisconnect() {
	s.mu.Lock()
	chans := append([]chan<- struct{}(nil), s.disconnectChans...)
	s.mu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// LeaveCount returns how many times Leave has been called.
func (s *Sink) LeaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CallCountLeave
}

// Batches returns a copy of all enqueued batches so far.
func (s *Sink) Batches() [][][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][][]byte(nil), s.EnqueueCalls...)
}

// SegmentCount returns the total number of segments enqueued across all batches.
func (s *Sink) SegmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, batch := range s.EnqueueCalls {
		n += len(batch)
	}
	return n
}
