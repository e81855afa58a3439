package session

import (
	"context"
	"log/slog"

	"github.com/yomubot/yomu/pkg/audio"
)

const (
	// inboxBuffer bounds the actor inbox. Handle sends block (with context)
	// once it is full.
	inboxBuffer = 100

	// laneBuffer bounds both worker lanes. The system lane backpressures
	// the actor on overflow; the user lane overwrites its oldest entry.
	laneBuffer = 100
)

// Actor owns one session's inbox and its worker. Create it with [NewActor]
// and drive it with [Actor.Run] on a dedicated goroutine; all other
// interaction goes through the returned [Handle].
type Actor struct {
	inbox  chan command
	system chan speakRequest
	user   *userLane
	sink   audio.Sink
	end    chan struct{}

	onLag     func(skipped int)
	onEnqueue func(segments int)

	done       chan struct{}
	workerDone chan struct{}
}

// Option configures an Actor at construction time.
type Option func(*Actor)

// WithLagHook installs fn, called with the number of user messages skipped
// each time the worker detects it fell behind the user lane.
func WithLagHook(fn func(skipped int)) Option {
	return func(a *Actor) {
		a.onLag = fn
	}
}

// WithEnqueueHook installs fn, called with the segment count of every batch
// handed to the sink.
func WithEnqueueHook(fn func(segments int)) Option {
	return func(a *Actor) {
		a.onEnqueue = fn
	}
}

// NewActor creates the actor and its worker for sink and returns a [Handle]
// that is usable immediately. The actor subscribes to the sink's disconnect
// notification and treats it as an unsolicited termination command.
//
// The sink becomes exclusively owned by the actor/worker pair; the caller
// must not use it afterwards.
func NewActor(sink audio.Sink, opts ...Option) (*Actor, Handle) {
	a := &Actor{
		inbox:      make(chan command, inboxBuffer),
		system:     make(chan speakRequest, laneBuffer),
		user:       newUserLane(laneBuffer),
		sink:       sink,
		end:        make(chan struct{}, initialTokens*2),
		done:       make(chan struct{}),
		workerDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	sink.NotifyEnd(a.end)

	disconnect := make(chan struct{}, 1)
	sink.NotifyDisconnect(disconnect)
	go a.forwardDisconnects(disconnect)

	go a.worker()

	return a, Handle{inbox: a.inbox, done: a.done}
}

// Run consumes the inbox until a terminal command or inbox closure, then
// tears the session down: both worker lanes are closed and the sink is told
// to leave exactly once. A failed leave is logged, never propagated — the
// session is terminating regardless.
func (a *Actor) Run() {
	slog.Info("session: actor started")

loop:
	for {
		cmd, ok := <-a.inbox
		if !ok {
			break
		}
		switch cmd.kind {
		case cmdSpeak:
			switch cmd.speak.priority {
			case PrioritySystem:
				a.system <- cmd.speak
			default:
				a.user.publish(cmd.speak)
			}
		case cmdStop:
			// Reserved for halting current playback once the sink
			// grows a skip operation.
		case cmdLeave:
			slog.Info("session: leave requested")
			break loop
		case cmdDisconnect:
			slog.Warn("session: sink disconnected unexpectedly")
			break loop
		}
	}

	close(a.done)
	close(a.system)
	a.user.close()

	slog.Info("session: actor stopping, cleaning up")
	if err := a.sink.Leave(context.Background()); err != nil {
		slog.Error("session: failed to leave voice channel during cleanup", "err", err)
	} else {
		slog.Info("session: left voice channel")
	}
}

// WorkerDone returns a channel closed when the worker loop has exited.
// Intended for tests and shutdown sequencing.
func (a *Actor) WorkerDone() <-chan struct{} {
	return a.workerDone
}

// forwardDisconnects turns sink disconnect notifications into inbox commands.
func (a *Actor) forwardDisconnects(ch <-chan struct{}) {
	for {
		select {
		case <-a.done:
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			select {
			case a.inbox <- command{kind: cmdDisconnect}:
			case <-a.done:
				return
			}
		}
	}
}
