// Package session implements the per-guild session engine: an actor that
// serialises speak and control commands for one guild into ordered playback
// on an [audio.Sink], plus the process-wide registry that routes inbound
// events to live sessions.
//
// Each session runs as two goroutines — the actor consuming its inbox and a
// worker draining two priority lanes into the sink. External code holds only
// a [Handle], a cloneable capability over the actor's inbox, looked up
// through the [Registry].
package session

import (
	"context"
	"errors"

	"github.com/yomubot/yomu/pkg/voice"
)

// ErrSessionClosed is returned by [Handle] methods after the session's actor
// has terminated. Callers should treat it as "session gone" and remove the
// session from the registry.
var ErrSessionClosed = errors.New("session: closed")

// Priority selects the worker lane a speak request is delivered on.
type Priority int

const (
	// PriorityUser is for relayed chat messages. The user lane is lossy
	// under overload and throttled by playback credit.
	PriorityUser Priority = iota

	// PrioritySystem is for announcements. The system lane is lossless,
	// in-order, and never throttled.
	PrioritySystem
)

// Speaker identifies who authored a user message, for spoken name
// announcements when the speaking identity changes.
type Speaker struct {
	// UserID is the platform identity of the author.
	UserID string

	// Name is the display name read aloud on identity change.
	Name string
}

// speakRequest is one unit of work for the worker loop. Immutable once
// created; consumed exactly once.
type speakRequest struct {
	text     string
	voice    voice.Voice
	speaker  *Speaker
	priority Priority
}

type commandKind int

const (
	cmdSpeak commandKind = iota
	cmdStop
	cmdLeave      // graceful, user-initiated termination
	cmdDisconnect // forced termination reported by the sink
)

// command is an inbox entry for the actor.
type command struct {
	kind  commandKind
	speak speakRequest
}

// Handle is the cloneable client-facing capability for one session. All
// methods are best-effort sends into the actor's inbox; they fail with
// [ErrSessionClosed] once the actor has terminated.
//
// The zero value is not usable; obtain a Handle from [NewActor].
type Handle struct {
	inbox chan<- command
	done  <-chan struct{}
}

// Speak queues a user message for synthesis and playback.
func (h Handle) Speak(ctx context.Context, text string, v voice.Voice, speaker Speaker) error {
	return h.send(ctx, command{kind: cmdSpeak, speak: speakRequest{
		text:     text,
		voice:    v,
		speaker:  &speaker,
		priority: PriorityUser,
	}})
}

// Announce queues a system announcement. Announcements carry no speaker and
// are never dropped or throttled.
func (h Handle) Announce(ctx context.Context, text string, v voice.Voice) error {
	return h.send(ctx, command{kind: cmdSpeak, speak: speakRequest{
		text:     text,
		voice:    v,
		priority: PrioritySystem,
	}})
}

// Stop requests that current playback be halted. Reserved; the sink side is
// not implemented yet, so this is currently a no-op in the actor.
func (h Handle) Stop(ctx context.Context) error {
	return h.send(ctx, command{kind: cmdStop})
}

// Leave gracefully terminates the session.
func (h Handle) Leave(ctx context.Context) error {
	return h.send(ctx, command{kind: cmdLeave})
}

func (h Handle) send(ctx context.Context, cmd command) error {
	select {
	case <-h.done:
		return ErrSessionClosed
	default:
	}
	select {
	case h.inbox <- cmd:
		return nil
	case <-h.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
