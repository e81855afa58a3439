// Package audio defines the [Sink] interface for voice playback destinations.
//
// A Sink is the downstream end of a session: it accepts ordered audio
// segments, plays them, and reports back one event per finished segment plus
// a single event if the platform forcibly drops the connection. The session
// worker uses the end events as playback credit for its token bucket.
//
// Platform adapters (audio/discord) implement Sink; the package lives under
// pkg/ because external adapters are expected to implement it too.
package audio

import "context"

// Sink is the playback destination for one session.
//
// A Sink instance is exclusively owned by its session's actor and worker;
// no other code calls it. Implementations must nevertheless be safe for
// concurrent use, since the actor and worker run on separate goroutines.
type Sink interface {
	// Enqueue appends segments to the playback queue as one ordered batch.
	// It may suspend for the duration of a downstream I/O call. Enqueue
	// reports an error only when the batch was not accepted at all; once
	// accepted, playback failures surface as missing end events, not as
	// errors here.
	Enqueue(ctx context.Context, segments [][]byte) error

	// Leave tears down the playback destination (disconnects from the
	// voice channel). It is called exactly once, during actor shutdown.
	Leave(ctx context.Context) error

	// NotifyEnd registers ch to receive one event per segment that
	// finishes playing. Sends must not block the sink: if ch is full the
	// event may be dropped, so callers should size ch generously relative
	// to their in-flight segment count.
	NotifyEnd(ch chan<- struct{})

	// NotifyDisconnect registers ch to receive a single event if the
	// platform forcibly drops the voice connection. As with NotifyEnd,
	// sends are non-blocking.
	NotifyDisconnect(ch chan<- struct{})
}
