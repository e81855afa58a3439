package session

import (
	"context"
	"log/slog"
)

// initialTokens seeds the playback-credit bucket. Each completed segment
// grants one token back (saturating at this value); each enqueued segment
// spends one. Only the user lane is gated on credit.
const initialTokens = 3

// worker drains playback-completion events and the two command lanes into
// the sink, in strict priority order: completions, then system, then user.
// The token counter may go negative when a request produces more segments
// than the remaining credit; that is deliberate — the deficit is repaid by
// completion events before the user lane is serviced again.
func (a *Actor) worker() {
	defer close(a.workerDone)

	slog.Debug("session: worker started")

	tokens := initialTokens
	end := a.end

	var (
		lastSpeaker string
		cursor      uint64
		system      = a.system
		userDone    bool
	)

	for {
		// Completions first, so credit is recovered before it is spent.
		if end != nil {
			select {
			case _, ok := <-end:
				if !ok {
					end = nil
					continue
				}
				if tokens < initialTokens {
					tokens++
					slog.Debug("session: token released", "tokens", tokens)
				}
				continue
			default:
			}
		}

		// System lane: lossless, in-order, never gated on credit.
		if system != nil {
			select {
			case req, ok := <-system:
				if !ok {
					system = nil
					continue
				}
				tokens -= a.generateAndPlay(req, &lastSpeaker)
				continue
			default:
			}
		}

		// User lane: only while credit remains.
		if tokens > 0 && !userDone {
			req, skipped, ok, done := a.user.tryRecv(&cursor)
			a.reportLag(skipped)
			if ok {
				tokens -= a.generateAndPlay(req, &lastSpeaker)
				continue
			}
			if done {
				userDone = true
				continue
			}
		}

		// Out of credit: once the lane closes, anything still queued is
		// dropped so the worker can exit instead of waiting on credit
		// for a session that is tearing down.
		if tokens <= 0 && !userDone {
			if pending, closed := a.user.state(cursor); closed {
				if pending > 0 {
					slog.Debug("session: dropping queued user messages at shutdown", "count", pending)
				}
				userDone = true
				continue
			}
		}

		if system == nil && userDone {
			break
		}

		// Nothing ready: block until any eligible source has data. A nil
		// channel arm is never ready, which disables drained sources and
		// the user lane while credit is exhausted.
		var userWake <-chan struct{}
		if tokens > 0 && !userDone {
			userWake = a.user.wait()
			// Re-check after arming the wake channel; a publish between
			// tryRecv above and wait would otherwise be missed.
			req, skipped, ok, done := a.user.tryRecv(&cursor)
			a.reportLag(skipped)
			if ok {
				tokens -= a.generateAndPlay(req, &lastSpeaker)
				continue
			}
			if done {
				userDone = true
				continue
			}
		}

		select {
		case _, ok := <-end:
			if !ok {
				end = nil
				continue
			}
			if tokens < initialTokens {
				tokens++
				slog.Debug("session: token released", "tokens", tokens)
			}
		case req, ok := <-system:
			if !ok {
				system = nil
				continue
			}
			tokens -= a.generateAndPlay(req, &lastSpeaker)
		case <-userWake:
		}
	}

	slog.Debug("session: worker stopped")
}

// reportLag logs skipped user messages and notifies the lag hook.
func (a *Actor) reportLag(skipped uint64) {
	if skipped == 0 {
		return
	}
	slog.Warn("session: user lane lagged", "skipped", skipped)
	if a.onLag != nil {
		a.onLag(int(skipped))
	}
}

// generateAndPlay synthesises the request's segments and enqueues them as
// one ordered batch, returning the number of segments enqueued (0 when the
// request was dropped).
//
// A spoken name segment is prepended when the speaking identity differs from
// the previous request's, so rapid consecutive messages from one speaker are
// read without re-announcing the name. System announcements carry no speaker
// and do not reset the tracked identity.
//
// Any synthesis failure drops the whole request: segments are enqueued only
// after the full list has been generated, so a partial failure leaves
// nothing queued.
func (a *Actor) generateAndPlay(req speakRequest, lastSpeaker *string) int {
	segments := make([]string, 0, 2)
	if req.speaker != nil && req.speaker.UserID != *lastSpeaker {
		*lastSpeaker = req.speaker.UserID
		segments = append(segments, req.speaker.Name)
	}
	segments = append(segments, req.text)

	ctx := context.Background()
	audios := make([][]byte, 0, len(segments))
	for _, seg := range segments {
		data, err := req.voice.Generate(ctx, seg)
		if err != nil {
			slog.Warn("session: synthesis failed, dropping request",
				"voice", req.voice.Identifier(), "err", err)
			return 0
		}
		audios = append(audios, data)
	}

	if err := a.sink.Enqueue(ctx, audios); err != nil {
		slog.Warn("session: enqueue failed, dropping request", "err", err)
		return 0
	}
	if a.onEnqueue != nil {
		a.onEnqueue(len(audios))
	}

	slog.Debug("session: enqueued request", "segments", len(audios))
	return len(audios)
}
