// Package discord implements [audio.Sink] on top of a discordgo voice
// connection.
//
// Enqueued PCM segments are encoded to 20 ms Opus frames with gopus and sent
// over the voice connection's OpusSend channel by a dedicated playback
// goroutine. One end event is emitted per finished segment; a forced drop of
// the voice connection (kick, channel deletion) emits a disconnect event.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/yomubot/yomu/pkg/audio"
)

// queueBuffer bounds the number of pending segments. Enqueue blocks once the
// queue is full, which backpressures the session worker.
const queueBuffer = 16

// ErrClosed is returned by Enqueue after the sink has been torn down.
var ErrClosed = errors.New("discord: sink closed")

// Compile-time interface assertion.
var _ audio.Sink = (*Sink)(nil)

// Sink plays PCM segments into one Discord voice channel.
//
// Sink is safe for concurrent use, although a session's actor/worker pair is
// expected to be its only caller.
type Sink struct {
	session *discordgo.Session
	vc      *discordgo.VoiceConnection
	guildID string

	queue chan []byte

	mu              sync.Mutex
	endChans        []chan<- struct{}
	disconnectChans []chan<- struct{}

	leaving   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	removeHandler func()
}

// Join connects to the given voice channel and returns a playing Sink.
// The bot joins deafened since it never consumes channel audio.
func Join(session *discordgo.Session, guildID, channelID string) (*Sink, error) {
	vc, err := session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("discord: join voice channel %s: %w", channelID, err)
	}

	s := &Sink{
		session: session,
		vc:      vc,
		guildID: guildID,
		queue:   make(chan []byte, queueBuffer),
		done:    make(chan struct{}),
	}
	s.removeHandler = session.AddHandler(s.handleVoiceStateUpdate)

	go s.playLoop()

	return s, nil
}

// Enqueue implements [audio.Sink]. Segments are appended to the playback
// queue in order; the call blocks while the queue is full.
func (s *Sink) Enqueue(ctx context.Context, segments [][]byte) error {
	for _, seg := range segments {
		select {
		case s.queue <- seg:
		case <-s.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Leave implements [audio.Sink]. It stops playback and disconnects from the
// voice channel. Safe to call more than once; subsequent calls return nil.
func (s *Sink) Leave(_ context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		// Suppress the disconnect event for our own voice state change.
		s.leaving.Store(true)
		close(s.done)
		if s.removeHandler != nil {
			s.removeHandler()
		}
		err = s.vc.Disconnect()
	})
	return err
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

// playLoop consumes queued segments, encodes them to Opus, and streams them
// to Discord. It runs until Leave closes the done channel.
func (s *Sink) playLoop() {
	enc, err := newOpusEncoder()
	if err != nil {
		slog.Error("discord: playback disabled", "guild_id", s.guildID, "err", err)
		return
	}

	for {
		select {
		case <-s.done:
			return
		case seg := <-s.queue:
			s.playSegment(enc, seg)
			s.emit(s.endSnapshot())
		}
	}
}

// playSegment streams one PCM segment as Opus frames.
func (s *Sink) playSegment(enc *opusEncoder, pcm []byte) {
	if err := s.vc.Speaking(true); err != nil {
		slog.Warn("discord: set speaking", "guild_id", s.guildID, "err", err)
	}
	defer func() {
		if err := s.vc.Speaking(false); err != nil {
			slog.Warn("discord: clear speaking", "guild_id", s.guildID, "err", err)
		}
	}()

	for _, frame := range frames(pcm) {
		pkt, err := enc.encode(frame)
		if err != nil {
			slog.Warn("discord: dropping frame", "guild_id", s.guildID, "err", err)
			continue
		}
		select {
		case s.vc.OpusSend <- pkt:
		case <-s.done:
			return
		}
	}
}

// handleVoiceStateUpdate watches for the bot being forcibly removed from the
// voice channel and notifies disconnect subscribers.
func (s *Sink) handleVoiceStateUpdate(sess *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	if sess.State.User == nil || vsu.UserID != sess.State.User.ID {
		return
	}
	if vsu.GuildID != s.guildID || vsu.ChannelID != "" {
		return
	}
	if s.leaving.Load() {
		return
	}
	slog.Warn("discord: voice connection dropped", "guild_id", s.guildID)
	s.emit(s.disconnectSnapshot())
}

func (s *Sink) endSnapshot() []chan<- struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chan<- struct{}(nil), s.endChans...)
}

func (s *Sink) disconnectSnapshot() []chan<- struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chan<- struct{}(nil), s.disconnectChans...)
}

// emit sends one event to every subscriber channel. A full channel blocks
// playback rather than dropping the event, since each end event is a unit of
// playback credit the session worker must eventually see. Teardown unblocks
// the send via done.
func (s *Sink) emit(chans []chan<- struct{}) {
	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		case <-s.done:
			return
		}
	}
}
