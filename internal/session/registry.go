package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNotFound is returned by [Registry.UpdateVoiceChannel] when the old
// voice channel is not indexed. That indicates a logic error in the caller,
// not a race to tolerate silently.
var ErrNotFound = errors.New("session: not found")

// Info is the registry's view of one live session: the routing metadata and
// the handle, never the actor itself.
type Info struct {
	// Handle enqueues commands into the session's actor.
	Handle Handle

	// TextChannel is the channel whose messages are read aloud.
	TextChannel string

	// VoiceChannel is the channel audio is played into.
	VoiceChannel string
}

// Registry is the process-wide authority for which session serves which
// guild and which channels route to it. It maintains three indices — guild
// to session, text channel to guild, voice channel to guild — that are kept
// mutually consistent under one lock.
//
// All methods are safe for arbitrary concurrent callers.
type Registry struct {
	mu            sync.RWMutex
	sessions      map[string]Info   // guild ID → session
	textChannels  map[string]string // text channel ID → guild ID
	voiceChannels map[string]string // voice channel ID → guild ID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:      make(map[string]Info),
		textChannels:  make(map[string]string),
		voiceChannels: make(map[string]string),
	}
}

// Register inserts the session into all three indices. Overwriting a live
// guild entry wins but is logged as an anomaly, since normal flow removes
// before re-registering; the overwritten session's channel index entries are
// cleared so no index references a dead session.
func (r *Registry) Register(guildID, textChannel, voiceChannel string, handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.sessions[guildID]; exists {
		slog.Warn("session: overwriting existing registration",
			"guild_id", guildID,
			"old_text_channel", old.TextChannel,
			"old_voice_channel", old.VoiceChannel,
		)
		delete(r.textChannels, old.TextChannel)
		delete(r.voiceChannels, old.VoiceChannel)
	}

	r.sessions[guildID] = Info{
		Handle:       handle,
		TextChannel:  textChannel,
		VoiceChannel: voiceChannel,
	}
	r.textChannels[textChannel] = guildID
	r.voiceChannels[voiceChannel] = guildID

	slog.Info("session: registered",
		"guild_id", guildID,
		"text_channel", textChannel,
		"voice_channel", voiceChannel,
	)
}

// Get returns the session serving guildID. Absence is a normal outcome.
func (r *Registry) Get(guildID string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.sessions[guildID]
	return info, ok
}

// GetByTextChannel returns the session whose messages are read from the
// given text channel.
func (r *Registry) GetByTextChannel(textChannel string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	guildID, ok := r.textChannels[textChannel]
	if !ok {
		return Info{}, false
	}
	info, ok := r.sessions[guildID]
	return info, ok
}

// GetByVoiceChannel returns the session playing into the given voice channel.
func (r *Registry) GetByVoiceChannel(voiceChannel string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	guildID, ok := r.voiceChannels[voiceChannel]
	if !ok {
		return Info{}, false
	}
	info, ok := r.sessions[guildID]
	return info, ok
}

// UpdateVoiceChannel atomically repoints the voice-channel index and the
// stored metadata after the bot has been moved between voice channels.
// Returns [ErrNotFound] if old is not currently indexed.
func (r *Registry) UpdateVoiceChannel(old, new string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	guildID, ok := r.voiceChannels[old]
	if !ok {
		return fmt.Errorf("session: voice channel %s: %w", old, ErrNotFound)
	}
	info, ok := r.sessions[guildID]
	if !ok {
		return fmt.Errorf("session: guild %s for voice channel %s: %w", guildID, old, ErrNotFound)
	}

	info.VoiceChannel = new
	r.sessions[guildID] = info
	delete(r.voiceChannels, old)
	r.voiceChannels[new] = guildID

	slog.Info("session: voice channel updated", "guild_id", guildID, "old", old, "new", new)
	return nil
}

// Remove deletes the guild's session from all three indices, using the
// metadata captured at removal time. A missing secondary index entry
// indicates prior index corruption and is logged loudly, but removal still
// completes best-effort. Removing an absent guild is a no-op and reports
// false.
func (r *Registry) Remove(guildID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.sessions[guildID]
	if !ok {
		return false
	}
	delete(r.sessions, guildID)

	if _, ok := r.textChannels[info.TextChannel]; !ok {
		slog.Error("session: inconsistency, text channel index was missing",
			"guild_id", guildID, "text_channel", info.TextChannel)
	}
	delete(r.textChannels, info.TextChannel)

	if _, ok := r.voiceChannels[info.VoiceChannel]; !ok {
		slog.Error("session: inconsistency, voice channel index was missing",
			"guild_id", guildID, "voice_channel", info.VoiceChannel)
	}
	delete(r.voiceChannels, info.VoiceChannel)

	slog.Info("session: removed", "guild_id", guildID)
	return true
}

// GuildIDs returns a snapshot of the guilds with live sessions.
func (r *Registry) GuildIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
