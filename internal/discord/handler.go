package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/yomubot/yomu/internal/sanitize"
	"github.com/yomubot/yomu/internal/session"
)

// handleMessage relays chat messages from registered text channels into
// their guild's session.
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	info, ok := b.deps.Sessions.GetByTextChannel(m.ChannelID)
	if !ok {
		return
	}

	text := sanitize.Message(m.Content, b.deps.MessageLimit)
	if strings.TrimSpace(text) == "" {
		return
	}

	ctx := context.Background()

	profileID, err := b.deps.Resolver.Resolve(ctx, m.Author.ID, m.GuildID)
	if err != nil {
		slog.Warn("discord: profile resolution failed", "user_id", m.Author.ID, "err", err)
		profileID = b.deps.Resolver.Fallback()
	}
	v, ok := b.deps.Voices.Voice(profileID)
	if !ok {
		v, ok = b.deps.Voices.Voice(b.deps.Resolver.Fallback())
	}
	if !ok {
		slog.Error("discord: no usable voice for message", "profile_id", profileID)
		return
	}

	speaker := session.Speaker{UserID: m.Author.ID, Name: displayName(m)}
	if err := info.Handle.Speak(ctx, text, v, speaker); err != nil {
		if errors.Is(err, session.ErrSessionClosed) {
			// The actor is gone but the registry still points at it; drop
			// the stale entry now rather than on the next voice event.
			slog.Info("discord: dropping stale session", "guild_id", m.GuildID)
			b.removeSession(m.GuildID)
			return
		}
		slog.Error("discord: relaying message failed", "guild_id", m.GuildID, "err", err)
		return
	}

	if b.deps.Metrics != nil {
		b.deps.Metrics.MessagesRead.Add(ctx, 1)
	}
}

// displayName picks the name announced before a speaker's first message.
func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// handleVoiceState keeps the registry in step with the bot's own voice
// state: removal when the bot is disconnected, an index update when the bot
// is dragged to another channel.
func (b *Bot) handleVoiceState(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || v.UserID != s.State.User.ID {
		return
	}

	if v.ChannelID == "" {
		b.removeSession(v.GuildID)
		return
	}

	if v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" && v.BeforeUpdate.ChannelID != v.ChannelID {
		if err := b.deps.Sessions.UpdateVoiceChannel(v.BeforeUpdate.ChannelID, v.ChannelID); err != nil {
			slog.Warn("discord: voice channel index update failed",
				"guild_id", v.GuildID,
				"old", v.BeforeUpdate.ChannelID,
				"new", v.ChannelID,
				"err", err,
			)
		}
	}
}
