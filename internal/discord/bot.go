// Package discord provides the Discord bot layer. It owns the
// discordgo.Session lifecycle, routes slash command interactions to
// registered handlers, relays chat messages into reading sessions, and
// keeps the session registry in step with voice state changes.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/yomubot/yomu/internal/locale"
	"github.com/yomubot/yomu/internal/observe"
	"github.com/yomubot/yomu/internal/profile"
	"github.com/yomubot/yomu/internal/session"
	"github.com/yomubot/yomu/internal/voices"
)

// Deps carries the subsystems the bot wires Discord events into.
type Deps struct {
	// Sessions is the live session registry.
	Sessions *session.Registry

	// Voices maps preset IDs to synthesis voices.
	Voices *voices.Registry

	// Profiles stores user and guild voice preferences.
	Profiles profile.Repository

	// Resolver picks the voice preset for a speaker.
	Resolver *profile.Resolver

	// Locales resolves announcement and reply messages.
	Locales *locale.Locales

	// Metrics, when non-nil, records message and session telemetry.
	Metrics *observe.Metrics

	// MessageLimit caps how many runes of a message are read aloud.
	MessageLimit int
}

// Bot owns the Discord gateway connection and routes interactions
// to registered command handlers.
type Bot struct {
	mu        sync.RWMutex
	session   *discordgo.Session
	router    *CommandRouter
	deps      Deps
	commands  []*discordgo.ApplicationCommand
	closeOnce sync.Once
}

// New creates a Bot, connects to Discord, and registers the gateway
// handlers. token is the raw bot token without the "Bot " prefix.
func New(_ context.Context, token string, deps Deps) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	b := &Bot{
		session: s,
		router:  NewCommandRouter(),
		deps:    deps,
	}
	b.registerCommands()

	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.router.Handle(s, i)
	})
	s.AddHandler(b.handleMessage)
	s.AddHandler(b.handleVoiceState)

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}
	return b, nil
}

// Session returns the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// Router returns the command router for registering handlers.
func (b *Bot) Router() *CommandRouter {
	return b.router
}

// Run registers slash commands with the Discord API and blocks until
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.RLock()
	appID := b.session.State.User.ID
	b.mu.RUnlock()

	cmds := b.router.ApplicationCommands()
	if len(cmds) > 0 {
		registered, err := b.session.ApplicationCommandBulkOverwrite(appID, "", cmds)
		if err != nil {
			return fmt.Errorf("discord: register commands: %w", err)
		}
		b.mu.Lock()
		b.commands = registered
		b.mu.Unlock()
		slog.Info("discord commands registered", "count", len(registered))
	}

	<-ctx.Done()
	return ctx.Err()
}

// Close asks every live session to leave, then disconnects from Discord and
// unregisters commands.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.session != nil && len(b.commands) > 0 {
			appID := b.session.State.User.ID
			for _, cmd := range b.commands {
				if err := b.session.ApplicationCommandDelete(appID, "", cmd.ID); err != nil {
					slog.Warn("discord: failed to delete command", "name", cmd.Name, "err", err)
				}
			}
		}

		if b.session != nil {
			if err := b.session.Close(); err != nil {
				closeErr = fmt.Errorf("discord: close session: %w", err)
			}
		}

		slog.Info("discord bot closed")
	})
	return closeErr
}

// removeSession drops the guild's session from the registry and keeps the
// active-sessions gauge in step. Safe to call for guilds without a session.
func (b *Bot) removeSession(guildID string) {
	if b.deps.Sessions.Remove(guildID) && b.deps.Metrics != nil {
		b.deps.Metrics.ActiveSessions.Add(context.Background(), -1)
	}
}

// msg resolves a localized reply for the interaction's locale. Resolution
// failures fall back to the key itself so replies never go empty.
func (b *Bot) msg(i *discordgo.InteractionCreate, key string) string {
	text, err := b.deps.Locales.Resolve(string(i.Locale), key)
	if err != nil {
		slog.Warn("discord: message resolution failed", "key", key, "err", err)
		return key
	}
	return text
}
