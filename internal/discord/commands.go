package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/yomubot/yomu/internal/session"
	audiodiscord "github.com/yomubot/yomu/pkg/audio/discord"
)

// registerCommands wires the slash command surface into the router.
func (b *Bot) registerCommands() {
	b.router.RegisterCommand("join", &discordgo.ApplicationCommand{
		Name:        "join",
		Description: "Start reading this channel aloud in your voice channel.",
	}, b.cmdJoin)

	b.router.RegisterCommand("leave", &discordgo.ApplicationCommand{
		Name:        "leave",
		Description: "Stop reading and leave the voice channel.",
	}, b.cmdLeave)

	b.router.RegisterCommand("skip", &discordgo.ApplicationCommand{
		Name:        "skip",
		Description: "Skip what is currently queued for reading.",
	}, b.cmdSkip)

	scopeOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "scope",
		Description: "Whether the preference applies to you or the whole server.",
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "user", Value: "user"},
			{Name: "guild", Value: "guild"},
		},
	}
	b.router.RegisterCommand("voice/set", &discordgo.ApplicationCommand{
		Name:        "voice",
		Description: "Manage reading voices.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Choose the voice used to read your messages.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         "name",
						Description:  "Voice preset name.",
						Required:     true,
						Autocomplete: true,
					},
					scopeOption,
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "unset",
				Description: "Clear a stored voice preference.",
				Options:     []*discordgo.ApplicationCommandOption{scopeOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List the available voices.",
			},
		},
	}, b.cmdVoiceSet)
	b.router.RegisterHandler("voice/unset", b.cmdVoiceUnset)
	b.router.RegisterHandler("voice/list", b.cmdVoiceList)
	b.router.RegisterAutocomplete("voice/set", b.autocompleteVoiceName)
}

// callerVoiceChannel finds the voice channel the interaction's author is in.
func callerVoiceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) (string, bool) {
	if i.Member == nil || i.Member.User == nil {
		return "", false
	}
	vs, err := s.State.VoiceState(i.GuildID, i.Member.User.ID)
	if err != nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

func (b *Bot) cmdJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if i.GuildID == "" {
		RespondEphemeral(s, i, "This command only works in a server.")
		return
	}
	voiceChannel, ok := callerVoiceChannel(s, i)
	if !ok {
		RespondEphemeral(s, i, b.msg(i, "error.not_in_voice"))
		return
	}

	// A guild gets one session; replace any previous one cleanly.
	if old, ok := b.deps.Sessions.Get(i.GuildID); ok {
		if err := old.Handle.Leave(ctx); err != nil {
			slog.Warn("discord: failed to stop previous session", "guild_id", i.GuildID, "err", err)
		}
		b.removeSession(i.GuildID)
	}

	sink, err := audiodiscord.Join(s, i.GuildID, voiceChannel)
	if err != nil {
		slog.Error("discord: voice join failed", "guild_id", i.GuildID, "channel_id", voiceChannel, "err", err)
		RespondError(s, i, err)
		return
	}

	var opts []session.Option
	if m := b.deps.Metrics; m != nil {
		opts = append(opts,
			session.WithLagHook(func(skipped int) {
				m.MessagesLagged.Add(context.Background(), int64(skipped))
			}),
			session.WithEnqueueHook(func(segments int) {
				m.SegmentsEnqueued.Add(context.Background(), int64(segments))
			}),
		)
	}
	actor, handle := session.NewActor(sink, opts...)
	go actor.Run()

	b.deps.Sessions.Register(i.GuildID, i.ChannelID, voiceChannel, handle)
	if b.deps.Metrics != nil {
		b.deps.Metrics.ActiveSessions.Add(ctx, 1)
	}

	b.announceLaunch(ctx, i.GuildID, handle)

	RespondEmbed(s, i, &discordgo.MessageEmbed{
		Title: b.msg(i, "join.title"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: b.msg(i, "join.reading_channel"), Value: fmt.Sprintf("<#%s>", i.ChannelID), Inline: true},
			{Name: b.msg(i, "join.voice_channel"), Value: fmt.Sprintf("<#%s>", voiceChannel), Inline: true},
		},
	})
}

// announceLaunch speaks the localized greeting with the guild's voice.
func (b *Bot) announceLaunch(ctx context.Context, guildID string, handle session.Handle) {
	profileID, err := b.deps.Resolver.ResolveGuild(ctx, guildID)
	if err != nil {
		slog.Warn("discord: guild profile resolution failed", "guild_id", guildID, "err", err)
		profileID = b.deps.Resolver.Fallback()
	}
	pkg, ok := b.deps.Voices.Get(profileID)
	if !ok {
		pkg, ok = b.deps.Voices.Get(b.deps.Resolver.Fallback())
	}
	if !ok {
		slog.Error("discord: no usable voice for launch announcement", "guild_id", guildID)
		return
	}

	text, err := b.deps.Locales.Resolve(pkg.Detail.Language, "launch")
	if err != nil {
		slog.Warn("discord: launch message resolution failed", "language", pkg.Detail.Language, "err", err)
		return
	}
	if err := handle.Announce(ctx, text, pkg.Voice); err != nil {
		slog.Warn("discord: launch announcement failed", "guild_id", guildID, "err", err)
	}
}

func (b *Bot) cmdLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	info, ok := b.deps.Sessions.Get(i.GuildID)
	if !ok {
		RespondEphemeral(s, i, b.msg(i, "error.no_session"))
		return
	}

	if err := info.Handle.Leave(context.Background()); err != nil {
		slog.Warn("discord: leave request failed", "guild_id", i.GuildID, "err", err)
	}
	b.removeSession(i.GuildID)

	RespondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       b.msg(i, "leave.title"),
		Description: b.msg(i, "leave.thanks"),
	})
}

func (b *Bot) cmdSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	info, ok := b.deps.Sessions.Get(i.GuildID)
	if !ok {
		RespondEphemeral(s, i, b.msg(i, "error.no_session"))
		return
	}

	if err := info.Handle.Stop(context.Background()); err != nil {
		RespondError(s, i, err)
		return
	}
	RespondEphemeral(s, i, b.msg(i, "skip.done"))
}

// subcommandOptions flattens the options of the invoked subcommand into a
// name → option map.
func subcommandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	if len(data.Options) == 0 {
		return opts
	}
	for _, opt := range data.Options[0].Options {
		opts[opt.Name] = opt
	}
	return opts
}

// guildMember returns the invoking guild member's user. It reports false for
// DM interactions, where discordgo populates i.User and leaves i.Member nil.
func guildMember(i *discordgo.InteractionCreate) (*discordgo.User, bool) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return nil, false
	}
	return i.Member.User, true
}

func (b *Bot) cmdVoiceSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	caller, ok := guildMember(i)
	if !ok {
		RespondEphemeral(s, i, "This command only works in a server.")
		return
	}
	opts := subcommandOptions(i)

	nameOpt, ok := opts["name"]
	if !ok {
		RespondEphemeral(s, i, "Missing voice name.")
		return
	}
	name := nameOpt.StringValue()
	if _, ok := b.deps.Voices.Get(name); !ok {
		RespondEphemeral(s, i, b.msg(i, "voice.unknown"))
		return
	}

	scope := "user"
	if scopeOpt, ok := opts["scope"]; ok {
		scope = scopeOpt.StringValue()
	}

	var err error
	switch scope {
	case "guild":
		err = b.deps.Profiles.SaveGuild(ctx, i.GuildID, name)
	default:
		err = b.deps.Profiles.SaveUser(ctx, caller.ID, name)
	}
	if err != nil {
		slog.Error("discord: saving voice preference failed", "scope", scope, "err", err)
		RespondError(s, i, err)
		return
	}
	RespondEphemeral(s, i, b.msg(i, "voice.set"))
}

func (b *Bot) cmdVoiceUnset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	caller, ok := guildMember(i)
	if !ok {
		RespondEphemeral(s, i, "This command only works in a server.")
		return
	}
	opts := subcommandOptions(i)

	scope := "user"
	if scopeOpt, ok := opts["scope"]; ok {
		scope = scopeOpt.StringValue()
	}

	var err error
	switch scope {
	case "guild":
		err = b.deps.Profiles.DeleteGuild(ctx, i.GuildID)
	default:
		err = b.deps.Profiles.DeleteUser(ctx, caller.ID)
	}
	if err != nil {
		slog.Error("discord: clearing voice preference failed", "scope", scope, "err", err)
		RespondError(s, i, err)
		return
	}
	RespondEphemeral(s, i, b.msg(i, "voice.unset"))
}

func (b *Bot) cmdVoiceList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var sb strings.Builder
	for _, entry := range b.deps.Voices.List() {
		fmt.Fprintf(&sb, "`%s` — %s", entry.ID, entry.Detail.DisplayName)
		if entry.Detail.Language != "" {
			fmt.Fprintf(&sb, " (%s)", entry.Detail.Language)
		}
		sb.WriteString("\n")
	}

	RespondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       b.msg(i, "voice.list.title"),
		Description: sb.String(),
	})
}

// maxChoices is the Discord API ceiling on autocomplete results.
const maxChoices = 25

func (b *Bot) autocompleteVoiceName(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := subcommandOptions(i)
	var query string
	if nameOpt, ok := opts["name"]; ok {
		query = strings.ToLower(nameOpt.StringValue())
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, entry := range b.deps.Voices.List() {
		if query != "" &&
			!strings.Contains(strings.ToLower(entry.ID), query) &&
			!strings.Contains(strings.ToLower(entry.Detail.DisplayName), query) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%s — %s", entry.ID, entry.Detail.DisplayName),
			Value: entry.ID,
		})
		if len(choices) == maxChoices {
			break
		}
	}
	RespondChoices(s, i, choices)
}
