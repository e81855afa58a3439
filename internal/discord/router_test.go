package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestInteractionKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data discordgo.ApplicationCommandInteractionData
		want string
	}{
		{
			name: "top-level command",
			data: discordgo.ApplicationCommandInteractionData{Name: "join"},
			want: "join",
		},
		{
			name: "subcommand",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "voice",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "set", Type: discordgo.ApplicationCommandOptionSubCommand},
				},
			},
			want: "voice/set",
		},
		{
			name: "plain option is not a subcommand",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "join",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel},
				},
			},
			want: "join",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := interactionKey(tt.data); got != tt.want {
				t.Errorf("interactionKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplicationCommands_Deduplicates(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	voiceCmd := &discordgo.ApplicationCommand{Name: "voice"}
	noop := func(*discordgo.Session, *discordgo.InteractionCreate) {}

	r.RegisterCommand("voice/set", voiceCmd, noop)
	r.RegisterCommand("voice/unset", voiceCmd, noop)
	r.RegisterHandler("voice/list", noop)
	r.RegisterCommand("join", &discordgo.ApplicationCommand{Name: "join"}, noop)

	cmds := r.ApplicationCommands()
	if len(cmds) != 2 {
		t.Fatalf("ApplicationCommands() returned %d commands, want 2", len(cmds))
	}
	names := map[string]bool{}
	for _, c := range cmds {
		names[c.Name] = true
	}
	if !names["voice"] || !names["join"] {
		t.Errorf("ApplicationCommands() = %v, want voice and join", names)
	}
}

func TestDisplayName_Precedence(t *testing.T) {
	t.Parallel()

	author := &discordgo.User{Username: "taro", GlobalName: "Taro"}

	tests := []struct {
		name string
		m    *discordgo.MessageCreate
		want string
	}{
		{
			name: "nickname wins",
			m: &discordgo.MessageCreate{Message: &discordgo.Message{
				Author: author,
				Member: &discordgo.Member{Nick: "Taro-chan"},
			}},
			want: "Taro-chan",
		},
		{
			name: "global name when no nickname",
			m: &discordgo.MessageCreate{Message: &discordgo.Message{
				Author: author,
				Member: &discordgo.Member{},
			}},
			want: "Taro",
		},
		{
			name: "username as last resort",
			m: &discordgo.MessageCreate{Message: &discordgo.Message{
				Author: &discordgo.User{Username: "taro"},
			}},
			want: "taro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := displayName(tt.m); got != tt.want {
				t.Errorf("displayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGuildMember_RejectsDMInteractions(t *testing.T) {
	t.Parallel()

	user := &discordgo.User{ID: "u1"}

	tests := []struct {
		name string
		i    *discordgo.InteractionCreate
		ok   bool
	}{
		{
			name: "guild interaction",
			i: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				GuildID: "g1",
				Member:  &discordgo.Member{User: user},
			}},
			ok: true,
		},
		{
			name: "dm carries User instead of Member",
			i: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				User: user,
			}},
			ok: false,
		},
		{
			name: "member without user",
			i: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				GuildID: "g1",
				Member:  &discordgo.Member{},
			}},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			caller, ok := guildMember(tt.i)
			if ok != tt.ok {
				t.Fatalf("guildMember() ok = %v, want %v", ok, tt.ok)
			}
			if ok && caller.ID != "u1" {
				t.Errorf("guildMember() user = %q, want u1", caller.ID)
			}
		})
	}
}
