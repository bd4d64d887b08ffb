package main

import (
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"
)

func TestCommandFields(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{
			Name: "category_add",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "id", Type: discordgo.ApplicationCommandOptionString, Value: "vendas"},
				{Name: "name", Type: discordgo.ApplicationCommandOptionString, Value: "Vendas"},
				{Name: "staff_only", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
			},
		},
	}

	fields := commandFields(opts)
	require.Equal(t, "category_add", fields["subcommand"])
	require.Equal(t, "vendas", fields["id"])
	require.Equal(t, "Vendas", fields["name"])
	require.Equal(t, "true", fields["staff_only"])
}

func TestModalFields(t *testing.T) {
	components := []discordgo.MessageComponent{
		&discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: TransferUserFieldID, Value: "user-9"},
			},
		},
		&discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: TransferReasonFieldID, Value: "handover"},
			},
		},
	}

	fields := modalFields(components)
	require.Equal(t, "user-9", fields[TransferUserFieldID])
	require.Equal(t, "handover", fields[TransferReasonFieldID])
}
