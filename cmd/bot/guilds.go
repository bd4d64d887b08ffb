package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/cmd/bot/monitoring"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
)

func guildJoinedHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.Log().Info(fmt.Sprintf("Joined guild %s", g.Name))

		// Increment the total number of guilds.
		monitoring.TotalDiscordGuilds.Inc()

		// Make sure the guild has a configuration with defaults.
		if _, err := a.Guilds().GetOrCreate(context.Background(), g.ID, g.Name); err != nil {
			a.Log().Error("Error ensuring guild config",
				slog.String(logging.KeyGuildID, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func guildLeaveHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		a.Log().Info(fmt.Sprintf("Left guild %s", g.Name))

		// Decrement the total number of guilds.
		monitoring.TotalDiscordGuilds.Dec()
	}
}
