package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/dataaccess"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"golang.org/x/time/rate"
)

// DiscordSink publishes lifecycle events to the guild's configured logs
// channel. Publishing is rate limited so a burst of lifecycle activity does
// not trip the transport's message rate limits.
type DiscordSink struct {
	// l is the logger.
	l *slog.Logger

	// gw sends the log entries.
	gw Gateway

	// guilds resolves the logs channel for a guild.
	guilds dataaccess.GuildDal

	// limiter throttles outbound log entries.
	limiter *rate.Limiter
}

// NewDiscordSink creates a NotificationSink publishing to guild log channels.
func NewDiscordSink(l *slog.Logger, gw Gateway, guilds dataaccess.GuildDal) *DiscordSink {
	return &DiscordSink{
		l:       l,
		gw:      gw,
		guilds:  guilds,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (s *DiscordSink) Publish(ctx context.Context, guildID string, event Event) {
	cfg, err := s.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		s.l.Warn("Not publishing ticket event, guild config unavailable",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	} else if cfg.TicketSettings.LogsChannelID == "" {
		s.l.Warn("Not publishing ticket event, no logs channel configured",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyTicketID, event.TicketID),
		)
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.l.Warn("Not publishing ticket event, rate limiter interrupted",
			slog.String(logging.KeyError, err.Error()))
		return
	}

	content := fmt.Sprintf("Ticket **%s** %s by <@%s> in <#%s>",
		event.TicketID, event.Action, event.UserID, event.ChannelID)
	if event.Detail != "" {
		content += " (" + event.Detail + ")"
	}

	if _, err := s.gw.SendMessage(cfg.TicketSettings.LogsChannelID, content); err != nil {
		s.l.Warn("Error publishing ticket event",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyTicketID, event.TicketID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}
