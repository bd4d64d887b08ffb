package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/dataaccess"
)

// messagePageSize is the transport's maximum page size for channel history.
const messagePageSize = 100

// DiscordArchiver captures ticket transcripts by rendering the channel
// history to a text artifact and posting it to the guild's logs channel.
type DiscordArchiver struct {
	// s is the discord session.
	s *discordgo.Session

	// guilds resolves the logs channel for a guild.
	guilds dataaccess.GuildDal
}

// NewDiscordArchiver creates a TranscriptArchiver backed by the session.
func NewDiscordArchiver(s *discordgo.Session, guilds dataaccess.GuildDal) *DiscordArchiver {
	return &DiscordArchiver{
		s:      s,
		guilds: guilds,
	}
}

func (a *DiscordArchiver) Capture(ctx context.Context, guildID, channelID, ticketID string) (*Artifact, error) {
	cfg, err := a.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	} else if cfg.TicketSettings.LogsChannelID == "" {
		return nil, fmt.Errorf("no logs channel configured for guild %s", guildID)
	}

	transcript, count, err := a.render(channelID)
	if err != nil {
		return nil, fmt.Errorf("error rendering transcript: %w", err)
	}

	sent, err := a.s.ChannelFileSend(cfg.TicketSettings.LogsChannelID,
		fmt.Sprintf("transcript-%s.txt", ticketID),
		strings.NewReader(transcript),
	)
	if err != nil {
		return nil, fmt.Errorf("error uploading transcript: %w", err)
	}

	artifact := &Artifact{
		TicketID: ticketID,
		Messages: count,
	}
	if len(sent.Attachments) > 0 {
		artifact.URL = sent.Attachments[0].URL
	}
	return artifact, nil
}

// render walks the channel history oldest-first and flattens it to text.
func (a *DiscordArchiver) render(channelID string) (string, int, error) {
	// Walk the history backwards from the most recent message; pages come
	// newest-first.
	var all []*discordgo.Message
	before := ""
	for {
		page, err := a.s.ChannelMessages(channelID, messagePageSize, before, "", "")
		if err != nil {
			return "", 0, fmt.Errorf("error fetching channel history: %w", err)
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		before = page[len(page)-1].ID

		if len(page) < messagePageSize {
			break
		}
	}

	// Render oldest-first.
	var b strings.Builder
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04:05"), m.Author.Username, m.Content))
	}
	return b.String(), len(all), nil
}
