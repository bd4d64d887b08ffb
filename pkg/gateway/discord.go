package gateway

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

// Discord implements Gateway against a discord session.
type Discord struct {
	// s is the discord session.
	s *discordgo.Session
}

// NewDiscord creates a Gateway backed by the given session.
func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{s: s}
}

func (d *Discord) CreateChannel(guildID, parentID, name string, grants []AccessGrant) (string, error) {
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(grants))
	for _, g := range grants {
		t := discordgo.PermissionOverwriteTypeRole
		if g.Type == AccessMember {
			t = discordgo.PermissionOverwriteTypeMember
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    g.ID,
			Type:  t,
			Allow: g.Allow,
			Deny:  g.Deny,
		})
	}

	channel, err := d.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("error creating channel: %w", err)
	}
	return channel.ID, nil
}

func (d *Discord) RenameChannel(channelID, name string) error {
	if _, err := d.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		Name: name,
	}); err != nil {
		return fmt.Errorf("error renaming channel: %w", err)
	}
	return nil
}

func (d *Discord) DeleteChannel(channelID string) error {
	if _, err := d.s.ChannelDelete(channelID); err != nil {
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

func (d *Discord) SendMessage(channelID, content string) (string, error) {
	msg, err := d.s.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", fmt.Errorf("error sending message: %w", err)
	}
	return msg.ID, nil
}

func (d *Discord) PinMessage(channelID, messageID string) error {
	if err := d.s.ChannelMessagePin(channelID, messageID); err != nil {
		return fmt.Errorf("error pinning message: %w", err)
	}
	return nil
}

func (d *Discord) SendDirectMessage(userID, content string) error {
	dm, err := d.s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("error creating DM channel: %w", err)
	}
	if _, err := d.s.ChannelMessageSend(dm.ID, content); err != nil {
		return fmt.Errorf("error sending DM: %w", err)
	}
	return nil
}
