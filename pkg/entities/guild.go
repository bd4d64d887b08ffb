package entities

import (
	"regexp"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/messages"
)

// categoryIDPattern is the pattern that every category ID must match.
var categoryIDPattern = regexp.MustCompile(`^[a-z0-9_-]{2,20}$`)

// GuildConfig is the per-guild configuration aggregate. There is exactly one
// per guild, keyed by the guild ID. It is created lazily with full defaults
// on first access and removed only by an explicit reset.
type GuildConfig struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Name is the name of the guild.
	Name string `json:"name" bson:"name"`

	// TicketSettings is the ticketing configuration.
	TicketSettings TicketSettings `json:"ticket_settings" bson:"ticket_settings"`

	// Branding is the presentation configuration used by the embeds.
	Branding Branding `json:"branding" bson:"branding"`

	// Messages are the user-facing message templates.
	Messages MessageTemplates `json:"messages" bson:"messages"`

	// TicketCategories maps category IDs to their descriptors.
	TicketCategories map[string]CategoryDescriptor `json:"ticket_categories" bson:"ticket_categories"`

	// TicketPanels is the ordered collection of panels posted for this
	// guild. Every category ID referenced by a panel must exist in
	// TicketCategories.
	TicketPanels []Panel `json:"ticket_panels" bson:"ticket_panels"`
}

// TicketSettings is the core ticketing configuration for a guild.
type TicketSettings struct {
	// Enabled is whether ticketing is enabled.
	Enabled bool `json:"enabled" bson:"enabled"`

	// CategoryID is the legacy single parent-category for ticket channels.
	// It is only used as a fallback when a ticket category has no parent
	// channel of its own.
	CategoryID string `json:"category_id" bson:"category_id"`

	// SupportRoleIDs are the roles that handle tickets. The list form is
	// canonical; there is no single-role fallback.
	SupportRoleIDs []string `json:"support_role_ids" bson:"support_role_ids"`

	// LogsChannelID is the channel that lifecycle log entries and
	// transcripts are published to.
	LogsChannelID string `json:"logs_channel_id" bson:"logs_channel_id"`

	// MaxTicketsPerUser is the maximum number of open or assigned tickets
	// a single user may hold at once. Always at least 1.
	MaxTicketsPerUser int `json:"max_tickets_per_user" bson:"max_tickets_per_user"`

	// AutoCloseAfter is the number of hours of inactivity after which a
	// ticket is closed automatically. 0 disables auto-close.
	AutoCloseAfter int `json:"auto_close_after" bson:"auto_close_after"`

	// CloseByStaffOnly restricts closing tickets to the support roles.
	CloseByStaffOnly bool `json:"close_by_staff_only" bson:"close_by_staff_only"`
}

// Branding is the guild's presentation configuration.
type Branding struct {
	// ServerName is the display name used in embeds.
	ServerName string `json:"server_name" bson:"server_name"`

	// PrimaryColor is the primary embed colour, as a hex string.
	PrimaryColor string `json:"primary_color" bson:"primary_color"`

	// SecondaryColor is the secondary embed colour, as a hex string.
	SecondaryColor string `json:"secondary_color" bson:"secondary_color"`

	// Thumbnail is the embed thumbnail URL.
	Thumbnail string `json:"thumbnail" bson:"thumbnail"`

	// Banner is the embed banner URL.
	Banner string `json:"banner" bson:"banner"`

	// Footer is the embed footer text.
	Footer string `json:"footer" bson:"footer"`

	// Description is the panel description text.
	Description string `json:"description" bson:"description"`
}

// MessageTemplates are the user-facing message templates. The {user} and
// {channel} placeholders are substituted at send time.
type MessageTemplates struct {
	Welcome          string `json:"welcome" bson:"welcome"`
	TicketCreated    string `json:"ticket_created" bson:"ticket_created"`
	TicketClosed     string `json:"ticket_closed" bson:"ticket_closed"`
	NoPermission     string `json:"no_permission" bson:"no_permission"`
	AlreadyHasTicket string `json:"already_has_ticket" bson:"already_has_ticket"`
}

// CategoryDescriptor describes a single ticket category.
type CategoryDescriptor struct {
	// Name is the display name of the category.
	Name string `json:"name" bson:"name"`

	// Emoji is the emoji shown next to the category.
	Emoji string `json:"emoji" bson:"emoji"`

	// Description is the description shown to users.
	Description string `json:"description" bson:"description"`

	// ParentChannelID is the parent category channel that tickets of this
	// category are created under. Falls back to the guild-level setting
	// when empty.
	ParentChannelID string `json:"parent_channel_id" bson:"parent_channel_id"`

	// StaffOnly restricts opening tickets of this category to staff.
	StaffOnly bool `json:"staff_only" bson:"staff_only"`

	// Enabled is whether the category accepts new tickets.
	Enabled bool `json:"enabled" bson:"enabled"`
}

// Panel is a postable surface exposing a curated subset of categories.
type Panel struct {
	// PanelID uniquely identifies the panel within the guild.
	PanelID string `json:"panel_id" bson:"panel_id"`

	// Name is the display name of the panel.
	Name string `json:"name" bson:"name"`

	// Categories are the category IDs exposed by this panel.
	Categories []string `json:"categories" bson:"categories"`

	// ChannelID is the channel the panel message was posted in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// Branding overrides the guild branding for this panel.
	Branding Branding `json:"branding" bson:"branding"`
}

// ValidCategoryID reports whether id is a well-formed category ID.
func ValidCategoryID(id string) bool {
	return categoryIDPattern.MatchString(id)
}

// NewGuildConfig returns a fully defaulted configuration for the guild.
func NewGuildConfig(guildID, name string) *GuildConfig {
	return &GuildConfig{
		GuildID: guildID,
		Name:    name,
		TicketSettings: TicketSettings{
			Enabled:           true,
			SupportRoleIDs:    []string{},
			MaxTicketsPerUser: 1,
			AutoCloseAfter:    24,
		},
		Branding: Branding{
			ServerName:     name,
			PrimaryColor:   "#000000",
			SecondaryColor: "#0099ff",
			Footer:         "Ticket system",
		},
		Messages: MessageTemplates{
			Welcome:          messages.DefaultWelcome,
			TicketCreated:    messages.DefaultTicketCreated,
			TicketClosed:     messages.DefaultTicketClosed,
			NoPermission:     messages.ErrUserNoPermission,
			AlreadyHasTicket: messages.DefaultAlreadyHasTicket,
		},
		TicketCategories: DefaultCategories(),
		TicketPanels:     []Panel{},
	}
}

// DefaultCategories is the category set seeded into a fresh configuration.
func DefaultCategories() map[string]CategoryDescriptor {
	return map[string]CategoryDescriptor{
		"denuncia": {
			Name:        "Denúncia",
			Emoji:       "\U0001F4DB",
			Description: "Report a player for breaking the rules",
			Enabled:     true,
		},
		"suporte": {
			Name:        "Suporte",
			Emoji:       "\U0001F3AB",
			Description: "General questions and technical support",
			Enabled:     true,
		},
		"bugs": {
			Name:        "Relatar Bugs",
			Emoji:       "\U0001F41B",
			Description: "Report problems and bugs you have found",
			Enabled:     true,
		},
		"banimento": {
			Name:        "Recorrer Banimento",
			Emoji:       "⚖️",
			Description: "Request a review of a ban",
			Enabled:     true,
		},
	}
}

// Panel returns the panel with the given ID, or nil if it does not exist.
func (g *GuildConfig) Panel(panelID string) *Panel {
	for i := range g.TicketPanels {
		if g.TicketPanels[i].PanelID == panelID {
			return &g.TicketPanels[i]
		}
	}
	return nil
}

// RemoveCategoryRefs removes the category ID from every panel's category
// list. It is called as part of category removal so that no panel is ever
// left referencing a category that does not exist.
func (g *GuildConfig) RemoveCategoryRefs(categoryID string) {
	for i := range g.TicketPanels {
		kept := g.TicketPanels[i].Categories[:0]
		for _, c := range g.TicketPanels[i].Categories {
			if c != categoryID {
				kept = append(kept, c)
			}
		}
		g.TicketPanels[i].Categories = kept
	}
}
