package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/router"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/ticketing"
)

// registerSetupRoutes registers the configuration command and the reset
// confirmation buttons.
func registerSetupRoutes(a IApp, rt *router.Router) {
	rt.Register(router.KindCommand, setupCmdName, setupCmdHandler(a))
	rt.Register(router.KindComponent, ResetConfirmButtonID, resetConfirmHandler(a))
	rt.Register(router.KindComponent, ResetCancelButtonID, resetCancelHandler(a))
}

func setupCmdHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		// Ensure the user is an administrator.
		if ev.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
			return ev.Ack.Respond("You must be an administrator to use this command", true)
		}

		switch ev.Fields["subcommand"] {
		case enableTicketingCmdName:
			return enableTicketingHandler(a, ctx, ev)
		case disableTicketingCmdName:
			return disableTicketingHandler(a, ctx, ev)
		case logsChannelCmdName:
			return logsChannelHandler(a, ctx, ev)
		case roleAddCmdName:
			return roleAddHandler(a, ctx, ev)
		case roleRemoveCmdName:
			return roleRemoveHandler(a, ctx, ev)
		case maxTicketsCmdName:
			return maxTicketsHandler(a, ctx, ev)
		case categoryAddCmdName:
			return categoryAddHandler(a, ctx, ev)
		case categoryEditCmdName:
			return categoryEditHandler(a, ctx, ev)
		case categoryRemoveCmdName:
			return categoryRemoveHandler(a, ctx, ev)
		case panelPostCmdName:
			return panelPostHandler(a, ctx, ev)
		case panelRemoveCmdName:
			return panelRemoveHandler(a, ctx, ev)
		case resetCmdName:
			return resetHandler(a, ctx, ev)
		case statsCmdName:
			return statsHandler(a, ctx, ev)
		default:
			return fmt.Errorf("unhandled sub command %s", ev.Fields["subcommand"])
		}
	}
}

func enableTicketingHandler(a IApp, ctx context.Context, ev *router.Event) error {
	roleID := ev.Fields["role"]

	// Create the configuration with defaults on first use.
	if _, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID)); err != nil {
		return fmt.Errorf("error loading guild config: %w", err)
	}

	patch := map[string]any{
		"ticket_settings.enabled":          true,
		"ticket_settings.support_role_ids": []string{roleID},
	}
	if ch := ev.Fields["logs_channel"]; ch != "" {
		patch["ticket_settings.logs_channel_id"] = ch
	}

	if _, err := a.Guilds().ApplyPatch(ctx, ev.GuildID, patch); err != nil {
		return respondOutcome(ev, err, "")
	}
	return ev.Ack.Respond(fmt.Sprintf("Ticketing enabled. Tickets will be handled by <@&%s>", roleID), true)
}

func disableTicketingHandler(a IApp, ctx context.Context, ev *router.Event) error {
	if _, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID)); err != nil {
		return fmt.Errorf("error loading guild config: %w", err)
	}

	_, err := a.Guilds().ApplyPatch(ctx, ev.GuildID, map[string]any{
		"ticket_settings.enabled": false,
	})
	return respondOutcome(ev, err, "Ticketing disabled. Existing tickets are unaffected")
}

func logsChannelHandler(a IApp, ctx context.Context, ev *router.Event) error {
	ch := ev.Fields["channel"]

	if _, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID)); err != nil {
		return fmt.Errorf("error loading guild config: %w", err)
	}

	_, err := a.Guilds().ApplyPatch(ctx, ev.GuildID, map[string]any{
		"ticket_settings.logs_channel_id": ch,
	})
	return respondOutcome(ev, err, fmt.Sprintf("Transcripts and logs will be sent to <#%s>", ch))
}

func roleAddHandler(a IApp, ctx context.Context, ev *router.Event) error {
	roleID := ev.Fields["role"]

	cfg, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID))
	if err != nil {
		return fmt.Errorf("error loading guild config: %w", err)
	}

	for _, id := range cfg.TicketSettings.SupportRoleIDs {
		if id == roleID {
			return ev.Ack.Respond("That role already handles tickets", true)
		}
	}

	cfg.TicketSettings.SupportRoleIDs = append(cfg.TicketSettings.SupportRoleIDs, roleID)
	if err := a.Guilds().Save(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}
	return ev.Ack.Respond(fmt.Sprintf("<@&%s> can now handle tickets", roleID), true)
}

func roleRemoveHandler(a IApp, ctx context.Context, ev *router.Event) error {
	roleID := ev.Fields["role"]

	cfg, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID))
	if err != nil {
		return fmt.Errorf("error loading guild config: %w", err)
	}

	kept := make([]string, 0, len(cfg.TicketSettings.SupportRoleIDs))
	for _, id := range cfg.TicketSettings.SupportRoleIDs {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(cfg.TicketSettings.SupportRoleIDs) {
		return ev.Ack.Respond("That role does not handle tickets", true)
	}

	cfg.TicketSettings.SupportRoleIDs = kept
	if err := a.Guilds().Save(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}
	return ev.Ack.Respond(fmt.Sprintf("<@&%s> no longer handles tickets", roleID), true)
}

func maxTicketsHandler(a IApp, ctx context.Context, ev *router.Event) error {
	amount, err := strconv.Atoi(ev.Fields["amount"])
	if err != nil || amount < 1 {
		return ev.Ack.Respond("The amount must be a whole number of at least 1", true)
	}

	if _, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID)); err != nil {
		return fmt.Errorf("error loading guild config: %w", err)
	}

	_, err = a.Guilds().ApplyPatch(ctx, ev.GuildID, map[string]any{
		"ticket_settings.max_tickets_per_user": amount,
	})
	return respondOutcome(ev, err, fmt.Sprintf("Users may now have up to %d open tickets", amount))
}

func categoryAddHandler(a IApp, ctx context.Context, ev *router.Event) error {
	desc := entities.CategoryDescriptor{
		Name:            ev.Fields["name"],
		Emoji:           ev.Fields["emoji"],
		Description:     ev.Fields["description"],
		ParentChannelID: ev.Fields["parent_channel"],
		StaffOnly:       ev.Fields["staff_only"] == "true",
	}

	_, err := a.Registry().AddCategory(ctx, ev.GuildID, ev.Fields["id"], desc)
	return respondOutcome(ev, err, fmt.Sprintf("Category `%s` added", ev.Fields["id"]))
}

func categoryEditHandler(a IApp, ctx context.Context, ev *router.Event) error {
	fields := ticketing.CategoryFields{}
	if v, ok := ev.Fields["name"]; ok {
		fields.Name = &v
	}
	if v, ok := ev.Fields["emoji"]; ok {
		fields.Emoji = &v
	}
	if v, ok := ev.Fields["description"]; ok {
		fields.Description = &v
	}
	if v, ok := ev.Fields["enabled"]; ok {
		enabled := v == "true"
		fields.Enabled = &enabled
	}
	if v, ok := ev.Fields["staff_only"]; ok {
		staffOnly := v == "true"
		fields.StaffOnly = &staffOnly
	}

	_, err := a.Registry().EditCategory(ctx, ev.GuildID, ev.Fields["id"], fields)
	return respondOutcome(ev, err, fmt.Sprintf("Category `%s` updated", ev.Fields["id"]))
}

func categoryRemoveHandler(a IApp, ctx context.Context, ev *router.Event) error {
	_, err := a.Registry().RemoveCategory(ctx, ev.GuildID, ev.Fields["id"])
	return respondOutcome(ev, err, fmt.Sprintf("Category `%s` removed from the server and all panels", ev.Fields["id"]))
}

func panelPostHandler(a IApp, ctx context.Context, ev *router.Event) error {
	channelID := ev.Fields["channel"]
	name := ev.Fields["name"]

	cfg, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID))
	if err != nil {
		return fmt.Errorf("error loading guild config: %w", err)
	}

	options := make([]discordgo.SelectMenuOption, 0, len(cfg.TicketCategories))
	categoryIDs := make([]string, 0, len(cfg.TicketCategories))
	for id, c := range cfg.TicketCategories {
		if !c.Enabled {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       c.Name,
			Value:       id,
			Description: c.Description,
			Emoji:       discordgo.ComponentEmoji{Name: c.Emoji},
		})
		categoryIDs = append(categoryIDs, id)
	}
	if len(options) == 0 {
		return ev.Ack.Respond("There are no enabled categories to put on a panel", true)
	}

	message := discordgo.MessageSend{
		Content: fmt.Sprintf("**%s**\nSelect a category below to open a ticket.", name),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    TicketOpenSelectID,
						Placeholder: "Select a category",
						Options:     options,
					},
				},
			},
		},
	}

	if _, err := a.Session().ChannelMessageSendComplex(channelID, &message); err != nil {
		return fmt.Errorf("error sending panel message: %w", err)
	}

	panel, err := a.Registry().AddPanel(ctx, ev.GuildID, name, categoryIDs, channelID)
	if err != nil {
		return respondOutcome(ev, err, "")
	}
	return ev.Ack.Respond(fmt.Sprintf("Panel `%s` posted in <#%s>", panel.Name, channelID), true)
}

func panelRemoveHandler(a IApp, ctx context.Context, ev *router.Event) error {
	panelID := ev.Fields["panel_id"]

	if err := a.Registry().RemovePanel(ctx, ev.GuildID, panelID); err != nil {
		return respondOutcome(ev, err, "")
	}
	return ev.Ack.Respond(fmt.Sprintf("Panel `%s` removed", panelID), true)
}

func resetHandler(a IApp, ctx context.Context, ev *router.Event) error {
	message := discordgo.MessageSend{
		Content: "This will reset the server configuration to defaults. Tickets are kept. Are you sure?",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    fmt.Sprintf("%s Confirm reset", DeleteEmoji),
						Style:    discordgo.DangerButton,
						CustomID: ResetConfirmButtonID,
						Emoji:    discordgo.ComponentEmoji{},
					},
					discordgo.Button{
						Label:    "Cancel",
						Style:    discordgo.SecondaryButton,
						CustomID: ResetCancelButtonID,
						Emoji:    discordgo.ComponentEmoji{},
					},
				},
			},
		},
	}

	if _, err := a.Session().ChannelMessageSendComplex(ev.ChannelID, &message); err != nil {
		return fmt.Errorf("error sending reset confirmation: %w", err)
	}
	return ev.Ack.Respond("Confirm the reset with the buttons below", true)
}

func resetConfirmHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		if ev.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
			return ev.Ack.Respond("You must be an administrator to confirm a reset", true)
		}

		if err := a.Guilds().Reset(ctx, ev.GuildID); err != nil {
			return respondOutcome(ev, err, "")
		}
		return ev.Ack.Respond("Configuration has been reset to defaults", false)
	}
}

func resetCancelHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		return ev.Ack.Respond("Reset cancelled", true)
	}
}

func statsHandler(a IApp, ctx context.Context, ev *router.Event) error {
	stats, err := a.Lifecycle().Stats(ctx, ev.GuildID)
	if err != nil {
		return fmt.Errorf("error getting ticket stats: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("**Ticket stats**\n")
	for _, status := range []entities.TicketStatus{
		entities.StatusOpen,
		entities.StatusAssigned,
		entities.StatusResolved,
		entities.StatusClosed,
		entities.StatusDeleted,
	} {
		sb.WriteString(fmt.Sprintf("%s: %d\n", status, stats[status]))
	}
	return ev.Ack.Respond(sb.String(), true)
}

// guildName resolves a guild's name from the session state, falling back to
// an empty name when the guild is not cached.
func guildName(a IApp, guildID string) string {
	g, err := a.Session().State.Guild(guildID)
	if err != nil || g == nil {
		return ""
	}
	return g.Name
}
