package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/cmd/bot/monitoring"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/messages"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/router"
)

// registerTicketRoutes registers the ticket command, the panel components
// and the in-ticket action buttons.
func registerTicketRoutes(a IApp, rt *router.Router) {
	rt.Register(router.KindCommand, ticketCmdName, ticketCmdHandler(a))

	// Panel entry points.
	rt.Register(router.KindComponent, TicketOpenSelectID, openTicketHandler(a))
	rt.RegisterPrefix(router.KindComponent, TicketOpenPrefix, openTicketHandler(a))

	// In-ticket action buttons.
	rt.Register(router.KindComponent, ClaimTicketButtonID, claimTicketHandler(a))
	rt.Register(router.KindComponent, TransferTicketButtonID, transferTicketButtonHandler(a))
	rt.Register(router.KindComponent, UrgentTicketButtonID, urgentTicketHandler(a))
	rt.Register(router.KindComponent, CloseTicketButtonID, closeTicketHandler(a))
	rt.Register(router.KindComponent, ResolveTicketButtonID, resolveTicketHandler(a))
	rt.Register(router.KindComponent, DeleteTicketButtonID, deleteTicketHandler(a))

	// Transfer modal submission.
	rt.Register(router.KindModal, TransferModalID, transferTicketModalHandler(a))
}

func ticketCmdHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		switch ev.Fields["subcommand"] {
		case claimCmdName:
			return claimTicketHandler(a)(ctx, ev)
		case transferCmdName:
			return transferTicket(a, ctx, ev, ev.Fields["user"], ev.Fields["reason"])
		case urgentCmdName:
			return urgentTicketHandler(a)(ctx, ev)
		case closeCmdName:
			return closeTicketHandler(a)(ctx, ev)
		case resolveCmdName:
			return resolveTicketHandler(a)(ctx, ev)
		case deleteCmdName:
			return deleteTicketHandler(a)(ctx, ev)
		default:
			return fmt.Errorf("unhandled sub command %s", ev.Fields["subcommand"])
		}
	}
}

func openTicketHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		var categoryID string
		switch {
		case len(ev.Values) > 0:
			categoryID = ev.Values[0]
		case strings.HasPrefix(ev.ID, TicketOpenPrefix):
			categoryID = strings.TrimPrefix(ev.ID, TicketOpenPrefix)
		default:
			return ev.Ack.Respond(messages.ErrUserErrorProcessing, true)
		}

		ticket, err := a.Lifecycle().Create(ctx, ev.GuildID, actorFromEvent(ev), categoryID)
		if err != nil {
			return respondOutcome(ev, err, "")
		}

		monitoring.TicketTransitions.WithLabelValues("created").Inc()

		// Give the opener and staff the in-ticket action buttons.
		sendTicketActions(a, ticket)

		cfg, err := a.Guilds().GetOrCreate(ctx, ev.GuildID, guildName(a, ev.GuildID))
		template := messages.DefaultTicketCreated
		if err == nil && cfg.Messages.TicketCreated != "" {
			template = cfg.Messages.TicketCreated
		}
		return ev.Ack.Respond(messages.Render(template, ev.UserID, ticket.ChannelID), true)
	}
}

// sendTicketActions posts the action button row to a new ticket channel. A
// failure leaves the ticket usable through the slash command, so it is only
// logged.
func sendTicketActions(a IApp, ticket *entities.Ticket) {
	message := discordgo.MessageSend{
		Content: fmt.Sprintf("Actions for %s", ticket.TicketID),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    fmt.Sprintf("%s Claim", ClaimEmoji),
						Style:    discordgo.PrimaryButton,
						CustomID: ClaimTicketButtonID,
						Emoji:    discordgo.ComponentEmoji{},
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Transfer", TransferEmoji),
						Style:    discordgo.SecondaryButton,
						CustomID: TransferTicketButtonID,
						Emoji:    discordgo.ComponentEmoji{},
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Urgent", UrgentEmoji),
						Style:    discordgo.SecondaryButton,
						CustomID: UrgentTicketButtonID,
						Emoji:    discordgo.ComponentEmoji{},
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Resolve", ResolveEmoji),
						Style:    discordgo.SuccessButton,
						CustomID: ResolveTicketButtonID,
						Emoji:    discordgo.ComponentEmoji{},
					},
					discordgo.Button{
						Label:    fmt.Sprintf("%s Close", CloseEmoji),
						Style:    discordgo.DangerButton,
						CustomID: CloseTicketButtonID,
						Emoji:    discordgo.ComponentEmoji{},
					},
				},
			},
		},
	}

	if _, err := a.Session().ChannelMessageSendComplex(ticket.ChannelID, &message); err != nil {
		a.Log().Warn("Error sending ticket action buttons",
			slog.String(logging.KeyTicketID, ticket.TicketID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

func claimTicketHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		ticket, err := a.Lifecycle().Assign(ctx, ev.GuildID, ev.ChannelID, actorFromEvent(ev))
		if err != nil {
			return respondOutcome(ev, err, "")
		}

		monitoring.TicketTransitions.WithLabelValues("assigned").Inc()
		return ev.Ack.Respond(fmt.Sprintf("%s is now handled by <@%s>", ticket.TicketID, ev.UserID), false)
	}
}

func transferTicketButtonHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		return ev.Ack.Prompt(TransferModalID, "Transfer ticket", []router.PromptField{
			{
				ID:          TransferUserFieldID,
				Label:       "New assignee user ID",
				Placeholder: "The user ID of the staff member to transfer to",
				Required:    true,
			},
			{
				ID:          TransferReasonFieldID,
				Label:       "Reason",
				Placeholder: "Why is this ticket being transferred?",
				Paragraph:   true,
			},
		})
	}
}

func transferTicketModalHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		return transferTicket(a, ctx, ev, ev.Fields[TransferUserFieldID], ev.Fields[TransferReasonFieldID])
	}
}

func transferTicket(a IApp, ctx context.Context, ev *router.Event, newAssigneeID, reason string) error {
	newAssigneeID = strings.TrimSpace(newAssigneeID)
	if newAssigneeID == "" {
		return ev.Ack.Respond("A user to transfer to is required", true)
	}

	// Resolve the assignee's username for the channel name.
	handle := ""
	if u, err := a.Session().User(newAssigneeID); err == nil && u != nil {
		handle = u.Username
	}

	ticket, err := a.Lifecycle().Transfer(ctx, ev.GuildID, ev.ChannelID, actorFromEvent(ev), newAssigneeID, handle, reason)
	if err != nil {
		return respondOutcome(ev, err, "")
	}

	monitoring.TicketTransitions.WithLabelValues("transferred").Inc()
	return ev.Ack.Respond(fmt.Sprintf("%s has been transferred to <@%s>", ticket.TicketID, newAssigneeID), false)
}

func urgentTicketHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		ticket, err := a.Lifecycle().MarkUrgent(ctx, ev.GuildID, ev.ChannelID, actorFromEvent(ev))
		if err != nil {
			return respondOutcome(ev, err, "")
		}

		monitoring.TicketTransitions.WithLabelValues("marked_urgent").Inc()
		return ev.Ack.Respond(fmt.Sprintf("%s %s is now marked as urgent", UrgentEmoji, ticket.TicketID), false)
	}
}

func closeTicketHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		ticket, err := a.Lifecycle().Close(ctx, ev.GuildID, ev.ChannelID, actorFromEvent(ev))
		if err != nil {
			return respondOutcome(ev, err, "")
		}

		monitoring.TicketTransitions.WithLabelValues("closed").Inc()
		return ev.Ack.Respond(messages.Render(messages.DefaultTicketClosed, ev.UserID, ticket.ChannelID), false)
	}
}

func resolveTicketHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		ticket, err := a.Lifecycle().Resolve(ctx, ev.GuildID, ev.ChannelID, actorFromEvent(ev))
		if err != nil {
			return respondOutcome(ev, err, "")
		}

		monitoring.TicketTransitions.WithLabelValues("resolved").Inc()
		return ev.Ack.Respond(fmt.Sprintf("%s %s has been resolved. This channel will be removed shortly", ResolveEmoji, ticket.TicketID), false)
	}
}

func deleteTicketHandler(a IApp) router.Handler {
	return func(ctx context.Context, ev *router.Event) error {
		ticket, err := a.Lifecycle().Delete(ctx, ev.GuildID, ev.ChannelID, actorFromEvent(ev))
		if err != nil {
			return respondOutcome(ev, err, "")
		}

		monitoring.TicketTransitions.WithLabelValues("deleted").Inc()
		return ev.Ack.Respond(fmt.Sprintf("%s has been deleted. This channel will be removed shortly", ticket.TicketID), true)
	}
}
