package main

import (
	"github.com/Jacobbrewer1/discordgo"
)

const (
	// setupCmdName is the command for all configuration commands.
	setupCmdName = "setup"

	// ticketCmdName is the command for all ticket actions.
	ticketCmdName = "ticket"

	// enableTicketingCmdName enables ticketing for the guild.
	enableTicketingCmdName = "ticketing_enable"

	// disableTicketingCmdName disables ticketing for the guild.
	disableTicketingCmdName = "ticketing_disable"

	// logsChannelCmdName sets the channel transcripts and logs go to.
	logsChannelCmdName = "logs_channel"

	// roleAddCmdName adds a support role.
	roleAddCmdName = "role_add"

	// roleRemoveCmdName removes a support role.
	roleRemoveCmdName = "role_remove"

	// maxTicketsCmdName sets the per-user open ticket limit.
	maxTicketsCmdName = "max_tickets"

	// categoryAddCmdName adds a ticket category.
	categoryAddCmdName = "category_add"

	// categoryEditCmdName edits a ticket category.
	categoryEditCmdName = "category_edit"

	// categoryRemoveCmdName removes a ticket category.
	categoryRemoveCmdName = "category_remove"

	// panelPostCmdName posts an open-ticket panel to a channel.
	panelPostCmdName = "panel_post"

	// panelRemoveCmdName removes a registered panel.
	panelRemoveCmdName = "panel_remove"

	// resetCmdName starts the configuration reset flow.
	resetCmdName = "reset"

	// statsCmdName reports ticket counts by status.
	statsCmdName = "stats"

	// claimCmdName assigns the ticket to the caller.
	claimCmdName = "claim"

	// transferCmdName reassigns the ticket to another staff member.
	transferCmdName = "transfer"

	// urgentCmdName marks the ticket as urgent.
	urgentCmdName = "urgent"

	// closeCmdName closes the ticket.
	closeCmdName = "close"

	// resolveCmdName resolves the ticket.
	resolveCmdName = "resolve"

	// deleteCmdName deletes the ticket.
	deleteCmdName = "delete"
)

const (
	// TicketOpenSelectID is the custom ID of the panel category select menu.
	TicketOpenSelectID = "ticket_open_select"

	// TicketOpenPrefix prefixes per-category open buttons. The category ID
	// follows the prefix.
	TicketOpenPrefix = "ticket_open_"

	// ClaimTicketButtonID is the custom ID of the claim button.
	ClaimTicketButtonID = "claim_ticket"

	// TransferTicketButtonID is the custom ID of the transfer button.
	TransferTicketButtonID = "transfer_ticket"

	// UrgentTicketButtonID is the custom ID of the mark urgent button.
	UrgentTicketButtonID = "urgent_ticket"

	// CloseTicketButtonID is the custom ID of the close button.
	CloseTicketButtonID = "close_ticket"

	// ResolveTicketButtonID is the custom ID of the resolve button.
	ResolveTicketButtonID = "resolve_ticket"

	// DeleteTicketButtonID is the custom ID of the delete button.
	DeleteTicketButtonID = "delete_ticket"

	// ResetConfirmButtonID confirms a pending configuration reset.
	ResetConfirmButtonID = "setup_reset_confirm"

	// ResetCancelButtonID cancels a pending configuration reset.
	ResetCancelButtonID = "setup_reset_cancel"

	// TransferModalID is the custom ID of the transfer modal.
	TransferModalID = "transfer_ticket_modal"

	// TransferUserFieldID is the modal field holding the new assignee ID.
	TransferUserFieldID = "transfer_user_id"

	// TransferReasonFieldID is the modal field holding the transfer reason.
	TransferReasonFieldID = "transfer_reason"
)

const (
	// ClaimEmoji is the emoji used for the claim button. (Ticket)
	ClaimEmoji = "\U0001F3AB"

	// TransferEmoji is the emoji used for the transfer button. (Arrows)
	TransferEmoji = "\U0001F501"

	// UrgentEmoji is the emoji used for the urgent button. (Rotating light)
	UrgentEmoji = "\U0001F6A8"

	// CloseEmoji is the emoji used for the close button. (Padlock)
	CloseEmoji = "\U0001F510"

	// ResolveEmoji is the emoji used for the resolve button. (Check mark)
	ResolveEmoji = "✅"

	// DeleteEmoji is the emoji used for the delete button. (Cross)
	DeleteEmoji = "❌"
)

var (
	// setupCmd is the command for all configuration commands.
	setupCmd = &discordgo.ApplicationCommand{
		Name:        setupCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for all configuration commands.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        enableTicketingCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This will enable ticketing for your server.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "role",
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role you want to handle tickets.",
						Required:    true,
					},
					{
						Name:        "logs_channel",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel transcripts and logs will be sent to.",
						Required:    false,
					},
				},
			},
			{
				Name:        disableTicketingCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This will disable ticketing for your server.",
			},
			{
				Name:        logsChannelCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets the channel transcripts and logs are sent to.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel transcripts and logs will be sent to.",
						Required:    true,
					},
				},
			},
			{
				Name:        roleAddCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This adds a role that can handle tickets.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "role",
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role to add.",
						Required:    true,
					},
				},
			},
			{
				Name:        roleRemoveCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This removes a role from handling tickets.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "role",
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role to remove.",
						Required:    true,
					},
				},
			},
			{
				Name:        maxTicketsCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets how many open tickets a user may have at once.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "amount",
						Type:        discordgo.ApplicationCommandOptionInteger,
						Description: "This is the maximum number of open tickets per user.",
						Required:    true,
					},
				},
			},
			{
				Name:        categoryAddCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This adds a ticket category.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "id",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the category identifier (lowercase letters, digits, - and _).",
						Required:    true,
					},
					{
						Name:        "name",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the category display name.",
						Required:    true,
					},
					{
						Name:        "emoji",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the emoji shown for the category.",
						Required:    false,
					},
					{
						Name:        "description",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the category description.",
						Required:    false,
					},
					{
						Name:        "parent_channel",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel category new tickets are created under.",
						Required:    false,
					},
					{
						Name:        "staff_only",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "This restricts opening tickets in this category to staff.",
						Required:    false,
					},
				},
			},
			{
				Name:        categoryEditCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This edits a ticket category.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "id",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the category identifier.",
						Required:    true,
					},
					{
						Name:        "name",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the category display name.",
						Required:    false,
					},
					{
						Name:        "emoji",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the emoji shown for the category.",
						Required:    false,
					},
					{
						Name:        "description",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the category description.",
						Required:    false,
					},
					{
						Name:        "enabled",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "This enables or disables the category.",
						Required:    false,
					},
					{
						Name:        "staff_only",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "This restricts opening tickets in this category to staff.",
						Required:    false,
					},
				},
			},
			{
				Name:        categoryRemoveCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This removes a ticket category and takes it off all panels.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "id",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the category identifier.",
						Required:    true,
					},
				},
			},
			{
				Name:        panelPostCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This posts an open-ticket panel to a channel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel to post the panel in.",
						Required:    true,
					},
					{
						Name:        "name",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the panel name.",
						Required:    true,
					},
				},
			},
			{
				Name:        panelRemoveCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This removes a registered open-ticket panel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "panel_id",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the panel identifier.",
						Required:    true,
					},
				},
			},
			{
				Name:        resetCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This resets the server configuration to defaults.",
			},
			{
				Name:        statsCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This reports ticket counts by status.",
			},
		},
	}

	// ticketCmd is the command for all ticket actions.
	ticketCmd = &discordgo.ApplicationCommand{
		Name:        ticketCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for all ticket actions.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        claimCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This assigns the ticket in this channel to you.",
			},
			{
				Name:        transferCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This reassigns the ticket in this channel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "user",
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "This is the staff member to transfer the ticket to.",
						Required:    true,
					},
					{
						Name:        "reason",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the reason for the transfer.",
						Required:    false,
					},
				},
			},
			{
				Name:        urgentCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This marks the ticket in this channel as urgent.",
			},
			{
				Name:        closeCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This closes the ticket in this channel.",
			},
			{
				Name:        resolveCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This resolves the ticket in this channel.",
			},
			{
				Name:        deleteCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This deletes the ticket in this channel.",
			},
		},
	}
)
